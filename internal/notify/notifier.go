package notify

import (
	"context"

	"github.com/ardiwinata/futsal-booking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender delivers booking notifications to customers. The delivery channel
// (SMS/WhatsApp gateway) sits behind this type; for now it logs.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	logrus.WithFields(logrus.Fields{
		"customer_id": event.CustomerID,
		"booking":     event.BookingNumber,
		"type":        event.Type,
		"status":      event.Status,
	}).Info("sending booking notification")
	return nil
}
