package domain

import "time"

// PaymentStatus is shared by payments and the booking payment_status guard
// field. "partial" only ever appears on bookings, when a confirmed payment
// covers less than the booking total.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

// paymentTransitions is the transition graph for payment entities.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range paymentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodQRIS     PaymentMethod = "qris"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodQRIS:
		return true
	default:
		return false
	}
}

// Payment is one payment attempt for a booking. A booking may accumulate
// several attempts but only one may hold "paid" at a time.
type Payment struct {
	ID              int64         `json:"id"`
	BookingID       int64         `json:"booking_id"`
	Method          PaymentMethod `json:"method"`
	Amount          int64         `json:"amount"`
	Status          PaymentStatus `json:"status"`
	ReferenceNumber string        `json:"reference_number"`
	ProcessedBy     string        `json:"processed_by"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
