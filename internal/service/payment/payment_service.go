package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/kafka"
	"github.com/ardiwinata/futsal-booking/internal/repository"
	"github.com/ardiwinata/futsal-booking/internal/service/authz"
	"github.com/sirupsen/logrus"
)

type PaymentUseCase interface {
	RecordPayment(ctx context.Context, actor domain.Actor, input RecordPaymentInput) (*domain.Payment, error)
	ConfirmPayment(ctx context.Context, actor domain.Actor, paymentID int64, input ConfirmPaymentInput) (*domain.Payment, error)
	FailPayment(ctx context.Context, actor domain.Actor, paymentID int64, reason string) (*domain.Payment, error)
	RefundPayment(ctx context.Context, actor domain.Actor, paymentID int64, reason string) (*domain.Payment, error)
	GetPayment(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	uow          repository.UnitOfWork
	gate         *authz.Gate
	producer     Producer
	paymentTopic string
}

type RecordPaymentInput struct {
	BookingID       int64  `json:"booking_id"`
	Method          string `json:"method"`
	Amount          int64  `json:"amount"`
	ReferenceNumber string `json:"reference_number"`
}

type ConfirmPaymentInput struct {
	Amount          int64  `json:"amount"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes"`
}

func NewPaymentService(uow repository.UnitOfWork, gate *authz.Gate, producer Producer, paymentTopic string) *PaymentService {
	return &PaymentService{
		uow:          uow,
		gate:         gate,
		producer:     producer,
		paymentTopic: paymentTopic,
	}
}

// RecordPayment registers a cashier-entered payment attempt for a booking.
func (s *PaymentService) RecordPayment(ctx context.Context, actor domain.Actor, input RecordPaymentInput) (*domain.Payment, error) {
	if err := s.gate.Require(actor, authz.ActionPaymentRecord); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, domain.InvalidInput("amount must be a positive number")
	}
	method := domain.PaymentMethod(input.Method)
	if !method.IsValid() {
		return nil, domain.InvalidInput("unknown payment method %q", input.Method)
	}

	payment := &domain.Payment{
		BookingID:       input.BookingID,
		Method:          method,
		Amount:          input.Amount,
		Status:          domain.PaymentStatusPending,
		ReferenceNumber: input.ReferenceNumber,
		ProcessedBy:     actorTag(actor),
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := store.GetBookingForUpdate(ctx, input.BookingID); err != nil {
			return err
		}
		if err := store.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return store.AppendPaymentLog(ctx, &domain.PaymentLogRecord{
			PaymentID:       payment.ID,
			Action:          domain.PaymentActionRecorded,
			StatusTo:        domain.PaymentStatusPending,
			ProcessedByID:   actor.ID,
			ProcessedByRole: actor.Role,
			Notes:           "manual payment recorded",
		})
	})
	if err != nil {
		return nil, storageError(err, "record payment")
	}

	s.publishPayment(ctx, "payment_recorded", payment)
	return payment, nil
}

// ConfirmPayment moves a pending payment to paid and flips the parent
// booking's payment_status inside the same transaction, so the two can never
// be observed inconsistent. Confirming an already-paid payment, or any attempt
// for a booking that already has a paid one, is rejected as ALREADY_PROCESSED
// without a duplicate log record.
func (s *PaymentService) ConfirmPayment(ctx context.Context, actor domain.Actor, paymentID int64, input ConfirmPaymentInput) (*domain.Payment, error) {
	if err := s.gate.Require(actor, authz.ActionPaymentConfirm); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, domain.InvalidInput("amount must be a positive number")
	}

	var payment *domain.Payment
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		p, err := store.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentStatusPaid {
			return domain.AlreadyProcessed("payment %d is already paid", p.ID)
		}
		if !p.Status.CanTransitionTo(domain.PaymentStatusPaid) {
			return domain.InvalidTransition("cannot confirm a %s payment", p.Status)
		}

		b, err := store.GetBookingForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}

		// A booking holds at most one paid attempt. The booking row lock above
		// serializes concurrent confirmations of sibling attempts.
		attempts, err := store.PaymentsByBooking(ctx, p.BookingID)
		if err != nil {
			return err
		}
		for _, other := range attempts {
			if other.ID != p.ID && other.Status == domain.PaymentStatusPaid {
				return domain.AlreadyProcessed("booking %d already has a paid payment", p.BookingID)
			}
		}

		notes := input.Notes
		if input.Amount != b.TotalAmount {
			// Reconciliation mismatches are reported, not blocking.
			mismatch := fmt.Sprintf("amount %d does not match booking total %d", input.Amount, b.TotalAmount)
			if notes != "" {
				notes += "; "
			}
			notes += mismatch
			logrus.WithFields(logrus.Fields{"payment_id": p.ID, "amount": input.Amount, "total": b.TotalAmount}).
				Warn("payment amount mismatch at confirmation")
		}

		from := p.Status
		p.Status = domain.PaymentStatusPaid
		p.Amount = input.Amount
		if input.ReferenceNumber != "" {
			p.ReferenceNumber = input.ReferenceNumber
		}
		p.ProcessedBy = actorTag(actor)
		if err := store.UpdatePayment(ctx, p); err != nil {
			return err
		}

		if input.Amount < b.TotalAmount {
			b.PaymentStatus = domain.PaymentStatusPartial
		} else {
			b.PaymentStatus = domain.PaymentStatusPaid
		}
		if err := store.UpdateBooking(ctx, b); err != nil {
			return err
		}

		if err := store.AppendPaymentLog(ctx, &domain.PaymentLogRecord{
			PaymentID:       p.ID,
			Action:          domain.PaymentActionConfirmed,
			StatusFrom:      from,
			StatusTo:        domain.PaymentStatusPaid,
			ProcessedByID:   actor.ID,
			ProcessedByRole: actor.Role,
			Notes:           notes,
		}); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, storageError(err, "confirm payment")
	}

	s.publishPayment(ctx, "payment_confirmed", payment)
	return payment, nil
}

func (s *PaymentService) FailPayment(ctx context.Context, actor domain.Actor, paymentID int64, reason string) (*domain.Payment, error) {
	if err := s.gate.Require(actor, authz.ActionPaymentFail); err != nil {
		return nil, err
	}
	payment, err := s.flip(ctx, actor, paymentID, domain.PaymentStatusFailed, domain.PaymentActionFailed, reason,
		func(b *domain.Booking) {
			if b.PaymentStatus == domain.PaymentStatusPending {
				b.PaymentStatus = domain.PaymentStatusFailed
			}
		})
	if err != nil {
		return nil, err
	}
	s.publishPayment(ctx, "payment_failed", payment)
	return payment, nil
}

// RefundPayment reverses a paid payment. Manager approval is the floor.
func (s *PaymentService) RefundPayment(ctx context.Context, actor domain.Actor, paymentID int64, reason string) (*domain.Payment, error) {
	if err := s.gate.Require(actor, authz.ActionPaymentRefund); err != nil {
		return nil, err
	}
	payment, err := s.flip(ctx, actor, paymentID, domain.PaymentStatusRefunded, domain.PaymentActionRefunded, reason,
		func(b *domain.Booking) {
			b.PaymentStatus = domain.PaymentStatusRefunded
		})
	if err != nil {
		return nil, err
	}
	s.publishPayment(ctx, "payment_refunded", payment)
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	if err := s.gate.Require(actor, authz.ActionTrackingView); err != nil {
		return nil, err
	}
	p, err := s.uow.Store().GetPayment(ctx, id)
	if err != nil {
		return nil, storageError(err, "load payment")
	}
	b, err := s.uow.Store().GetBooking(ctx, p.BookingID)
	if err != nil {
		return nil, storageError(err, "load booking")
	}
	if err := s.gate.RequireOwnerOr(actor, b.CustomerID, domain.RoleStaffKasir); err != nil {
		return nil, err
	}
	return p, nil
}

// flip executes a one-way payment transition plus the matching booking
// payment_status adjustment and log append, all in one transaction.
func (s *PaymentService) flip(ctx context.Context, actor domain.Actor, paymentID int64, target domain.PaymentStatus, action domain.PaymentLogAction, reason string, adjust func(*domain.Booking)) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		p, err := store.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == target {
			return domain.AlreadyProcessed("payment %d is already %s", p.ID, target)
		}
		if !p.Status.CanTransitionTo(target) {
			return domain.InvalidTransition("cannot move payment from %s to %s", p.Status, target)
		}

		b, err := store.GetBookingForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}

		from := p.Status
		p.Status = target
		p.ProcessedBy = actorTag(actor)
		if err := store.UpdatePayment(ctx, p); err != nil {
			return err
		}

		adjust(b)
		if err := store.UpdateBooking(ctx, b); err != nil {
			return err
		}

		if err := store.AppendPaymentLog(ctx, &domain.PaymentLogRecord{
			PaymentID:       p.ID,
			Action:          action,
			StatusFrom:      from,
			StatusTo:        target,
			ProcessedByID:   actor.ID,
			ProcessedByRole: actor.Role,
			Notes:           reason,
		}); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, storageError(err, "update payment")
	}
	return payment, nil
}

func (s *PaymentService) publishPayment(ctx context.Context, eventType string, p *domain.Payment) {
	if s.producer == nil || s.paymentTopic == "" {
		return
	}
	event := kafka.PaymentEvent{
		Type:       eventType,
		PaymentID:  p.ID,
		BookingID:  p.BookingID,
		Method:     string(p.Method),
		Amount:     p.Amount,
		Status:     string(p.Status),
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.paymentTopic, p.ReferenceNumber, event); err != nil {
		logrus.WithError(err).WithField("payment_id", p.ID).Warn("failed to publish payment event")
	}
}

func actorTag(actor domain.Actor) string {
	return fmt.Sprintf("%s:%d", actor.Role, actor.ID)
}

func storageError(err error, op string) error {
	if domain.KindOf(err) != "" {
		return err
	}
	logrus.WithError(err).WithField("op", op).Error("storage failure")
	return domain.PersistenceFailure("%s failed", op)
}

var _ PaymentUseCase = (*PaymentService)(nil)
