package booking

import (
	"context"
	"strings"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/kafka"
	"github.com/ardiwinata/futsal-booking/internal/repository"
	"github.com/ardiwinata/futsal-booking/internal/service/authz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error)
	TransitionBooking(ctx context.Context, actor domain.Actor, bookingID int64, target domain.BookingStatus, reason string) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error)
	ListCustomerBookings(ctx context.Context, actor domain.Actor, customerID int64) ([]domain.Booking, error)
	ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireSlotLock(ctx context.Context, fieldID int64, date, startTime string, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, fieldID int64, date, startTime string) error
	GetFields(ctx context.Context) ([]domain.Field, error)
	SetFields(ctx context.Context, fields []domain.Field) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	uow                repository.UnitOfWork
	fields             repository.FieldRepository
	gate               *authz.Gate
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	slotLockTTL        time.Duration
	paymentHold        time.Duration
}

type CreateBookingInput struct {
	FieldID   int64  `json:"field_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Method    string `json:"method"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	uow repository.UnitOfWork,
	fields repository.FieldRepository,
	gate *authz.Gate,
	cache Cache,
	producer Producer,
	bookingTopic string,
	slotLockTTL, paymentHold time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		uow:          uow,
		fields:       fields,
		gate:         gate,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		slotLockTTL:  slotLockTTL,
		paymentHold:  paymentHold,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// transitionActions maps each target status to its gated action.
var transitionActions = map[domain.BookingStatus]authz.Action{
	domain.BookingStatusConfirmed: authz.ActionBookingConfirm,
	domain.BookingStatusRejected:  authz.ActionBookingReject,
	domain.BookingStatusCompleted: authz.ActionBookingComplete,
	domain.BookingStatusCancelled: authz.ActionBookingCancel,
}

func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error) {
	if err := s.gate.Require(actor, authz.ActionBookingCreate); err != nil {
		return nil, err
	}

	date, err := time.Parse(dateFormat, input.Date)
	if err != nil {
		return nil, domain.InvalidInput("date must be in %s format", dateFormat)
	}
	start, err := time.Parse(timeFormat, input.StartTime)
	if err != nil {
		return nil, domain.InvalidInput("start_time must be in %s format", timeFormat)
	}
	end, err := time.Parse(timeFormat, input.EndTime)
	if err != nil {
		return nil, domain.InvalidInput("end_time must be in %s format", timeFormat)
	}
	if !end.After(start) {
		return nil, domain.InvalidInput("end_time must be after start_time")
	}
	method := domain.PaymentMethod(input.Method)
	if input.Method == "" {
		method = domain.PaymentMethodTransfer
	}
	if !method.IsValid() {
		return nil, domain.InvalidInput("unknown payment method %q", input.Method)
	}

	field, err := s.fields.GetByID(ctx, input.FieldID)
	if err != nil {
		return nil, storageError(err, "load field")
	}

	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSlotLock(ctx, field.ID, input.Date, input.StartTime, s.slotLockTTL)
		if err != nil {
			return nil, storageError(err, "acquire slot lock")
		}
		if !ok {
			return nil, domain.InvalidInput("time slot is already held by another request")
		}
		locked = true
	}

	minutes := int64(end.Sub(start) / time.Minute)
	booking := &domain.Booking{
		BookingNumber: newBookingNumber(),
		FieldID:       field.ID,
		CustomerID:    actor.ID,
		Date:          date,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		TotalAmount:   field.HourlyRate * minutes / 60,
	}
	payment := &domain.Payment{
		Method:          method,
		Amount:          booking.TotalAmount,
		Status:          domain.PaymentStatusPending,
		ReferenceNumber: newReferenceNumber(),
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.CreateBooking(ctx, booking); err != nil {
			return err
		}
		payment.BookingID = booking.ID
		if err := store.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return store.AppendPaymentLog(ctx, &domain.PaymentLogRecord{
			PaymentID:       payment.ID,
			Action:          domain.PaymentActionRecorded,
			StatusTo:        domain.PaymentStatusPending,
			ProcessedByID:   actor.ID,
			ProcessedByRole: actor.Role,
			Notes:           "payment created with booking",
		})
	})
	if err != nil {
		if locked {
			_ = s.cache.ReleaseSlotLock(ctx, field.ID, input.Date, input.StartTime)
		}
		return nil, storageError(err, "create booking")
	}

	s.publishBooking(ctx, "booking_created", booking)
	return booking, nil
}

// TransitionBooking runs the gated state machine. Guards run in fixed order:
// authorization, existence, transition validity, payment gate. The payment
// gate is evaluated under the booking row lock, so a confirmed booking can
// never coexist with an unpaid status.
func (s *BookingService) TransitionBooking(ctx context.Context, actor domain.Actor, bookingID int64, target domain.BookingStatus, reason string) (*domain.Booking, error) {
	if !target.IsValid() {
		return nil, domain.InvalidInput("unknown booking status %q", target)
	}
	action, ok := transitionActions[target]
	if !ok {
		return nil, domain.InvalidTransition("no transition leads to %s", target)
	}
	if err := s.gate.Require(actor, action); err != nil {
		return nil, err
	}

	var booking *domain.Booking
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		b, err := store.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if target == domain.BookingStatusCancelled {
			if err := s.gate.RequireOwnerOr(actor, b.CustomerID, domain.RoleStaffKasir); err != nil {
				return err
			}
		}

		if b.Status == target {
			return domain.InvalidTransition("booking is already %s", target)
		}
		if b.Status.IsTerminal() {
			return domain.InvalidTransition("booking is %s, a terminal state", b.Status)
		}
		if !b.Status.CanTransitionTo(target) {
			return domain.InvalidTransition("cannot move booking from %s to %s", b.Status, target)
		}
		if target == domain.BookingStatusConfirmed && b.PaymentStatus != domain.PaymentStatusPaid {
			return domain.PaymentNotCompleted("booking payment status is %s", b.PaymentStatus)
		}

		from := b.Status
		b.Status = target
		if err := store.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if err := store.AppendBookingHistory(ctx, &domain.BookingHistoryRecord{
			BookingID:     b.ID,
			StatusFrom:    from,
			StatusTo:      target,
			ChangedByID:   actor.ID,
			ChangedByRole: actor.Role,
			Reason:        reason,
		}); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, storageError(err, "transition booking")
	}

	s.publishBooking(ctx, "booking_"+string(target), booking)
	if s.cache != nil && (target == domain.BookingStatusCancelled || target == domain.BookingStatusRejected) {
		_ = s.cache.ReleaseSlotLock(ctx, booking.FieldID, booking.Date.Format(dateFormat), booking.StartTime)
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if err := s.gate.Require(actor, authz.ActionTrackingView); err != nil {
		return nil, err
	}
	b, err := s.uow.Store().GetBooking(ctx, id)
	if err != nil {
		return nil, storageError(err, "load booking")
	}
	if err := s.gate.RequireOwnerOr(actor, b.CustomerID, domain.RoleStaffKasir); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingService) ListCustomerBookings(ctx context.Context, actor domain.Actor, customerID int64) ([]domain.Booking, error) {
	if err := s.gate.Require(actor, authz.ActionTrackingView); err != nil {
		return nil, err
	}
	if err := s.gate.RequireOwnerOr(actor, customerID, domain.RoleStaffKasir); err != nil {
		return nil, err
	}
	bookings, err := s.uow.Store().BookingsByCustomer(ctx, customerID)
	if err != nil {
		return nil, storageError(err, "list bookings")
	}
	return bookings, nil
}

// ExpireUnpaidBookings cancels pending bookings whose payment hold has lapsed.
// Each booking is re-read under a row lock so a payment confirmed between the
// scan and the sweep keeps its booking alive. Partially paid bookings are
// never swept; they wait for staff review.
func (s *BookingService) ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := time.Now().Add(-s.paymentHold)
	ids, err := s.uow.Store().PendingUnpaidBefore(ctx, deadline)
	if err != nil {
		return nil, storageError(err, "scan expired bookings")
	}

	system := domain.Actor{ID: 0, Role: domain.RoleSupervisorSistem}
	var expired []domain.Booking
	for _, id := range ids {
		var b *domain.Booking
		err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
			current, err := store.GetBookingForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if current.Status != domain.BookingStatusPending ||
				current.PaymentStatus == domain.PaymentStatusPaid ||
				current.PaymentStatus == domain.PaymentStatusPartial {
				return nil
			}
			from := current.Status
			current.Status = domain.BookingStatusCancelled
			if err := store.UpdateBooking(ctx, current); err != nil {
				return err
			}
			if err := store.AppendBookingHistory(ctx, &domain.BookingHistoryRecord{
				BookingID:     current.ID,
				StatusFrom:    from,
				StatusTo:      domain.BookingStatusCancelled,
				ChangedByID:   system.ID,
				ChangedByRole: system.Role,
				Reason:        "payment hold expired",
			}); err != nil {
				return err
			}
			b = current
			return nil
		})
		if err != nil {
			logrus.WithError(err).WithField("booking_id", id).Error("failed to expire booking")
			continue
		}
		if b == nil {
			continue
		}
		expired = append(expired, *b)
		s.publishBooking(ctx, "booking_expired", b)
		if s.cache != nil {
			_ = s.cache.ReleaseSlotLock(ctx, b.FieldID, b.Date.Format(dateFormat), b.StartTime)
		}
	}
	return expired, nil
}

func (s *BookingService) publishBooking(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingNumber: b.BookingNumber,
		BookingID:     b.ID,
		FieldID:       b.FieldID,
		CustomerID:    b.CustomerID,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		TotalAmount:   b.TotalAmount,
		OccurredAt:    time.Now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.BookingNumber, event); err != nil {
		logrus.WithError(err).WithField("booking", b.BookingNumber).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.BookingNumber, event); err != nil {
			logrus.WithError(err).WithField("booking", b.BookingNumber).Warn("failed to publish notification event")
		}
	}
}

func newBookingNumber() string {
	return "FB-" + strings.ToUpper(uuid.NewString()[:8])
}

func newReferenceNumber() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:8])
}

// storageError keeps domain errors intact and turns everything else into
// PERSISTENCE_FAILURE without leaking driver detail to the caller.
func storageError(err error, op string) error {
	if domain.KindOf(err) != "" {
		return err
	}
	logrus.WithError(err).WithField("op", op).Error("storage failure")
	return domain.PersistenceFailure("%s failed", op)
}

var _ BookingUseCase = (*BookingService)(nil)
