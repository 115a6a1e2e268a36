package tracking

import (
	"context"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/repository"
	"github.com/ardiwinata/futsal-booking/internal/service/authz"
	"github.com/sirupsen/logrus"
)

type TrackingUseCase interface {
	BookingHistory(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.BookingHistoryRecord, error)
	PaymentLogs(ctx context.Context, actor domain.Actor, paymentID int64) ([]domain.PaymentLogRecord, error)
	Timeline(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.TimelineEvent, error)
}

// TrackingService serves the read-only audit views. Customers see their own
// bookings; staff_kasir and above see everything.
type TrackingService struct {
	uow  repository.UnitOfWork
	gate *authz.Gate
}

func NewTrackingService(uow repository.UnitOfWork, gate *authz.Gate) *TrackingService {
	return &TrackingService{uow: uow, gate: gate}
}

func (s *TrackingService) BookingHistory(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.BookingHistoryRecord, error) {
	if err := s.authorizeBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	records, err := s.uow.Store().BookingHistory(ctx, bookingID)
	if err != nil {
		return nil, storageError(err, "load booking history")
	}
	return records, nil
}

func (s *TrackingService) PaymentLogs(ctx context.Context, actor domain.Actor, paymentID int64) ([]domain.PaymentLogRecord, error) {
	if err := s.gate.Require(actor, authz.ActionTrackingView); err != nil {
		return nil, err
	}
	p, err := s.uow.Store().GetPayment(ctx, paymentID)
	if err != nil {
		return nil, storageError(err, "load payment")
	}
	if err := s.ownerCheck(ctx, actor, p.BookingID); err != nil {
		return nil, err
	}
	logs, err := s.uow.Store().PaymentLogs(ctx, paymentID)
	if err != nil {
		return nil, storageError(err, "load payment logs")
	}
	return logs, nil
}

// Timeline merges booking history with the logs of all the booking's payments,
// ordered by created_at with insertion order breaking ties.
func (s *TrackingService) Timeline(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.TimelineEvent, error) {
	if err := s.authorizeBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	store := s.uow.Store()
	history, err := store.BookingHistory(ctx, bookingID)
	if err != nil {
		return nil, storageError(err, "load booking history")
	}
	logs, err := store.PaymentLogsByBooking(ctx, bookingID)
	if err != nil {
		return nil, storageError(err, "load payment logs")
	}
	return domain.MergeTimeline(history, logs), nil
}

func (s *TrackingService) authorizeBooking(ctx context.Context, actor domain.Actor, bookingID int64) error {
	if err := s.gate.Require(actor, authz.ActionTrackingView); err != nil {
		return err
	}
	return s.ownerCheck(ctx, actor, bookingID)
}

func (s *TrackingService) ownerCheck(ctx context.Context, actor domain.Actor, bookingID int64) error {
	b, err := s.uow.Store().GetBooking(ctx, bookingID)
	if err != nil {
		return storageError(err, "load booking")
	}
	return s.gate.RequireOwnerOr(actor, b.CustomerID, domain.RoleStaffKasir)
}

func storageError(err error, op string) error {
	if domain.KindOf(err) != "" {
		return err
	}
	logrus.WithError(err).WithField("op", op).Error("storage failure")
	return domain.PersistenceFailure("%s failed", op)
}

var _ TrackingUseCase = (*TrackingService)(nil)
