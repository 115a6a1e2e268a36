// Package repositorytest provides an in-memory Store and UnitOfWork for
// service tests. WithinTx snapshots state and restores it when the closure
// fails, matching the rollback semantics of the pgx implementation.
package repositorytest

import (
	"context"
	"sync"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/repository"
)

type MemStore struct {
	mu sync.Mutex

	Bookings map[int64]*domain.Booking
	Payments map[int64]*domain.Payment
	History  []domain.BookingHistoryRecord
	Logs     []domain.PaymentLogRecord

	nextBookingID int64
	nextPaymentID int64
	nextRecordID  int64

	// Clock stamps created_at on inserts; override it to control timeline
	// ordering in tests.
	Clock func() time.Time

	// AppendHistoryErr / AppendLogErr force audit append failures.
	AppendHistoryErr error
	AppendLogErr     error
}

func NewMemStore() *MemStore {
	return &MemStore{
		Bookings: make(map[int64]*domain.Booking),
		Payments: make(map[int64]*domain.Payment),
		Clock:    time.Now,
	}
}

func (s *MemStore) now() time.Time {
	return s.Clock()
}

// SeedBooking inserts a booking directly, bypassing the state machine.
func (s *MemStore) SeedBooking(b domain.Booking) *domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextBookingID++
		b.ID = s.nextBookingID
	} else if b.ID > s.nextBookingID {
		s.nextBookingID = b.ID
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	s.Bookings[b.ID] = &b
	return &b
}

// SeedPayment inserts a payment directly.
func (s *MemStore) SeedPayment(p domain.Payment) *domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextPaymentID++
		p.ID = s.nextPaymentID
	} else if p.ID > s.nextPaymentID {
		s.nextPaymentID = p.ID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.Payments[p.ID] = &p
	return &p
}

func (s *MemStore) GetBooking(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Bookings[id]
	if !ok {
		return nil, domain.NotFound("booking %d not found", id)
	}
	copied := *b
	return &copied, nil
}

func (s *MemStore) GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.GetBooking(ctx, id)
}

func (s *MemStore) CreateBooking(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBookingID++
	b.ID = s.nextBookingID
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	s.Bookings[b.ID] = &copied
	return nil
}

func (s *MemStore) UpdateBooking(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Bookings[b.ID]; !ok {
		return domain.NotFound("booking %d not found", b.ID)
	}
	b.UpdatedAt = s.now()
	copied := *b
	s.Bookings[b.ID] = &copied
	return nil
}

func (s *MemStore) BookingsByCustomer(_ context.Context, customerID int64) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range s.Bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *MemStore) PendingUnpaidBefore(_ context.Context, deadline time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, b := range s.Bookings {
		if b.Status == domain.BookingStatusPending &&
			b.PaymentStatus != domain.PaymentStatusPaid &&
			b.PaymentStatus != domain.PaymentStatusPartial &&
			!b.CreatedAt.After(deadline) {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (s *MemStore) GetPayment(_ context.Context, id int64) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Payments[id]
	if !ok {
		return nil, domain.NotFound("payment %d not found", id)
	}
	copied := *p
	return &copied, nil
}

func (s *MemStore) GetPaymentForUpdate(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.GetPayment(ctx, id)
}

func (s *MemStore) CreatePayment(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPaymentID++
	p.ID = s.nextPaymentID
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	s.Payments[p.ID] = &copied
	return nil
}

func (s *MemStore) UpdatePayment(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Payments[p.ID]; !ok {
		return domain.NotFound("payment %d not found", p.ID)
	}
	p.UpdatedAt = s.now()
	copied := *p
	s.Payments[p.ID] = &copied
	return nil
}

func (s *MemStore) PaymentsByBooking(_ context.Context, bookingID int64) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Payment, 0)
	for _, p := range s.Payments {
		if p.BookingID == bookingID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemStore) AppendBookingHistory(_ context.Context, rec *domain.BookingHistoryRecord) error {
	if s.AppendHistoryErr != nil {
		return s.AppendHistoryErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecordID++
	rec.ID = s.nextRecordID
	rec.CreatedAt = s.now()
	s.History = append(s.History, *rec)
	return nil
}

func (s *MemStore) AppendPaymentLog(_ context.Context, rec *domain.PaymentLogRecord) error {
	if s.AppendLogErr != nil {
		return s.AppendLogErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecordID++
	rec.ID = s.nextRecordID
	rec.CreatedAt = s.now()
	s.Logs = append(s.Logs, *rec)
	return nil
}

func (s *MemStore) BookingHistory(_ context.Context, bookingID int64) ([]domain.BookingHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BookingHistoryRecord, 0)
	for _, r := range s.History {
		if r.BookingID == bookingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) PaymentLogs(_ context.Context, paymentID int64) ([]domain.PaymentLogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PaymentLogRecord, 0)
	for _, r := range s.Logs {
		if r.PaymentID == paymentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) PaymentLogsByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentLogRecord, error) {
	payments, _ := s.PaymentsByBooking(ctx, bookingID)
	s.mu.Lock()
	defer s.mu.Unlock()
	member := make(map[int64]bool, len(payments))
	for _, p := range payments {
		member[p.ID] = true
	}
	out := make([]domain.PaymentLogRecord, 0)
	for _, r := range s.Logs {
		if member[r.PaymentID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// snapshot and restore give MemUoW rollback semantics.
func (s *MemStore) snapshot() *MemStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &MemStore{
		Bookings:      make(map[int64]*domain.Booking, len(s.Bookings)),
		Payments:      make(map[int64]*domain.Payment, len(s.Payments)),
		History:       append([]domain.BookingHistoryRecord(nil), s.History...),
		Logs:          append([]domain.PaymentLogRecord(nil), s.Logs...),
		nextBookingID: s.nextBookingID,
		nextPaymentID: s.nextPaymentID,
		nextRecordID:  s.nextRecordID,
	}
	for id, b := range s.Bookings {
		copied := *b
		snap.Bookings[id] = &copied
	}
	for id, p := range s.Payments {
		copied := *p
		snap.Payments[id] = &copied
	}
	return snap
}

func (s *MemStore) restore(snap *MemStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Bookings = snap.Bookings
	s.Payments = snap.Payments
	s.History = snap.History
	s.Logs = snap.Logs
	s.nextBookingID = snap.nextBookingID
	s.nextPaymentID = snap.nextPaymentID
	s.nextRecordID = snap.nextRecordID
}

type MemUoW struct {
	S *MemStore
}

func NewMemUoW(s *MemStore) *MemUoW {
	return &MemUoW{S: s}
}

func (u *MemUoW) Store() repository.Store {
	return u.S
}

func (u *MemUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	snap := u.S.snapshot()
	if err := fn(ctx, u.S); err != nil {
		u.S.restore(snap)
		return err
	}
	return nil
}

var (
	_ repository.Store      = (*MemStore)(nil)
	_ repository.UnitOfWork = (*MemUoW)(nil)
)
