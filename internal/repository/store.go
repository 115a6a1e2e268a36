package repository

import (
	"context"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx, so
// the same store implementation serves plain reads and transactional work.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the persistence collaborator for bookings, payments and their audit
// records. Append methods never fail silently; an append error must abort the
// enclosing transition.
type Store interface {
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	// GetBookingForUpdate takes a row lock; only meaningful inside WithinTx.
	GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	CreateBooking(ctx context.Context, b *domain.Booking) error
	UpdateBooking(ctx context.Context, b *domain.Booking) error
	BookingsByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error)
	PendingUnpaidBefore(ctx context.Context, deadline time.Time) ([]int64, error)

	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (*domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
	UpdatePayment(ctx context.Context, p *domain.Payment) error
	PaymentsByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)

	AppendBookingHistory(ctx context.Context, rec *domain.BookingHistoryRecord) error
	AppendPaymentLog(ctx context.Context, rec *domain.PaymentLogRecord) error
	BookingHistory(ctx context.Context, bookingID int64) ([]domain.BookingHistoryRecord, error)
	PaymentLogs(ctx context.Context, paymentID int64) ([]domain.PaymentLogRecord, error)
	PaymentLogsByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentLogRecord, error)
}

// UnitOfWork runs store operations atomically. Entity mutation and audit
// append are committed together or rolled back together.
type UnitOfWork interface {
	// Store returns a non-transactional store for plain reads.
	Store() Store
	// WithinTx begins a transaction, runs fn over a tx-bound store and commits
	// when fn returns nil, rolling back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
