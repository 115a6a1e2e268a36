package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PGStore implements Store over any pgx Querier (pool or transaction).
type PGStore struct {
	q Querier
}

func NewStore(q Querier) Store {
	return &PGStore{q: q}
}

const bookingColumns = `id, booking_number, field_id, customer_id, booking_date, start_time, end_time, status, payment_status, total_amount, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.BookingNumber, &b.FieldID, &b.CustomerID, &b.Date, &b.StartTime, &b.EndTime, &b.Status, &b.PaymentStatus, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PGStore) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("booking %d not found", id)
	}
	return b, err
}

func (s *PGStore) GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("booking %d not found", id)
	}
	return b, err
}

func (s *PGStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	return s.q.QueryRow(ctx, `INSERT INTO bookings (booking_number, field_id, customer_id, booking_date, start_time, end_time, status, payment_status, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		b.BookingNumber, b.FieldID, b.CustomerID, b.Date, b.StartTime, b.EndTime, b.Status, b.PaymentStatus, b.TotalAmount).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (s *PGStore) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	row := s.q.QueryRow(ctx, `UPDATE bookings SET status=$1, payment_status=$2, total_amount=$3, updated_at=now() WHERE id=$4 RETURNING updated_at`,
		b.Status, b.PaymentStatus, b.TotalAmount, b.ID)
	if err := row.Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("booking %d not found", b.ID)
		}
		return err
	}
	return nil
}

func (s *PGStore) BookingsByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	rows, err := s.q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.BookingNumber, &b.FieldID, &b.CustomerID, &b.Date, &b.StartTime, &b.EndTime, &b.Status, &b.PaymentStatus, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// PendingUnpaidBefore returns ids of pending bookings created before deadline
// whose payment never completed. Partially paid bookings are excluded; the
// customer has money down and those go to manual review instead. Ids only;
// the sweep re-reads each booking under a row lock before cancelling it.
func (s *PGStore) PendingUnpaidBefore(ctx context.Context, deadline time.Time) ([]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT id FROM bookings WHERE status=$1 AND payment_status NOT IN ($2, $3) AND created_at <= $4 ORDER BY id`,
		domain.BookingStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusPartial, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Store = (*PGStore)(nil)
