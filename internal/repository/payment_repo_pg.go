package repository

import (
	"context"
	"errors"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, booking_id, method, amount, status, reference_number, processed_by, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.Method, &p.Amount, &p.Status, &p.ReferenceNumber, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(s.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("payment %d not found", id)
	}
	return p, err
}

func (s *PGStore) GetPaymentForUpdate(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(s.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("payment %d not found", id)
	}
	return p, err
}

func (s *PGStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return s.q.QueryRow(ctx, `INSERT INTO payments (booking_id, method, amount, status, reference_number, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.BookingID, p.Method, p.Amount, p.Status, p.ReferenceNumber, p.ProcessedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PGStore) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	row := s.q.QueryRow(ctx, `UPDATE payments SET status=$1, amount=$2, reference_number=$3, processed_by=$4, updated_at=now() WHERE id=$5 RETURNING updated_at`,
		p.Status, p.Amount, p.ReferenceNumber, p.ProcessedBy, p.ID)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("payment %d not found", p.ID)
		}
		return err
	}
	return nil
}

func (s *PGStore) PaymentsByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := s.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Method, &p.Amount, &p.Status, &p.ReferenceNumber, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
