package repository

import (
	"context"

	"github.com/ardiwinata/futsal-booking/internal/domain"
)

func (s *PGStore) AppendBookingHistory(ctx context.Context, rec *domain.BookingHistoryRecord) error {
	return s.q.QueryRow(ctx, `INSERT INTO booking_history (booking_id, status_from, status_to, changed_by_id, changed_by_role, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		rec.BookingID, rec.StatusFrom, rec.StatusTo, rec.ChangedByID, rec.ChangedByRole, rec.Reason).
		Scan(&rec.ID, &rec.CreatedAt)
}

func (s *PGStore) AppendPaymentLog(ctx context.Context, rec *domain.PaymentLogRecord) error {
	return s.q.QueryRow(ctx, `INSERT INTO payment_logs (payment_id, action, status_from, status_to, processed_by_id, processed_by_role, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		rec.PaymentID, rec.Action, rec.StatusFrom, rec.StatusTo, rec.ProcessedByID, rec.ProcessedByRole, rec.Notes).
		Scan(&rec.ID, &rec.CreatedAt)
}

func (s *PGStore) BookingHistory(ctx context.Context, bookingID int64) ([]domain.BookingHistoryRecord, error) {
	rows, err := s.q.Query(ctx, `SELECT id, booking_id, status_from, status_to, changed_by_id, changed_by_role, reason, created_at
		FROM booking_history WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.BookingHistoryRecord, 0)
	for rows.Next() {
		var r domain.BookingHistoryRecord
		if err := rows.Scan(&r.ID, &r.BookingID, &r.StatusFrom, &r.StatusTo, &r.ChangedByID, &r.ChangedByRole, &r.Reason, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PGStore) PaymentLogs(ctx context.Context, paymentID int64) ([]domain.PaymentLogRecord, error) {
	return s.paymentLogs(ctx, `SELECT id, payment_id, action, status_from, status_to, processed_by_id, processed_by_role, notes, created_at
		FROM payment_logs WHERE payment_id=$1 ORDER BY id`, paymentID)
}

func (s *PGStore) PaymentLogsByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentLogRecord, error) {
	return s.paymentLogs(ctx, `SELECT l.id, l.payment_id, l.action, l.status_from, l.status_to, l.processed_by_id, l.processed_by_role, l.notes, l.created_at
		FROM payment_logs l JOIN payments p ON p.id = l.payment_id WHERE p.booking_id=$1 ORDER BY l.id`, bookingID)
}

func (s *PGStore) paymentLogs(ctx context.Context, query string, arg any) ([]domain.PaymentLogRecord, error) {
	rows, err := s.q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PaymentLogRecord, 0)
	for rows.Next() {
		var r domain.PaymentLogRecord
		if err := rows.Scan(&r.ID, &r.PaymentID, &r.Action, &r.StatusFrom, &r.StatusTo, &r.ProcessedByID, &r.ProcessedByRole, &r.Notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
