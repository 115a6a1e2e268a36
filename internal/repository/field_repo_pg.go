package repository

import (
	"context"
	"errors"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FieldRepository interface {
	List(ctx context.Context) ([]domain.Field, error)
	GetByID(ctx context.Context, id int64) (*domain.Field, error)
}

type PGFieldRepository struct {
	db *pgxpool.Pool
}

func NewFieldRepository(db *pgxpool.Pool) FieldRepository {
	return &PGFieldRepository{db: db}
}

func (r *PGFieldRepository) List(ctx context.Context) ([]domain.Field, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, surface, hourly_rate, active, created_at, updated_at FROM fields WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make([]domain.Field, 0)
	for rows.Next() {
		var f domain.Field
		if err := rows.Scan(&f.ID, &f.Name, &f.Surface, &f.HourlyRate, &f.Active, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *PGFieldRepository) GetByID(ctx context.Context, id int64) (*domain.Field, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, surface, hourly_rate, active, created_at, updated_at FROM fields WHERE id=$1`, id)
	var f domain.Field
	if err := row.Scan(&f.ID, &f.Name, &f.Surface, &f.HourlyRate, &f.Active, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("field %d not found", id)
		}
		return nil, err
	}
	return &f, nil
}

var _ FieldRepository = (*PGFieldRepository)(nil)
