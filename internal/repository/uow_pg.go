package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGUnitOfWork composes store operations into atomic units over pgx
// transactions. Row locks taken via the tx-bound store serialize concurrent
// operations on the same booking or payment.
type PGUnitOfWork struct {
	db *pgxpool.Pool
}

func NewUnitOfWork(db *pgxpool.Pool) UnitOfWork {
	return &PGUnitOfWork{db: db}
}

func (u *PGUnitOfWork) Store() Store {
	return NewStore(u.db)
}

func (u *PGUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	tx, err := u.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewStore(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ UnitOfWork = (*PGUnitOfWork)(nil)
