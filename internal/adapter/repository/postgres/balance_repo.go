package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pointledger/internal/domain"
)

const (
	selectBalanceSQL = `SELECT account_id, balance, updated_at FROM point_balances WHERE account_id = $1`

	upsertBalanceSQL = `INSERT INTO point_balances (account_id, balance, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (account_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at
RETURNING account_id, balance, updated_at`
)

// querier is the subset of *pgxpool.Pool the repositories use.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BalanceRepository implements usecase.BalanceStore on the point_balances table.
type BalanceRepository struct {
	db      querier
	retrier *Retrier
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool, retrier *Retrier) *BalanceRepository {
	return newBalanceRepository(pool, retrier)
}

func newBalanceRepository(db querier, retrier *Retrier) *BalanceRepository {
	return &BalanceRepository{db: db, retrier: retrier}
}

// SelectByID retrieves the balance of an account.
func (r *BalanceRepository) SelectByID(ctx context.Context, accountID int64) (*domain.AccountBalance, error) {
	var balance domain.AccountBalance

	err := r.retrier.Retry(ctx, func() error {
		return r.db.QueryRow(ctx, selectBalanceSQL, accountID).
			Scan(&balance.AccountID, &balance.Balance, &balance.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	balance.UpdatedAt = balance.UpdatedAt.UTC()

	return &balance, nil
}

// InsertOrUpdate upserts the balance of an account.
func (r *BalanceRepository) InsertOrUpdate(ctx context.Context, accountID, balance int64, updatedAt time.Time) (*domain.AccountBalance, error) {
	var stored domain.AccountBalance

	err := r.retrier.Retry(ctx, func() error {
		return r.db.QueryRow(ctx, upsertBalanceSQL, accountID, balance, updatedAt).
			Scan(&stored.AccountID, &stored.Balance, &stored.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	stored.UpdatedAt = stored.UpdatedAt.UTC()

	return &stored, nil
}
