package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pointledger/internal/domain"
)

const (
	selectHistoriesSQL = `SELECT id, account_id, amount, kind, operation_id, occurred_at
FROM point_histories WHERE account_id = $1 ORDER BY id`

	insertHistorySQL = `INSERT INTO point_histories (account_id, amount, kind, operation_id, occurred_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
)

// HistoryRepository implements usecase.HistoryStore on the point_histories table.
// The BIGSERIAL id gives insertion order.
type HistoryRepository struct {
	db      querier
	retrier *Retrier
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool, retrier *Retrier) *HistoryRepository {
	return newHistoryRepository(pool, retrier)
}

func newHistoryRepository(db querier, retrier *Retrier) *HistoryRepository {
	return &HistoryRepository{db: db, retrier: retrier}
}

// SelectAllByAccountID retrieves every entry of an account ordered by id.
func (r *HistoryRepository) SelectAllByAccountID(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry

	err := r.retrier.Retry(ctx, func() error {
		rows, err := r.db.Query(ctx, selectHistoriesSQL, accountID)
		if err != nil {
			return err
		}

		entries, err = pgx.CollectRows(rows, scanHistoryEntry)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Insert appends an entry and returns it with the generated id.
func (r *HistoryRepository) Insert(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	stored := *entry

	err := r.retrier.Retry(ctx, func() error {
		return r.db.QueryRow(ctx, insertHistorySQL,
			entry.AccountID,
			entry.Amount,
			string(entry.Kind),
			entry.OperationID,
			entry.OccurredAt,
		).Scan(&stored.ID)
	})
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func scanHistoryEntry(row pgx.CollectableRow) (*domain.HistoryEntry, error) {
	var (
		entry domain.HistoryEntry
		kind  string
	)

	if err := row.Scan(&entry.ID, &entry.AccountID, &entry.Amount, &kind, &entry.OperationID, &entry.OccurredAt); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseTransactionKind(kind)
	if err != nil {
		return nil, err
	}

	entry.Kind = parsed
	entry.OccurredAt = entry.OccurredAt.UTC()

	return &entry, nil
}
