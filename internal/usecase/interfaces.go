package usecase

import (
	"context"
	"time"

	"github.com/iho/pointledger/internal/domain"
)

// BalanceStore holds the current balance of each account.
type BalanceStore interface {
	// SelectByID returns domain.ErrAccountNotFound when the account has no record.
	SelectByID(ctx context.Context, accountID int64) (*domain.AccountBalance, error)
	InsertOrUpdate(ctx context.Context, accountID, balance int64, updatedAt time.Time) (*domain.AccountBalance, error)
}

// HistoryStore is the append-only log of completed mutations.
type HistoryStore interface {
	// SelectAllByAccountID returns entries in insertion order.
	SelectAllByAccountID(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error)
	// Insert appends entry and returns it with its store-assigned ID.
	Insert(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Metrics observes the mutation engine.
type Metrics interface {
	ObserveOperation(kind domain.TransactionKind, outcome string)
	ObserveLockWait(d time.Duration)
	ObserveCriticalSection(d time.Duration)
	SetLockRegistrySize(n int)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// A nil response claims the key with IdempotencyPlaceholder.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(domain.TransactionKind, string) {}
func (noopMetrics) ObserveLockWait(time.Duration)                   {}
func (noopMetrics) ObserveCriticalSection(time.Duration)            {}
func (noopMetrics) SetLockRegistrySize(int)                         {}
