package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/pointledger/internal/domain"
)

// BalanceRepository is an in-process usecase.BalanceStore.
type BalanceRepository struct {
	balances map[int64]domain.AccountBalance
	mu       sync.RWMutex
}

// NewBalanceRepository creates an empty BalanceRepository.
func NewBalanceRepository() *BalanceRepository {
	return &BalanceRepository{
		balances: make(map[int64]domain.AccountBalance),
	}
}

// SelectByID returns a copy of the stored balance.
func (r *BalanceRepository) SelectByID(ctx context.Context, accountID int64) (*domain.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	balance, ok := r.balances[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return &balance, nil
}

// InsertOrUpdate stores balance, creating the account record when needed.
func (r *BalanceRepository) InsertOrUpdate(ctx context.Context, accountID, balance int64, updatedAt time.Time) (*domain.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := domain.AccountBalance{
		AccountID: accountID,
		Balance:   balance,
		UpdatedAt: updatedAt,
	}

	r.mu.Lock()
	r.balances[accountID] = stored
	r.mu.Unlock()

	return &stored, nil
}

// Len returns the number of accounts with a balance record.
func (r *BalanceRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.balances)
}
