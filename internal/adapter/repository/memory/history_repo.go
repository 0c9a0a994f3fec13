package memory

import (
	"context"
	"sync"

	"github.com/iho/pointledger/internal/domain"
)

// HistoryRepository is an in-process append-only usecase.HistoryStore.
// IDs are assigned from a single sequence shared by all accounts.
type HistoryRepository struct {
	entries map[int64][]domain.HistoryEntry
	nextID  int64
	mu      sync.RWMutex
}

// NewHistoryRepository creates an empty HistoryRepository.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		entries: make(map[int64][]domain.HistoryEntry),
	}
}

// SelectAllByAccountID returns copies of the account's entries in insertion order.
func (r *HistoryRepository) SelectAllByAccountID(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.entries[accountID]
	entries := make([]*domain.HistoryEntry, 0, len(stored))
	for i := range stored {
		entry := stored[i]
		entries = append(entries, &entry)
	}

	return entries, nil
}

// Insert appends entry and returns the stored copy with its ID.
func (r *HistoryRepository) Insert(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *entry
	stored.ID = r.nextID
	r.entries[stored.AccountID] = append(r.entries[stored.AccountID], stored)

	return &stored, nil
}
