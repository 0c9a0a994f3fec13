package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/pointledger/internal/domain"
)

// BalanceStoreStub is an in-memory usecase.BalanceStore whose methods can be overridden.
type BalanceStoreStub struct {
	mu       sync.RWMutex
	balances map[int64]domain.AccountBalance
	writes   int

	SelectByIDFunc     func(ctx context.Context, accountID int64) (*domain.AccountBalance, error)
	InsertOrUpdateFunc func(ctx context.Context, accountID, balance int64, updatedAt time.Time) (*domain.AccountBalance, error)
}

func NewBalanceStoreStub() *BalanceStoreStub {
	return &BalanceStoreStub{
		balances: make(map[int64]domain.AccountBalance),
	}
}

// Seed stores a balance without counting it as a write.
func (m *BalanceStoreStub) Seed(accountID, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[accountID] = domain.AccountBalance{AccountID: accountID, Balance: balance, UpdatedAt: time.Now().UTC()}
}

// Writes returns how many InsertOrUpdate calls reached the store.
func (m *BalanceStoreStub) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *BalanceStoreStub) SelectByID(ctx context.Context, accountID int64) (*domain.AccountBalance, error) {
	if m.SelectByIDFunc != nil {
		return m.SelectByIDFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[accountID]; ok {
		return &b, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *BalanceStoreStub) InsertOrUpdate(ctx context.Context, accountID, balance int64, updatedAt time.Time) (*domain.AccountBalance, error) {
	if m.InsertOrUpdateFunc != nil {
		return m.InsertOrUpdateFunc(ctx, accountID, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	b := domain.AccountBalance{AccountID: accountID, Balance: balance, UpdatedAt: updatedAt}
	m.balances[accountID] = b
	return &b, nil
}

// HistoryStoreStub is an in-memory usecase.HistoryStore whose methods can be overridden.
type HistoryStoreStub struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	nextID  int64

	SelectAllByAccountIDFunc func(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error)
	InsertFunc               func(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error)
}

func NewHistoryStoreStub() *HistoryStoreStub {
	return &HistoryStoreStub{}
}

// Len returns the number of stored entries across all accounts.
func (m *HistoryStoreStub) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *HistoryStoreStub) SelectAllByAccountID(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error) {
	if m.SelectAllByAccountIDFunc != nil {
		return m.SelectAllByAccountIDFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.HistoryEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			entry := e
			entries = append(entries, &entry)
		}
	}
	return entries, nil
}

func (m *HistoryStoreStub) Insert(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *entry
	stored.ID = m.nextID
	m.entries = append(m.entries, stored)
	return &stored, nil
}

// IDGeneratorStub returns sequential IDs unless GenerateFunc is set.
type IDGeneratorStub struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewIDGeneratorStub() *IDGeneratorStub {
	return &IDGeneratorStub{}
}

func (m *IDGeneratorStub) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("op-%d", m.counter)
}

// IdempotencyStoreStub is an in-memory usecase.IdempotencyStore.
type IdempotencyStoreStub struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewIdempotencyStoreStub() *IdempotencyStoreStub {
	return &IdempotencyStoreStub{
		data: make(map[string][]byte),
	}
}

func (m *IdempotencyStoreStub) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *IdempotencyStoreStub) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *IdempotencyStoreStub) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Get returns the stored value of key.
func (m *IdempotencyStoreStub) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}
