// Package seed loads initial account balances from a YAML file.
//
//	accounts:
//	  - id: 1
//	    balance: 1000
//	  - id: 2
//	    balance: 0
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iho/pointledger/internal/domain"
	"github.com/iho/pointledger/internal/usecase"
)

// Account is one seeded balance.
type Account struct {
	ID      int64 `yaml:"id"`
	Balance int64 `yaml:"balance"`
}

// File is the document layout.
type File struct {
	Accounts []Account `yaml:"accounts"`
}

// Load reads and validates path.
func Load(path string, maxBalance int64) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	return Parse(data, maxBalance)
}

// Parse decodes and validates a seed document.
func Parse(data []byte, maxBalance int64) ([]Account, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[int64]struct{}, len(file.Accounts))
	for _, a := range file.Accounts {
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("account %d is seeded twice", a.ID)
		}
		seen[a.ID] = struct{}{}

		if a.Balance < 0 || a.Balance > maxBalance {
			return nil, fmt.Errorf("account %d: balance %d outside [0, %d]", a.ID, a.Balance, maxBalance)
		}
	}

	return file.Accounts, nil
}

// Apply creates every account that has no balance record yet and returns how
// many were created. Existing balances are left untouched.
func Apply(ctx context.Context, store usecase.BalanceStore, accounts []Account, now time.Time) (int, error) {
	created := 0

	for _, a := range accounts {
		_, err := store.SelectByID(ctx, a.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return created, fmt.Errorf("account %d: %w", a.ID, err)
		}

		if _, err := store.InsertOrUpdate(ctx, a.ID, a.Balance, now); err != nil {
			return created, fmt.Errorf("account %d: %w", a.ID, err)
		}
		created++
	}

	return created, nil
}
