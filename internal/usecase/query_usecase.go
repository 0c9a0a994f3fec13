package usecase

import (
	"context"
	"errors"

	"github.com/iho/pointledger/internal/domain"
)

// QueryUseCase serves balance and history reads. Reads take no account lock and may
// observe a balance that a concurrent mutation is about to change.
type QueryUseCase struct {
	balances      BalanceStore
	histories     HistoryStore
	autoProvision bool
}

// NewQueryUseCase creates a new QueryUseCase. autoProvision must match the
// PointUseCase setting so both report missing accounts the same way.
func NewQueryUseCase(balances BalanceStore, histories HistoryStore, autoProvision bool) *QueryUseCase {
	return &QueryUseCase{
		balances:      balances,
		histories:     histories,
		autoProvision: autoProvision,
	}
}

// GetBalance returns the current balance of an account.
func (uc *QueryUseCase) GetBalance(ctx context.Context, accountID int64) (*domain.AccountBalance, error) {
	balance, err := uc.balances.SelectByID(ctx, accountID)
	if err == nil {
		return balance, nil
	}

	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.NewStorageError(accountID, err)
	}

	if uc.autoProvision {
		return domain.EmptyBalance(accountID), nil
	}

	return nil, &domain.PointError{Kind: domain.KindAccountNotFound, AccountID: accountID}
}

// GetHistory returns every entry of an account in the order it was recorded.
// An unknown account fails with domain.ErrAccountNotFound; a known account without
// entries fails with domain.ErrNoHistoryFound.
func (uc *QueryUseCase) GetHistory(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error) {
	if _, err := uc.GetBalance(ctx, accountID); err != nil {
		return nil, err
	}

	entries, err := uc.histories.SelectAllByAccountID(ctx, accountID)
	if err != nil {
		return nil, domain.NewStorageError(accountID, err)
	}

	if len(entries) == 0 {
		return nil, &domain.PointError{Kind: domain.KindNoHistoryFound, AccountID: accountID}
	}

	return entries, nil
}
