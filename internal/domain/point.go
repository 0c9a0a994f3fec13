package domain

import (
	"math"
	"time"
)

// AccountBalance is the current point balance of one account.
type AccountBalance struct {
	AccountID int64
	Balance   int64
	UpdatedAt time.Time
}

// ValidateCharge checks that crediting amount keeps the balance within maxBalance
// and returns the resulting balance.
func (a *AccountBalance) ValidateCharge(amount, maxBalance int64) (int64, error) {
	if amount > math.MaxInt64-a.Balance {
		return 0, &PointError{Kind: KindBalanceLimitExceeded, AccountID: a.AccountID, Balance: a.Balance, Amount: amount, Limit: maxBalance}
	}

	newBalance := a.Balance + amount
	if newBalance > maxBalance {
		return 0, &PointError{Kind: KindBalanceLimitExceeded, AccountID: a.AccountID, Balance: a.Balance, Amount: amount, Limit: maxBalance}
	}

	return newBalance, nil
}

// ValidateUse checks that debiting amount does not take the balance below zero
// and returns the resulting balance.
func (a *AccountBalance) ValidateUse(amount int64) (int64, error) {
	if amount > a.Balance {
		return 0, &PointError{Kind: KindInsufficientBalance, AccountID: a.AccountID, Balance: a.Balance, Amount: amount}
	}

	return a.Balance - amount, nil
}

// EmptyBalance is the balance assumed for an account that has never been written.
func EmptyBalance(accountID int64) *AccountBalance {
	return &AccountBalance{AccountID: accountID}
}
