package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrAccountNotFound        = errors.New("account not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrBalanceLimitExceeded   = errors.New("balance limit exceeded")
	ErrNoHistoryFound         = errors.New("no history found")
	ErrStorageFailure         = errors.New("storage failure")
	ErrUnknownTransactionKind = errors.New("unknown transaction kind")
)

// ErrorKind enumerates the failures a point operation can report.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidAmount
	KindAccountNotFound
	KindInsufficientBalance
	KindBalanceLimitExceeded
	KindNoHistoryFound
	KindStorageFailure
)

var kindNames = map[ErrorKind]string{
	KindUnknown:              "UNKNOWN",
	KindInvalidAmount:        "INVALID_AMOUNT",
	KindAccountNotFound:      "ACCOUNT_NOT_FOUND",
	KindInsufficientBalance:  "INSUFFICIENT_BALANCE",
	KindBalanceLimitExceeded: "BALANCE_LIMIT_EXCEEDED",
	KindNoHistoryFound:       "NO_HISTORY_FOUND",
	KindStorageFailure:       "STORAGE_FAILURE",
}

var kindSentinels = map[ErrorKind]error{
	KindInvalidAmount:        ErrInvalidAmount,
	KindAccountNotFound:      ErrAccountNotFound,
	KindInsufficientBalance:  ErrInsufficientBalance,
	KindBalanceLimitExceeded: ErrBalanceLimitExceeded,
	KindNoHistoryFound:       ErrNoHistoryFound,
	KindStorageFailure:       ErrStorageFailure,
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// PointError carries the context of a failed point operation.
// It matches the sentinel of its Kind with errors.Is.
type PointError struct {
	Err       error
	Kind      ErrorKind
	AccountID int64
	Balance   int64
	Amount    int64
	Limit     int64
}

func (e *PointError) Error() string {
	switch e.Kind {
	case KindInvalidAmount:
		return fmt.Sprintf("%s: account %d, got %d", ErrInvalidAmount, e.AccountID, e.Amount)
	case KindAccountNotFound:
		return fmt.Sprintf("%s: %d", ErrAccountNotFound, e.AccountID)
	case KindInsufficientBalance:
		return fmt.Sprintf("%s: account %d has %d, requested %d", ErrInsufficientBalance, e.AccountID, e.Balance, e.Amount)
	case KindBalanceLimitExceeded:
		return fmt.Sprintf("%s: account %d has %d, charging %d exceeds %d", ErrBalanceLimitExceeded, e.AccountID, e.Balance, e.Amount, e.Limit)
	case KindNoHistoryFound:
		return fmt.Sprintf("%s: account %d", ErrNoHistoryFound, e.AccountID)
	case KindStorageFailure:
		if e.Err != nil {
			return fmt.Sprintf("%s: account %d: %v", ErrStorageFailure, e.AccountID, e.Err)
		}
		return fmt.Sprintf("%s: account %d", ErrStorageFailure, e.AccountID)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "point operation failed"
	}
}

// Is matches the sentinel error of the kind.
func (e *PointError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

func (e *PointError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps a store failure for accountID.
func NewStorageError(accountID int64, err error) *PointError {
	return &PointError{Kind: KindStorageFailure, AccountID: accountID, Err: err}
}

// KindOf classifies err. Errors that are not point failures report KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var pe *PointError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}

	return KindUnknown
}
