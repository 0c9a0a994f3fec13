package domain

import (
	"fmt"
	"time"
)

// TransactionKind distinguishes credits from debits.
type TransactionKind string

const (
	TransactionKindCharge TransactionKind = "CHARGE"
	TransactionKindUse    TransactionKind = "USE"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	return k == TransactionKindCharge || k == TransactionKindUse
}

// ParseTransactionKind parses the stored representation of a kind.
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionKind, s)
	}
	return k, nil
}

// HistoryEntry is the immutable record of one completed charge or use.
type HistoryEntry struct {
	OccurredAt  time.Time
	OperationID string
	Kind        TransactionKind
	ID          int64
	AccountID   int64
	Amount      int64
}
