package dto

import (
	"time"

	"github.com/iho/pointledger/internal/domain"
)

// BalanceResponse represents an account balance in API responses.
type BalanceResponse struct {
	AccountID int64     `json:"account_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.AccountBalance) *BalanceResponse {
	return &BalanceResponse{
		AccountID: b.AccountID,
		Balance:   b.Balance,
		UpdatedAt: b.UpdatedAt,
	}
}

// HistoryResponse represents one history entry in API responses.
type HistoryResponse struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Amount      int64     `json:"amount"`
	Kind        string    `json:"kind"`
	OperationID string    `json:"operation_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// HistoryFromDomain converts a domain entry to a response.
func HistoryFromDomain(e *domain.HistoryEntry) *HistoryResponse {
	return &HistoryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Amount:      e.Amount,
		Kind:        string(e.Kind),
		OperationID: e.OperationID,
		OccurredAt:  e.OccurredAt,
	}
}

// HistoriesFromDomain converts domain entries to responses.
func HistoriesFromDomain(entries []*domain.HistoryEntry) []*HistoryResponse {
	result := make([]*HistoryResponse, len(entries))
	for i, e := range entries {
		result[i] = HistoryFromDomain(e)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
