package usecase

import (
	"context"
	"time"

	"github.com/iho/pointledger/internal/domain"
)

// historyRecorder appends history entries on behalf of PointUseCase.
// It is only invoked while the account lock is held.
type historyRecorder struct {
	histories HistoryStore
}

func newHistoryRecorder(histories HistoryStore) *historyRecorder {
	return &historyRecorder{histories: histories}
}

// Record appends one entry. A store failure is reported as a storage failure.
func (r *historyRecorder) Record(
	ctx context.Context,
	accountID, amount int64,
	kind domain.TransactionKind,
	occurredAt time.Time,
	operationID string,
) (*domain.HistoryEntry, error) {
	entry, err := r.histories.Insert(ctx, &domain.HistoryEntry{
		AccountID:   accountID,
		Amount:      amount,
		Kind:        kind,
		OperationID: operationID,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		return nil, domain.NewStorageError(accountID, err)
	}

	return entry, nil
}
