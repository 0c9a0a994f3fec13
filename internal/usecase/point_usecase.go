package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/pointledger/internal/domain"
)

// PointConfig holds the optional settings of a PointUseCase.
type PointConfig struct {
	Metrics Metrics
	Clock   func() time.Time
	Logger  *zerolog.Logger
	// MaxBalance is the balance ceiling; zero means domain.DefaultMaxBalance.
	MaxBalance int64
	// AutoProvision treats an account without a balance record as a zero balance
	// instead of failing with domain.ErrAccountNotFound.
	AutoProvision bool
}

// PointUseCase applies charge and use operations. Mutations of one account are
// serialized by that account's lock; different accounts proceed in parallel.
type PointUseCase struct {
	balances      BalanceStore
	recorder      *historyRecorder
	locks         *AccountLockRegistry
	idGen         IDGenerator
	metrics       Metrics
	clock         func() time.Time
	logger        zerolog.Logger
	maxBalance    int64
	autoProvision bool
}

// NewPointUseCase creates a new PointUseCase.
func NewPointUseCase(balances BalanceStore, histories HistoryStore, idGen IDGenerator, cfg PointConfig) *PointUseCase {
	if cfg.MaxBalance <= 0 {
		cfg.MaxBalance = domain.DefaultMaxBalance
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}

	return &PointUseCase{
		balances:      balances,
		recorder:      newHistoryRecorder(histories),
		locks:         NewAccountLockRegistry(),
		idGen:         idGen,
		metrics:       cfg.Metrics,
		clock:         cfg.Clock,
		logger:        *cfg.Logger,
		maxBalance:    cfg.MaxBalance,
		autoProvision: cfg.AutoProvision,
	}
}

// MaxBalance returns the configured balance ceiling.
func (uc *PointUseCase) MaxBalance() int64 {
	return uc.maxBalance
}

// Charge credits amount to the account.
func (uc *PointUseCase) Charge(ctx context.Context, accountID, amount int64) (*domain.AccountBalance, error) {
	return uc.mutate(ctx, accountID, amount, domain.TransactionKindCharge)
}

// Use debits amount from the account.
func (uc *PointUseCase) Use(ctx context.Context, accountID, amount int64) (*domain.AccountBalance, error) {
	return uc.mutate(ctx, accountID, amount, domain.TransactionKindUse)
}

func (uc *PointUseCase) mutate(ctx context.Context, accountID, amount int64, kind domain.TransactionKind) (*domain.AccountBalance, error) {
	// Amount sign does not depend on the balance, so it is checked without the lock.
	if err := domain.ValidateAmount(accountID, amount); err != nil {
		return nil, uc.reject(accountID, amount, kind, err)
	}

	waitStart := uc.clock()

	release, err := uc.locks.Acquire(ctx, accountID)
	if err != nil {
		uc.metrics.ObserveOperation(kind, OutcomeCanceled)
		uc.logger.Debug().
			Int64("account_id", accountID).
			Str("kind", string(kind)).
			Err(err).
			Msg("gave up waiting for account lock")

		return nil, err
	}
	defer release()

	uc.metrics.ObserveLockWait(uc.clock().Sub(waitStart))
	uc.metrics.SetLockRegistrySize(uc.locks.Len())

	start := uc.clock()
	defer func() { uc.metrics.ObserveCriticalSection(uc.clock().Sub(start)) }()

	return uc.apply(ctx, accountID, amount, kind)
}

// apply runs the read-validate-write-append sequence. The caller holds the account lock.
func (uc *PointUseCase) apply(ctx context.Context, accountID, amount int64, kind domain.TransactionKind) (*domain.AccountBalance, error) {
	current, err := uc.balances.SelectByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, uc.fail(accountID, amount, kind, domain.NewStorageError(accountID, err))
		}
		if !uc.autoProvision {
			return nil, uc.reject(accountID, amount, kind, &domain.PointError{Kind: domain.KindAccountNotFound, AccountID: accountID})
		}
		current = domain.EmptyBalance(accountID)
	}

	var newBalance int64

	switch kind {
	case domain.TransactionKindCharge:
		newBalance, err = current.ValidateCharge(amount, uc.maxBalance)
	case domain.TransactionKindUse:
		newBalance, err = current.ValidateUse(amount)
	default:
		err = domain.ErrUnknownTransactionKind
	}
	if err != nil {
		return nil, uc.reject(accountID, amount, kind, err)
	}

	now := uc.clock().UTC()

	updated, err := uc.balances.InsertOrUpdate(ctx, accountID, newBalance, now)
	if err != nil {
		return nil, uc.fail(accountID, amount, kind, domain.NewStorageError(accountID, err))
	}

	operationID := uc.idGen.Generate()

	if _, err := uc.recorder.Record(ctx, accountID, amount, kind, now, operationID); err != nil {
		uc.compensate(ctx, current, operationID)
		return nil, uc.fail(accountID, amount, kind, err)
	}

	uc.metrics.ObserveOperation(kind, OutcomeSuccess)
	uc.logger.Debug().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("kind", string(kind)).
		Str("operation_id", operationID).
		Int64("balance", updated.Balance).
		Msg("point operation applied")

	return updated, nil
}

// compensate restores the balance read at the start of the critical section after the
// history append failed, so the balance never moves without a matching entry.
func (uc *PointUseCase) compensate(ctx context.Context, previous *domain.AccountBalance, operationID string) {
	_, err := uc.balances.InsertOrUpdate(context.WithoutCancel(ctx), previous.AccountID, previous.Balance, previous.UpdatedAt)
	if err == nil {
		return
	}

	uc.logger.Error().
		Int64("account_id", previous.AccountID).
		Int64("expected_balance", previous.Balance).
		Str("operation_id", operationID).
		Err(err).
		Msg("failed to restore balance after history append failure; balance and history diverge")
}

func (uc *PointUseCase) reject(accountID, amount int64, kind domain.TransactionKind, err error) error {
	uc.metrics.ObserveOperation(kind, OutcomeRejected)
	uc.logger.Info().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("kind", string(kind)).
		Str("reason", domain.KindOf(err).String()).
		Msg("point operation rejected")

	return err
}

func (uc *PointUseCase) fail(accountID, amount int64, kind domain.TransactionKind, err error) error {
	uc.metrics.ObserveOperation(kind, OutcomeFailed)
	uc.logger.Error().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("kind", string(kind)).
		Err(err).
		Msg("point operation failed")

	return err
}
