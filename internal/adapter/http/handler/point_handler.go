package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/iho/pointledger/internal/adapter/http/dto"
	"github.com/iho/pointledger/internal/domain"
)

const maxAmountBodyBytes = 1 << 10

// PointCommandService defines the mutations needed by PointHandler.
type PointCommandService interface {
	Charge(ctx context.Context, accountID, amount int64) (*domain.AccountBalance, error)
	Use(ctx context.Context, accountID, amount int64) (*domain.AccountBalance, error)
}

// PointQueryService defines the reads needed by PointHandler.
type PointQueryService interface {
	GetBalance(ctx context.Context, accountID int64) (*domain.AccountBalance, error)
	GetHistory(ctx context.Context, accountID int64) ([]*domain.HistoryEntry, error)
}

// PointHandler handles point-related HTTP requests.
type PointHandler struct {
	commands PointCommandService
	queries  PointQueryService
}

// NewPointHandler creates a new PointHandler.
func NewPointHandler(commands PointCommandService, queries PointQueryService) *PointHandler {
	return &PointHandler{commands: commands, queries: queries}
}

// Get returns the balance of an account.
func (h *PointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAccountID, "invalid account ID", err.Error())
		return
	}

	balance, err := h.queries.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Histories returns the history of an account.
func (h *PointHandler) Histories(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAccountID, "invalid account ID", err.Error())
		return
	}

	entries, err := h.queries.GetHistory(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoriesFromDomain(entries))
}

// Charge credits the account.
func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "failed to charge points", h.commands.Charge)
}

// Use debits the account.
func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "failed to use points", h.commands.Use)
}

func (h *PointHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	apply func(ctx context.Context, accountID, amount int64) (*domain.AccountBalance, error),
) {
	id, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAccountID, "invalid account ID", err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAmountBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, "invalid request body", err.Error())
		return
	}

	amount, err := dto.ParseAmount(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.KindInvalidAmount.String(), "invalid request body", err.Error())
		return
	}

	balance, err := apply(r.Context(), id, amount)
	if err != nil {
		writeDomainError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}
