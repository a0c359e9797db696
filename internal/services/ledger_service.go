// Package services holds the mutation path of the ledger: every write goes
// through here, and every committed write hands its owner id to the wallet
// dispatcher exactly once.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/wallet"
)

// TransactionUpdate carries the fields a transaction allows changing after
// creation. Amount, category, source and date are immutable: a wrong entry
// is corrected with a reversal, never edited.
type TransactionUpdate struct {
	Description *string
	PaymentApp  *core.PaymentApp
	Status      *core.Status
}

// TransactionPage is one page of filtered transactions plus pagination
// metadata.
type TransactionPage struct {
	Data        []core.Transaction
	CurrentPage int
	TotalPages  int
	TotalCount  int
	Limit       int
	HasNextPage bool
	HasPrevPage bool
}

// LedgerService orchestrates transaction mutations against the ledger store
// and triggers wallet recomputation after each committed write.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	dispatcher wallet.Dispatcher
}

func NewLedgerService(storage *storage.SQLiteRepository, dispatcher wallet.Dispatcher) *LedgerService {
	return &LedgerService{storage: storage, dispatcher: dispatcher}
}

// CreateTransaction persists a new transaction and dispatches recomputation
// for its owner.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = core.StatusSuccess
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.storage.CreateTransaction(ctx, &t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.dispatcher.WalletChanged(ctx, t.OwnerID)
	return &t, nil
}

// UpdateTransaction applies the allowed field changes to an owner's
// transaction. A status transition is an ordinary mutation: it re-triggers
// recomputation like any other write, with no special casing.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, id string, upd TransactionUpdate) (*core.Transaction, error) {
	existing, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	if existing.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}

	if upd.Description != nil {
		existing.Description = *upd.Description
	}
	if upd.PaymentApp != nil {
		existing.PaymentApp = *upd.PaymentApp
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	if err := existing.Validate(); err != nil {
		return nil, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.storage.UpdateTransaction(ctx, existing); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.dispatcher.WalletChanged(ctx, existing.OwnerID)
	return existing, nil
}

// DeleteTransaction removes an owner's transaction. The owner id is captured
// from the record before deletion so the dispatch targets the right wallet.
func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	existing, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if existing.OwnerID != ownerID {
		return storage.ErrNotFound
	}

	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.dispatcher.WalletChanged(ctx, existing.OwnerID)
	return nil
}

// ListTransactions returns one page of the owner's transactions.
func (s *LedgerService) ListTransactions(ctx context.Context, ownerID string, filter storage.TransactionFilter) (*TransactionPage, error) {
	transactions, total, err := s.storage.FindTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	totalPages := (total + filter.Limit - 1) / filter.Limit

	return &TransactionPage{
		Data:        transactions,
		CurrentPage: filter.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		Limit:       filter.Limit,
		HasNextPage: filter.Page < totalPages,
		HasPrevPage: filter.Page > 1,
	}, nil
}
