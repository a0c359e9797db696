package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/wallet"
)

// SavingUpdate carries the fields a saving goal allows changing after
// creation. Target amount, expected date and funding source are immutable.
type SavingUpdate struct {
	Purpose         *string
	TransactionDate *core.Date
	EvidenceRef     *string
	CurrentAmount   *core.Money
}

// SavingService orchestrates savings-contribution mutations. Besides the
// goal record itself, it maintains the goal's trail in the transaction
// ledger: a zero-amount deposit on creation and a delta record on every
// contribution change, both classified by the system saving category.
type SavingService struct {
	storage    *storage.SQLiteRepository
	catalog    *catalog.Catalog
	dispatcher wallet.Dispatcher
}

func NewSavingService(storage *storage.SQLiteRepository, catalog *catalog.Catalog, dispatcher wallet.Dispatcher) *SavingService {
	return &SavingService{storage: storage, catalog: catalog, dispatcher: dispatcher}
}

// CreateSaving persists a new goal. Accumulation always starts at zero;
// the completion flag is derived, never accepted from the caller.
func (s *SavingService) CreateSaving(ctx context.Context, g core.SavingGoal) (*core.SavingGoal, error) {
	g.ID = uuid.NewString()
	g.CurrentAmount = core.Money{}
	g.IsCompleted = false
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("validate saving goal: %w", err)
	}

	if err := s.storage.CreateSavingGoal(ctx, &g); err != nil {
		return nil, fmt.Errorf("create saving goal: %w", err)
	}
	s.dispatcher.WalletChanged(ctx, g.OwnerID)

	s.recordDeposit(ctx, &g, core.Money{}, "Initial saving: "+g.Purpose)
	return &g, nil
}

// UpdateSaving applies the allowed field changes to an owner's goal. A
// contribution change re-derives the completion flag and leaves a delta
// record in the transaction ledger.
func (s *SavingService) UpdateSaving(ctx context.Context, ownerID, id string, upd SavingUpdate) (*core.SavingGoal, error) {
	existing, err := s.storage.GetSavingGoal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load saving goal: %w", err)
	}
	if existing.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}

	if upd.Purpose != nil {
		existing.Purpose = *upd.Purpose
	}
	if upd.TransactionDate != nil {
		existing.TransactionDate = *upd.TransactionDate
	}
	if upd.EvidenceRef != nil {
		existing.EvidenceRef = *upd.EvidenceRef
	}

	var delta core.Money
	if upd.CurrentAmount != nil {
		delta = upd.CurrentAmount.Sub(existing.CurrentAmount)
		if err := existing.SetCurrent(*upd.CurrentAmount); err != nil {
			return nil, err
		}
	}

	if err := existing.Validate(); err != nil {
		return nil, fmt.Errorf("validate saving goal: %w", err)
	}
	if err := s.storage.UpdateSavingGoal(ctx, existing); err != nil {
		return nil, fmt.Errorf("update saving goal: %w", err)
	}
	s.dispatcher.WalletChanged(ctx, existing.OwnerID)

	if upd.CurrentAmount != nil && delta.Cents != 0 {
		s.recordDeposit(ctx, existing, delta, "Added to saving: "+existing.Purpose)
	}
	return existing, nil
}

// DeleteSaving removes an owner's goal, capturing the owner id before the
// delete so the dispatch targets the right wallet.
func (s *SavingService) DeleteSaving(ctx context.Context, ownerID, id string) error {
	existing, err := s.storage.GetSavingGoal(ctx, id)
	if err != nil {
		return fmt.Errorf("load saving goal: %w", err)
	}
	if existing.OwnerID != ownerID {
		return storage.ErrNotFound
	}

	if err := s.storage.DeleteSavingGoal(ctx, id); err != nil {
		return fmt.Errorf("delete saving goal: %w", err)
	}

	s.dispatcher.WalletChanged(ctx, existing.OwnerID)
	return nil
}

// ListSavings returns all of the owner's goals.
func (s *SavingService) ListSavings(ctx context.Context, ownerID string) ([]core.SavingGoal, error) {
	goals, err := s.storage.ListSavingGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list saving goals: %w", err)
	}
	return goals, nil
}

// recordDeposit writes the goal's ledger trail record. Failure to record the
// trail is logged, not propagated: the goal mutation has already committed.
func (s *SavingService) recordDeposit(ctx context.Context, g *core.SavingGoal, amount core.Money, description string) {
	category, err := s.catalog.SystemCategory(ctx, core.Saving)
	if err != nil {
		slog.ErrorContext(ctx, "No saving category, skipping deposit record",
			"goal_id", g.ID, "error", err)
		return
	}

	deposit := core.Transaction{
		ID:              uuid.NewString(),
		OwnerID:         g.OwnerID,
		Amount:          amount,
		Source:          g.Source,
		SourceDetail:    g.SourceDetail,
		PaymentApp:      g.PaymentApp,
		Description:     description,
		CategoryID:      category.ID,
		CategoryType:    core.Saving,
		CategoryName:    category.Name,
		Status:          core.StatusSuccess,
		TransactionDate: g.TransactionDate,
	}
	if err := s.storage.CreateTransaction(ctx, &deposit); err != nil {
		slog.ErrorContext(ctx, "Failed to record saving deposit",
			"goal_id", g.ID, "error", err)
		return
	}

	s.dispatcher.WalletChanged(ctx, g.OwnerID)
}
