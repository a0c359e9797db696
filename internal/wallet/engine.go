package wallet

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var (
	// ErrLedgerRead marks a recomputation aborted before any write: the
	// wallet keeps its last known value.
	ErrLedgerRead = errors.New("ledger read failed")

	// ErrWalletWrite marks a recomputation that derived totals but could not
	// persist them: the wallet is stale until the next trigger or sweep.
	ErrWalletWrite = errors.New("wallet write failed")
)

// Engine derives an owner's wallet from their full ledger.
//
// Every recomputation is a full scan. The ledger carries no already-counted
// marker, so an incremental delta would need a second source of truth.
type Engine struct {
	ledger  LedgerReader
	wallets Store
}

func NewEngine(ledger LedgerReader, wallets Store) *Engine {
	return &Engine{ledger: ledger, wallets: wallets}
}

// Recompute reads all of the owner's ledger records, derives the four wallet
// totals, and creates or replaces the owner's wallet. An owner with an empty
// ledger is valid and yields a zero-valued wallet.
func (e *Engine) Recompute(ctx context.Context, ownerID string) (core.Wallet, error) {
	transactions, err := e.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}

	var income, expense core.Money
	for _, t := range transactions {
		switch t.CategoryType {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}

	goals, err := e.ledger.ListSavingGoalsByOwner(ctx, ownerID)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}

	var savings core.Money
	for _, g := range goals {
		savings = savings.Add(g.CurrentAmount)
	}

	w := core.Wallet{
		OwnerID: ownerID,
		Income:  income,
		Expense: expense,
		Savings: savings,
		Balance: income.Sub(expense).Sub(savings),
	}

	if err := e.wallets.UpsertWallet(ctx, &w); err != nil {
		return core.Wallet{}, fmt.Errorf("%w: %w", ErrWalletWrite, err)
	}

	return w, nil
}
