package wallet

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the ledger and wallet stores. The sqlite repository satisfies
// both; tests substitute in-memory fakes.
type (
	// LedgerReader reads the records a recomputation derives from.
	LedgerReader interface {
		// ListCountedTransactions returns the owner's Success-status transactions.
		ListCountedTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		// ListSavingGoalsByOwner returns all of the owner's contributions,
		// with no status gate.
		ListSavingGoalsByOwner(ctx context.Context, ownerID string) ([]core.SavingGoal, error)
	}

	// Store persists the derived wallet aggregate.
	Store interface {
		GetWallet(ctx context.Context, ownerID string) (*core.Wallet, error)
		UpsertWallet(ctx context.Context, w *core.Wallet) error
	}

	// Dispatcher is notified after every committed ledger write, exactly once
	// per mutation, with the owner id of the affected record.
	Dispatcher interface {
		WalletChanged(ctx context.Context, ownerID string)
	}
)
