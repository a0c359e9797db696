package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// GetWallet retrieves the derived wallet aggregate for an owner.
// Returns ErrNotFound if the owner has never been recomputed.
func (r *SQLiteRepository) GetWallet(ctx context.Context, ownerID string) (*core.Wallet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT owner_id, income_cents, expense_cents, savings_cents, balance_cents,
		       created_at, updated_at
		FROM wallets WHERE owner_id = ?`, ownerID)

	var (
		w                                 core.Wallet
		income, expense, savings, balance int64
	)
	err := row.Scan(&w.OwnerID, &income, &expense, &savings, &balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	w.Income = core.Money{Cents: income}
	w.Expense = core.Money{Cents: expense}
	w.Savings = core.Money{Cents: savings}
	w.Balance = core.Money{Cents: balance}
	return &w, nil
}

// UpsertWallet creates the owner's wallet on first recomputation and
// replaces its four numeric fields on every later one. The write is a
// single statement: it either fully applies or not at all.
func (r *SQLiteRepository) UpsertWallet(ctx context.Context, w *core.Wallet) error {
	now := time.Now().UTC()
	w.UpdatedAt = now
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (owner_id, income_cents, expense_cents, savings_cents, balance_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			income_cents = excluded.income_cents,
			expense_cents = excluded.expense_cents,
			savings_cents = excluded.savings_cents,
			balance_cents = excluded.balance_cents,
			updated_at = excluded.updated_at`,
		w.OwnerID, w.Income.Cents, w.Expense.Cents, w.Savings.Cents, w.Balance.Cents,
		w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert wallet: %w", err)
	}

	slog.InfoContext(ctx, "Wallet recomputed",
		"owner_id", w.OwnerID,
		"income_cents", w.Income.Cents,
		"expense_cents", w.Expense.Cents,
		"savings_cents", w.Savings.Cents,
		"balance_cents", w.Balance.Cents)

	return nil
}

// ListLedgerOwners returns the distinct owner ids present in the ledger,
// for the out-of-band reconciliation sweep.
func (r *SQLiteRepository) ListLedgerOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id FROM transactions
		UNION
		SELECT owner_id FROM saving_goals`)
	if err != nil {
		return nil, fmt.Errorf("list ledger owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}
