package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

const transactionColumns = `id, owner_id, amount_cents, source, source_detail, payment_app,
	description, category_id, category_type, category_name, status,
	transaction_date, created_at, updated_at`

// TransactionFilter narrows FindTransactions results. Zero values mean
// "no filter" for the corresponding field.
type TransactionFilter struct {
	Status       core.Status
	CategoryType core.CategoryType
	From         time.Time
	To           time.Time
	Search       string // case-insensitive match on description or category name

	Page      int    // 1-based, defaults to 1
	Limit     int    // clamped to [1, 100], defaults to 10
	SortBy    string // "amount" or "transaction_date" (default)
	SortOrder string // "asc" or "desc" (default)
}

func (f *TransactionFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.SortBy != "amount" {
		f.SortBy = "transaction_date"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
}

// CreateTransaction inserts a new ledger transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Amount.Cents, string(t.Source), t.SourceDetail, string(t.PaymentApp),
		t.Description, t.CategoryID, string(t.CategoryType), t.CategoryName, string(t.Status),
		t.TransactionDate.Time, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"category_type", t.CategoryType,
		"amount_cents", t.Amount.Cents,
		"status", t.Status)

	return nil
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction overwrites the mutable fields of an existing transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	t.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, payment_app = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		t.Description, string(t.PaymentApp), string(t.Status), t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", t.ID, "status", t.Status)
	return nil
}

// DeleteTransaction removes a transaction from the ledger.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListTransactionsByOwner returns every transaction of an owner regardless
// of status, ordered by transaction date ascending.
func (r *SQLiteRepository) ListTransactionsByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE owner_id = ? ORDER BY transaction_date ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListCountedTransactions returns the owner's Success-status transactions,
// the only ones that feed the wallet and the status-gated analytics.
func (r *SQLiteRepository) ListCountedTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE owner_id = ? AND status = ? ORDER BY transaction_date ASC`,
		ownerID, string(core.StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("list counted transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// FindTransactions returns a page of an owner's transactions matching the
// filter, plus the total number of matches before pagination.
func (r *SQLiteRepository) FindTransactions(ctx context.Context, ownerID string, filter TransactionFilter) ([]core.Transaction, int, error) {
	filter.normalize()

	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.CategoryType != "" {
		where = append(where, "category_type = ?")
		args = append(args, string(filter.CategoryType))
	}
	if !filter.From.IsZero() {
		where = append(where, "transaction_date >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where = append(where, "transaction_date <= ?")
		args = append(args, filter.To)
	}
	if filter.Search != "" {
		where = append(where, "(description LIKE ? COLLATE NOCASE OR category_name LIKE ? COLLATE NOCASE)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Sort column and direction come from a whitelist, never from user input.
	sortBy := "transaction_date"
	if filter.SortBy == "amount" {
		sortBy = "amount_cents"
	}
	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?`,
		transactionColumns, whereClause, sortBy, order)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	results, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t          core.Transaction
		source     string
		app        string
		catType    string
		status     string
		txDate     time.Time
		amountCent int64
	)
	err := row.Scan(&t.ID, &t.OwnerID, &amountCent, &source, &t.SourceDetail, &app,
		&t.Description, &t.CategoryID, &catType, &t.CategoryName, &status,
		&txDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount = core.Money{Cents: amountCent}
	t.Source = core.Source(source)
	t.PaymentApp = core.PaymentApp(app)
	t.CategoryType = core.CategoryType(catType)
	t.Status = core.Status(status)
	t.TransactionDate = core.Date{Time: txDate}
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var results []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		results = append(results, *t)
	}
	return results, rows.Err()
}
