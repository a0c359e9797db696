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

const savingColumns = `id, owner_id, source, source_detail, payment_app, purpose,
	current_cents, target_cents, is_completed, expected_at, transaction_date,
	evidence_ref, created_at, updated_at`

// CreateSavingGoal inserts a new savings contribution record.
func (r *SQLiteRepository) CreateSavingGoal(ctx context.Context, s *core.SavingGoal) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saving_goals (`+savingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, string(s.Source), s.SourceDetail, string(s.PaymentApp), s.Purpose,
		s.CurrentAmount.Cents, s.TargetAmount.Cents, s.IsCompleted,
		s.ExpectedAt.Time, s.TransactionDate.Time, s.EvidenceRef, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert saving goal: %w", err)
	}

	slog.InfoContext(ctx, "Saving goal saved",
		"id", s.ID,
		"owner_id", s.OwnerID,
		"purpose", s.Purpose,
		"target_cents", s.TargetAmount.Cents)

	return nil
}

// GetSavingGoal retrieves a single saving goal by ID.
func (r *SQLiteRepository) GetSavingGoal(ctx context.Context, id string) (*core.SavingGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+savingColumns+` FROM saving_goals WHERE id = ?`, id)

	s, err := scanSavingGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get saving goal: %w", err)
	}
	return s, nil
}

// UpdateSavingGoal overwrites the mutable fields of an existing goal.
func (r *SQLiteRepository) UpdateSavingGoal(ctx context.Context, s *core.SavingGoal) error {
	s.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE saving_goals
		SET purpose = ?, current_cents = ?, is_completed = ?, transaction_date = ?,
		    evidence_ref = ?, updated_at = ?
		WHERE id = ?`,
		s.Purpose, s.CurrentAmount.Cents, s.IsCompleted, s.TransactionDate.Time,
		s.EvidenceRef, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update saving goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Saving goal updated",
		"id", s.ID,
		"current_cents", s.CurrentAmount.Cents,
		"is_completed", s.IsCompleted)

	return nil
}

// DeleteSavingGoal removes a saving goal from the ledger.
func (r *SQLiteRepository) DeleteSavingGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saving_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete saving goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Saving goal deleted", "id", id)
	return nil
}

// ListSavingGoalsByOwner returns every saving goal of an owner, ordered by
// contribution date descending then expected completion ascending.
func (r *SQLiteRepository) ListSavingGoalsByOwner(ctx context.Context, ownerID string) ([]core.SavingGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+savingColumns+` FROM saving_goals
		 WHERE owner_id = ? ORDER BY transaction_date DESC, expected_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list saving goals: %w", err)
	}
	defer rows.Close()

	var results []core.SavingGoal
	for rows.Next() {
		s, err := scanSavingGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saving goal: %w", err)
		}
		results = append(results, *s)
	}
	return results, rows.Err()
}

func scanSavingGoal(row rowScanner) (*core.SavingGoal, error) {
	var (
		s             core.SavingGoal
		source, app   string
		current, tgt  int64
		expected, txd time.Time
	)
	err := row.Scan(&s.ID, &s.OwnerID, &source, &s.SourceDetail, &app, &s.Purpose,
		&current, &tgt, &s.IsCompleted, &expected, &txd,
		&s.EvidenceRef, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Source = core.Source(source)
	s.PaymentApp = core.PaymentApp(app)
	s.CurrentAmount = core.Money{Cents: current}
	s.TargetAmount = core.Money{Cents: tgt}
	s.ExpectedAt = core.Date{Time: expected}
	s.TransactionDate = core.Date{Time: txd}
	return &s, nil
}
