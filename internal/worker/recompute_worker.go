// Package worker runs wallet recomputations outside the request path: it
// consumes queued recompute requests and periodically sweeps every owner to
// correct wallets whose trigger was lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/wallet"
)

// OwnerLister enumerates the owners present in the ledger.
type OwnerLister interface {
	ListLedgerOwners(ctx context.Context) ([]string, error)
}

// RecomputeWorker drains the recompute queue and runs the reconciliation
// sweep.
type RecomputeWorker struct {
	engine      *wallet.Engine
	owners      OwnerLister
	cache       wallet.Invalidator // may be nil
	parallelism int
}

func NewRecomputeWorker(engine *wallet.Engine, owners OwnerLister, cache wallet.Invalidator, parallelism int) *RecomputeWorker {
	if parallelism < 1 {
		parallelism = 1
	}
	return &RecomputeWorker{
		engine:      engine,
		owners:      owners,
		cache:       cache,
		parallelism: parallelism,
	}
}

// HandleRecomputeMessage processes a single queued recompute request.
// Returning an error requeues the message, so a transient storage failure
// is retried rather than dropped.
func (w *RecomputeWorker) HandleRecomputeMessage(ctx context.Context, msg *amqp.RecomputeMessage) error {
	result, err := w.engine.Recompute(ctx, msg.OwnerID)
	if err != nil {
		return fmt.Errorf("recompute wallet: %w", err)
	}

	if w.cache != nil {
		w.cache.Invalidate(msg.OwnerID)
	}

	slog.InfoContext(ctx, "Wallet recomputed from queue",
		"owner_id", msg.OwnerID,
		"balance_cents", result.Balance.Cents,
		"requested_at", msg.Timestamp)

	return nil
}

// ReconcileAll recomputes every owner's wallet. This is the out-of-band
// sweep that corrects wallets left stale by a failed write or a lost
// message. Owners are processed with bounded parallelism; one owner's
// failure does not stop the others.
func (w *RecomputeWorker) ReconcileAll(ctx context.Context) error {
	owners, err := w.owners.ListLedgerOwners(ctx)
	if err != nil {
		return fmt.Errorf("list ledger owners: %w", err)
	}

	if len(owners) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Starting wallet reconciliation sweep", "owners", len(owners))

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism)

	for _, ownerID := range owners {
		ownerID := ownerID
		g.Go(func() error {
			if _, err := w.engine.Recompute(gctx, ownerID); err != nil {
				slog.ErrorContext(gctx, "Reconciliation recompute failed",
					"owner_id", ownerID, "error", err)
				failed.Add(1)
				return nil // keep sweeping the remaining owners
			}
			if w.cache != nil {
				w.cache.Invalidate(ownerID)
			}
			return nil
		})
	}

	// Every closure returns nil so the sweep covers all owners; failures are
	// counted instead of propagated through the group.
	_ = g.Wait()

	slog.InfoContext(ctx, "Wallet reconciliation sweep completed",
		"owners", len(owners),
		"failed", failed.Load())

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("reconciliation sweep: %d of %d owners failed", n, len(owners))
	}
	return nil
}
