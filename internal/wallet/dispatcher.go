package wallet

import (
	"context"
	"log/slog"
)

// Invalidator drops cached wallet reads for an owner after recomputation.
type Invalidator interface {
	Invalidate(ownerID string)
}

// RecomputePublisher enqueues a recompute request for asynchronous handling.
type RecomputePublisher interface {
	PublishRecompute(ctx context.Context, ownerID string) error
}

// SyncDispatcher runs the recomputation inline, after the triggering write
// has committed. A failed recomputation is logged and swallowed: the ledger
// mutation has already committed and must not be failed or rolled back for
// the sake of the derived wallet. The wallet stays at its last value until
// the next trigger or the reconciliation sweep.
type SyncDispatcher struct {
	engine *Engine
	cache  Invalidator // may be nil
}

func NewSyncDispatcher(engine *Engine, cache Invalidator) *SyncDispatcher {
	return &SyncDispatcher{engine: engine, cache: cache}
}

func (d *SyncDispatcher) WalletChanged(ctx context.Context, ownerID string) {
	if _, err := d.engine.Recompute(ctx, ownerID); err != nil {
		slog.ErrorContext(ctx, "Wallet recomputation failed, wallet left stale",
			"owner_id", ownerID,
			"error", err)
		return
	}
	if d.cache != nil {
		d.cache.Invalidate(ownerID)
	}
}

// QueueDispatcher publishes the recompute request to a durable queue instead
// of running it inline; the recompute worker consumes it with retry. A failed
// publish is logged, not propagated: the periodic sweep recomputes every
// owner and corrects any wallet whose trigger was lost.
type QueueDispatcher struct {
	publisher RecomputePublisher
}

func NewQueueDispatcher(publisher RecomputePublisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) WalletChanged(ctx context.Context, ownerID string) {
	if err := d.publisher.PublishRecompute(ctx, ownerID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recompute request",
			"owner_id", ownerID,
			"error", err)
	}
}
