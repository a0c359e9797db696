package wallet

import (
	"context"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Service serves wallet reads through a small LRU cache. The wallet is the
// hot read path; the cache keeps repeated reads off sqlite between
// recomputations.
type Service struct {
	store Store
	cache *cache.LRUCache[core.Wallet]
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		cache: cache.NewLRUCache[core.Wallet](1024, 30*time.Second),
	}
}

// Get returns the owner's wallet as of its last recomputation. The value may
// trail the ledger momentarily; it never leads it.
func (s *Service) Get(ctx context.Context, ownerID string) (core.Wallet, error) {
	if w, ok := s.cache.Get(ownerID); ok {
		return w, nil
	}

	w, err := s.store.GetWallet(ctx, ownerID)
	if err != nil {
		return core.Wallet{}, err
	}

	s.cache.Set(ownerID, *w)
	return *w, nil
}

// Invalidate drops the cached wallet for an owner. Called after every
// recomputation so the next read sees the fresh aggregate.
func (s *Service) Invalidate(ownerID string) {
	s.cache.Delete(ownerID)
}
