package memory

import (
	"context"
	"slices"
	"sync"

	"spendlens/internal/core"
	"spendlens/internal/insights"
	"spendlens/internal/store"
)

var _ store.TransactionStore = (*Store)(nil)

// Store keeps the collection in process memory for the life of the session.
type Store struct {
	mu      sync.RWMutex
	items   []core.Transaction
	version int64
	opts    store.Options
}

func New(opts store.Options) *Store {
	return &Store{opts: opts}
}

func (s *Store) Snapshot(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), nil
}

func (s *Store) Merge(ctx context.Context, incoming []core.Transaction) (store.MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return store.MergeResult{}, err
	}
	for _, tx := range incoming {
		if err := tx.Validate(); err != nil {
			return store.MergeResult{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept, dropped := incoming, 0
	if s.opts.Dedupe {
		kept, dropped = insights.Dedupe(s.items, incoming)
	}
	s.items = insights.Merge(s.items, kept)
	s.version++

	return store.MergeResult{
		Added:   len(kept),
		Dropped: dropped,
		Total:   len(s.items),
		Version: s.version,
	}, nil
}

func (s *Store) Version(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.version++
	return nil
}
