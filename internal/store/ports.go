// Package store defines the owned container for the transaction collection.
// Implementations replace the collection on every merge and never edit
// stored transactions in place.
package store

import (
	"context"

	"spendlens/internal/core"
)

type (
	// MergeResult describes one completed merge.
	MergeResult struct {
		Added   int   `json:"added"`
		Dropped int   `json:"dropped"`
		Total   int   `json:"total"`
		Version int64 `json:"version"`
	}

	TransactionStore interface {
		// Snapshot returns the collection sorted by date, newest first.
		Snapshot(ctx context.Context) ([]core.Transaction, error)
		// Merge adds incoming ahead of the existing rows and re-sorts.
		Merge(ctx context.Context, incoming []core.Transaction) (MergeResult, error)
		// Version changes after every successful merge or reset.
		Version(ctx context.Context) (int64, error)
		Reset(ctx context.Context) error
	}

	// Options apply to every store implementation.
	Options struct {
		// Dedupe drops incoming rows whose day, merchant and amount already exist.
		Dedupe bool
	}
)
