package insights

import (
	"slices"

	"spendlens/internal/core"
)

// Merge puts incoming ahead of existing and stably re-sorts the whole set by
// date, newest first. Neither input slice is modified.
func Merge(existing, incoming []core.Transaction) []core.Transaction {
	merged := make([]core.Transaction, 0, len(existing)+len(incoming))
	merged = append(merged, incoming...)
	merged = append(merged, existing...)
	SortByDateDesc(merged)
	return merged
}

// SortByDateDesc sorts in place, newest first, keeping the relative order of
// equal dates. Transactions without a date go last.
func SortByDateDesc(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
}

// Dedupe drops incoming transactions whose content hash is already present in
// existing or earlier in incoming. It returns the kept rows and how many were dropped.
func Dedupe(existing, incoming []core.Transaction) ([]core.Transaction, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, tx := range existing {
		seen[tx.ContentHash()] = struct{}{}
	}
	kept := make([]core.Transaction, 0, len(incoming))
	for _, tx := range incoming {
		h := tx.ContentHash()
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		kept = append(kept, tx)
	}
	return kept, len(incoming) - len(kept)
}
