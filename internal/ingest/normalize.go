package ingest

import (
	"time"

	"github.com/google/uuid"

	"spendlens/internal/core"
)

// Normalizer turns raw rows into transactions. It never fails: every
// missing or malformed field takes its default.
type Normalizer struct {
	NewID func() string
	Now   func() time.Time
}

// NewNormalizer returns a normalizer using random UUIDs and the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{NewID: uuid.NewString, Now: time.Now}
}

func (n *Normalizer) Normalize(row core.RawRow) core.Transaction {
	newID, now := n.NewID, n.Now
	if newID == nil {
		newID = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}

	raw, _ := row.Lookup("date")
	tx := core.Transaction{
		ID:       newID(),
		Date:     core.ParseDate(raw, now()),
		Merchant: firstOf(row, core.UnknownMerchant, "merchant", "narration"),
		Category: firstOf(row, core.Uncategorized, "category"),
		Amount:   core.ParseAmount(firstOf(row, "0", "amount")),
		Type:     firstOf(row, core.TypeDebit, "type"),
	}
	return tx
}

// NormalizeAll maps every row, preserving order.
func (n *Normalizer) NormalizeAll(rows []core.RawRow) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, n.Normalize(row))
	}
	return out
}

func firstOf(row core.RawRow, fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row.Lookup(k); ok {
			return v
		}
	}
	return fallback
}
