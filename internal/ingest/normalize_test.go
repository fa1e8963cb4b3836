package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

var fixedNow = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

func testNormalizer() *Normalizer {
	n := 0
	return &Normalizer{
		NewID: func() string { n++; return fmt.Sprintf("tx-%d", n) },
		Now:   func() time.Time { return fixedNow },
	}
}

func TestNormalize_Defaults(t *testing.T) {
	tx := testNormalizer().Normalize(core.RawRow{})

	assert.Equal(t, "tx-1", tx.ID)
	assert.True(t, tx.Date.Equal(fixedNow))
	assert.Equal(t, core.UnknownMerchant, tx.Merchant)
	assert.Equal(t, core.Uncategorized, tx.Category)
	assert.True(t, tx.Amount.IsZero())
	assert.Equal(t, core.TypeDebit, tx.Type)
	assert.False(t, tx.IsCredit())
}

func TestNormalize_Fields(t *testing.T) {
	tests := []struct {
		name  string
		row   core.RawRow
		check func(t *testing.T, tx core.Transaction)
	}{
		{
			name: "narration used when merchant missing",
			row:  core.RawRow{"narration": "UPI/PhonePe"},
			check: func(t *testing.T, tx core.Transaction) {
				assert.Equal(t, "UPI/PhonePe", tx.Merchant)
			},
		},
		{
			name: "empty merchant falls through to narration",
			row:  core.RawRow{"merchant": "", "narration": "ATM"},
			check: func(t *testing.T, tx core.Transaction) {
				assert.Equal(t, "ATM", tx.Merchant)
			},
		},
		{
			name: "currency formatted amount",
			row:  core.RawRow{"amount": "₹1,249.50"},
			check: func(t *testing.T, tx core.Transaction) {
				assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1249.50")), tx.Amount.String())
			},
		},
		{
			name: "garbage amount coerces to zero",
			row:  core.RawRow{"amount": "n/a"},
			check: func(t *testing.T, tx core.Transaction) {
				assert.True(t, tx.Amount.IsZero())
			},
		},
		{
			name: "unparseable date falls back to now",
			row:  core.RawRow{"date": "yesterday"},
			check: func(t *testing.T, tx core.Transaction) {
				assert.True(t, tx.Date.Equal(fixedNow))
			},
		},
		{
			name: "type kept verbatim",
			row:  core.RawRow{"type": "credit"},
			check: func(t *testing.T, tx core.Transaction) {
				assert.Equal(t, "credit", tx.Type)
				assert.True(t, tx.IsCredit())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, testNormalizer().Normalize(tt.row))
		})
	}
}

func TestNormalizer_DefaultIDsAreUnique(t *testing.T) {
	n := NewNormalizer()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tx := n.Normalize(core.RawRow{})
		require.NotEmpty(t, tx.ID)
		require.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
	}
}

func TestPipeline_Ingest(t *testing.T) {
	blob := buildZip(t, zipFile{"statement.csv",
		"date,merchant,category,amount,type\n2025-01-08,Swiggy,Food,349,Debit\n2025-01-07,PhonePe Wallet,Income,2000,Credit\n"})

	batch, err := NewPipeline(testNormalizer()).Ingest(blob)
	require.NoError(t, err)
	assert.Equal(t, "statement.csv", batch.Entry)
	require.Len(t, batch.Transactions, 2)

	first := batch.Transactions[0]
	assert.Equal(t, "Swiggy", first.Merchant)
	assert.Equal(t, "Food", first.Category)
	assert.Equal(t, "2025-01-08", first.DayKey())
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(349)))
	assert.True(t, batch.Transactions[1].IsCredit())
}

func TestPipeline_IngestFailureReturnsNothing(t *testing.T) {
	blob := buildZip(t, zipFile{"statement.txt", "date\n2025-01-01"})

	batch, err := NewPipeline(nil).Ingest(blob)
	require.ErrorIs(t, err, ErrNoMatchingEntry)
	assert.Empty(t, batch.Transactions)
}

func TestPipeline_Sample(t *testing.T) {
	txs := NewPipeline(testNormalizer()).Sample()
	require.Len(t, txs, 8)
	assert.Equal(t, "Rent", txs[7].Merchant)
	assert.True(t, txs[7].Amount.Equal(decimal.NewFromInt(12000)))
}
