package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func TestMerge_SortedNewestFirst(t *testing.T) {
	existing := []core.Transaction{
		tx("2025-01-08", "Swiggy", "Food", 349, "Debit"),
		tx("2025-01-01", "Rent", "Household", 12000, "Debit"),
	}
	incoming := []core.Transaction{
		tx("2025-01-05", "Netflix", "Entertainment", 499, "Debit"),
		tx("2025-02-01", "Salary", "Income", 50000, "Credit"),
	}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 4)
	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].Date.After(merged[i-1].Date), "dates must be non-increasing at %d", i)
	}
	assert.Equal(t, "Salary", merged[0].Merchant)
	assert.Equal(t, "Rent", merged[3].Merchant)

	// inputs untouched
	assert.Equal(t, "Swiggy", existing[0].Merchant)
	assert.Equal(t, "Netflix", incoming[0].Merchant)
}

func TestMerge_IncomingWinsTies(t *testing.T) {
	old := tx("2025-01-08", "Old", "Food", 1, "Debit")
	fresh := tx("2025-01-08", "New", "Food", 1, "Debit")

	merged := Merge([]core.Transaction{old}, []core.Transaction{fresh})
	assert.Equal(t, []string{"New", "Old"}, []string{merged[0].Merchant, merged[1].Merchant})
}

func TestMerge_KeepsDuplicates(t *testing.T) {
	set := sampleSet()
	merged := Merge(set, sampleSet())
	assert.Len(t, merged, 16)
}

func TestMerge_UndatedLast(t *testing.T) {
	merged := Merge(nil, []core.Transaction{
		tx("", "Undated", "Misc", 1, "Debit"),
		tx("2025-01-01", "Dated", "Misc", 1, "Debit"),
	})
	assert.Equal(t, "Dated", merged[0].Merchant)
	assert.Equal(t, "Undated", merged[1].Merchant)
}

func TestDedupe(t *testing.T) {
	existing := sampleSet()[:2]
	incoming := []core.Transaction{
		tx("2025-01-08", "Swiggy", "Food", 349, "Debit"),
		tx("2025-01-09", "Zomato", "Food", 250, "Debit"),
		tx("2025-01-09", "Zomato", "Food", 250, "Debit"),
	}

	kept, dropped := Dedupe(existing, incoming)
	assert.Equal(t, 2, dropped)
	require.Len(t, kept, 1)
	assert.Equal(t, "Zomato", kept[0].Merchant)
}
