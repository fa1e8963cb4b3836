package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spendlens/internal/core"
)

func merchants(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.Merchant)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"empty query returns everything", Query{}, merchants(sampleSet())},
		{"text matches merchant", Query{Text: "swig"}, []string{"Swiggy"}},
		{"text matches category", Query{Text: "  GROCER "}, []string{"Big Bazaar"}},
		{"text spans merchant and category", Query{Text: "uber transport"}, []string{"Uber"}},
		{"category exact match", Query{Category: "Food"}, []string{"Swiggy"}},
		{"All category", Query{Category: AllCategories, Text: "a"}, []string{"Uber", "PhonePe Wallet", "Big Bazaar", "Netflix", "Amazon", "Starbucks"}},
		{"category and text combine", Query{Category: "Food", Text: "uber"}, []string{}},
		{"category is case sensitive", Query{Category: "food"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, merchants(Filter(sampleSet(), tt.query)))
		})
	}
}

func TestCategories(t *testing.T) {
	got := Categories(sampleSet())
	assert.Equal(t, []string{"All", "Food", "Transport", "Income", "Groceries", "Entertainment", "Shopping", "Cafe", "Household"}, got)
	assert.Equal(t, []string{"All"}, Categories(nil))
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, Query{Text: " Swig "}.Key(), Query{Text: "swig", Category: "All"}.Key())
	assert.NotEqual(t, Query{Category: "Food"}.Key(), Query{}.Key())
}
