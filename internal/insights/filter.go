package insights

import (
	"strings"

	"spendlens/internal/core"
)

// AllCategories is the category filter value that matches everything.
const AllCategories = "All"

// Query narrows the transaction table.
type Query struct {
	Text     string
	Category string
}

func (q Query) Key() string {
	return strings.ToLower(strings.TrimSpace(q.Text)) + "\x00" + q.category()
}

func (q Query) category() string {
	c := strings.TrimSpace(q.Category)
	if c == "" {
		return AllCategories
	}
	return c
}

// Filter keeps transactions whose merchant or category contains the query
// text (case-insensitive) and whose category matches exactly, unless the
// category is "All".
func Filter(txs []core.Transaction, q Query) []core.Transaction {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	cat := q.category()

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if cat != AllCategories && tx.Category != cat {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(tx.Merchant+" "+tx.Category), text) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Categories lists "All" followed by every category in first-seen order.
func Categories(txs []core.Transaction) []string {
	out := []string{AllCategories}
	seen := make(map[string]bool)
	for _, tx := range txs {
		if seen[tx.Category] {
			continue
		}
		seen[tx.Category] = true
		out = append(out, tx.Category)
	}
	return out
}
