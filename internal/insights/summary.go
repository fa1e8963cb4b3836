// Package insights derives aggregate views from a transaction collection.
// Every function here is pure and total: any input, including an empty
// collection, produces a result.
package insights

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

// TopCategories bounds the category breakdown.
const TopCategories = 8

type (
	CategorySum struct {
		Category string
		Amount   decimal.Decimal
	}

	DaySum struct {
		Day    string
		Amount decimal.Decimal
	}

	Summary struct {
		TotalSpend  decimal.Decimal
		TotalIncome decimal.Decimal
		Count       int
		DebitCount  int
		AvgSpend    decimal.Decimal
		ByCategory  []CategorySum
		ByDay       []DaySum
	}
)

// Summarize computes totals, the top categories by spend and the daily
// spend series. Credits count towards income only.
func Summarize(txs []core.Transaction) Summary {
	s := Summary{
		TotalSpend:  decimal.Zero,
		TotalIncome: decimal.Zero,
		AvgSpend:    decimal.Zero,
		Count:       len(txs),
		ByCategory:  []CategorySum{},
		ByDay:       []DaySum{},
	}

	var (
		catIndex = make(map[string]int)
		dayIndex = make(map[string]int)
	)
	for _, tx := range txs {
		if tx.IsCredit() {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			continue
		}
		s.DebitCount++
		s.TotalSpend = s.TotalSpend.Add(tx.Amount)

		if i, ok := catIndex[tx.Category]; ok {
			s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(tx.Amount)
		} else {
			catIndex[tx.Category] = len(s.ByCategory)
			s.ByCategory = append(s.ByCategory, CategorySum{Category: tx.Category, Amount: tx.Amount})
		}

		day := tx.DayKey()
		if i, ok := dayIndex[day]; ok {
			s.ByDay[i].Amount = s.ByDay[i].Amount.Add(tx.Amount)
		} else {
			dayIndex[day] = len(s.ByDay)
			s.ByDay = append(s.ByDay, DaySum{Day: day, Amount: tx.Amount})
		}
	}

	if s.DebitCount > 0 {
		s.AvgSpend = s.TotalSpend.Div(decimal.NewFromInt(int64(s.DebitCount)))
	}

	// Stable so equal sums keep first-seen order.
	slices.SortStableFunc(s.ByCategory, func(a, b CategorySum) int {
		return b.Amount.Cmp(a.Amount)
	})
	if len(s.ByCategory) > TopCategories {
		s.ByCategory = s.ByCategory[:TopCategories]
	}

	// "Unknown" sorts after every YYYY-MM-DD key.
	slices.SortFunc(s.ByDay, func(a, b DaySum) int {
		return strings.Compare(a.Day, b.Day)
	})

	return s
}

// MaxCategory returns the largest category sum, or zero when there is none.
func (s Summary) MaxCategory() decimal.Decimal {
	if len(s.ByCategory) == 0 {
		return decimal.Zero
	}
	return s.ByCategory[0].Amount
}
