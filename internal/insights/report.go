package insights

import "time"

// Report is the serialisable form of a Summary used by the JSON API and CLI.
type Report struct {
	TotalSpend  float64          `json:"totalSpend" yaml:"total_spend"`
	TotalIncome float64          `json:"totalIncome" yaml:"total_income"`
	Count       int              `json:"count" yaml:"count"`
	AvgSpend    float64          `json:"avgSpend" yaml:"avg_spend"`
	ByCategory  []CategoryReport `json:"byCategory" yaml:"by_category"`
	ByDay       []DayReport      `json:"byDay" yaml:"by_day"`
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generated_at"`
}

type CategoryReport struct {
	Category string  `json:"category" yaml:"category"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

type DayReport struct {
	Day    string  `json:"day" yaml:"day"`
	Amount float64 `json:"amount" yaml:"amount"`
}

func (s Summary) Report(now time.Time) Report {
	r := Report{
		TotalSpend:  s.TotalSpend.InexactFloat64(),
		TotalIncome: s.TotalIncome.InexactFloat64(),
		Count:       s.Count,
		AvgSpend:    s.AvgSpend.InexactFloat64(),
		ByCategory:  make([]CategoryReport, 0, len(s.ByCategory)),
		ByDay:       make([]DayReport, 0, len(s.ByDay)),
		GeneratedAt: now.UTC(),
	}
	for _, c := range s.ByCategory {
		r.ByCategory = append(r.ByCategory, CategoryReport{Category: c.Category, Amount: c.Amount.InexactFloat64()})
	}
	for _, d := range s.ByDay {
		r.ByDay = append(r.ByDay, DayReport{Day: d.Day, Amount: d.Amount.InexactFloat64()})
	}
	return r
}
