package http

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
	"spendlens/internal/insights"
)

// Trend chart geometry, in SVG user units.
const (
	chartWidth   = 700
	chartHeight  = 220
	chartPadding = 24
)

// chartView is the spending trend rendered as two polylines: the stroke and
// the filled area under it.
type chartView struct {
	Width  int
	Height int
	Line   string
	Area   string
	First  string
	Last   string
	Points int
	Peak   string
}

// buildChart lays out per-day spend left to right. Values are scaled to the
// largest day, or to 1 when every day is zero.
func buildChart(days []insights.DaySum) chartView {
	view := chartView{Width: chartWidth, Height: chartHeight, Points: len(days)}
	if len(days) == 0 {
		return view
	}

	innerW := float64(chartWidth - 2*chartPadding)
	innerH := float64(chartHeight - 2*chartPadding)

	peak := decimal.NewFromInt(1)
	for _, d := range days {
		if d.Amount.GreaterThan(peak) {
			peak = d.Amount
		}
	}
	maxV := peak.InexactFloat64()

	span := float64(len(days) - 1)
	if span < 1 {
		span = 1
	}

	coords := make([]string, 0, len(days))
	for i, d := range days {
		x := float64(i)/span*innerW + chartPadding
		y := float64(chartHeight-chartPadding) - d.Amount.InexactFloat64()/maxV*innerH
		coords = append(coords, formatCoord(x)+","+formatCoord(y))
	}

	base := strconv.Itoa(chartHeight - chartPadding)
	view.Line = strings.Join(coords, " ")
	view.Area = view.Line +
		" " + strconv.Itoa(chartWidth-chartPadding) + "," + base +
		" " + strconv.Itoa(chartPadding) + "," + base
	view.First = days[0].Day
	view.Last = days[len(days)-1].Day
	view.Peak = core.FormatINR(peak)
	return view
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// categoryBar is one row of the top categories list. Width is a percentage
// of the top category, capped at 100.
type categoryBar struct {
	Name   string
	Amount string
	Width  string
}

func buildCategoryBars(cats []insights.CategorySum) []categoryBar {
	if len(cats) == 0 {
		return nil
	}
	top := cats[0].Amount
	if !top.IsPositive() {
		top = decimal.NewFromInt(1)
	}
	hundred := decimal.NewFromInt(100)

	bars := make([]categoryBar, 0, len(cats))
	for _, c := range cats {
		pct := c.Amount.Div(top).Mul(hundred)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		if pct.IsNegative() {
			pct = decimal.Zero
		}
		bars = append(bars, categoryBar{
			Name:   c.Category,
			Amount: core.FormatINR(c.Amount),
			Width:  pct.StringFixed(1),
		})
	}
	return bars
}
