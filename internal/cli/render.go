package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"spendlens/internal/core"
	"spendlens/internal/insights"
)

// Output formats accepted by WriteSummary.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an output format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

const barWidth = 24

// WriteSummary renders s to w in the requested format.
func WriteSummary(w io.Writer, format string, s insights.Summary, now time.Time) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		_, err := io.WriteString(w, RenderText(lipgloss.NewRenderer(w), s))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Report(now))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s.Report(now)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	bar   lipgloss.Style
	muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7c3aed")).MarginTop(1),
		label: r.NewStyle().Width(16).Foreground(lipgloss.Color("#6b7280")),
		value: r.NewStyle().Bold(true),
		bar:   r.NewStyle().Foreground(lipgloss.Color("#a78bfa")),
		muted: r.NewStyle().Italic(true).Foreground(lipgloss.Color("#9ca3af")),
	}
}

// RenderText lays out the summary as stat lines, a category bar list and
// the daily spend series.
func RenderText(r *lipgloss.Renderer, s insights.Summary) string {
	st := newStyles(r)
	var b strings.Builder

	b.WriteString(st.title.Render("Statement summary"))
	b.WriteByte('\n')
	stats := [][2]string{
		{"Total spend", core.FormatINR(s.TotalSpend)},
		{"Total income", core.FormatINR(s.TotalIncome)},
		{"Transactions", fmt.Sprint(s.Count)},
		{"Average spend", core.FormatINR(s.AvgSpend)},
	}
	for _, kv := range stats {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, st.label.Render(kv[0]), st.value.Render(kv[1])))
		b.WriteByte('\n')
	}

	b.WriteString(st.title.Render("Top categories"))
	b.WriteByte('\n')
	if len(s.ByCategory) == 0 {
		b.WriteString(st.muted.Render("No spending yet."))
		b.WriteByte('\n')
	}
	top := s.MaxCategory()
	for _, c := range s.ByCategory {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			st.label.Render(c.Category),
			r.NewStyle().Width(barWidth+1).Render(st.bar.Render(bar(c.Amount, top))),
			st.value.Render(core.FormatINR(c.Amount))))
		b.WriteByte('\n')
	}

	if len(s.ByDay) > 0 {
		b.WriteString(st.title.Render("Daily spend"))
		b.WriteByte('\n')
		for _, d := range s.ByDay {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, st.label.Render(d.Day), st.value.Render(core.FormatINR(d.Amount))))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// bar scales amount against top into at most barWidth blocks. Any non-zero
// amount gets at least one block.
func bar(amount, top decimal.Decimal) string {
	if !top.IsPositive() || !amount.IsPositive() {
		return ""
	}
	n := int(amount.Div(top).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
	n = min(max(n, 1), barWidth)
	return strings.Repeat("█", n)
}
