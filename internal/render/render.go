// Package render prints a Report as a terminal dashboard.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/pipeline"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const barWidth = 30

var (
	headingColor = color.New(color.Bold, color.FgCyan)
	incomeColor  = color.New(color.FgGreen)
	expenseColor = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	mutedColor   = color.New(color.Faint)
)

// Options controls how much of the report is printed.
type Options struct {
	PreviewRows int // 0 hides the preview, negative prints every row
}

// DefaultOptions previews the first ten rows.
func DefaultOptions() Options {
	return Options{PreviewRows: 10}
}

// Summary writes the dashboard: predictions preview, KPI totals, category
// breakdown, amounts by type and monthly volume. Sections the input cannot
// support are reported as not applicable.
func Summary(w io.Writer, r *pipeline.Report, opts Options) {
	headingColor.Fprintf(w, "Run %s: %d transactions classified\n", r.RunID(), r.Len())

	if opts.PreviewRows != 0 {
		preview(w, r, opts.PreviewRows)
	}
	kpi(w, r)
	breakdown(w, r)
	amounts(w, r)
	monthly(w, r)
	warnings(w, r)
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	headingColor.Fprintln(w, title)
}

func notApplicable(w io.Writer, column string) {
	mutedColor.Fprintf(w, "  n/a (no %s column)\n", column)
}

func categoryColor(c domain.Category) *color.Color {
	if c == domain.CategoryIncome {
		return incomeColor
	}
	return expenseColor
}

func preview(w io.Writer, r *pipeline.Report, limit int) {
	section(w, "Predictions Preview")

	caps := r.Capabilities()
	cols := r.PreviewColumns()
	fmt.Fprintf(w, "  %-40s %-8s", cols[0], cols[1])
	for _, c := range cols[2:] {
		fmt.Fprintf(w, " %14s", c)
	}
	fmt.Fprintln(w)

	n := r.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		row := r.Row(i)
		fmt.Fprintf(w, "  %-40s ", truncate(row.Note, 40))
		categoryColor(row.PredictedType).Fprintf(w, "%-8s", row.PredictedType)
		if caps.HasAmount() {
			fmt.Fprintf(w, " %14s", cellAt(row.Values, caps.AmountIndex))
		}
		if caps.HasDate() {
			fmt.Fprintf(w, " %14s", cellAt(row.Values, caps.DateIndex))
		}
		fmt.Fprintln(w)
	}
	if n < r.Len() {
		mutedColor.Fprintf(w, "  ... %d more\n", r.Len()-n)
	}
}

func kpi(w io.Writer, r *pipeline.Report) {
	section(w, "Summary")

	totals, ok := r.KPI()
	if !ok {
		notApplicable(w, "amount")
		return
	}
	fmt.Fprintf(w, "  %-16s ", "Total Income")
	incomeColor.Fprintln(w, FormatMoney(r.Currency(), totals.Income))
	fmt.Fprintf(w, "  %-16s ", "Total Expenses")
	expenseColor.Fprintln(w, FormatMoney(r.Currency(), totals.Expense))
	fmt.Fprintf(w, "  %-16s %s\n", "Net", FormatMoney(r.Currency(), totals.Net()))
}

func breakdown(w io.Writer, r *pipeline.Report) {
	section(w, "Income vs Expense Breakdown")

	counts := r.CategoryCounts()
	if len(counts) == 0 {
		mutedColor.Fprintln(w, "  no transactions")
		return
	}
	for _, c := range counts {
		share := float64(c.Count) / float64(r.Len()) * 100
		fmt.Fprintf(w, "  ")
		categoryColor(c.Category).Fprintf(w, "%-8s", c.Category)
		fmt.Fprintf(w, " %6d  %5.1f%%\n", c.Count, share)
	}
}

func amounts(w io.Writer, r *pipeline.Report) {
	section(w, "Total Amount by Type")

	totals, ok := r.CategoryAmounts()
	if !ok {
		notApplicable(w, "amount")
		return
	}
	if len(totals) == 0 {
		mutedColor.Fprintln(w, "  no transactions")
		return
	}

	peak := decimal.Zero
	for _, t := range totals {
		if t.Total.Abs().GreaterThan(peak) {
			peak = t.Total.Abs()
		}
	}
	for _, t := range totals {
		fmt.Fprintf(w, "  %-8s ", t.Category)
		categoryColor(t.Category).Fprint(w, bar(t.Total, peak))
		fmt.Fprintf(w, " %s\n", FormatMoney(r.Currency(), t.Total))
	}
}

func monthly(w io.Writer, r *pipeline.Report) {
	section(w, "Monthly Transaction Volume")

	table, ok := r.PeriodCounts()
	if !ok {
		notApplicable(w, "date")
		return
	}
	if len(table.Periods) == 0 {
		mutedColor.Fprintln(w, "  no dated transactions")
		return
	}

	fmt.Fprintf(w, "  %-8s", pipeline.ColumnPeriod)
	for _, c := range table.Categories {
		fmt.Fprintf(w, " %8s", c)
	}
	fmt.Fprintln(w)
	for i, p := range table.Periods {
		fmt.Fprintf(w, "  %-8s", p)
		for _, n := range table.Counts[i] {
			fmt.Fprintf(w, " %8d", n)
		}
		fmt.Fprintln(w)
	}
}

func warnings(w io.Writer, r *pipeline.Report) {
	ws := r.Warnings()
	if len(ws) == 0 {
		return
	}
	fmt.Fprintln(w)
	warnColor.Fprintf(w, "%d value(s) could not be parsed:\n", len(ws))
	for _, pw := range ws {
		warnColor.Fprintf(w, "  %s\n", pw)
	}
}

// FormatMoney renders an amount rounded to whole units with thousands
// separators, e.g. "KES 60,000".
func FormatMoney(currency string, d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}

	if currency == "" {
		return sign + b.String()
	}
	return currency + " " + sign + b.String()
}

func bar(v, peak decimal.Decimal) string {
	if peak.IsZero() {
		return strings.Repeat(" ", barWidth)
	}
	n := int(v.Abs().Div(peak).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
	return strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func cellAt(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}
