// Package export writes Report sections as CSV.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/pipeline"
	"github.com/dvloznov/money-manager/internal/tabular"
)

// DefaultFilename is the download name for the annotated rows.
const DefaultFilename = "predictions.csv"

// ContentType is the MIME type of every export.
const ContentType = "text/csv; charset=utf-8"

// ErrNotApplicable is returned when the report has no such section because
// the input lacked the column it is computed from.
var ErrNotApplicable = errors.New("section not applicable to this report")

// AnnotatedCSV writes every input row with predicted_type and, when the
// input had dates, period.
func AnnotatedCSV(w io.Writer, r *pipeline.Report) error {
	if err := tabular.WriteCSV(w, r.ExportHeader(), r.ExportRecords()); err != nil {
		return fmt.Errorf("AnnotatedCSV: %w", err)
	}
	return nil
}

// KPICSV writes the income/expense/net totals.
func KPICSV(w io.Writer, r *pipeline.Report) error {
	kpi, ok := r.KPI()
	if !ok {
		return fmt.Errorf("KPICSV: %w", ErrNotApplicable)
	}

	records := [][]string{
		{string(domain.CategoryIncome), kpi.Income.String()},
		{string(domain.CategoryExpense), kpi.Expense.String()},
		{"Net", kpi.Net().String()},
	}
	if err := tabular.WriteCSV(w, []string{"metric", "total"}, records); err != nil {
		return fmt.Errorf("KPICSV: %w", err)
	}
	return nil
}

// CategoryCSV writes row counts per category and, when amounts exist, the
// per-category totals.
func CategoryCSV(w io.Writer, r *pipeline.Report) error {
	amounts, hasAmounts := r.CategoryAmounts()
	totals := make(map[domain.Category]string, len(amounts))
	for _, a := range amounts {
		totals[a.Category] = a.Total.String()
	}

	header := []string{"category", "count"}
	if hasAmounts {
		header = append(header, "total")
	}

	counts := r.CategoryCounts()
	records := make([][]string, 0, len(counts))
	for _, c := range counts {
		record := []string{string(c.Category), strconv.Itoa(c.Count)}
		if hasAmounts {
			record = append(record, totals[c.Category])
		}
		records = append(records, record)
	}

	if err := tabular.WriteCSV(w, header, records); err != nil {
		return fmt.Errorf("CategoryCSV: %w", err)
	}
	return nil
}

// PeriodCountsCSV writes the period x category table, one row per period.
func PeriodCountsCSV(w io.Writer, r *pipeline.Report) error {
	table, ok := r.PeriodCounts()
	if !ok {
		return fmt.Errorf("PeriodCountsCSV: %w", ErrNotApplicable)
	}

	header := make([]string, 0, len(table.Categories)+1)
	header = append(header, pipeline.ColumnPeriod)
	for _, c := range table.Categories {
		header = append(header, string(c))
	}

	records := make([][]string, 0, len(table.Periods))
	for i, p := range table.Periods {
		record := make([]string, 0, len(header))
		record = append(record, p.String())
		for _, n := range table.Counts[i] {
			record = append(record, strconv.Itoa(n))
		}
		records = append(records, record)
	}

	if err := tabular.WriteCSV(w, header, records); err != nil {
		return fmt.Errorf("PeriodCountsCSV: %w", err)
	}
	return nil
}

// Sections maps the names accepted by the CLI and HTTP API to writers.
var Sections = map[string]func(io.Writer, *pipeline.Report) error{
	"rows":       AnnotatedCSV,
	"kpi":        KPICSV,
	"categories": CategoryCSV,
	"periods":    PeriodCountsCSV,
}
