package pipeline

import (
	"encoding/json"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/shopspring/decimal"
)

// Report is the immutable result of one pipeline run. Optional sections
// report (value, false) when they do not apply to the input, which is
// distinct from a zero value.
type Report struct {
	runID    string
	currency string
	header   []string
	caps     Capabilities

	rows     []domain.AnnotatedRow
	warnings []domain.ParseWarning

	categoryCounts  []CategoryCount
	kpi             *KPITotals
	categoryAmounts []CategoryAmount
	periodCounts    *PeriodCountTable
}

// ReportParts carries the stage outputs into AssembleReport.
type ReportParts struct {
	RunID        string
	Currency     string
	Header       []string
	Capabilities Capabilities
	Rows         []domain.AnnotatedRow
	Warnings     []domain.ParseWarning

	CategoryCounts  []CategoryCount
	KPI             KPITotals
	CategoryAmounts []CategoryAmount
	PeriodCounts    *PeriodCountTable
}

// AssembleReport bundles the stage outputs. Capabilities decide which
// optional sections are kept; sections for absent columns are dropped even
// if the parts carry values for them.
func AssembleReport(parts ReportParts) *Report {
	r := &Report{
		runID:          parts.RunID,
		currency:       parts.Currency,
		header:         append([]string(nil), parts.Header...),
		caps:           parts.Capabilities,
		rows:           make([]domain.AnnotatedRow, len(parts.Rows)),
		warnings:       append([]domain.ParseWarning(nil), parts.Warnings...),
		categoryCounts: append([]CategoryCount{}, parts.CategoryCounts...),
	}
	for i, row := range parts.Rows {
		r.rows[i] = cloneRow(row)
	}

	if parts.Capabilities.HasAmount() {
		kpi := parts.KPI
		r.kpi = &kpi
		r.categoryAmounts = append([]CategoryAmount{}, parts.CategoryAmounts...)
	}
	if parts.Capabilities.HasDate() && parts.PeriodCounts != nil {
		r.periodCounts = parts.PeriodCounts.Clone()
	}

	return r
}

func (r *Report) RunID() string              { return r.runID }
func (r *Report) Currency() string           { return r.currency }
func (r *Report) Capabilities() Capabilities { return r.caps }
func (r *Report) Len() int                   { return len(r.rows) }
func (r *Report) CategoryCounts() []CategoryCount {
	return append([]CategoryCount(nil), r.categoryCounts...)
}
func (r *Report) Warnings() []domain.ParseWarning {
	return append([]domain.ParseWarning(nil), r.warnings...)
}

// Rows returns a copy of every annotated row.
func (r *Report) Rows() []domain.AnnotatedRow {
	rows := make([]domain.AnnotatedRow, len(r.rows))
	for i, row := range r.rows {
		rows[i] = cloneRow(row)
	}
	return rows
}

// Row returns a copy of the i-th annotated row.
func (r *Report) Row(i int) domain.AnnotatedRow { return cloneRow(r.rows[i]) }

// cloneRow copies the slice and pointer fields so the Report never shares
// memory with its callers.
func cloneRow(row domain.AnnotatedRow) domain.AnnotatedRow {
	row.Values = append([]string(nil), row.Values...)
	if row.Date != nil {
		d := *row.Date
		row.Date = &d
	}
	if row.Period != nil {
		p := *row.Period
		row.Period = &p
	}
	return row
}

// KPI returns the income/expense totals; ok is false without an amount column.
func (r *Report) KPI() (KPITotals, bool) {
	if r.kpi == nil {
		return KPITotals{}, false
	}
	return *r.kpi, true
}

// CategoryAmounts returns per-category totals; ok is false without an amount column.
func (r *Report) CategoryAmounts() ([]CategoryAmount, bool) {
	if r.categoryAmounts == nil {
		return nil, false
	}
	return append([]CategoryAmount(nil), r.categoryAmounts...), true
}

// PeriodCounts returns a copy of the period x category table; ok is false
// without a date column.
func (r *Report) PeriodCounts() (*PeriodCountTable, bool) {
	if r.periodCounts == nil {
		return nil, false
	}
	return r.periodCounts.Clone(), true
}

// PreviewColumns lists the columns shown in a predictions preview:
// note, predicted type, then amount and date when present.
func (r *Report) PreviewColumns() []string {
	cols := []string{r.caps.NoteColumn, ColumnPredictedType}
	if r.caps.HasAmount() {
		cols = append(cols, r.caps.AmountColumn)
	}
	if r.caps.HasDate() {
		cols = append(cols, r.caps.DateColumn)
	}
	return cols
}

// ExportHeader is the original header plus predicted_type and, when the
// date column exists, period.
func (r *Report) ExportHeader() []string {
	header := append([]string(nil), r.header...)
	header = append(header, ColumnPredictedType)
	if r.caps.HasDate() {
		header = append(header, ColumnPeriod)
	}
	return header
}

// ExportRecords renders every annotated row in ExportHeader order. Rows
// whose date did not parse get an empty period.
func (r *Report) ExportRecords() [][]string {
	records := make([][]string, 0, len(r.rows))
	for _, row := range r.rows {
		record := make([]string, 0, len(r.header)+2)
		record = append(record, row.Values...)
		for len(record) < len(r.header) {
			record = append(record, "")
		}
		record = append(record, string(row.PredictedType))
		if r.caps.HasDate() {
			period := ""
			if row.Period != nil {
				period = row.Period.String()
			}
			record = append(record, period)
		}
		records = append(records, record)
	}
	return records
}

type periodCountsJSON struct {
	Periods    []string          `json:"periods"`
	Categories []domain.Category `json:"categories"`
	Counts     [][]int           `json:"counts"`
	Sparse     bool              `json:"sparse"`
}

type kpiJSON struct {
	KPITotals
	Net decimal.Decimal `json:"net"`
}

type reportJSON struct {
	RunID           string                `json:"run_id"`
	Currency        string                `json:"currency"`
	Preview         []string              `json:"preview_columns"`
	Header          []string              `json:"header"`
	Rows            [][]string            `json:"rows"`
	Warnings        []domain.ParseWarning `json:"warnings"`
	CategoryCounts  []CategoryCount       `json:"category_counts"`
	KPI             *kpiJSON              `json:"kpi"`
	CategoryAmounts []CategoryAmount      `json:"category_amounts"`
	PeriodCounts    *periodCountsJSON     `json:"period_counts"`
}

// MarshalJSON encodes the report; sections that do not apply are null.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		RunID:          r.runID,
		Currency:       r.currency,
		Preview:        r.PreviewColumns(),
		Header:         r.ExportHeader(),
		Rows:           r.ExportRecords(),
		Warnings:       r.warnings,
		CategoryCounts: r.categoryCounts,
	}
	if out.Warnings == nil {
		out.Warnings = []domain.ParseWarning{}
	}
	if kpi, ok := r.KPI(); ok {
		out.KPI = &kpiJSON{KPITotals: kpi, Net: kpi.Net()}
		out.CategoryAmounts = r.categoryAmounts
	}
	if t := r.periodCounts; t != nil {
		pc := &periodCountsJSON{
			Periods:    make([]string, len(t.Periods)),
			Categories: t.Categories,
			Counts:     t.Counts,
			Sparse:     t.Sparse,
		}
		for i, p := range t.Periods {
			pc.Periods[i] = p.String()
		}
		out.PeriodCounts = pc
	}
	return json.Marshal(out)
}
