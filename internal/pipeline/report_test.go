package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteOnlyCaps() Capabilities {
	return Capabilities{NoteIndex: 0, AmountIndex: -1, DateIndex: -1, NoteColumn: "Note"}
}

func fullCaps() Capabilities {
	return Capabilities{
		NoteIndex: 0, AmountIndex: 1, DateIndex: 2,
		NoteColumn: "Note", AmountColumn: "KES", DateColumn: "Date",
	}
}

func TestAssembleReport_DropsSectionsWithoutColumns(t *testing.T) {
	report := AssembleReport(ReportParts{
		Header:          []string{"Note"},
		Capabilities:    noteOnlyCaps(),
		KPI:             KPITotals{Income: decimal.NewFromInt(1)},
		CategoryAmounts: []CategoryAmount{{Category: domain.CategoryIncome}},
		PeriodCounts:    &PeriodCountTable{},
	})

	_, ok := report.KPI()
	assert.False(t, ok)
	_, ok = report.CategoryAmounts()
	assert.False(t, ok)
	_, ok = report.PeriodCounts()
	assert.False(t, ok)
	assert.Equal(t, 0, report.Len())
	assert.NotNil(t, report.CategoryCounts())
}

func TestAssembleReport_KeepsZeroKPI(t *testing.T) {
	report := AssembleReport(ReportParts{
		Header:       []string{"Note", "KES", "Date"},
		Capabilities: fullCaps(),
		KPI:          KPITotals{Income: decimal.Zero, Expense: decimal.Zero},
		PeriodCounts: PeriodCounts(nil),
	})

	kpi, ok := report.KPI()
	require.True(t, ok)
	assert.True(t, kpi.Income.IsZero())
	assert.True(t, kpi.Expense.IsZero())

	amounts, ok := report.CategoryAmounts()
	require.True(t, ok)
	assert.Empty(t, amounts)

	table, ok := report.PeriodCounts()
	require.True(t, ok)
	assert.Empty(t, table.Periods)
}

func TestReport_Export(t *testing.T) {
	row := annotated(t, domain.CategoryIncome, "50000", "2024-01-05")
	row.Values = []string{"Salary payment", "50000", "2024-01-05"}
	undated := annotated(t, domain.CategoryExpense, "", "")
	undated.Values = []string{"Lunch", "", "not-a-date"}

	report := AssembleReport(ReportParts{
		Header:       []string{"Note", "KES", "Date"},
		Capabilities: fullCaps(),
		Rows:         []domain.AnnotatedRow{row, undated},
	})

	assert.Equal(t, []string{"Note", "KES", "Date", "predicted_type", "period"}, report.ExportHeader())
	assert.Equal(t, [][]string{
		{"Salary payment", "50000", "2024-01-05", "Income", "2024-01"},
		{"Lunch", "", "not-a-date", "Expense", ""},
	}, report.ExportRecords())
	assert.Equal(t, []string{"Note", "predicted_type", "KES", "Date"}, report.PreviewColumns())
}

func TestReport_ExportNoteOnly(t *testing.T) {
	row := domain.AnnotatedRow{
		TransactionRow: domain.TransactionRow{Values: []string{"Rent"}, Note: "Rent"},
		PredictedType:  domain.CategoryExpense,
	}
	report := AssembleReport(ReportParts{
		Header:       []string{"Note"},
		Capabilities: noteOnlyCaps(),
		Rows:         []domain.AnnotatedRow{row},
	})

	assert.Equal(t, []string{"Note", "predicted_type"}, report.ExportHeader())
	assert.Equal(t, [][]string{{"Rent", "Expense"}}, report.ExportRecords())
	assert.Equal(t, []string{"Note", "predicted_type"}, report.PreviewColumns())
}

func TestReport_MarshalJSON(t *testing.T) {
	t.Run("note only has null sections", func(t *testing.T) {
		report := AssembleReport(ReportParts{
			RunID:        "run-1",
			Currency:     "KES",
			Header:       []string{"Note"},
			Capabilities: noteOnlyCaps(),
		})

		data, err := json.Marshal(report)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "run-1", got["run_id"])
		assert.Equal(t, "KES", got["currency"])
		assert.Nil(t, got["kpi"])
		assert.Nil(t, got["category_amounts"])
		assert.Nil(t, got["period_counts"])
		assert.Equal(t, []any{}, got["warnings"])
		assert.Equal(t, []any{}, got["rows"])
	})

	t.Run("full report", func(t *testing.T) {
		rows := []domain.AnnotatedRow{
			annotated(t, domain.CategoryIncome, "50000", "2024-01-05"),
			annotated(t, domain.CategoryExpense, "1200", "2024-01-20"),
		}
		rows[0].Values = []string{"Salary", "50000", "2024-01-05"}
		rows[1].Values = []string{"Grocery", "1200", "2024-01-20"}

		report := AssembleReport(ReportParts{
			Header:          []string{"Note", "KES", "Date"},
			Capabilities:    fullCaps(),
			Rows:            rows,
			CategoryCounts:  CategoryCounts(rows),
			KPI:             ComputeKPI(rows),
			CategoryAmounts: CategoryAmounts(rows),
			PeriodCounts:    PeriodCounts(rows),
		})

		data, err := json.Marshal(report)
		require.NoError(t, err)

		var got struct {
			KPI struct {
				Income  decimal.Decimal `json:"income"`
				Expense decimal.Decimal `json:"expense"`
				Net     decimal.Decimal `json:"net"`
			} `json:"kpi"`
			PeriodCounts struct {
				Periods    []string `json:"periods"`
				Categories []string `json:"categories"`
				Counts     [][]int  `json:"counts"`
			} `json:"period_counts"`
		}
		require.NoError(t, json.Unmarshal(data, &got))
		assert.True(t, got.KPI.Income.Equal(decimal.NewFromInt(50000)))
		assert.True(t, got.KPI.Expense.Equal(decimal.NewFromInt(1200)))
		assert.True(t, got.KPI.Net.Equal(decimal.NewFromInt(48800)))
		assert.Equal(t, []string{"2024-01"}, got.PeriodCounts.Periods)
		assert.Equal(t, []string{"Income", "Expense"}, got.PeriodCounts.Categories)
		assert.Equal(t, [][]int{{1, 1}}, got.PeriodCounts.Counts)
	})
}

func TestReport_AccessorsReturnCopies(t *testing.T) {
	report, err := NewRunner(keywordClassifier(), nil).Run(context.Background(), scenarioTable())
	require.NoError(t, err)

	wantRecords := report.ExportRecords()
	wantCounts, ok := report.PeriodCounts()
	require.True(t, ok)
	require.Equal(t, 1, wantCounts.Count(domain.Period{Year: 2024, Month: time.January}, domain.CategoryIncome))

	row := report.Row(0)
	row.Values[0] = "changed"
	*row.Date = time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)

	rows := report.Rows()
	rows[2].Values[0] = "changed"
	*rows[2].Period = domain.Period{Year: 1999, Month: time.January}

	counts, _ := report.PeriodCounts()
	counts.Counts[0][0] = 999
	counts.Periods[0] = domain.Period{Year: 1999, Month: time.January}

	assert.Equal(t, wantRecords, report.ExportRecords())
	again, _ := report.PeriodCounts()
	assert.Equal(t, wantCounts, again)
	assert.Equal(t, "Salary payment", report.Row(0).Note)
	assert.Equal(t, 2024, report.Row(0).Date.Year())
}

func TestAssembleReport_CopiesParts(t *testing.T) {
	row := annotated(t, domain.CategoryIncome, "50000", "2024-01-05")
	row.Values = []string{"Salary payment", "50000", "2024-01-05"}
	rows := []domain.AnnotatedRow{row}
	table := PeriodCounts(rows)

	report := AssembleReport(ReportParts{
		Header:       []string{"Note", "KES", "Date"},
		Capabilities: fullCaps(),
		Rows:         rows,
		PeriodCounts: table,
	})

	rows[0].Values[0] = "changed"
	*rows[0].Period = domain.Period{Year: 1999, Month: time.January}
	table.Counts[0][0] = 999

	assert.Equal(t, [][]string{{"Salary payment", "50000", "2024-01-05", "Income", "2024-01"}}, report.ExportRecords())
	got, _ := report.PeriodCounts()
	assert.Equal(t, [][]int{{1}}, got.Counts)
}
