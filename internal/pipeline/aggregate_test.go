package pipeline

import (
	"testing"
	"time"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func annotated(t *testing.T, cat domain.Category, amount string, date string) domain.AnnotatedRow {
	t.Helper()
	row := domain.AnnotatedRow{PredictedType: cat}
	if amount != "" {
		row.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	if date != "" {
		d := mustDate(t, date)
		row.Date = &d
		p := domain.PeriodOf(d)
		row.Period = &p
	}
	return row
}

func TestComputeKPI(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryIncome, "50000", ""),
		annotated(t, domain.CategoryExpense, "1200", ""),
		annotated(t, domain.CategoryIncome, "10000", ""),
		annotated(t, domain.CategoryExpense, "", ""),
	}

	kpi := ComputeKPI(rows)

	assert.True(t, kpi.Income.Equal(decimal.NewFromInt(60000)), "income = %s", kpi.Income)
	assert.True(t, kpi.Expense.Equal(decimal.NewFromInt(1200)), "expense = %s", kpi.Expense)
	assert.True(t, kpi.Net().Equal(decimal.NewFromInt(58800)))
}

func TestComputeKPI_AbsentCategoryIsZero(t *testing.T) {
	kpi := ComputeKPI([]domain.AnnotatedRow{
		annotated(t, domain.CategoryIncome, "100", ""),
	})

	assert.True(t, kpi.Income.Equal(decimal.NewFromInt(100)))
	assert.True(t, kpi.Expense.IsZero())
}

func TestComputeKPI_DecimalExact(t *testing.T) {
	kpi := ComputeKPI([]domain.AnnotatedRow{
		annotated(t, domain.CategoryExpense, "0.1", ""),
		annotated(t, domain.CategoryExpense, "0.2", ""),
	})

	assert.Equal(t, "0.3", kpi.Expense.String())
}

func TestCategoryAmounts(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryExpense, "1200", ""),
		annotated(t, domain.CategoryExpense, "300", ""),
	}

	got := CategoryAmounts(rows)

	require.Len(t, got, 1)
	assert.Equal(t, domain.CategoryExpense, got[0].Category)
	assert.True(t, got[0].Total.Equal(decimal.NewFromInt(1500)))
}

func TestCategoryCounts(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryIncome, "", ""),
		annotated(t, domain.CategoryExpense, "", ""),
		annotated(t, domain.CategoryExpense, "", ""),
	}

	got := CategoryCounts(rows)

	assert.Equal(t, []CategoryCount{
		{Category: domain.CategoryExpense, Count: 2},
		{Category: domain.CategoryIncome, Count: 1},
	}, got)
}

func TestPeriodCounts(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryIncome, "", "2024-01-05"),
		annotated(t, domain.CategoryExpense, "", "2024-01-20"),
		annotated(t, domain.CategoryIncome, "", "2024-02-01"),
	}

	table := PeriodCounts(rows)

	jan := domain.Period{Year: 2024, Month: time.January}
	feb := domain.Period{Year: 2024, Month: time.February}
	assert.Equal(t, []domain.Period{jan, feb}, table.Periods)
	assert.Equal(t, []domain.Category{domain.CategoryIncome, domain.CategoryExpense}, table.Categories)
	assert.Equal(t, 1, table.Count(jan, domain.CategoryIncome))
	assert.Equal(t, 1, table.Count(jan, domain.CategoryExpense))
	assert.Equal(t, 1, table.Count(feb, domain.CategoryIncome))
	assert.Equal(t, 0, table.Count(feb, domain.CategoryExpense))
	assert.Equal(t, 3, table.Total())
}

func TestPeriodCounts_FillsGaps(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryExpense, "", "2023-11-30"),
		annotated(t, domain.CategoryExpense, "", "2024-02-01"),
	}

	table := PeriodCounts(rows)

	periods := make([]string, len(table.Periods))
	for i, p := range table.Periods {
		periods[i] = p.String()
	}
	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, periods)
	assert.Equal(t, []domain.Category{domain.CategoryExpense}, table.Categories)
	assert.Equal(t, [][]int{{1}, {0}, {0}, {1}}, table.Counts)
}

func TestPeriodCounts_SkipsUndatedRows(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryIncome, "", "2024-01-05"),
		annotated(t, domain.CategoryExpense, "", ""),
	}

	table := PeriodCounts(rows)

	assert.Equal(t, []domain.Category{domain.CategoryIncome}, table.Categories)
	assert.Equal(t, 1, table.Total())
}

func TestPeriodCounts_Empty(t *testing.T) {
	table := PeriodCounts(nil)

	require.NotNil(t, table)
	assert.Empty(t, table.Periods)
	assert.Empty(t, table.Categories)
	assert.Equal(t, 0, table.Total())
	assert.Equal(t, 0, table.Count(domain.Period{Year: 2024, Month: time.January}, domain.CategoryIncome))
}

func TestPeriodCounts_WideSpanListsObservedMonths(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(t, domain.CategoryIncome, "", "9999-12-31"),
		annotated(t, domain.CategoryExpense, "", "0001-01-01"),
		annotated(t, domain.CategoryExpense, "", "2024-03-10"),
		annotated(t, domain.CategoryIncome, "", "2024-03-20"),
	}

	table := PeriodCounts(rows)

	assert.True(t, table.Sparse)
	periods := make([]string, len(table.Periods))
	for i, p := range table.Periods {
		periods[i] = p.String()
	}
	assert.Equal(t, []string{"0001-01", "2024-03", "9999-12"}, periods)
	assert.Equal(t, [][]int{{0, 1}, {1, 1}, {1, 0}}, table.Counts)
	assert.Equal(t, len(rows), table.Total())
}

func TestPeriodCounts_SpanLimit(t *testing.T) {
	first := domain.Period{Year: 2000, Month: time.January}
	last := first
	for i := 1; i < MaxPeriodSpan; i++ {
		last = last.Next()
	}
	rows := []domain.AnnotatedRow{
		{PredictedType: domain.CategoryIncome, Period: &first},
		{PredictedType: domain.CategoryIncome, Period: &last},
	}

	table := PeriodCounts(rows)
	assert.False(t, table.Sparse)
	assert.Len(t, table.Periods, MaxPeriodSpan)

	beyond := last.Next()
	rows = append(rows, domain.AnnotatedRow{PredictedType: domain.CategoryIncome, Period: &beyond})
	table = PeriodCounts(rows)
	assert.True(t, table.Sparse)
	assert.Len(t, table.Periods, 3)
}
