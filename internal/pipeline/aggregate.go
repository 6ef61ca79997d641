package pipeline

import (
	"sort"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/shopspring/decimal"
)

// KPITotals are the two headline sums over the amount column.
type KPITotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Net returns Income minus Expense.
func (k KPITotals) Net() decimal.Decimal {
	return k.Income.Sub(k.Expense)
}

// CategoryAmount is the total amount for one observed category.
type CategoryAmount struct {
	Category domain.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// CategoryCount is the number of rows labelled with one category.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// ComputeKPI sums amounts per category. Both totals are always present;
// rows without a numeric amount contribute zero.
func ComputeKPI(rows []domain.AnnotatedRow) KPITotals {
	kpi := KPITotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, row := range rows {
		if !row.Amount.Valid {
			continue
		}
		switch row.PredictedType {
		case domain.CategoryIncome:
			kpi.Income = kpi.Income.Add(row.Amount.Decimal)
		case domain.CategoryExpense:
			kpi.Expense = kpi.Expense.Add(row.Amount.Decimal)
		}
	}
	return kpi
}

// CategoryAmounts sums amounts for each category that labels at least one
// row, in label-set order.
func CategoryAmounts(rows []domain.AnnotatedRow) []CategoryAmount {
	totals := make(map[domain.Category]decimal.Decimal)
	for _, row := range rows {
		total, ok := totals[row.PredictedType]
		if !ok {
			total = decimal.Zero
		}
		if row.Amount.Valid {
			total = total.Add(row.Amount.Decimal)
		}
		totals[row.PredictedType] = total
	}

	result := make([]CategoryAmount, 0, len(totals))
	for _, cat := range domain.Categories {
		if total, ok := totals[cat]; ok {
			result = append(result, CategoryAmount{Category: cat, Total: total})
		}
	}
	return result
}

// CategoryCounts counts rows per observed category, most frequent first.
func CategoryCounts(rows []domain.AnnotatedRow) []CategoryCount {
	counts := make(map[domain.Category]int)
	for _, row := range rows {
		counts[row.PredictedType]++
	}

	result := make([]CategoryCount, 0, len(counts))
	for _, cat := range domain.Categories {
		if n, ok := counts[cat]; ok {
			result = append(result, CategoryCount{Category: cat, Count: n})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result
}

// PeriodCountTable holds row counts per (period, category).
// Periods run without gaps from the earliest to the latest observed month
// and every cell is filled, zero where no row matched. When that range is
// wider than MaxPeriodSpan only observed months are listed and Sparse is set.
type PeriodCountTable struct {
	Periods    []domain.Period
	Categories []domain.Category
	Counts     [][]int // indexed [period][category]
	Sparse     bool
}

// Clone returns a deep copy of the table.
func (t *PeriodCountTable) Clone() *PeriodCountTable {
	c := &PeriodCountTable{
		Periods:    append([]domain.Period{}, t.Periods...),
		Categories: append([]domain.Category{}, t.Categories...),
		Counts:     make([][]int, len(t.Counts)),
		Sparse:     t.Sparse,
	}
	for i, row := range t.Counts {
		c.Counts[i] = append([]int{}, row...)
	}
	return c
}

// Count returns the cell for (p, c), or 0 outside the table.
func (t *PeriodCountTable) Count(p domain.Period, c domain.Category) int {
	pi, ci := t.periodIndex(p), t.categoryIndex(c)
	if pi < 0 || ci < 0 {
		return 0
	}
	return t.Counts[pi][ci]
}

// Total sums every cell.
func (t *PeriodCountTable) Total() int {
	total := 0
	for _, row := range t.Counts {
		for _, n := range row {
			total += n
		}
	}
	return total
}

func (t *PeriodCountTable) periodIndex(p domain.Period) int {
	for i, period := range t.Periods {
		if period == p {
			return i
		}
	}
	return -1
}

func (t *PeriodCountTable) categoryIndex(c domain.Category) int {
	for i, cat := range t.Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// PeriodCounts builds the period x category table from rows that have a
// period. Rows without one are left out.
func PeriodCounts(rows []domain.AnnotatedRow) *PeriodCountTable {
	type key struct {
		period   domain.Period
		category domain.Category
	}
	cells := make(map[key]int)
	seen := make(map[domain.Category]bool)

	var first, last domain.Period
	dated := 0
	for _, row := range rows {
		if row.Period == nil {
			continue
		}
		p := *row.Period
		if dated == 0 || p.Before(first) {
			first = p
		}
		if dated == 0 || last.Before(p) {
			last = p
		}
		dated++
		cells[key{p, row.PredictedType}]++
		seen[row.PredictedType] = true
	}

	table := &PeriodCountTable{
		Periods:    []domain.Period{},
		Categories: []domain.Category{},
		Counts:     [][]int{},
	}
	if dated == 0 {
		return table
	}

	for _, cat := range domain.Categories {
		if seen[cat] {
			table.Categories = append(table.Categories, cat)
		}
	}

	var periods []domain.Period
	if span := first.MonthsUntil(last) + 1; span <= MaxPeriodSpan {
		periods = make([]domain.Period, 0, span)
		for p := first; !last.Before(p); p = p.Next() {
			periods = append(periods, p)
		}
	} else {
		observed := make(map[domain.Period]bool)
		for k := range cells {
			if !observed[k.period] {
				observed[k.period] = true
				periods = append(periods, k.period)
			}
		}
		sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
		table.Sparse = true
	}

	for _, p := range periods {
		row := make([]int, len(table.Categories))
		for ci, cat := range table.Categories {
			row[ci] = cells[key{p, cat}]
		}
		table.Periods = append(table.Periods, p)
		table.Counts = append(table.Counts, row)
	}

	return table
}
