package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the classification outcome for one transaction.
type Category string

const (
	CategoryIncome  Category = "Income"
	CategoryExpense Category = "Expense"
)

// Categories is the classifier label set in reporting order.
var Categories = []Category{CategoryIncome, CategoryExpense}

// ParseCategory maps a classifier label onto a Category.
// Surrounding whitespace and letter case are ignored.
func ParseCategory(label string) (Category, bool) {
	l := strings.TrimSpace(label)
	for _, c := range Categories {
		if strings.EqualFold(l, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Table is a raw snapshot of an uploaded tabular file.
// Records keep the source column order of Header.
type Table struct {
	Header  []string
	Records [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Records)
}

// TransactionRow is one input row. Identity is positional (Index); rows are
// never merged or deduplicated.
type TransactionRow struct {
	Index  int      // zero-based data row index
	Values []string // original record, source column order

	Note   string
	Amount decimal.NullDecimal // invalid when the column is absent or the value is not numeric
	Date   *time.Time          // nil when the column is absent or the value did not parse
}

// AnnotatedRow is a TransactionRow plus its derived fields.
type AnnotatedRow struct {
	TransactionRow

	PredictedType Category
	Period        *Period // nil when Date is nil
}

// Period is a month-granularity calendar bucket.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf truncates t to its calendar month.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a "YYYY-MM" key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("ParsePeriod: invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// String renders the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// MonthsUntil returns the number of months from p to o, negative when o is
// earlier.
func (p Period) MonthsUntil(o Period) int {
	return (o.Year-p.Year)*12 + int(o.Month-p.Month)
}
