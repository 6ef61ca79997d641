package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dvloznov/money-manager/internal/pipeline"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func report(t *testing.T, csv string) *pipeline.Report {
	t.Helper()
	c := pipeline.ClassifierFunc(func(ctx context.Context, notes []string) ([]string, error) {
		labels := make([]string, len(notes))
		for i, n := range notes {
			labels[i] = "Expense"
			if strings.HasPrefix(n, "Salary") || n == "Bonus" {
				labels[i] = "Income"
			}
		}
		return labels, nil
	})
	r, err := pipeline.NewRunner(c, nil).RunCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	return r
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		currency string
		amount   string
		want     string
	}{
		{"KES", "60000", "KES 60,000"},
		{"KES", "1200", "KES 1,200"},
		{"KES", "999.6", "KES 1,000"},
		{"KES", "0", "KES 0"},
		{"KES", "-1234567", "KES -1,234,567"},
		{"", "123", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.currency, decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestSummary_Full(t *testing.T) {
	r := report(t, "Note,KES,Date\n"+
		"Salary payment,50000,2024-01-05\n"+
		"Grocery shop,1200,2024-01-20\n"+
		"Bonus,10000,2024-02-01\n"+
		"Lunch,300,not-a-date\n")

	var buf bytes.Buffer
	Summary(&buf, r, DefaultOptions())
	out := buf.String()

	assert.Contains(t, out, "4 transactions classified")
	assert.Contains(t, out, "Predictions Preview")
	assert.Contains(t, out, "Salary payment")
	assert.Contains(t, out, "KES 60,000")
	assert.Contains(t, out, "KES 1,500")
	assert.Contains(t, out, "Income        2   50.0%")
	assert.Contains(t, out, "2024-01         1        1")
	assert.Contains(t, out, "2024-02         1        0")
	assert.Contains(t, out, "1 value(s) could not be parsed")
	assert.NotContains(t, out, "n/a")
}

func TestSummary_NoteOnly(t *testing.T) {
	r := report(t, "Note\nSalary\nRent\n")

	var buf bytes.Buffer
	Summary(&buf, r, Options{})
	out := buf.String()

	assert.NotContains(t, out, "Predictions Preview")
	assert.Contains(t, out, "n/a (no amount column)")
	assert.Contains(t, out, "n/a (no date column)")
	assert.NotContains(t, out, "could not be parsed")
}

func TestSummary_PreviewLimit(t *testing.T) {
	r := report(t, "Note\na\nb\nc\n")

	var buf bytes.Buffer
	Summary(&buf, r, Options{PreviewRows: 2})

	assert.Contains(t, buf.String(), "... 1 more")
}

func TestSummary_Empty(t *testing.T) {
	r := report(t, "Note,KES,Date\n")

	var buf bytes.Buffer
	Summary(&buf, r, DefaultOptions())
	out := buf.String()

	assert.Contains(t, out, "0 transactions classified")
	assert.Contains(t, out, "KES 0")
	assert.Contains(t, out, "no dated transactions")
}
