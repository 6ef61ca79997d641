package pipeline

import (
	"strings"
	"time"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/shopspring/decimal"
)

// Normalize turns raw records into TransactionRows. Unparseable amounts and
// dates become missing values and are reported as ParseWarnings; they never
// fail the run. Blank cells are missing without a warning.
func Normalize(table domain.Table, caps Capabilities, layouts []string) ([]domain.TransactionRow, []domain.ParseWarning) {
	rows := make([]domain.TransactionRow, 0, len(table.Records))
	var warnings []domain.ParseWarning

	for i, record := range table.Records {
		values := make([]string, len(record))
		copy(values, record)

		row := domain.TransactionRow{
			Index:  i,
			Values: values,
			Note:   cell(values, caps.NoteIndex),
		}

		if caps.HasAmount() {
			raw := cell(values, caps.AmountIndex)
			amount, ok := parseAmount(raw)
			if ok {
				row.Amount = decimal.NewNullDecimal(amount)
			} else if raw != "" {
				warnings = append(warnings, domain.ParseWarning{
					Row: i, Column: caps.AmountColumn, Value: raw, Reason: "not a number",
				})
			}
		}

		if caps.HasDate() {
			raw := cell(values, caps.DateIndex)
			date, ok := parseDate(raw, layouts)
			if ok {
				row.Date = &date
			} else if raw != "" {
				warnings = append(warnings, domain.ParseWarning{
					Row: i, Column: caps.DateColumn, Value: raw, Reason: "unrecognised date",
				})
			}
		}

		rows = append(rows, row)
	}

	return rows, warnings
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseAmount accepts plain decimals with optional thousands separators,
// e.g. "1,200.50".
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseDate(raw string, layouts []string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
