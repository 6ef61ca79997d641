package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/money-manager/internal/pipeline"
)

// ToClassifiedRows flattens a report into rows-table records.
func ToClassifiedRows(report *pipeline.Report, source string, now time.Time) []*ClassifiedRow {
	caps := report.Capabilities()
	rows := report.Rows()
	out := make([]*ClassifiedRow, 0, len(rows))

	for _, row := range rows {
		r := &ClassifiedRow{
			RunID:         report.RunID(),
			RowIndex:      int64(row.Index),
			Note:          row.Note,
			PredictedType: string(row.PredictedType),
			Source:        nullString(source),
			CreatedTS:     now,
		}
		if caps.HasAmount() {
			r.Currency = nullString(report.Currency())
			if row.Amount.Valid {
				r.Amount = row.Amount.Decimal.Rat()
			}
		}
		if row.Date != nil {
			r.TransactionDate = bigquery.NullDate{Date: civil.DateOf(*row.Date), Valid: true}
		}
		if row.Period != nil {
			r.Period = nullString(row.Period.String())
		}
		out = append(out, r)
	}
	return out
}

// ToPeriodCountRows flattens the period x category table, zero cells
// included. It returns nil when the report has no date column.
func ToPeriodCountRows(report *pipeline.Report, now time.Time) []*PeriodCountRow {
	table, ok := report.PeriodCounts()
	if !ok {
		return nil
	}

	out := make([]*PeriodCountRow, 0, len(table.Periods)*len(table.Categories))
	for pi, p := range table.Periods {
		for ci, c := range table.Categories {
			out = append(out, &PeriodCountRow{
				RunID:     report.RunID(),
				Period:    p.String(),
				Category:  string(c),
				TxCount:   int64(table.Counts[pi][ci]),
				CreatedTS: now,
			})
		}
	}
	return out
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
