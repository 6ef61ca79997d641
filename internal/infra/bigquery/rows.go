package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
)

// ClassifiedRow is one annotated transaction in the rows table.
type ClassifiedRow struct {
	RunID    string `bigquery:"run_id"`    // REQUIRED
	RowIndex int64  `bigquery:"row_index"` // REQUIRED, 0-based position in the upload

	Note          string `bigquery:"note"`           // REQUIRED STRING
	PredictedType string `bigquery:"predicted_type"` // REQUIRED STRING, Income | Expense

	Amount   *big.Rat            `bigquery:"amount"`   // NULLABLE NUMERIC
	Currency bigquery.NullString `bigquery:"currency"` // NULLABLE

	TransactionDate bigquery.NullDate   `bigquery:"transaction_date"` // NULLABLE
	Period          bigquery.NullString `bigquery:"period"`           // NULLABLE, YYYY-MM

	Source bigquery.NullString `bigquery:"source"` // NULLABLE, file name or gs:// URI

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// PeriodCountRow is one (period, category) cell of a run's monthly volume.
type PeriodCountRow struct {
	RunID    string `bigquery:"run_id"`   // REQUIRED
	Period   string `bigquery:"period"`   // REQUIRED, YYYY-MM
	Category string `bigquery:"category"` // REQUIRED
	TxCount  int64  `bigquery:"tx_count"` // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
