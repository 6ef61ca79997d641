package pipeline

// Column roles and the derived export columns.
const (
	RoleNote   = "note"
	RoleAmount = "amount"
	RoleDate   = "date"

	// ColumnPredictedType is appended to every exported row.
	ColumnPredictedType = "predicted_type"

	// ColumnPeriod is appended to exported rows when the date column exists.
	ColumnPeriod = "period"
)

// MaxPeriodSpan is the widest range of months PeriodCounts fills without
// gaps. Wider ranges keep only the months that have rows.
const MaxPeriodSpan = 1200
