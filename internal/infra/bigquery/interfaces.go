package bigquery

import (
	"context"

	"github.com/dvloznov/money-manager/internal/pipeline"
)

// ReportRepository persists classified reports.
type ReportRepository interface {
	// InsertReport stores the annotated rows and period counts of a report.
	InsertReport(ctx context.Context, report *pipeline.Report, source string) error

	// ListPeriodCounts returns the stored period counts of a run, ordered by period.
	ListPeriodCounts(ctx context.Context, runID string) ([]*PeriodCountRow, error)

	// VerifyTables checks the rows and period tables created by cmd/migrate.
	VerifyTables(ctx context.Context) error
}
