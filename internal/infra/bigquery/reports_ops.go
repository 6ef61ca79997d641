// Package bigquery stores classified reports in BigQuery.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/internal/pipeline"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// insertBatchSize bounds the rows sent per streaming insert request.
const insertBatchSize = 500

// BigQueryReportRepository is the concrete implementation of ReportRepository
// that interacts with BigQuery.
type BigQueryReportRepository struct {
	client       *bigquery.Client
	dataset      string
	rowsTable    string
	periodsTable string
}

var _ ReportRepository = (*BigQueryReportRepository)(nil)

// NewBigQueryReportRepository creates a repository with its own client.
func NewBigQueryReportRepository(ctx context.Context, gcp config.GCPConfig, bq config.BigQueryConfig) (*BigQueryReportRepository, error) {
	var opts []option.ClientOption
	if gcp.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(gcp.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, gcp.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryReportRepository: creating client: %w", err)
	}
	return NewBigQueryReportRepositoryWithClient(client, bq), nil
}

// NewBigQueryReportRepositoryWithClient creates a repository on a shared client.
func NewBigQueryReportRepositoryWithClient(client *bigquery.Client, bq config.BigQueryConfig) *BigQueryReportRepository {
	return &BigQueryReportRepository{
		client:       client,
		dataset:      bq.Dataset,
		rowsTable:    bq.RowsTable,
		periodsTable: bq.PeriodsTable,
	}
}

// Close closes the BigQuery client connection.
func (r *BigQueryReportRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertReport streams the report's rows and, when present, its period counts.
func (r *BigQueryReportRepository) InsertReport(ctx context.Context, report *pipeline.Report, source string) error {
	now := time.Now().UTC()
	log := logger.FromContext(ctx).With().Str("run_id", report.RunID()).Logger()

	rows := ToClassifiedRows(report, source, now)
	if err := insertBatches(ctx, r.client.Dataset(r.dataset).Table(r.rowsTable).Inserter(), rows); err != nil {
		return fmt.Errorf("InsertReport: inserting rows: %w", err)
	}

	periods := ToPeriodCountRows(report, now)
	if err := insertBatches(ctx, r.client.Dataset(r.dataset).Table(r.periodsTable).Inserter(), periods); err != nil {
		return fmt.Errorf("InsertReport: inserting period counts: %w", err)
	}

	log.Info().
		Str("dataset", r.dataset).
		Int("rows", len(rows)).
		Int("period_cells", len(periods)).
		Msg("Stored report in BigQuery")
	return nil
}

func insertBatches[T any](ctx context.Context, inserter *bigquery.Inserter, rows []*T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ListPeriodCounts reads back the period counts stored for a run.
func (r *BigQueryReportRepository) ListPeriodCounts(ctx context.Context, runID string) ([]*PeriodCountRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT run_id, period, category, tx_count, created_ts
		FROM %s.%s
		WHERE run_id = @run_id
		ORDER BY period, category
	`, r.dataset, r.periodsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPeriodCounts: query: %w", err)
	}

	var rows []*PeriodCountRow
	for {
		var row PeriodCountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListPeriodCounts: iter next: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// ErrTablesNotMigrated means a table is missing or lacks columns; the
// schema is owned by cmd/migrate.
var ErrTablesNotMigrated = errors.New("BigQuery tables are not migrated, run cmd/migrate")

// VerifyTables checks that both tables exist and have every column the
// row structs write.
func (r *BigQueryReportRepository) VerifyTables(ctx context.Context) error {
	tables := []struct {
		name  string
		model any
	}{
		{r.rowsTable, ClassifiedRow{}},
		{r.periodsTable, PeriodCountRow{}},
	}

	for _, t := range tables {
		want, err := bigquery.InferSchema(t.model)
		if err != nil {
			return fmt.Errorf("VerifyTables: infer schema for %s: %w", t.name, err)
		}
		meta, err := r.client.Dataset(r.dataset).Table(t.name).Metadata(ctx)
		if isNotFound(err) {
			return fmt.Errorf("VerifyTables: %s.%s not found: %w", r.dataset, t.name, ErrTablesNotMigrated)
		}
		if err != nil {
			return fmt.Errorf("VerifyTables: reading %s metadata: %w", t.name, err)
		}
		if missing := missingColumns(want, meta.Schema); len(missing) > 0 {
			return fmt.Errorf("VerifyTables: %s.%s lacks columns %v: %w", r.dataset, t.name, missing, ErrTablesNotMigrated)
		}
	}
	return nil
}

// missingColumns lists the top-level fields of want absent from have.
func missingColumns(want, have bigquery.Schema) []string {
	present := make(map[string]bool, len(have))
	for _, f := range have {
		present[strings.ToLower(f.Name)] = true
	}
	var missing []string
	for _, f := range want {
		if !present[strings.ToLower(f.Name)] {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
