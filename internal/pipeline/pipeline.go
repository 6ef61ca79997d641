// Package pipeline classifies transaction rows and aggregates them into a
// Report.
package pipeline

import (
	"context"
	"io"

	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/internal/tabular"
	"github.com/google/uuid"
)

// Runner runs the report pipeline against a loaded classifier. The
// classifier is shared read-only across runs; every run gets fresh state.
type Runner struct {
	classifier Classifier
	cfg        *config.Config
}

// NewRunner creates a Runner. A nil cfg uses config.Default().
func NewRunner(c Classifier, cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Runner{classifier: c, cfg: cfg}
}

// Run classifies and aggregates one table. Any error aborts the run and no
// partial report is returned.
func (r *Runner) Run(ctx context.Context, table domain.Table) (*Report, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Int("rows", table.Len()).Msg("Starting report run")

	state := &PipelineState{RunID: runID, Table: table}
	if err := NewReportPipeline(r.classifier, r.cfg).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Report run failed")
		return nil, err
	}

	event := log.Info().
		Int("rows", state.Report.Len()).
		Int("parse_warnings", len(state.Warnings))
	if kpi, ok := state.Report.KPI(); ok {
		event = event.Str("total_income", kpi.Income.String()).Str("total_expense", kpi.Expense.String())
	}
	event.Msg("Report run completed")

	return state.Report, nil
}

// RunCSV reads a CSV upload and runs the pipeline on it.
func (r *Runner) RunCSV(ctx context.Context, in io.Reader) (*Report, error) {
	table, err := tabular.ReadCSV(in)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to read upload")
		return nil, err
	}
	return r.Run(ctx, table)
}
