package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/logger"
)

// PipelineStep is one stage of a report run.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState carries stage outputs through a single run. It is never
// shared between runs.
type PipelineState struct {
	RunID string
	Table domain.Table

	Capabilities Capabilities
	Rows         []domain.TransactionRow
	Warnings     []domain.ParseWarning
	Annotated    []domain.AnnotatedRow

	CategoryCounts  []CategoryCount
	KPI             KPITotals
	CategoryAmounts []CategoryAmount
	PeriodCounts    *PeriodCountTable

	Report *Report
}

// Step 1: ValidateSchemaStep checks the header and records capability flags.
type ValidateSchemaStep struct {
	Columns config.Columns
}

func (s *ValidateSchemaStep) Name() string { return "validate schema" }

func (s *ValidateSchemaStep) Execute(ctx context.Context, state *PipelineState) error {
	caps, err := ValidateSchema(state.Table.Header, s.Columns)
	if err != nil {
		return err
	}
	state.Capabilities = caps

	log := logger.FromContext(ctx)
	log.Debug().
		Str("note_column", caps.NoteColumn).
		Bool("has_amount", caps.HasAmount()).
		Bool("has_date", caps.HasDate()).
		Msg("Schema validated")
	return nil
}

// Step 2: NormalizeStep parses amounts and dates.
type NormalizeStep struct {
	DateLayouts []string
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	rows, warnings := Normalize(state.Table, state.Capabilities, s.DateLayouts)
	state.Rows = rows
	state.Warnings = warnings

	log := logger.FromContext(ctx)
	for _, w := range warnings {
		log.Warn().
			Int("row", w.Row).
			Str("column", w.Column).
			Str("value", w.Value).
			Msg(w.Reason)
	}
	return nil
}

// Step 3: ClassifyStep labels every row in one classifier call.
type ClassifyStep struct {
	Classifier Classifier
}

func (s *ClassifyStep) Name() string { return "classify" }

func (s *ClassifyStep) Execute(ctx context.Context, state *PipelineState) error {
	labels, err := ClassifyNotes(ctx, s.Classifier, notesOf(state.Rows))
	if err != nil {
		return err
	}
	state.Annotated = Annotate(state.Rows, labels)
	return nil
}

// Step 4: AggregateStep computes the derived tables the input supports.
type AggregateStep struct{}

func (s *AggregateStep) Name() string { return "aggregate" }

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.CategoryCounts = CategoryCounts(state.Annotated)
	if state.Capabilities.HasAmount() {
		state.KPI = ComputeKPI(state.Annotated)
		state.CategoryAmounts = CategoryAmounts(state.Annotated)
	}
	if state.Capabilities.HasDate() {
		state.PeriodCounts = PeriodCounts(state.Annotated)
		if t := state.PeriodCounts; t.Sparse {
			log := logger.FromContext(ctx)
			log.Warn().
				Str("first", t.Periods[0].String()).
				Str("last", t.Periods[len(t.Periods)-1].String()).
				Int("max_span", MaxPeriodSpan).
				Msg("Dates span too many months, period counts list observed months only")
		}
	}
	return nil
}

// Step 5: AssembleReportStep bundles everything into a Report.
type AssembleReportStep struct {
	Currency string
}

func (s *AssembleReportStep) Name() string { return "assemble report" }

func (s *AssembleReportStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Report = AssembleReport(ReportParts{
		RunID:           state.RunID,
		Currency:        s.Currency,
		Header:          state.Table.Header,
		Capabilities:    state.Capabilities,
		Rows:            state.Annotated,
		Warnings:        state.Warnings,
		CategoryCounts:  state.CategoryCounts,
		KPI:             state.KPI,
		CategoryAmounts: state.CategoryAmounts,
		PeriodCounts:    state.PeriodCounts,
	})
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}

// NewReportPipeline creates the standard five-step pipeline.
func NewReportPipeline(c Classifier, cfg *config.Config) *Pipeline {
	return NewPipeline(
		&ValidateSchemaStep{Columns: cfg.Columns},
		&NormalizeStep{DateLayouts: cfg.DateLayouts},
		&ClassifyStep{Classifier: c},
		&AggregateStep{},
		&AssembleReportStep{Currency: cfg.Currency},
	)
}
