package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/money-manager/internal/domain"
)

// ClassifyNotes calls the classifier once with the whole note column and
// checks the result: one label per note, each Income or Expense. Any
// failure yields a ClassifierError and no labels at all.
func ClassifyNotes(ctx context.Context, c Classifier, notes []string) ([]domain.Category, error) {
	if c == nil {
		return nil, &domain.ClassifierError{Reason: "no classifier configured"}
	}
	if len(notes) == 0 {
		return []domain.Category{}, nil
	}

	labels, err := c.Classify(ctx, notes)
	if err != nil {
		return nil, &domain.ClassifierError{Reason: "invocation failed", Err: err}
	}

	if len(labels) != len(notes) {
		return nil, &domain.ClassifierError{
			Reason: fmt.Sprintf("got %d labels for %d notes", len(labels), len(notes)),
			Err:    domain.ErrLengthMismatch,
		}
	}

	categories := make([]domain.Category, len(labels))
	for i, label := range labels {
		cat, ok := domain.ParseCategory(label)
		if !ok {
			return nil, &domain.ClassifierError{
				Reason: fmt.Sprintf("row %d: label %q", i, label),
				Err:    domain.ErrUnknownLabel,
			}
		}
		categories[i] = cat
	}

	return categories, nil
}

// Annotate pairs each row with its label and derives its period.
// rows and labels must have equal length.
func Annotate(rows []domain.TransactionRow, labels []domain.Category) []domain.AnnotatedRow {
	annotated := make([]domain.AnnotatedRow, len(rows))
	for i, row := range rows {
		annotated[i] = domain.AnnotatedRow{
			TransactionRow: row,
			PredictedType:  labels[i],
		}
		if row.Date != nil {
			p := domain.PeriodOf(*row.Date)
			annotated[i].Period = &p
		}
	}
	return annotated
}

func notesOf(rows []domain.TransactionRow) []string {
	notes := make([]string, len(rows))
	for i, row := range rows {
		notes[i] = row.Note
	}
	return notes
}
