package classifier

import (
	"fmt"
	"strings"

	"github.com/dvloznov/money-manager/internal/domain"
)

// TrainingSet is the labelled data read from a CSV, plus the rows that
// could not be used.
type TrainingSet struct {
	Examples []Example
	Skipped  []domain.ParseWarning
}

// Counts returns the number of examples per category.
func (s TrainingSet) Counts() map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, ex := range s.Examples {
		counts[ex.Category]++
	}
	return counts
}

// ExamplesFromTable reads (note, label) pairs from a table. Rows with an
// empty note or a label outside the label set are skipped and reported.
// Both categories must be represented.
func ExamplesFromTable(table domain.Table, noteColumn, labelColumn string) (TrainingSet, error) {
	noteIdx, labelIdx := -1, -1
	for i, h := range table.Header {
		switch {
		case noteIdx == -1 && strings.EqualFold(strings.TrimSpace(h), noteColumn):
			noteIdx = i
		case labelIdx == -1 && strings.EqualFold(strings.TrimSpace(h), labelColumn):
			labelIdx = i
		}
	}

	var missing []string
	if noteIdx == -1 {
		missing = append(missing, noteColumn)
	}
	if labelIdx == -1 {
		missing = append(missing, labelColumn)
	}
	if len(missing) > 0 {
		return TrainingSet{}, &domain.SchemaError{Missing: missing}
	}

	var set TrainingSet
	for i, record := range table.Records {
		note := strings.TrimSpace(record[noteIdx])
		label := strings.TrimSpace(record[labelIdx])

		cat, ok := domain.ParseCategory(label)
		switch {
		case note == "":
			set.Skipped = append(set.Skipped, domain.ParseWarning{Row: i, Column: table.Header[noteIdx], Reason: "empty note"})
		case !ok:
			set.Skipped = append(set.Skipped, domain.ParseWarning{Row: i, Column: table.Header[labelIdx], Value: label, Reason: "unknown label"})
		default:
			set.Examples = append(set.Examples, Example{Note: note, Category: cat})
		}
	}

	counts := set.Counts()
	for _, c := range domain.Categories {
		if counts[c] == 0 {
			return set, fmt.Errorf("ExamplesFromTable: no %s examples", c)
		}
	}
	return set, nil
}
