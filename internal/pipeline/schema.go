package pipeline

import (
	"strings"

	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/domain"
)

const absent = -1

// Capabilities records which column roles the input carries and where.
// It is computed once by ValidateSchema and is the single source of truth
// for every later branch on optional columns.
type Capabilities struct {
	NoteIndex   int
	AmountIndex int
	DateIndex   int

	// Header text as it appears in the input.
	NoteColumn   string
	AmountColumn string
	DateColumn   string
}

// HasAmount reports whether KPI totals and category amounts apply.
func (c Capabilities) HasAmount() bool { return c.AmountIndex != absent }

// HasDate reports whether periods and period counts apply.
func (c Capabilities) HasDate() bool { return c.DateIndex != absent }

// ValidateSchema checks the header for the required note column and detects
// the optional amount and date columns. Only a missing note column fails.
func ValidateSchema(header []string, cols config.Columns) (Capabilities, error) {
	caps := Capabilities{
		NoteIndex:   findColumn(header, cols.Note),
		AmountIndex: findColumn(header, cols.Amount),
		DateIndex:   findColumn(header, cols.Date),
	}

	if caps.NoteIndex == absent {
		name := RoleNote
		if len(cols.Note) > 0 {
			name = cols.Note[0]
		}
		return Capabilities{}, &domain.SchemaError{Missing: []string{name}}
	}

	caps.NoteColumn = header[caps.NoteIndex]
	if caps.HasAmount() {
		caps.AmountColumn = header[caps.AmountIndex]
	}
	if caps.HasDate() {
		caps.DateColumn = header[caps.DateIndex]
	}

	return caps, nil
}

// findColumn returns the index of the first header matching any alias,
// preferring earlier aliases.
func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(alias)) {
				return i
			}
		}
	}
	return absent
}
