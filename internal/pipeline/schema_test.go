package pipeline

import (
	"errors"
	"testing"

	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/domain"
)

func TestValidateSchema(t *testing.T) {
	cols := config.Default().Columns

	tests := []struct {
		name       string
		header     []string
		wantErr    bool
		wantNote   int
		wantAmount bool
		wantDate   bool
	}{
		{
			name:       "all columns",
			header:     []string{"Date", "Note", "KES"},
			wantNote:   1,
			wantAmount: true,
			wantDate:   true,
		},
		{
			name:     "note only",
			header:   []string{"note"},
			wantNote: 0,
		},
		{
			name:       "lowercase aliases",
			header:     []string{"amount", "NOTE"},
			wantNote:   1,
			wantAmount: true,
		},
		{
			name:    "missing note",
			header:  []string{"KES", "Date"},
			wantErr: true,
		},
		{
			name:    "empty header",
			header:  []string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps, err := ValidateSchema(tt.header, cols)
			if tt.wantErr {
				var schemaErr *domain.SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("expected SchemaError, got %v", err)
				}
				if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "Note" {
					t.Errorf("Missing = %v, want [Note]", schemaErr.Missing)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if caps.NoteIndex != tt.wantNote {
				t.Errorf("NoteIndex = %d, want %d", caps.NoteIndex, tt.wantNote)
			}
			if caps.HasAmount() != tt.wantAmount {
				t.Errorf("HasAmount() = %v, want %v", caps.HasAmount(), tt.wantAmount)
			}
			if caps.HasDate() != tt.wantDate {
				t.Errorf("HasDate() = %v, want %v", caps.HasDate(), tt.wantDate)
			}
		})
	}
}

func TestValidateSchema_KeepsHeaderText(t *testing.T) {
	caps, err := ValidateSchema([]string{"NOTE", "kes", "DATE"}, config.Default().Columns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caps.NoteColumn != "NOTE" || caps.AmountColumn != "kes" || caps.DateColumn != "DATE" {
		t.Errorf("unexpected column names: %+v", caps)
	}
}
