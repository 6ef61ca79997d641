package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLengthMismatch means the classifier returned a different number of
	// labels than notes it was given.
	ErrLengthMismatch = errors.New("classifier returned mismatched label count")

	// ErrUnknownLabel means the classifier returned a label outside the
	// Income/Expense label set.
	ErrUnknownLabel = errors.New("classifier returned unknown label")
)

// SchemaError reports required columns missing from the input header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// MalformedInputError means the upload could not be read as tabular data.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input table: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ClassifierLoadError means the pretrained classifier artifact could not be
// loaded. It is fatal at process start.
type ClassifierLoadError struct {
	Source string
	Err    error
}

func (e *ClassifierLoadError) Error() string {
	return fmt.Sprintf("load classifier from %s: %v", e.Source, e.Err)
}

func (e *ClassifierLoadError) Unwrap() error { return e.Err }

// ClassifierError means classification of a run failed. No partial labels
// are kept.
type ClassifierError struct {
	Reason string
	Err    error
}

func (e *ClassifierError) Error() string {
	if e.Err == nil {
		return "classifier: " + e.Reason
	}
	return fmt.Sprintf("classifier: %s: %v", e.Reason, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// ParseWarning is a soft, per-row failure. The row is kept with the
// affected field treated as missing.
type ParseWarning struct {
	Row    int    `json:"row"`    // zero-based data row index
	Column string `json:"column"` // header text as it appears in the input
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("row %d: column %q: %s (%q)", w.Row, w.Column, w.Reason, w.Value)
}
