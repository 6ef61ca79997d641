package pipeline

import (
	"context"
)

// Classifier labels transaction notes. Implementations must return exactly
// one label per note, in input order. The pipeline treats any other result
// as a ClassifierError.
type Classifier interface {
	Classify(ctx context.Context, notes []string) ([]string, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, notes []string) ([]string, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, notes []string) ([]string, error) {
	return f(ctx, notes)
}
