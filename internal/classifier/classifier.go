// Package classifier provides the text classifiers the report pipeline can
// run: a pretrained naive Bayes model, a Gemini prompt, or regex rules.
package classifier

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/gcsstore"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/internal/pipeline"
)

var (
	_ pipeline.Classifier = (*Bayes)(nil)
	_ pipeline.Classifier = (*Gemini)(nil)
	_ pipeline.Classifier = (*Rules)(nil)
)

// Open loads the classifier named by cfg. Model and rules paths may be gs://
// URIs, which are read through fetcher. Failures are ClassifierLoadErrors.
func Open(ctx context.Context, cfg config.ClassifierConfig, fetcher gcsstore.Fetcher) (pipeline.Classifier, error) {
	log := logger.FromContext(ctx)

	switch cfg.Kind {
	case config.ClassifierBayes:
		data, err := gcsstore.ReadSource(ctx, fetcher, cfg.ModelPath)
		if err != nil {
			return nil, &domain.ClassifierLoadError{Source: cfg.ModelPath, Err: err}
		}
		b, err := LoadBayes(bytes.NewReader(data), cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("source", cfg.ModelPath).Strs("classes", b.Classes()).Msg("Loaded Bayes model")
		return b, nil

	case config.ClassifierGemini:
		g, err := NewGemini(ctx, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", cfg.GeminiModel).Msg("Using Gemini classifier")
		return g, nil

	case config.ClassifierRules:
		data, err := gcsstore.ReadSource(ctx, fetcher, cfg.RulesPath)
		if err != nil {
			return nil, &domain.ClassifierLoadError{Source: cfg.RulesPath, Err: err}
		}
		r, err := ParseRules(data, cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("source", cfg.RulesPath).Msg("Loaded classification rules")
		return r, nil

	default:
		return nil, &domain.ClassifierLoadError{Source: cfg.Kind, Err: fmt.Errorf("unknown classifier kind %q", cfg.Kind)}
	}
}
