package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/jbrukh/bayesian"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Tokenize prepares a note for the Bayesian model: lowercased, split on
// anything that is not a letter or digit.
func Tokenize(note string) []string {
	return strings.Fields(nonWord.ReplaceAllString(strings.ToLower(note), " "))
}

// Bayes labels notes with a pretrained naive Bayes model. The model is
// read-only after load and safe for concurrent use.
type Bayes struct {
	cl     *bayesian.Classifier
	source string
}

// NewBayes wraps a trained classifier. Every class of the model must be a
// known category.
func NewBayes(cl *bayesian.Classifier, source string) (*Bayes, error) {
	if cl == nil {
		return nil, &domain.ClassifierLoadError{Source: source, Err: fmt.Errorf("nil model")}
	}
	for _, class := range cl.Classes {
		if _, ok := domain.ParseCategory(string(class)); !ok {
			return nil, &domain.ClassifierLoadError{
				Source: source,
				Err:    fmt.Errorf("model class %q: %w", class, domain.ErrUnknownLabel),
			}
		}
	}
	return &Bayes{cl: cl, source: source}, nil
}

// LoadBayes decodes a serialized model from r.
func LoadBayes(r io.Reader, source string) (*Bayes, error) {
	cl, err := bayesian.NewClassifierFromReader(r)
	if err != nil {
		return nil, &domain.ClassifierLoadError{Source: source, Err: err}
	}
	return NewBayes(cl, source)
}

// LoadBayesFile decodes a serialized model from a local file.
func LoadBayesFile(path string) (*Bayes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ClassifierLoadError{Source: path, Err: err}
	}
	defer f.Close()
	return LoadBayes(f, path)
}

// Source names where the model was loaded from.
func (b *Bayes) Source() string { return b.source }

// Classes returns the model's class names.
func (b *Bayes) Classes() []string {
	classes := make([]string, len(b.cl.Classes))
	for i, c := range b.cl.Classes {
		classes[i] = string(c)
	}
	return classes
}

// Classify returns the highest scoring class for each note.
func (b *Bayes) Classify(ctx context.Context, notes []string) (labels []string, err error) {
	// LogScores panics on a TF-IDF model that was never converted.
	defer func() {
		if r := recover(); r != nil {
			labels = nil
			err = &domain.ClassifierError{Reason: fmt.Sprintf("bayes model %s", b.source), Err: fmt.Errorf("%v", r)}
		}
	}()

	labels = make([]string, len(notes))
	for i, note := range notes {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		_, inx, _ := b.cl.LogScores(Tokenize(note))
		labels[i] = string(b.cl.Classes[inx])
	}
	return labels, nil
}

// Example is one labelled note used for training.
type Example struct {
	Note     string
	Category domain.Category
}

// Train builds a model over the full label set from labelled examples.
func Train(examples []Example, tfIdf bool) *bayesian.Classifier {
	classes := make([]bayesian.Class, len(domain.Categories))
	for i, c := range domain.Categories {
		classes[i] = bayesian.Class(c)
	}

	var cl *bayesian.Classifier
	if tfIdf {
		cl = bayesian.NewClassifierTfIdf(classes...)
	} else {
		cl = bayesian.NewClassifier(classes...)
	}
	for _, ex := range examples {
		cl.Learn(Tokenize(ex.Note), bayesian.Class(ex.Category))
	}
	if tfIdf {
		cl.ConvertTermsFreqToTfIdf()
	}
	return cl
}

// Encode serializes a model in the format LoadBayes reads.
func Encode(cl *bayesian.Classifier) ([]byte, error) {
	var buf bytes.Buffer
	if err := cl.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("Encode: write model: %w", err)
	}
	return buf.Bytes(), nil
}
