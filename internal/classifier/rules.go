package classifier

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/dvloznov/money-manager/internal/domain"
	yaml "gopkg.in/yaml.v2"
)

// Rules labels notes by regular expression. A rules file maps each category
// to the patterns that select it:
//
//	Income:
//	  - (?i)salary
//	Expense:
//	  - (?i)grocery
//
// Categories are tried in label-set order; notes that match nothing get
// the fallback category.
type Rules struct {
	patterns map[domain.Category][]*regexp.Regexp
	fallback domain.Category
	source   string
}

// ParseRules compiles rules from YAML.
func ParseRules(data []byte, source string) (*Rules, error) {
	raw := make(map[string][]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &domain.ClassifierLoadError{Source: source, Err: fmt.Errorf("parse rules: %w", err)}
	}

	r := &Rules{
		patterns: make(map[domain.Category][]*regexp.Regexp),
		fallback: domain.CategoryExpense,
		source:   source,
	}
	for label, patterns := range raw {
		cat, ok := domain.ParseCategory(label)
		if !ok {
			return nil, &domain.ClassifierLoadError{
				Source: source,
				Err:    fmt.Errorf("rules category %q: %w", label, domain.ErrUnknownLabel),
			}
		}
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, &domain.ClassifierLoadError{Source: source, Err: fmt.Errorf("compile %q: %w", p, err)}
			}
			r.patterns[cat] = append(r.patterns[cat], re)
		}
	}
	return r, nil
}

// LoadRules reads and compiles a local rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ClassifierLoadError{Source: path, Err: err}
	}
	return ParseRules(data, path)
}

// Classify returns the first matching category for each note.
func (r *Rules) Classify(ctx context.Context, notes []string) ([]string, error) {
	labels := make([]string, len(notes))
	for i, note := range notes {
		labels[i] = string(r.match(note))
	}
	return labels, nil
}

func (r *Rules) match(note string) domain.Category {
	for _, cat := range domain.Categories {
		for _, re := range r.patterns[cat] {
			if re.MatchString(note) {
				return cat
			}
		}
	}
	return r.fallback
}
