package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// MockGenerator is a mock implementation of ContentGenerator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, model string, contents []*genai.Content) (string, error)
	Prompts      []string
}

func (m *MockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.Prompts = append(m.Prompts, contents[0].Parts[0].Text)
	text, err := m.GenerateFunc(ctx, model, contents)
	if err != nil {
		return nil, err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}, nil
}

// notesFromPrompt recovers the JSON notes array embedded in a prompt.
func notesFromPrompt(t *testing.T, prompt string) []string {
	t.Helper()
	start := strings.Index(prompt, "Input notes:\n") + len("Input notes:\n")
	end := strings.Index(prompt[start:], "\n")
	var notes []string
	require.NoError(t, json.Unmarshal([]byte(prompt[start:start+end]), &notes))
	return notes
}

func TestGemini_Classify(t *testing.T) {
	mock := &MockGenerator{
		GenerateFunc: func(ctx context.Context, model string, contents []*genai.Content) (string, error) {
			assert.Equal(t, "gemini-test", model)
			return "```json\n[\"Income\", \"Expense\"]\n```", nil
		},
	}
	g := NewGeminiWithGenerator(mock, "gemini-test")

	labels, err := g.Classify(context.Background(), []string{"Salary payment", "Grocery shop"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Income", "Expense"}, labels)

	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], `"Income", "Expense"`)
	assert.Equal(t, []string{"Salary payment", "Grocery shop"}, notesFromPrompt(t, mock.Prompts[0]))
}

func TestGemini_Batches(t *testing.T) {
	mock := &MockGenerator{}
	mock.GenerateFunc = func(ctx context.Context, model string, contents []*genai.Content) (string, error) {
		notes := notesFromPrompt(t, contents[0].Parts[0].Text)
		labels := make([]string, len(notes))
		for i := range labels {
			labels[i] = "Expense"
		}
		out, _ := json.Marshal(labels)
		return string(out), nil
	}
	g := NewGeminiWithGenerator(mock, "gemini-test")
	g.batchSize = 2

	labels, err := g.Classify(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, labels, 5)
	assert.Len(t, mock.Prompts, 3)
}

func TestGemini_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{name: "transport error", err: errors.New("quota exceeded")},
		{name: "empty response", text: ""},
		{name: "not json", text: "I think these are incomes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGenerator{
				GenerateFunc: func(ctx context.Context, model string, contents []*genai.Content) (string, error) {
					return tt.text, tt.err
				},
			}
			labels, err := NewGeminiWithGenerator(mock, "gemini-test").Classify(context.Background(), []string{"x"})
			assert.Error(t, err)
			assert.Nil(t, labels)
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `["Income"]`, `["Income"]`},
		{"fenced", "```json\n[\"Income\"]\n```", `["Income"]`},
		{"bare fence", "```\n[\"Expense\"]\n```", `["Expense"]`},
		{"chatter", "Here you go: [\"Income\", \"Expense\"] hope it helps", `["Income", "Expense"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}
