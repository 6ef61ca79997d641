package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/money-manager/internal/domain"
	"google.golang.org/genai"
)

// DefaultGeminiBatch is the number of notes sent per request.
const DefaultGeminiBatch = 100

// ContentGenerator is the part of the genai client the Gemini classifier
// uses. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini labels notes by prompting a Gemini model. Notes are sent in
// batches; each batch must come back as a JSON array of the same length.
type Gemini struct {
	gen       ContentGenerator
	model     string
	batchSize int
}

// NewGemini creates a genai client. Vertex vs Gemini Dev is controlled via
// GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_LOCATION.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, &domain.ClassifierLoadError{Source: "gemini:" + model, Err: err}
	}
	return NewGeminiWithGenerator(client.Models, model), nil
}

// NewGeminiWithGenerator builds a Gemini classifier on an existing generator.
func NewGeminiWithGenerator(gen ContentGenerator, model string) *Gemini {
	return &Gemini{gen: gen, model: model, batchSize: DefaultGeminiBatch}
}

// Classify labels notes batch by batch. Any failed batch fails the call.
func (g *Gemini) Classify(ctx context.Context, notes []string) ([]string, error) {
	labels := make([]string, 0, len(notes))
	for start := 0; start < len(notes); start += g.batchSize {
		end := min(start+g.batchSize, len(notes))
		batch, err := g.classifyBatch(ctx, notes[start:end])
		if err != nil {
			return nil, fmt.Errorf("Gemini.Classify: notes %d-%d: %w", start, end-1, err)
		}
		labels = append(labels, batch...)
	}
	return labels, nil
}

func (g *Gemini) classifyBatch(ctx context.Context, notes []string) ([]string, error) {
	prompt, err := buildClassifyPrompt(notes)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.gen.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var labels []string
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &labels); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, rawText)
	}
	return labels, nil
}

func buildClassifyPrompt(notes []string) (string, error) {
	encoded, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("encode notes: %w", err)
	}

	allowed := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		allowed[i] = fmt.Sprintf("%q", c)
	}

	var b strings.Builder
	b.WriteString("You classify personal finance transactions by their free-text note.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- For each note in the input array, decide whether it is money in or money out.\n")
	b.WriteString("- Use ONLY these labels: " + strings.Join(allowed, ", ") + ".\n")
	b.WriteString(fmt.Sprintf("- Output a JSON array of exactly %d strings, one label per note, in input order.\n\n", len(notes)))
	b.WriteString("Input notes:\n")
	b.Write(encoded)
	b.WriteString("\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")
	return b.String(), nil
}

// cleanModelJSON strips Markdown fences or chatter around a JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only from the first '[' to the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
