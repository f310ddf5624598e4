package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// Gemini is the production Oracle backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini oracle. Credentials come from the
// environment (GEMINI_API_KEY or Application Default Credentials).
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{client: client, model: model}, nil
}

// GenerateJSON sends the prompt (plus an optional inline document) to the
// model and decodes the response as JSON. The raw response is cleaned of
// Markdown fences first because models ignore formatting instructions
// often enough to matter.
func (g *Gemini) GenerateJSON(ctx context.Context, prompt string, doc *Document) (any, error) {
	parts := []*genai.Part{{Text: prompt}}
	if doc != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: doc.MIMEType,
				Data:     doc.Data,
			},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, Unavailable("Gemini.GenerateJSON: generate content", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, &SchemaError{Reason: "empty response from model"}
	}

	clean := CleanModelJSON(rawText)

	var parsed any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("unmarshal JSON: %v; raw response: %s", err, rawText)}
	}
	return parsed, nil
}

// CleanModelJSON strips Markdown code fences and surrounding junk from a
// model response, keeping only the outermost JSON value.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If there is still junk around the JSON, keep only the outermost
	// object or array.
	start, end := -1, -1
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		o := strings.Index(s, pair[0])
		c := strings.LastIndex(s, pair[1])
		if o != -1 && c > o && (start == -1 || o < start) {
			start, end = o, c
		}
	}
	if start != -1 {
		s = strings.TrimSpace(s[start : end+1])
	}
	return s
}
