// Package classifier turns free-text transaction descriptions into
// structured guesses using a Gemini model.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"fintower/internal/core"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	// requestTimeout bounds a single model call.
	requestTimeout = 10 * time.Second
)

// Classifier extracts structured fields from a free-text transaction line.
type Classifier interface {
	Categorize(ctx context.Context, text string) (Guess, error)
}

// Gemini calls the Google GenAI API to classify transactions.
type Gemini struct {
	client *genai.Client
	model  string
	prompt string
}

// NewGemini builds a classifier backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini classifier: missing API key")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini classifier: create client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  model,
		prompt: buildPrompt(),
	}, nil
}

// Categorize sends the text to the model and normalizes its JSON reply.
func (g *Gemini) Categorize(ctx context.Context, text string) (Guess, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: g.prompt + "\n\nInput: " + text},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Guess{}, &ClassificationError{Reason: "model call failed", Err: err}
	}

	raw := resp.Text()
	if raw == "" {
		return Guess{}, &ClassificationError{Reason: "empty response from model"}
	}

	return Normalize(raw)
}

func buildPrompt() string {
	cats := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		cats = append(cats, string(c))
	}

	return "You are a financial assistant. I will send you a transaction description.\n" +
		"You must extract the following fields and return them as a valid JSON object:\n" +
		"- amount: (number)\n" +
		"- description: (string)\n" +
		"- category: One of [" + strings.Join(cats, ", ") + "]. " +
		"Default to \"Food & Drinks\" or \"Items\" if they fit, otherwise \"Guilt-Free Spending\".\n" +
		"- tag: (string, optional) e.g., #bonus, #gold. If the category is Gold Purchase, ensure tag is #gold.\n\n" +
		"IMPORTANT: Return ONLY the JSON object. No markdown formatting (like ```json), no explanations.\n\n" +
		"Example Input: \"350 Dinner at Zuma\"\n" +
		"Example Output: {\"amount\": 350, \"description\": \"Dinner at Zuma\", \"category\": \"Guilt-Free Spending\", \"tag\": null}"
}
