package assist

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini-backed Generator. Without an API key drafting is
// unavailable and ErrUnavailable is returned.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAI{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn and returns the text reply.
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	})
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("genai generate: empty response")
	}
	return text, nil
}

// Name identifies the backing model in logs.
func (g *GenAI) Name() string {
	return "genai:" + g.model
}
