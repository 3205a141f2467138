// Package llm provides the remote text-generation gateway and utilities for
// processing its responses.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// StatusOK is the gateway status for a successful remote call.
const StatusOK = "ok"

// Gateway is the remote generation collaborator used by the text stages.
// GenerateJSON never returns an error: unavailability or remote failure is
// reported through the status string alongside an empty object, so stages
// can fall back deterministically.
type Gateway interface {
	// GenerateJSON sends a system and user instruction and returns the parsed
	// JSON object from the response plus a status string.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, string)
	// Close releases any resources held by the gateway.
	Close() error
}

// NewGateway creates a Gemini-backed gateway. A missing API key or a failed
// client construction yields a disabled gateway whose status explains why.
func NewGateway(ctx context.Context, apiKey, model string) Gateway {
	if apiKey == "" {
		return Disabled("missing GEMINI_API_KEY/GOOGLE_API_KEY")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return Disabled(fmt.Sprintf("failed to create gemini client: %v", err))
	}

	return &geminiGateway{client: client, model: model}
}

// Disabled is a gateway without a usable client. Every call reports the
// reason as its status.
type Disabled string

// GenerateJSON always returns an empty object and the disable reason.
func (d Disabled) GenerateJSON(context.Context, string, string) (map[string]any, string) {
	return map[string]any{}, string(d)
}

// Close is a no-op for a disabled gateway.
func (d Disabled) Close() error { return nil }

// geminiGateway implements Gateway for Google Gemini.
type geminiGateway struct {
	client *genai.Client
	model  string
}

func (g *geminiGateway) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, string) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2) // low temperature for consistent structured output
	model.ResponseMIMEType = "application/json"

	prompt := fmt.Sprintf("%s\n\nReturn strictly valid JSON. Do not wrap in markdown.\n\n%s",
		systemPrompt, userPrompt)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return map[string]any{}, fmt.Sprintf("gemini request failed: %v", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return map[string]any{}, fmt.Sprintf("gemini response unusable: %v", err)
	}

	return ParseJSON(CleanJSONBlock(text)), StatusOK
}

func (g *geminiGateway) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
