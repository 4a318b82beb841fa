// Package describe holds the vision-language collaborator: Gemini-backed
// clip description and the HyPE hypothetical-question generator used by
// the retrieval indexing stage.
package describe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/mementolabs/capture-agent/internal/assets"
)

// Describer is the vision-language collaborator contract. Each call is a
// blocking I/O boundary attempted at most once per pipeline stage.
type Describer interface {
	// Describe returns a natural-language description of the media blob.
	Describe(ctx context.Context, data []byte, mimeType string) (string, error)

	// Ask sends a system prompt plus user context and returns the text
	// response.
	Ask(ctx context.Context, prompt, context string) (string, error)
}

// Gemini implements Describer with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// Compile-time interface check.
var _ Describer = (*Gemini)(nil)

// NewGemini creates a Gemini describer using the given API key and the
// model resolved by GetModelName.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: GetModelName()}, nil
}

// Describe sends the blob inline with the clip-description prompt and
// returns Gemini's narration.
func (g *Gemini) Describe(ctx context.Context, data []byte, mimeType string) (string, error) {
	log.Debug().
		Int("bytes", len(data)).
		Str("mime_type", mimeType).
		Str("model", g.model).
		Msg("Sending media to Gemini for description")

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: assets.DescribeGIFPrompt},
		},
	}}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate description: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Gemini description received")
	return text, nil
}

// Ask sends prompt as the system instruction and context as the user turn.
func (g *Gemini) Ask(ctx context.Context, prompt, userContext string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userContext), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	return resp.Text(), nil
}
