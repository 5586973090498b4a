package provider

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"document-analyzer/internal/domain"
)

// GeminiProvider calls Gemini models through Vertex AI using application
// default credentials.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger domain.Logger
}

// NewGeminiProvider creates a Vertex AI backed provider. The client
// authenticates via application default credentials.
func NewGeminiProvider(ctx context.Context, projectID, location, model string, logger domain.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("creating vertex ai client: %w", err)
	}
	return &GeminiProvider{client: client, model: model, logger: logger}, nil
}

// Name identifies the provider in responses and results.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Generate sends one chunk prompt and returns the completion.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(modelTemperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &CallError{Class: classify(err), Message: "calling gemini", Cause: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &CallError{Class: domain.FailureRetryableTransient, Message: "response has no candidates"}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return nil, &CallError{Class: domain.FailureRetryableTransient, Message: "response has no text parts"}
	}

	gen := &Generation{Text: b.String()}
	if resp.UsageMetadata != nil {
		gen.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		gen.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return gen, nil
}

// Close releases the underlying client connection.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
