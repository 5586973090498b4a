package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"document-analyzer/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider calls the chat completions API over plain HTTP. A
// custom base URL lets the same provider target compatible gateways.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  domain.Logger
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(apiKey, baseURL, model string, logger domain.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// Name identifies the provider in responses and results.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends one chunk prompt and returns the completion.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if p.apiKey == "" {
		return nil, &CallError{Class: domain.FailureFatalAuth, Message: "openai api key not configured"}
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: modelTemperature,
	})
	if err != nil {
		return nil, &CallError{Class: domain.FailureFatalInvalidRequest, Message: "encoding request", Cause: err}
	}

	url := p.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &CallError{Class: domain.FailureFatalInvalidRequest, Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &CallError{Class: domain.FailureRetryableTransient, Message: "calling openai", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Class: domain.FailureRetryableTransient, Message: "reading response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var parsed chatCompletionResponse
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, &CallError{Class: classifyHTTPStatus(resp.StatusCode), Message: msg}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &CallError{Class: domain.FailureRetryableTransient, Message: "decoding response", Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &CallError{Class: domain.FailureRetryableTransient, Message: "response has no choices"}
	}

	return &Generation{
		Text:      parsed.Choices[0].Message.Content,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
	}, nil
}
