package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterModel   = "meta-llama/llama-3-8b-instruct:free"
)

// OpenRouter calls the OpenRouter chat-completions API on its free tier.
type OpenRouter struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewOpenRouter constructs an OpenRouter backend. baseURL may be empty for
// the public endpoint.
func NewOpenRouter(token, baseURL string, client *http.Client) *OpenRouter {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	return &OpenRouter{token: token, baseURL: baseURL, client: client}
}

func (o *OpenRouter) Name() string { return "openrouter" }

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends prompt as a single user message. The raw-JSON instruction
// is appended because the free-tier models ignore response-format hints.
func (o *OpenRouter) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: openRouterModel,
		Messages: []chatMessage{
			{Role: "user", Content: prompt + "\n\nReturn ONLY raw JSON."},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openrouter: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openrouter: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter: API returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: response contained no choices")
	}
	return apiResp.Choices[0].Message.Content, nil
}
