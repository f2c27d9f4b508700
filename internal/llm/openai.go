package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIClient implements Client over the OpenAI chat-completions API or any
// compatible endpoint.
type OpenAIClient struct {
	httpClient *http.Client
	config     *Config
	apiKey     string
}

type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatCompletionMsg `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Temperature    float32             `json:"temperature"`
	ResponseFormat *responseFormat     `json:"response_format,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultOpenAIConfig()
	}
	if config.BaseURL == "" {
		withURL := *config
		withURL.BaseURL = DefaultOpenAIConfig().BaseURL
		config = &withURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		apiKey:     apiKey,
	}, nil
}

// Generate sends one chat-completions request.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	model := c.config.GetModel(req.Tier)
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	body := chatCompletionRequest{
		Model:       model,
		Messages:    make([]chatCompletionMsg, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for i, m := range req.Messages {
		body.Messages[i] = chatCompletionMsg{Role: string(m.Role), Content: m.Content}
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &UpstreamError{Provider: ProviderOpenAI, Status: http.StatusBadGateway, Message: "send request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	decodeErr := json.Unmarshal(raw, &chatResp)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && chatResp.Error != nil {
			msg = chatResp.Error.Message
		}
		return "", &UpstreamError{Provider: ProviderOpenAI, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if chatResp.Error != nil {
		return "", &UpstreamError{Provider: ProviderOpenAI, Status: http.StatusBadGateway, Message: chatResp.Error.Message}
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", ErrEmptyResponse)
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty message content", ErrEmptyResponse)
	}
	if req.JSON {
		text = CleanJSONBlock(text)
	}
	return text, nil
}

// Provider returns ProviderOpenAI.
func (c *OpenAIClient) Provider() Provider {
	return ProviderOpenAI
}

// Close releases idle connections.
func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
