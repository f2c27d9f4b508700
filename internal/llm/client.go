package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Role tags a message in a request.
type Role string

// Message roles
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged piece of a prompt.
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral generation request.
type Request struct {
	// Label names the calling stage for logs and metrics.
	Label       string
	Messages    []Message
	Temperature float32
	// MaxTokens caps the output length; zero leaves the provider default.
	MaxTokens int
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
	Tier ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate runs one request and returns the model's text output.
	Generate(ctx context.Context, req Request) (string, error)
	// Provider reports which backend serves requests.
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Generate runs a request against Gemini. System messages become the model's
// system instruction; earlier turns are replayed as chat history.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	system, history, last, err := toGeminiContents(req.Messages)
	if err != nil {
		return "", err
	}
	if system != nil {
		model.SystemInstruction = system
	}

	var resp *genai.GenerateContentResponse
	if len(history) == 0 {
		resp, err = model.GenerateContent(ctx, last.Parts...)
	} else {
		chat := model.StartChat()
		chat.History = history
		resp, err = chat.SendMessage(ctx, last.Parts...)
	}
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	if req.JSON {
		text = CleanJSONBlock(text)
	}
	return text, nil
}

// Provider returns ProviderGemini.
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// toGeminiContents splits role-tagged messages into a system instruction,
// prior turns, and the final user turn.
func toGeminiContents(msgs []Message) (*genai.Content, []*genai.Content, *genai.Content, error) {
	var systemParts []genai.Part
	var turns []*genai.Content

	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, genai.Text(m.Content))
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return nil, nil, nil, fmt.Errorf("request must end with a user message")
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return system, turns[:len(turns)-1], turns[len(turns)-1], nil
}

// classifyGeminiError maps Google API status codes onto UpstreamError so the
// retry policy can treat every provider the same way.
func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &UpstreamError{
			Provider: ProviderGemini,
			Status:   gerr.Code,
			Message:  gerr.Message,
			Cause:    err,
		}
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		// A safety block repeats for the same request, so it is not temporary.
		return &UpstreamError{
			Provider: ProviderGemini,
			Status:   http.StatusUnprocessableEntity,
			Message:  blocked.Error(),
			Cause:    err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return &UpstreamError{Provider: ProviderGemini, Status: http.StatusBadGateway, Message: "generate content failed", Cause: err}
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrEmptyResponse)
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no text parts in response", ErrEmptyResponse)
	}

	return strings.Join(parts, ""), nil
}
