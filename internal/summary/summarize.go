// Package summary writes a neutral plain-language summary from extracted facts.
//
// Summarize takes only the fact record, so nothing from the original proposal
// text can reach the summarizer prompt.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/prompts"
	"github.com/jonathan/proposal-analyst/internal/types"
)

// Label tags summary requests in logs and metrics.
const Label = "summary"

// Sampling parameters for the summary call.
const (
	Temperature = 0.3
	MaxTokens   = 300
)

// ErrEmptySummary is returned when the model answers with only whitespace.
var ErrEmptySummary = errors.New("model returned an empty summary")

// APICallError represents a failed model call while summarizing
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// BuildRequest renders the summary prompt with facts serialized as indented JSON.
func BuildRequest(facts types.ObjectiveFacts) (llm.Request, error) {
	facts.Normalize()
	payload, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return llm.Request{}, fmt.Errorf("failed to serialize objective facts: %w", err)
	}

	tmpl := prompts.MustGet(prompts.AnalysisFile, "neutral-summary")
	return llm.Request{
		Label:       Label,
		Messages:    tmpl.Messages(map[string]string{"Facts": string(payload)}),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Tier:        llm.TierStandard,
	}, nil
}

// Summarize asks the model for a 3-5 sentence neutral summary of facts.
func Summarize(ctx context.Context, client llm.Client, facts types.ObjectiveFacts) (string, error) {
	if client == nil {
		return "", &APICallError{Message: "no LLM client configured"}
	}

	req, err := BuildRequest(facts)
	if err != nil {
		return "", err
	}

	response, err := client.Generate(ctx, req)
	if err != nil {
		return "", &APICallError{
			Message: "failed to generate summary",
			Cause:   err,
		}
	}

	summary := strings.TrimSpace(response)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}
