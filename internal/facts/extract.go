// Package facts extracts the verifiable facts of a proposal into a fixed record.
package facts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/prompts"
	"github.com/jonathan/proposal-analyst/internal/schemas"
	"github.com/jonathan/proposal-analyst/internal/types"
)

// Label tags extraction requests in logs and metrics.
const Label = "facts"

// Sampling parameters for the extraction call.
const (
	Temperature = 0.1
	MaxTokens   = 800
)

// Schema is the object structure shown to the model.
var Schema = llm.ExtractionSchema{
	Name:       "ObjectiveFacts",
	InputLabel: "Proposal text",
	Fields: []llm.SchemaField{
		{Name: "main_objective", Example: `"The primary goal stated in the proposal"`, Required: true},
		{Name: "key_actions", Example: `["action 1", "action 2"]`, Required: true},
		{Name: "quantitative_data", Example: `{"metric_name": "value"}`, Required: true},
		{Name: "cost", Example: `"amount if mentioned, or 'not specified'"`, Required: true},
		{Name: "timeline", Example: `"timeframe if mentioned, or 'not specified'"`, Required: true},
		{Name: "target_groups", Example: `["group 1", "group 2"]`, Description: "groups specifically mentioned", Required: true},
		{Name: "resources_required", Example: `["resource 1", "resource 2"]`, Required: true},
	},
}

// BuildRequest renders the extraction prompt for text.
func BuildRequest(text string) llm.Request {
	tmpl := prompts.MustGet(prompts.AnalysisFile, "objective-facts")

	schema := Schema
	schema.Description = tmpl.User

	msgs := make([]llm.Message, 0, 2)
	if tmpl.System != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: tmpl.System})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: llm.BuildExtractionPrompt(schema, text)})

	return llm.Request{
		Label:       Label,
		Messages:    msgs,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		JSON:        true,
		Tier:        llm.TierStandard,
	}
}

// Extract asks the model for the objective facts of text. The response must
// conform to the ObjectiveFacts schema; nothing is repaired or defaulted.
func Extract(ctx context.Context, client llm.Client, text string) (*types.ObjectiveFacts, error) {
	if client == nil {
		return nil, &APICallError{Message: "no LLM client configured"}
	}

	response, err := client.Generate(ctx, BuildRequest(text))
	if err != nil {
		return nil, &APICallError{
			Message: "failed to generate objective facts",
			Cause:   err,
		}
	}

	return ParseFacts(response)
}

// ParseFacts decodes a model response into ObjectiveFacts. Markdown fences and
// surrounding prose are stripped first. Malformed JSON yields *ParseError, a
// schema violation yields *SchemaError.
func ParseFacts(raw string) (*types.ObjectiveFacts, error) {
	cleaned := strings.TrimSpace(llm.CleanJSONBlock(raw))
	if cleaned == "" {
		return nil, &ParseError{Message: "empty response"}
	}
	if !json.Valid([]byte(cleaned)) {
		return nil, &ParseError{Message: "response is not valid JSON"}
	}

	if err := schemas.ValidateFacts([]byte(cleaned)); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			return nil, &SchemaError{Cause: verr}
		}
		return nil, &ParseError{Message: "could not validate response", Cause: err}
	}

	var facts types.ObjectiveFacts
	if err := json.Unmarshal([]byte(cleaned), &facts); err != nil {
		return nil, &ParseError{Message: "failed to decode objective facts", Cause: err}
	}
	facts.Normalize()
	return &facts, nil
}
