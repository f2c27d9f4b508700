// Package equity asks the model which fairness questions a proposal leaves open.
package equity

import (
	"context"
	"strings"
	"unicode"

	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/prompts"
)

// Label tags equity requests in logs and metrics.
const Label = "equity"

// NoStakeholders stands in for the group list when the detector found none.
const NoStakeholders = "no specific groups"

// Sampling parameters for the elicitation call.
const (
	Temperature = 0.7
	MaxTokens   = 500
)

// enumeration markers stripped from the start of each response line
const listMarkers = "0123456789.-)•* \t"

// BuildRequest renders the equity prompt for text and the groups it mentions.
func BuildRequest(text string, stakeholders []string) llm.Request {
	groups := NoStakeholders
	if len(stakeholders) > 0 {
		groups = strings.Join(stakeholders, ", ")
	}
	tmpl := prompts.MustGet(prompts.AnalysisFile, "equity-concerns")
	return llm.Request{
		Label:       Label,
		Messages:    tmpl.Messages(map[string]string{"Stakeholders": groups, "Text": text}),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Tier:        llm.TierAdvanced,
	}
}

// Elicit asks the model for 3-5 equity concerns about text given the detected
// stakeholder groups, and returns them parsed into a list.
func Elicit(ctx context.Context, client llm.Client, text string, stakeholders []string) ([]string, error) {
	if client == nil {
		return nil, &APICallError{Message: "no LLM client configured"}
	}

	response, err := client.Generate(ctx, BuildRequest(text, stakeholders))
	if err != nil {
		return nil, &APICallError{
			Message: "failed to generate equity concerns",
			Cause:   err,
		}
	}

	return ParseConcerns(response), nil
}

// ParseConcerns turns an enumerated model response into one entry per line.
// Leading list markers are removed and lines without any letter or digit are
// dropped. Order is preserved. The result is never nil.
func ParseConcerns(response string) []string {
	concerns := []string{}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, listMarkers)
		line = strings.TrimSpace(line)
		if !hasAlphanumeric(line) {
			continue
		}
		concerns = append(concerns, line)
	}
	return concerns
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
