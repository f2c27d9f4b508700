package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt(t *testing.T) {
	schema := ExtractionSchema{
		Name:        "Sample",
		Description: "  Extract things.  ",
		InputLabel:  "Proposal text",
		Fields: []SchemaField{
			{Name: "title", Example: `"The title"`, Required: true},
			{Name: "tags", Example: `["a", "b"]`, Description: "short labels"},
		},
	}

	prompt := BuildExtractionPrompt(schema, "Build a bike shed.")

	assert.True(t, strings.HasPrefix(prompt, "Extract things.\n\nProposal text:\nBuild a bike shed.\n\n"))
	assert.Contains(t, prompt, `  "title": "The title", // required`)
	assert.Contains(t, prompt, `  "tags": ["a", "b"] // short labels`)
	assert.True(t, strings.HasSuffix(prompt, "Return ONLY the JSON object, no other text."))
}

func TestBuildExtractionPrompt_Defaults(t *testing.T) {
	prompt := BuildExtractionPrompt(ExtractionSchema{Fields: []SchemaField{{Name: "x"}}}, "body")

	assert.Contains(t, prompt, "Input text:\nbody")
	assert.Contains(t, prompt, `  "x": "string"`)
}

func TestExtractionSchema_RequiredFields(t *testing.T) {
	schema := ExtractionSchema{Fields: []SchemaField{
		{Name: "a", Required: true},
		{Name: "b"},
		{Name: "c", Required: true},
	}}
	assert.Equal(t, []string{"a", "c"}, schema.RequiredFields())
}
