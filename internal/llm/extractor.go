// Package llm - extractor.go builds prompts for schema-shaped JSON extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes the JSON object a model should return for a text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ObjectiveFacts")
	Description string        // Task preamble placed before the input text
	InputLabel  string        // Heading for the input text; defaults to "Input text"
	Fields      []SchemaField // Expected output fields, in output order
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Example     string // JSON literal shown as the field's value
	Description string // Optional hint rendered as a trailing comment
	Required    bool
}

// BuildExtractionPrompt renders the task preamble, the input text, and the exact
// object structure the model must answer with.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(schema.Description))
	sb.WriteString("\n\n")

	label := schema.InputLabel
	if label == "" {
		label = "Input text"
	}
	sb.WriteString(label)
	sb.WriteString(":\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\n")

	sb.WriteString("You MUST respond with a valid JSON object using this exact structure:\n{\n")
	for i, field := range schema.Fields {
		example := field.Example
		if example == "" {
			example = `"string"`
		}
		sb.WriteString(fmt.Sprintf("  %q: %s", field.Name, example))
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		var notes []string
		if field.Required {
			notes = append(notes, "required")
		}
		if field.Description != "" {
			notes = append(notes, field.Description)
		}
		if len(notes) > 0 {
			sb.WriteString(" // ")
			sb.WriteString(strings.Join(notes, "; "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")
	sb.WriteString("Return ONLY the JSON object, no other text.")

	return sb.String()
}

// RequiredFields lists the names of required fields in declaration order.
func (s ExtractionSchema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}
