// Package schemas provides JSON Schema validation for model-produced artifacts.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed objective_facts.schema.json
var objectiveFactsSchema []byte

// ObjectiveFactsSchemaName identifies the embedded facts schema in errors.
const ObjectiveFactsSchemaName = "objective_facts.schema.json"

var (
	factsOnce     sync.Once
	factsCompiled *gojsonschema.Schema
	factsErr      error
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Fields returns the distinct failing field paths in report order.
func (ve *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(ve.Errors))
	var fields []string
	for _, e := range ve.Errors {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	return fields
}

// ObjectiveFactsSchema returns a copy of the embedded schema document.
func ObjectiveFactsSchema() []byte {
	out := make([]byte, len(objectiveFactsSchema))
	copy(out, objectiveFactsSchema)
	return out
}

// ValidateFacts validates a JSON document against the embedded ObjectiveFacts
// schema. The schema is compiled once.
func ValidateFacts(document []byte) error {
	factsOnce.Do(func() {
		factsCompiled, factsErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(objectiveFactsSchema))
	})
	if factsErr != nil {
		return &SchemaLoadError{Path: ObjectiveFactsSchemaName, Message: "invalid embedded schema", Cause: factsErr}
	}

	result, err := factsCompiled.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &SchemaLoadError{
			Path:    ObjectiveFactsSchemaName,
			Message: "document could not be loaded",
			Cause:   err,
		}
	}
	return toValidationError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return toValidationError(result)
}

// toValidationError returns nil for a valid result.
func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
