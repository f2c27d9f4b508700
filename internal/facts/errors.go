package facts

import (
	"fmt"
	"strings"

	"github.com/jonathan/proposal-analyst/internal/schemas"
)

// APICallError represents a failed model call during extraction
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

// ParseError means the model response was not a JSON object
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaError means the response parsed but does not match the ObjectiveFacts schema.
type SchemaError struct {
	Cause *schemas.ValidationError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, 0, len(e.Cause.Errors))
	for _, fe := range e.Cause.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "objective facts do not match schema: " + strings.Join(msgs, "; ")
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}
