// Package types provides type definitions for structured data used throughout the proposal analyst.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MinProposalLength is the minimum number of characters (after trimming) a proposal must have.
	MinProposalLength = 50
	// MaxProposalLength is the maximum number of characters a proposal may have.
	MaxProposalLength = 50000
	// MaxBatchSize is the maximum number of proposals accepted in one batch.
	MaxBatchSize = 10
)

var validate = newValidator()

// newValidator builds the shared validator. Field names in errors use the json tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError reports caller-supplied input that was rejected before any analysis ran.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateProposal checks the length bounds of a proposal text.
// The lower bound applies to the trimmed text, the upper bound to the raw text.
// Lengths are counted in characters, not bytes.
func ValidateProposal(text string) error {
	if err := validate.Var(strings.TrimSpace(text), fmt.Sprintf("min=%d", MinProposalLength)); err != nil {
		return &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("Proposal text must be at least %d characters long", MinProposalLength),
		}
	}
	if err := validate.Var(text, fmt.Sprintf("max=%d", MaxProposalLength)); err != nil {
		return &ValidationError{
			Field:   "text",
			Message: "Proposal text must be less than 50,000 characters",
		}
	}
	return nil
}

// AnalyzeRequest is the request body for a single-proposal analysis.
// Text is a pointer so a missing field can be told apart from an empty one.
type AnalyzeRequest struct {
	Text *string `json:"text" validate:"required"`
}

// Validate checks required fields and proposal bounds.
func (r *AnalyzeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fieldError(err, "Missing required field: text")
	}
	return ValidateProposal(*r.Text)
}

// fieldError converts validator errors into a ValidationError carrying message.
func fieldError(err error, message string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field(), Message: message}
	}
	return &ValidationError{Message: message}
}
