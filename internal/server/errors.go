package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/proposal-analyst/internal/types"
)

// Client-facing error messages.
const (
	MsgAnalysisFailed     = "Internal server error during analysis"
	MsgInvalidContentType = "Content-Type must be application/json"
	MsgInvalidJSON        = "Request body must be valid JSON"
	MsgBodyTooLarge       = "Request body too large"
	MsgNotFound           = "Endpoint not found"
)

// ErrorResponse is the body of every failed API response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrInvalidBody indicates a request body that could not be decoded
type ErrInvalidBody struct {
	Message string
	Cause   error
}

func (e *ErrInvalidBody) Error() string {
	return e.Message
}

func (e *ErrInvalidBody) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError
	var invalid *ErrInvalidBody
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case types.IsValidationError(err), errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the response for err. Client errors carry their own
// message; anything else gets a generic message, with the cause attached
// only when debug is set.
func errorBody(err error, debug bool) ErrorResponse {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return ErrorResponse{Error: err.Error()}
	case http.StatusRequestEntityTooLarge:
		return ErrorResponse{Error: MsgBodyTooLarge}
	}
	resp := ErrorResponse{Error: MsgAnalysisFailed}
	if debug && err != nil {
		resp.Details = err.Error()
	}
	return resp
}
