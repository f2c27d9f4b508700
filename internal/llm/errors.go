package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited is matched by any UpstreamError with status 429.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrEmptyResponse means the provider answered without usable text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrTimeout means a single call exceeded its per-call deadline.
	ErrTimeout = errors.New("llm: request timed out")
)

// UpstreamError is a non-success answer from a provider.
type UpstreamError struct {
	Provider Provider
	Status   int
	Message  string
	Cause    error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s upstream %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s upstream %d", e.Provider, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrRateLimited) match 429 responses.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrRateLimited && e.Status == http.StatusTooManyRequests
}

// Temporary reports whether the status is worth retrying.
func (e *UpstreamError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout ||
		e.Status/100 == 5
}

// Retryable decides whether a failed call may be attempted again. Cancellation
// or expiry of the caller's context is final.
func Retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var uerr *UpstreamError
	if errors.As(err, &uerr) {
		return uerr.Temporary()
	}
	return false
}
