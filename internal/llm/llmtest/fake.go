// Package llmtest provides a scripted in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/proposal-analyst/internal/llm"
)

// HandlerFunc answers one request.
type HandlerFunc func(ctx context.Context, req llm.Request) (string, error)

// Fake records every request and answers with Handler. Safe for concurrent use.
type Fake struct {
	Handler      HandlerFunc
	ProviderName llm.Provider

	mu       sync.Mutex
	requests []llm.Request
	closed   bool
}

// NewFake returns a Fake answering with h.
func NewFake(h HandlerFunc) *Fake {
	return &Fake{Handler: h, ProviderName: "fake"}
}

// ByLabel answers with the canned response registered for the request label.
func ByLabel(responses map[string]string) HandlerFunc {
	return func(_ context.Context, req llm.Request) (string, error) {
		resp, ok := responses[req.Label]
		if !ok {
			return "", fmt.Errorf("llmtest: no response for label %q", req.Label)
		}
		return resp, nil
	}
}

// Generate records req and delegates to Handler.
func (f *Fake) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Handler == nil {
		return "", fmt.Errorf("llmtest: no handler")
	}
	return f.Handler(ctx, req)
}

// Provider returns ProviderName.
func (f *Fake) Provider() llm.Provider {
	return f.ProviderName
}

// Close marks the fake closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Calls returns the number of requests received.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of every recorded request in arrival order.
func (f *Fake) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestsFor returns the recorded requests carrying label.
func (f *Fake) RequestsFor(label string) []llm.Request {
	var out []llm.Request
	for _, r := range f.Requests() {
		if r.Label == label {
			out = append(out, r)
		}
	}
	return out
}
