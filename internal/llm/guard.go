package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/jonathan/proposal-analyst/internal/observability"
)

// Default guard settings.
const (
	DefaultMaxConcurrent = 4
	DefaultMaxRetries    = 2
	DefaultBaseBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff    = 4 * time.Second
)

// GuardOptions configures a Guarded client. Zero values select the defaults;
// a non-positive RequestsPerSecond disables call-rate limiting.
type GuardOptions struct {
	MaxConcurrent     int64
	RequestsPerSecond float64
	// MaxRetries counts attempts after the first. Negative disables retries.
	MaxRetries     int
	RequestTimeout time.Duration
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	Logger         *zap.Logger
}

// Guarded wraps a Client with an in-flight cap, a call-rate limit, a per-call
// deadline and bounded retries with exponential backoff.
type Guarded struct {
	inner   Client
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	opts    GuardOptions
	logger  *zap.Logger
}

// NewGuarded wraps inner with the given options.
func NewGuarded(inner Client, opts GuardOptions) *Guarded {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	} else if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = DefaultBaseBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.MaxConcurrent)
	}

	return &Guarded{
		inner:   inner,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
		limiter: rate.NewLimiter(limit, burst),
		opts:    opts,
		logger:  logger,
	}
}

// Generate runs req through the guard. Only retryable failures are retried, and
// never once ctx is done.
func (g *Guarded) Generate(ctx context.Context, req Request) (string, error) {
	provider := string(g.inner.Provider())
	var lastErr error

	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := g.backoff(attempt)
			observability.LLMRetries.WithLabelValues(provider, req.Label).Inc()
			g.logger.Warn("retrying model call",
				zap.String("stage", req.Label),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr))
			if err := sleepContext(ctx, delay); err != nil {
				return "", lastErr
			}
		}

		start := time.Now()
		text, err := g.attempt(ctx, req)
		observability.ObserveLLMCall(provider, req.Label, err, time.Since(start))
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !Retryable(ctx, err) {
			return "", err
		}
	}
	return "", lastErr
}

func (g *Guarded) attempt(ctx context.Context, req Request) (string, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.RequestTimeout)
	defer cancel()

	text, err := g.inner.Generate(callCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s: %w", ErrTimeout, g.opts.RequestTimeout, err)
	}
	return text, err
}

// backoff returns BaseBackoff doubled per prior retry, capped at MaxBackoff.
func (g *Guarded) backoff(attempt int) time.Duration {
	d := g.opts.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= g.opts.MaxBackoff {
			return g.opts.MaxBackoff
		}
	}
	if d > g.opts.MaxBackoff {
		return g.opts.MaxBackoff
	}
	return d
}

// Provider reports the wrapped client's provider.
func (g *Guarded) Provider() Provider {
	return g.inner.Provider()
}

// Close closes the wrapped client.
func (g *Guarded) Close() error {
	return g.inner.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
