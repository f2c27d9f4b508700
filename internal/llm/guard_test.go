package llm_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/llm/llmtest"
)

func fastOptions() llm.GuardOptions {
	return llm.GuardOptions{
		BaseBackoff:    time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func TestGuarded_RetriesTransientErrors(t *testing.T) {
	var attempts int32
	fake := llmtest.NewFake(func(_ context.Context, _ llm.Request) (string, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return "", &llm.UpstreamError{Provider: "fake", Status: http.StatusServiceUnavailable}
		}
		return "ok", nil
	})

	g := llm.NewGuarded(fake, fastOptions())
	out, err := g.Generate(context.Background(), llm.Request{Label: "facts"})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, fake.Calls())
}

func TestGuarded_GivesUpAfterMaxRetries(t *testing.T) {
	fake := llmtest.NewFake(func(_ context.Context, _ llm.Request) (string, error) {
		return "", &llm.UpstreamError{Provider: "fake", Status: http.StatusTooManyRequests}
	})

	opts := fastOptions()
	opts.MaxRetries = 1
	g := llm.NewGuarded(fake, opts)
	_, err := g.Generate(context.Background(), llm.Request{Label: "facts"})

	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrRateLimited)
	assert.Equal(t, 2, fake.Calls())
}

func TestGuarded_DoesNotRetryPermanentErrors(t *testing.T) {
	fake := llmtest.NewFake(func(_ context.Context, _ llm.Request) (string, error) {
		return "", &llm.UpstreamError{Provider: "fake", Status: http.StatusBadRequest, Message: "bad prompt"}
	})

	g := llm.NewGuarded(fake, fastOptions())
	_, err := g.Generate(context.Background(), llm.Request{})

	var uerr *llm.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusBadRequest, uerr.Status)
	assert.Equal(t, 1, fake.Calls())
}

func TestGuarded_NegativeRetriesDisablesRetry(t *testing.T) {
	fake := llmtest.NewFake(func(_ context.Context, _ llm.Request) (string, error) {
		return "", &llm.UpstreamError{Provider: "fake", Status: http.StatusInternalServerError}
	})

	opts := fastOptions()
	opts.MaxRetries = -1
	g := llm.NewGuarded(fake, opts)
	_, err := g.Generate(context.Background(), llm.Request{})

	require.Error(t, err)
	assert.Equal(t, 1, fake.Calls())
}

func TestGuarded_PerCallTimeoutIsRetryable(t *testing.T) {
	var attempts int32
	fake := llmtest.NewFake(func(ctx context.Context, _ llm.Request) (string, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "second try", nil
	})

	opts := fastOptions()
	opts.RequestTimeout = 20 * time.Millisecond
	g := llm.NewGuarded(fake, opts)
	out, err := g.Generate(context.Background(), llm.Request{})

	require.NoError(t, err)
	assert.Equal(t, "second try", out)
	assert.Equal(t, 2, fake.Calls())
}

func TestGuarded_TimeoutSurfacesAsErrTimeout(t *testing.T) {
	fake := llmtest.NewFake(func(ctx context.Context, _ llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	opts := fastOptions()
	opts.RequestTimeout = 10 * time.Millisecond
	opts.MaxRetries = -1
	g := llm.NewGuarded(fake, opts)
	_, err := g.Generate(context.Background(), llm.Request{})

	assert.ErrorIs(t, err, llm.ErrTimeout)
}

func TestGuarded_NoRetryAfterParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := llmtest.NewFake(func(_ context.Context, _ llm.Request) (string, error) {
		cancel()
		return "", &llm.UpstreamError{Provider: "fake", Status: http.StatusServiceUnavailable}
	})

	g := llm.NewGuarded(fake, fastOptions())
	_, err := g.Generate(ctx, llm.Request{})

	require.Error(t, err)
	assert.Equal(t, 1, fake.Calls())
}

func TestGuarded_CapsInFlightCalls(t *testing.T) {
	var inFlight, peak int32
	fake := llmtest.NewFake(func(_ context.Context, _ llm.Request) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "ok", nil
	})

	opts := fastOptions()
	opts.MaxConcurrent = 2
	g := llm.NewGuarded(fake, opts)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Generate(context.Background(), llm.Request{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, 8, fake.Calls())
}

func TestGuarded_DelegatesProviderAndClose(t *testing.T) {
	fake := llmtest.NewFake(nil)
	fake.ProviderName = llm.ProviderOpenAI

	g := llm.NewGuarded(fake, llm.GuardOptions{})
	assert.Equal(t, llm.ProviderOpenAI, g.Provider())
	require.NoError(t, g.Close())
	assert.True(t, fake.Closed())
}

func TestRetryable(t *testing.T) {
	ctx := context.Background()

	assert.False(t, llm.Retryable(ctx, nil))
	assert.True(t, llm.Retryable(ctx, llm.ErrTimeout))
	assert.True(t, llm.Retryable(ctx, llm.ErrEmptyResponse))
	assert.True(t, llm.Retryable(ctx, &llm.UpstreamError{Status: http.StatusBadGateway}))
	assert.False(t, llm.Retryable(ctx, &llm.UpstreamError{Status: http.StatusUnauthorized}))
	assert.False(t, llm.Retryable(ctx, context.Canceled))
	assert.False(t, llm.Retryable(ctx, errors.New("boom")))

	done, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, llm.Retryable(done, llm.ErrTimeout))
}
