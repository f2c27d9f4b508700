package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposal_stage_duration_seconds",
			Help:    "Duration of each analysis stage in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage", "outcome"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_llm_calls_total",
			Help: "Total number of generative model call attempts",
		},
		[]string{"provider", "stage", "outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposal_llm_call_duration_seconds",
			Help:    "Duration of generative model call attempts in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "stage"},
	)

	LLMRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_llm_retries_total",
			Help: "Total number of generative model call retries",
		},
		[]string{"provider", "stage"},
	)

	Analyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_analyses_total",
			Help: "Total number of proposal analyses by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	BatchItemsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proposal_batch_items_active",
			Help: "Number of batch items currently being analyzed",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "proposal_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route"},
	)
)

// Outcome classifies err for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// ObserveLLMCall records one model call attempt.
func ObserveLLMCall(provider, stage string, err error, d time.Duration) {
	LLMCalls.WithLabelValues(provider, stage, Outcome(err)).Inc()
	LLMCallDuration.WithLabelValues(provider, stage).Observe(d.Seconds())
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, err error, d time.Duration) {
	StageDuration.WithLabelValues(stage, Outcome(err)).Observe(d.Seconds())
}
