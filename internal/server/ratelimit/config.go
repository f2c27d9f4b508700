package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return AnalysisEndpointConfigs(60, time.Hour, 5)
}

// AnalysisEndpointConfigs limits the model-backed routes. A batch request costs up
// to ten analyses, so it gets a tenth of the single-proposal allowance.
func AnalysisEndpointConfigs(limit int, window time.Duration, burst int) []EndpointConfig {
	batchLimit := max(limit/10, 1)
	batchBurst := max(burst/5, 1)
	return []EndpointConfig{
		{Path: "/analyze", Method: http.MethodPost, Limit: limit, Window: window, Burst: burst},
		{Path: "/analyze/batch", Method: http.MethodPost, Limit: batchLimit, Window: window, Burst: batchBurst},
	}
}
