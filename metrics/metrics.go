// Package metrics provides Prometheus metrics for the DevOps Tools API.
// It tracks HTTP traffic, store operations, MCP tool calls and error rates.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace and subsystem for all metrics
const (
	Namespace = "devops_tools_api"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration measures HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	// HTTPRequestsInFlight tracks currently executing HTTP requests
	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently being processed",
	})

	// StoreOperations counts store operations by type and outcome
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "store_operations_total",
		Help:      "Store operations by type and status",
	}, []string{"operation", "status"})

	// StoreRecords tracks the current number of stored tools
	StoreRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "store_records",
		Help:      "Current number of tool records",
	})

	// ValidationFailures counts rejected request bodies by source
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "validation_failures_total",
		Help:      "Requests rejected by schema validation",
	}, []string{"source"})

	// ToolCallsTotal counts MCP tool calls by tool name and status
	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "mcp_tool_calls_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// ToolCallDuration measures MCP tool call latency
	ToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "mcp_tool_call_duration_seconds",
		Help:      "MCP tool call latency distribution by tool",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"tool"})

	// RateLimitRejections counts requests rejected due to rate limiting
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected due to rate limiting",
	})

	// BodyTooLarge counts requests rejected for exceeding the body limit
	BodyTooLarge = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "body_too_large_total",
		Help:      "Requests rejected for exceeding the body size limit",
	})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in handlers",
	}, []string{"handler"})
)

// RecordHTTPRequest records a completed HTTP request
func RecordHTTPRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordStoreOperation records a store operation outcome
func RecordStoreOperation(operation string, success bool) {
	StoreOperations.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordToolCall records a completed MCP tool call with its duration and status
func RecordToolCall(tool string, duration float64, success bool) {
	ToolCallsTotal.WithLabelValues(tool, statusLabel(success)).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(duration)
}

// RecordValidationFailure records a rejected request from the given source
func RecordValidationFailure(source string) {
	ValidationFailures.WithLabelValues(source).Inc()
}

// SetStoreRecords updates the current record count gauge
func SetStoreRecords(n int) {
	StoreRecords.Set(float64(n))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
