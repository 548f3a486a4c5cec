package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := getCounterValue(t, HTTPRequestsTotal.WithLabelValues("GET", "/tools/{id}", "404"))

	RecordHTTPRequest("GET", "/tools/{id}", "404", 0.002)

	after := getCounterValue(t, HTTPRequestsTotal.WithLabelValues("GET", "/tools/{id}", "404"))
	if after != before+1 {
		t.Errorf("http_requests_total = %v, want %v", after, before+1)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		success    bool
		wantStatus string
	}{
		{
			name:       "successful create",
			operation:  "create",
			success:    true,
			wantStatus: "success",
		},
		{
			name:       "missing record on delete",
			operation:  "delete",
			success:    false,
			wantStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, err := StoreOperations.GetMetricWithLabelValues(tt.operation, tt.wantStatus)
			if err != nil {
				t.Fatalf("failed to get metric: %v", err)
			}
			before := getCounterValue(t, counter)

			RecordStoreOperation(tt.operation, tt.success)

			if got := getCounterValue(t, counter); got != before+1 {
				t.Errorf("store_operations_total = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordToolCall(t *testing.T) {
	RecordToolCall("devops_get_tool", 0.001, false)

	counter, err := ToolCallsTotal.GetMetricWithLabelValues("devops_get_tool", "error")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	if getCounterValue(t, counter) < 1 {
		t.Error("expected counter to be incremented")
	}
}

func TestRecordValidationFailure(t *testing.T) {
	c := ValidationFailures.WithLabelValues("http")
	before := getCounterValue(t, c)

	RecordValidationFailure("http")

	if getCounterValue(t, c) != before+1 {
		t.Error("expected validation failures to increment")
	}
}

func TestSetStoreRecords(t *testing.T) {
	SetStoreRecords(3)

	var m dto.Metric
	if err := StoreRecords.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Gauge.GetValue() != 3 {
		t.Errorf("expected store records 3, got %v", m.Gauge.GetValue())
	}

	SetStoreRecords(0)
	if err := StoreRecords.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Gauge.GetValue() != 0 {
		t.Errorf("expected store records 0, got %v", m.Gauge.GetValue())
	}
}

func TestMetricsRegistered(t *testing.T) {
	collectors := []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		StoreOperations,
		StoreRecords,
		ValidationFailures,
		ToolCallsTotal,
		ToolCallDuration,
		RateLimitRejections,
		BodyTooLarge,
		PanicsRecovered,
	}

	for i, c := range collectors {
		if c == nil {
			t.Errorf("metric at index %d is nil", i)
		}
	}
}

func TestNamespace(t *testing.T) {
	if Namespace != "devops_tools_api" {
		t.Errorf("expected namespace 'devops_tools_api', got '%s'", Namespace)
	}
}

// Helper to get counter value
func getCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}
