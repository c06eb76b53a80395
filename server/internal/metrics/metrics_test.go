package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func resetRegistry() {
	initialized = false
	Registry = prometheus.NewRegistry()
}

func TestInit(t *testing.T) {
	resetRegistry()

	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	if !initialized {
		t.Error("Expected initialized to be true after Init()")
	}
}

func TestInit_MultipleCallsAreIdempotent(t *testing.T) {
	resetRegistry()

	if err := Init(); err != nil {
		t.Fatalf("First Init() failed: %v", err)
	}
	if err := Init(); err != nil {
		t.Errorf("Second Init() returned error: %v", err)
	}
}

func TestMustInit(t *testing.T) {
	resetRegistry()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustInit() panicked: %v", r)
		}
	}()

	MustInit()
}

func TestRecordRouteTable(t *testing.T) {
	resetRegistry()
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	RecordRouteTable(map[string]int{"docs": 12, "api": 3})
	if got := testutil.ToFloat64(RoutesRegistered.WithLabelValues("docs")); got != 12 {
		t.Errorf("Expected 12 docs routes, got %v", got)
	}

	// A reload without the api module must drop its series.
	RecordRouteTable(map[string]int{"docs": 9})
	if got := testutil.CollectAndCount(RoutesRegistered); got != 1 {
		t.Errorf("Expected 1 series after reset, got %d", got)
	}
}

func TestRouteGenerations(t *testing.T) {
	resetRegistry()
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	before := testutil.ToFloat64(RouteGenerations.WithLabelValues("error"))
	RouteGenerations.WithLabelValues(StatusLabel(errors.New("boom"))).Inc()
	if got := testutil.ToFloat64(RouteGenerations.WithLabelValues("error")); got != before+1 {
		t.Errorf("Expected error counter to increase by 1, got %v -> %v", before, got)
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(nil) != "success" {
		t.Error("Expected success for nil error")
	}
	if StatusLabel(errors.New("x")) != "error" {
		t.Error("Expected error for non-nil error")
	}
}

func TestHTTPMetrics_Collection(t *testing.T) {
	resetRegistry()
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	HTTPRequestsTotal.WithLabelValues("GET", "docs.show", "200").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "docs.show").Observe(0.123)
	HTTPRequestsInFlight.Set(2)

	metrics, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Error("Expected collected metrics, got none")
	}
}
