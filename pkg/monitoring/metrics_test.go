package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

func TestMetricsInitialization(t *testing.T) {
	// Test that all metrics are properly registered
	metrics := []prometheus.Collector{
		MCPRequestsTotal,
		MCPRequestDuration,
		ExternalServiceRequestsTotal,
		ExternalServiceRequestDuration,
		RateLimitExceeded,
		RateLimitWaitTime,
		CacheHits,
		CacheMisses,
		ActiveConnections,
		ErrorsTotal,
		SystemInfo,
		GoRoutines,
		MemoryUsage,
		EstimatesTotal,
		ValidationFailuresTotal,
		CO2SavedKg,
	}

	for _, metric := range metrics {
		if metric == nil {
			t.Error("Metric is nil")
		}
	}
}

func TestRecordMCPRequest(t *testing.T) {
	// Clear any existing metrics
	MCPRequestsTotal.Reset()

	// Test successful request
	RecordMCPRequest("test_tool", 100*time.Millisecond, true)

	// Check counter
	if got := testutil.ToFloat64(MCPRequestsTotal.WithLabelValues("test_tool", "success")); got != 1 {
		t.Errorf("Expected 1 successful request, got %v", got)
	}

	// Test failed request
	RecordMCPRequest("test_tool", 200*time.Millisecond, false)

	// Check counter
	if got := testutil.ToFloat64(MCPRequestsTotal.WithLabelValues("test_tool", "error")); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}
}

func TestRecordExternalServiceRequest(t *testing.T) {
	// Clear any existing metrics
	ExternalServiceRequestsTotal.Reset()

	// Test successful request
	RecordExternalServiceRequest("osrm", "route", 500*time.Millisecond, true)

	// Check counter
	if got := testutil.ToFloat64(ExternalServiceRequestsTotal.WithLabelValues("osrm", "route", "success")); got != 1 {
		t.Errorf("Expected 1 successful external request, got %v", got)
	}

	// Test failed request
	RecordExternalServiceRequest("osrm", "route", 300*time.Millisecond, false)

	// Check counter
	if got := testutil.ToFloat64(ExternalServiceRequestsTotal.WithLabelValues("osrm", "route", "error")); got != 1 {
		t.Errorf("Expected 1 failed external request, got %v", got)
	}
}

func TestCacheMetrics(t *testing.T) {
	// Clear any existing metrics
	CacheHits.Reset()
	CacheMisses.Reset()

	// Test cache hit
	RecordCacheHit("test_cache")
	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_cache")); got != 1 {
		t.Errorf("Expected 1 cache hit, got %v", got)
	}

	// Test cache miss
	RecordCacheMiss("test_cache")
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test_cache")); got != 1 {
		t.Errorf("Expected 1 cache miss, got %v", got)
	}
}

func TestRateLimitMetrics(t *testing.T) {
	// Clear any existing metrics
	RateLimitExceeded.Reset()
	RateLimitWaitTime.Reset()

	// Test rate limit exceeded
	RecordRateLimitExceeded("test_service")
	if got := testutil.ToFloat64(RateLimitExceeded.WithLabelValues("test_service")); got != 1 {
		t.Errorf("Expected 1 rate limit exceeded, got %v", got)
	}

	// Test rate limit wait time
	RecordRateLimitWait("test_service", 1*time.Second)
	// We can't easily test histogram values, but we can check that it doesn't panic
}

func TestErrorMetrics(t *testing.T) {
	// Clear any existing metrics
	ErrorsTotal.Reset()

	// Test error recording
	RecordError("test_component", "test_error")
	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("test_component", "test_error")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestUpdateActiveConnections(t *testing.T) {
	// Clear any existing metrics
	ActiveConnections.Reset()

	// Test connection update
	UpdateActiveConnections("http", "client", 5)
	if got := testutil.ToFloat64(ActiveConnections.WithLabelValues("http", "client")); got != 5 {
		t.Errorf("Expected 5 active connections, got %v", got)
	}
}

func TestEstimatorHooks(t *testing.T) {
	EstimatesTotal.Reset()
	ValidationFailuresTotal.Reset()
	CO2SavedKg.Reset()

	e, err := impact.NewEstimator(impact.Config{Hooks: EstimatorHooks()})
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	if _, err := e.Calculate(impact.Input{VehicleClass: impact.Van, MonthlyDistanceKm: 2000, FuelPricePerLiter: 1.45}); err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got := testutil.ToFloat64(EstimatesTotal.WithLabelValues("van")); got != 1 {
		t.Errorf("Expected 1 van estimate, got %v", got)
	}
	if got := testutil.CollectAndCount(CO2SavedKg); got != 1 {
		t.Errorf("Expected 1 CO2 histogram series, got %v", got)
	}

	_, _ = e.Calculate(impact.Input{VehicleClass: impact.Van, MonthlyDistanceKm: 99, FuelPricePerLiter: 1.45})
	_, _ = e.Calculate(impact.Input{VehicleClass: impact.Van, MonthlyDistanceKm: 2000, FuelPricePerLiter: 0})
	_, _ = e.Calculate(impact.Input{VehicleClass: "car", MonthlyDistanceKm: 2000, FuelPricePerLiter: 1.45})

	for kind, want := range map[string]float64{
		"InvalidDistance":     1,
		"InvalidFuelPrice":    1,
		"UnknownVehicleClass": 1,
	} {
		if got := testutil.ToFloat64(ValidationFailuresTotal.WithLabelValues(kind)); got != want {
			t.Errorf("Expected %v %s failures, got %v", want, kind, got)
		}
	}
}

func TestRoutingHooks(t *testing.T) {
	ExternalServiceRequestsTotal.Reset()
	ErrorsTotal.Reset()
	CacheHits.Reset()
	CacheMisses.Reset()

	hooks := RoutingHooks()
	hooks.OnResponse("route", 250*time.Millisecond, true)
	hooks.OnError("no_route")
	hooks.OnCacheLookup("lanes", false)
	hooks.OnCacheLookup("lanes", true)
	hooks.OnRateLimitWait(time.Second)

	if got := testutil.ToFloat64(ExternalServiceRequestsTotal.WithLabelValues("osrm", "route", "success")); got != 1 {
		t.Errorf("Expected 1 osrm request, got %v", got)
	}
	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("osrm", "no_route")); got != 1 {
		t.Errorf("Expected 1 osrm error, got %v", got)
	}
	if got := testutil.ToFloat64(CacheHits.WithLabelValues("lanes")); got != 1 {
		t.Errorf("Expected 1 lane cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("lanes")); got != 1 {
		t.Errorf("Expected 1 lane cache miss, got %v", got)
	}
}

func BenchmarkRecordMCPRequest(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordMCPRequest("benchmark_tool", 100*time.Millisecond, true)
	}
}

func BenchmarkRecordExternalServiceRequest(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordExternalServiceRequest("benchmark_service", "benchmark_op", 100*time.Millisecond, true)
	}
}

func BenchmarkRecordCacheHit(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordCacheHit("benchmark_cache")
	}
}
