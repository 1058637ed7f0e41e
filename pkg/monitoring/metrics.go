// Package monitoring exposes Prometheus metrics and health endpoints.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NERVsystems/greenroute/pkg/cache"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/routing"
	"github.com/NERVsystems/greenroute/pkg/tracing"
)

const (
	// Service name for metrics
	ServiceName = "greenroute"
)

var (
	// Estimator metrics
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_estimates_total",
			Help: "Total number of impact estimates produced",
		},
		[]string{"vehicle_class"},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_validation_failures_total",
			Help: "Total number of rejected estimate inputs",
		},
		[]string{"kind"},
	)

	CO2SavedKg = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenroute_co2_saved_kg",
			Help:    "Estimated monthly CO2 savings per estimate in kilograms",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
		[]string{"vehicle_class"},
	)

	// MCP request metrics
	MCPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_mcp_requests_total",
			Help: "Total number of MCP requests processed",
		},
		[]string{"tool", "status"},
	)

	MCPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenroute_mcp_request_duration_seconds",
			Help:    "MCP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)

	// External service metrics
	ExternalServiceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_external_service_requests_total",
			Help: "Total number of external service requests",
		},
		[]string{"service", "operation", "status"},
	)

	ExternalServiceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenroute_external_service_request_duration_seconds",
			Help:    "External service request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"service", "operation"},
	)

	// Rate limiting metrics
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
		[]string{"service"},
	)

	RateLimitWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenroute_rate_limit_wait_duration_seconds",
			Help:    "Time spent waiting for rate limits",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"service"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Connection metrics
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "greenroute_active_connections",
			Help: "Number of active connections",
		},
		[]string{"transport", "type"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroute_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "greenroute_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "build_commit", "build_date"},
	)

	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "greenroute_goroutines",
			Help: "Number of goroutines",
		},
	)

	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "greenroute_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordEstimate counts a successful estimate.
func RecordEstimate(class impact.VehicleClass, r impact.Result) {
	EstimatesTotal.WithLabelValues(class.String()).Inc()
	CO2SavedKg.WithLabelValues(class.String()).Observe(r.CO2SavedKg)
}

// RecordRejection counts an estimate refused by validation or lookup.
func RecordRejection(err error) {
	kind := impact.KindOf(err)
	if kind == "" {
		kind = "other"
	}
	ValidationFailuresTotal.WithLabelValues(kind).Inc()
}

// EstimatorHooks returns estimator hooks that feed the estimate metrics.
func EstimatorHooks() impact.Hooks {
	return impact.Hooks{
		OnEstimate: func(in impact.Input, r impact.Result) {
			RecordEstimate(in.VehicleClass, r)
		},
		OnRejected: func(_ impact.Input, err error) {
			RecordRejection(err)
		},
	}
}

// RoutingHooks returns router hooks that feed the external service metrics.
func RoutingHooks() routing.Hooks {
	return routing.Hooks{
		OnResponse: func(operation string, d time.Duration, success bool) {
			RecordExternalServiceRequest(tracing.ServiceOSRM, operation, d, success)
		},
		OnRateLimitWait: func(d time.Duration) {
			RecordRateLimitWait(tracing.ServiceOSRM, d)
		},
		OnError: func(errorType string) {
			RecordError(tracing.ServiceOSRM, errorType)
		},
		OnCacheLookup: CacheObserver(),
	}
}

// CacheObserver returns a cache observer that counts hits and misses.
func CacheObserver() cache.Observer {
	return func(name string, hit bool) {
		if hit {
			RecordCacheHit(name)
		} else {
			RecordCacheMiss(name)
		}
	}
}

func RecordMCPRequest(tool string, duration time.Duration, success bool) {
	MCPRequestsTotal.WithLabelValues(tool, statusLabel(success)).Inc()
	MCPRequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordExternalServiceRequest(service, operation string, duration time.Duration, success bool) {
	ExternalServiceRequestsTotal.WithLabelValues(service, operation, statusLabel(success)).Inc()
	ExternalServiceRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

func RecordRateLimitExceeded(service string) {
	RateLimitExceeded.WithLabelValues(service).Inc()
}

func RecordRateLimitWait(service string, duration time.Duration) {
	RateLimitWaitTime.WithLabelValues(service).Observe(duration.Seconds())
}

func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func UpdateActiveConnections(transport, connType string, count int) {
	ActiveConnections.WithLabelValues(transport, connType).Set(float64(count))
}

