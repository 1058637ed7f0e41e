package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys
const (
	// MCP tool attributes
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"
	AttrMCPResultSize   = "mcp.tool.result_size"

	// Impact estimate attributes
	AttrVehicleClass      = "greenroute.vehicle_class"
	AttrMonthlyDistanceKm = "greenroute.monthly_distance_km"
	AttrCO2SavedKg        = "greenroute.co2_saved_kg"
	AttrFleetEntries      = "greenroute.fleet.entries"

	// External service attributes
	AttrServiceName      = "greenroute.service.name"
	AttrServiceOperation = "greenroute.service.operation"
	AttrServiceURL       = "greenroute.service.url"
	AttrServiceStatus    = "greenroute.service.status"

	// Cache attributes
	AttrCacheName = "greenroute.cache.name"
	AttrCacheHit  = "greenroute.cache.hit"
	AttrCacheKey  = "greenroute.cache.key"

	// Rate limiting attributes
	AttrRateLimitService = "greenroute.ratelimit.service"
	AttrRateLimitWaitMs  = "greenroute.ratelimit.wait_ms"

	// HTTP attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPURL        = "http.url"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"
	AttrHTTPRequestID  = "http.request_id"
	AttrHTTPSessionID  = "mcp.session_id"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusRateLimited = "rate_limited"
)

// Service names
const (
	ServiceOSRM = "osrm"
)

// MCPToolAttributes returns attributes for MCP tool execution
func MCPToolAttributes(toolName string, status string, durationMs int64, resultSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolStatus, status),
		attribute.Int64(AttrMCPToolDuration, durationMs),
		attribute.Int(AttrMCPResultSize, resultSize),
	}
}

// EstimateAttributes returns attributes describing an impact estimate
func EstimateAttributes(vehicleClass string, monthlyDistanceKm, co2SavedKg float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrVehicleClass, vehicleClass),
		attribute.Float64(AttrMonthlyDistanceKm, monthlyDistanceKm),
		attribute.Float64(AttrCO2SavedKg, co2SavedKg),
	}
}

// ServiceAttributes returns attributes for external service calls
func ServiceAttributes(service, operation, url string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrServiceName, service),
		attribute.String(AttrServiceOperation, operation),
		attribute.String(AttrServiceURL, url),
		attribute.Int(AttrServiceStatus, status),
	}
}

// CacheAttributes returns attributes for cache operations
func CacheAttributes(cacheName string, hit bool, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheName, cacheName),
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	}
}

// ErrorAttributes returns attributes for errors
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
