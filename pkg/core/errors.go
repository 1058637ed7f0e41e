// Package core provides shared utilities for the GreenRoute MCP tools.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/language"
)

// ErrorCode defines standard error codes for MCP tools
type ErrorCode string

// Standard error codes
const (
	// Input validation errors
	ErrInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrInvalidParameter    ErrorCode = "INVALID_PARAMETER"
	ErrMissingParameter    ErrorCode = "MISSING_PARAMETER"
	ErrInvalidDistance     ErrorCode = "INVALID_DISTANCE"
	ErrInvalidFuelPrice    ErrorCode = "INVALID_FUEL_PRICE"
	ErrUnknownVehicleClass ErrorCode = "UNKNOWN_VEHICLE_CLASS"
	ErrInvalidCoordinates  ErrorCode = "INVALID_COORDINATES"
	ErrScenarioInvalid     ErrorCode = "SCENARIO_INVALID"

	// Service errors
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"
	ErrRoutingService     ErrorCode = "ROUTING_SERVICE_ERROR"

	// Data errors
	ErrNoRouteFound  ErrorCode = "NO_ROUTE_FOUND"
	ErrParseError    ErrorCode = "PARSE_ERROR"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// MCPError represents a detailed error structure for MCP tool responses
type MCPError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Field       string   `json:"field,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Guidance    string   `json:"guidance,omitempty"`

	// Status is the upstream HTTP status that caused the error, if any.
	Status int `json:"-"`
}

// Error implements the error interface
func (e *MCPError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new MCPError with the given code and message
func NewError(code ErrorCode, message string) *MCPError {
	return &MCPError{
		Code:    string(code),
		Message: message,
	}
}

// WithField names the input field the error refers to
func (e *MCPError) WithField(field string) *MCPError {
	e.Field = field
	return e
}

// WithGuidance adds guidance information to the error
func (e *MCPError) WithGuidance(guidance string) *MCPError {
	e.Guidance = guidance
	return e
}

// WithSuggestions adds suggestions to the error
func (e *MCPError) WithSuggestions(suggestions ...string) *MCPError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ToMCPResult converts the error to an MCP tool result
func (e *MCPError) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}

	return mcp.NewToolResultError(string(errorJSON))
}

// HTTPStatus maps the error code to a status for the REST API.
func (e *MCPError) HTTPStatus() int {
	switch ErrorCode(e.Code) {
	case ErrInvalidInput, ErrInvalidParameter, ErrMissingParameter, ErrInvalidDistance,
		ErrInvalidFuelPrice, ErrUnknownVehicleClass, ErrInvalidCoordinates, ErrScenarioInvalid:
		return http.StatusUnprocessableEntity
	case ErrParseError:
		return http.StatusBadRequest
	case ErrNoRouteFound:
		return http.StatusNotFound
	case ErrRateLimit:
		return http.StatusTooManyRequests
	case ErrServiceUnavailable, ErrRoutingService, ErrNetworkError:
		return http.StatusBadGateway
	case ErrServiceTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError creates an error for external service failures
func ServiceError(service string, statusCode int, message string) *MCPError {
	var code ErrorCode
	var guidance string

	switch statusCode {
	case http.StatusTooManyRequests:
		code = ErrRateLimit
		guidance = "The service is rate-limited. Please try again in a few moments."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "The request timed out. Please try again later."
	case http.StatusBadRequest:
		code = ErrInvalidInput
		guidance = "The request was invalid. Check your parameters and try again."
	case http.StatusServiceUnavailable:
		code = ErrServiceUnavailable
		guidance = "The service is temporarily unavailable. Please try again later."
	default:
		code = ErrServiceUnavailable
		guidance = "Please try again later or modify your request parameters."
	}

	e := NewError(code, fmt.Sprintf("%s service error: %s", service, message)).
		WithGuidance(guidance)
	e.Status = statusCode
	return e
}

// NewValidationError creates an error for validation failures
func NewValidationError(code ErrorCode, message string) *MCPError {
	return NewError(code, message).
		WithGuidance("Please correct the parameters and try again.")
}

// FromImpactError converts an estimator error to an MCPError with a message
// in the given language. Errors that are already MCPErrors pass through.
func FromImpactError(err error, tag language.Tag) *MCPError {
	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var verr *impact.ValidationError
	if errors.As(err, &verr) {
		code := ErrInvalidDistance
		if verr.Kind == impact.KindInvalidFuelPrice {
			code = ErrInvalidFuelPrice
		}
		return NewValidationError(code, verr.Message(tag)).WithField(verr.Field)
	}

	if errors.Is(err, impact.ErrUnknownVehicleClass) {
		classes := make([]string, 0, len(impact.AllClasses()))
		for _, c := range impact.AllClasses() {
			classes = append(classes, c.String())
		}
		return NewError(ErrUnknownVehicleClass, err.Error()).
			WithField("vehicleClass").
			WithGuidance("Use one of the supported vehicle classes").
			WithSuggestions(classes...)
	}

	return NewError(ErrInternalError, err.Error())
}
