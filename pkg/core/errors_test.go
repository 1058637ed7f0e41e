package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/language"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

func TestMCPErrorString(t *testing.T) {
	e := NewError(ErrInvalidDistance, "too short")
	if got := e.Error(); got != "INVALID_DISTANCE: too short" {
		t.Errorf("Error() = %q", got)
	}

	e = e.WithGuidance("Use at least 100 km")
	if got := e.Error(); got != "INVALID_DISTANCE: too short. Use at least 100 km" {
		t.Errorf("Error() with guidance = %q", got)
	}
}

func TestToMCPResult(t *testing.T) {
	result := NewValidationError(ErrInvalidFuelPrice, "bad price").
		WithField("fuelPricePerLiter").
		ToMCPResult()

	if !result.IsError {
		t.Fatal("expected an error result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", result.Content[0])
	}

	var got MCPError
	if err := json.Unmarshal([]byte(text.Text), &got); err != nil {
		t.Fatalf("result is not an MCPError: %v", err)
	}
	if got.Code != string(ErrInvalidFuelPrice) || got.Field != "fuelPricePerLiter" || got.Guidance == "" {
		t.Errorf("unexpected error body %+v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrInvalidDistance, http.StatusUnprocessableEntity},
		{ErrInvalidFuelPrice, http.StatusUnprocessableEntity},
		{ErrUnknownVehicleClass, http.StatusUnprocessableEntity},
		{ErrScenarioInvalid, http.StatusUnprocessableEntity},
		{ErrInvalidParameter, http.StatusUnprocessableEntity},
		{ErrParseError, http.StatusBadRequest},
		{ErrNoRouteFound, http.StatusNotFound},
		{ErrRateLimit, http.StatusTooManyRequests},
		{ErrRoutingService, http.StatusBadGateway},
		{ErrServiceTimeout, http.StatusGatewayTimeout},
		{ErrInternalError, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := NewError(tt.code, "x").HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorCodeNames(t *testing.T) {
	codes := map[ErrorCode]string{
		ErrInvalidDistance:     "INVALID_DISTANCE",
		ErrInvalidFuelPrice:    "INVALID_FUEL_PRICE",
		ErrUnknownVehicleClass: "UNKNOWN_VEHICLE_CLASS",
		ErrInvalidParameter:    "INVALID_PARAMETER",
		ErrInvalidCoordinates:  "INVALID_COORDINATES",
		ErrRoutingService:      "ROUTING_SERVICE_ERROR",
		ErrRateLimit:           "RATE_LIMIT",
		ErrNoRouteFound:        "NO_ROUTE_FOUND",
		ErrScenarioInvalid:     "SCENARIO_INVALID",
		ErrInternalError:       "INTERNAL_ERROR",
	}
	for code, want := range codes {
		if string(code) != want {
			t.Errorf("code %q, want %q", code, want)
		}
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusTooManyRequests, ErrRateLimit},
		{http.StatusGatewayTimeout, ErrServiceTimeout},
		{http.StatusRequestTimeout, ErrServiceTimeout},
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
		{http.StatusInternalServerError, ErrServiceUnavailable},
	}
	for _, tt := range tests {
		e := ServiceError("osrm", tt.status, "boom")
		if e.Code != string(tt.want) {
			t.Errorf("status %d: code = %s, want %s", tt.status, e.Code, tt.want)
		}
		if e.Status != tt.status {
			t.Errorf("status %d: Status = %d", tt.status, e.Status)
		}
		if !strings.Contains(e.Message, "osrm") {
			t.Errorf("status %d: message %q does not name the service", tt.status, e.Message)
		}
	}
}

func TestFromImpactError(t *testing.T) {
	est, err := impact.NewEstimator(impact.Config{})
	if err != nil {
		t.Fatal(err)
	}

	_, verr := est.Calculate(impact.Input{VehicleClass: impact.Van, MonthlyDistanceKm: 99, FuelPricePerLiter: 1})
	es := FromImpactError(verr, language.Spanish)
	if es.Code != string(ErrInvalidDistance) || es.Field != impact.FieldMonthlyDistanceKm {
		t.Errorf("distance error = %+v", es)
	}
	if es.Message != "Introduce al menos 100 km por mes" {
		t.Errorf("spanish message = %q", es.Message)
	}
	if en := FromImpactError(verr, language.English); en.Message != "Enter at least 100 km per month" {
		t.Errorf("english message = %q", en.Message)
	}

	_, perr := est.Calculate(impact.Input{VehicleClass: impact.Van, MonthlyDistanceKm: 2000, FuelPricePerLiter: 0})
	if got := FromImpactError(perr, language.English); got.Code != string(ErrInvalidFuelPrice) {
		t.Errorf("price error code = %s", got.Code)
	}

	_, cerr := impact.ParseVehicleClass("car")
	unknown := FromImpactError(cerr, language.English)
	if unknown.Code != string(ErrUnknownVehicleClass) || len(unknown.Suggestions) != len(impact.AllClasses()) {
		t.Errorf("unknown class error = %+v", unknown)
	}

	original := NewError(ErrRoutingService, "down")
	if got := FromImpactError(fmt.Errorf("lane: %w", original), language.English); got != original {
		t.Errorf("wrapped MCPError was not passed through: %+v", got)
	}

	if got := FromImpactError(errors.New("boom"), language.English); got.Code != string(ErrInternalError) {
		t.Errorf("plain error code = %s", got.Code)
	}
}
