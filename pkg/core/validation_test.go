package core

import (
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/language"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

func request(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "test", Arguments: args}}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) {
		t.Fatalf("expected *MCPError, got %T (%v)", err, err)
	}
	return mcpErr.Code
}

func TestParseImpactInput(t *testing.T) {
	in, err := ParseImpactInput(request(map[string]any{
		ParamVehicleClass:      "heavy_truck",
		ParamMonthlyDistanceKm: 5000.0,
		ParamFuelPrice:         1.5,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := impact.Input{VehicleClass: impact.HeavyTruck, MonthlyDistanceKm: 5000, FuelPricePerLiter: 1.5}
	if in != want {
		t.Errorf("input = %+v, want %+v", in, want)
	}

	in, err = ParseImpactInput(request(map[string]any{ParamVehicleClass: "van"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.MonthlyDistanceKm != 0 || in.FuelPricePerLiter != 0 {
		t.Errorf("missing numbers should stay zero, got %+v", in)
	}
}

func TestParseVehicleClassErrors(t *testing.T) {
	_, err := ParseVehicleClass(request(map[string]any{}))
	if got := codeOf(t, err); got != string(ErrMissingParameter) {
		t.Errorf("missing class code = %s", got)
	}

	_, err = ParseVehicleClass(request(map[string]any{ParamVehicleClass: "spaceship"}))
	if got := codeOf(t, err); got != string(ErrUnknownVehicleClass) {
		t.Errorf("unknown class code = %s", got)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		value any
		want  language.Tag
	}{
		{nil, impact.DefaultLanguage},
		{"en", language.English},
		{"en-GB", language.English},
		{"es-MX", language.Spanish},
		{"fr", impact.DefaultLanguage},
	}
	for _, tt := range tests {
		args := map[string]any{}
		if tt.value != nil {
			args[ParamLanguage] = tt.value
		}
		if got := ParseLanguage(request(args)); got != tt.want {
			t.Errorf("ParseLanguage(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint(request(map[string]any{ParamFrom: "40.4168,-3.7038"}), ParamFrom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Latitude != 40.4168 || p.Longitude != -3.7038 {
		t.Errorf("point = %+v", p)
	}

	_, err = ParsePoint(request(map[string]any{}), ParamTo)
	if got := codeOf(t, err); got != string(ErrMissingParameter) {
		t.Errorf("missing point code = %s", got)
	}

	_, err = ParsePoint(request(map[string]any{ParamTo: "north of here"}), ParamTo)
	if got := codeOf(t, err); got != string(ErrInvalidCoordinates) {
		t.Errorf("bad point code = %s", got)
	}
}

func TestValidateTripsPerMonth(t *testing.T) {
	if err := ValidateTripsPerMonth(4); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, trips := range []float64{0, -1} {
		err := ValidateTripsPerMonth(trips)
		if got := codeOf(t, err); got != string(ErrInvalidParameter) {
			t.Errorf("trips %v code = %s", trips, got)
		}
	}
}
