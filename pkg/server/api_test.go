package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/greenroute/pkg/coords"
	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/routing"
)

type stubResolver struct{ km float64 }

func (r stubResolver) LaneDistance(ctx context.Context, from, to coords.Point) (routing.Lane, error) {
	return routing.Lane{From: from, To: to, DistanceKm: r.km}, nil
}

func serveAPI(t *testing.T, method, target, contentType, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	s := newTestServer(t)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.APIHandler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.MCPError {
	t.Helper()
	var e core.MCPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestAPIImpact(t *testing.T) {
	rec := serveAPI(t, http.MethodPost, "/api/v1/impact", "application/json",
		`{"vehicleClass":"van","monthlyDistanceKm":2000,"fuelPricePerLiter":1.45}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	display := body["display"].(map[string]any)
	assert.Equal(t, "149.2", display["co2SavedKg"])
	assert.Equal(t, "64.6", display["fuelSavedLiters"])
	assert.Equal(t, "93.67", display["moneySavedCurrency"])
	assert.Equal(t, "7.1", display["treesEquivalent"])
	assert.Equal(t, "360", display["distanceOptimizedKm"])
	assert.Equal(t, "38.0", display["efficiencyGainPercent"])
}

func TestAPIImpactErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		header     http.Header
		query      string
		wantStatus int
		wantCode   core.ErrorCode
		wantMsg    string
	}{
		{
			name:       "distance below minimum in spanish",
			body:       `{"vehicleClass":"van","monthlyDistanceKm":50,"fuelPricePerLiter":1.45}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   core.ErrInvalidDistance,
			wantMsg:    "Introduce al menos 100 km por mes",
		},
		{
			name:       "missing fuel price via accept-language",
			body:       `{"vehicleClass":"truck","monthlyDistanceKm":1000}`,
			header:     http.Header{"Accept-Language": {"en-GB,en;q=0.8"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   core.ErrInvalidFuelPrice,
			wantMsg:    "Enter a valid fuel price",
		},
		{
			name:       "query language wins",
			body:       `{"vehicleClass":"truck","monthlyDistanceKm":1000,"fuelPricePerLiter":0}`,
			header:     http.Header{"Accept-Language": {"en"}},
			query:      "?lang=es",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   core.ErrInvalidFuelPrice,
			wantMsg:    "Introduce un precio válido de combustible",
		},
		{
			name:       "unknown vehicle class",
			body:       `{"vehicleClass":"spaceship","monthlyDistanceKm":1000,"fuelPricePerLiter":1.5}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   core.ErrUnknownVehicleClass,
		},
		{
			name:       "malformed body",
			body:       `{"vehicleClass":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.ErrParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveAPI(t, http.MethodPost, "/api/v1/impact"+tt.query, "application/json", tt.body, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			e := decodeError(t, rec)
			assert.Equal(t, string(tt.wantCode), e.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, e.Message)
			}
		})
	}
}

func TestAPIImpactMethodNotAllowed(t *testing.T) {
	rec := serveAPI(t, http.MethodGet, "/api/v1/impact", "", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPIValidate(t *testing.T) {
	rec := serveAPI(t, http.MethodPost, "/api/v1/validate?lang=en", "application/json",
		`{"monthlyDistanceKm":10,"fuelPricePerLiter":-1}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Len(t, body["errors"], 2)
}

func TestAPIProfiles(t *testing.T) {
	rec := serveAPI(t, http.MethodGet, "/api/v1/profiles", "", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	profiles := body["profiles"].([]any)
	require.Len(t, profiles, 5)
}

func TestAPIFleetJSON(t *testing.T) {
	rec := serveAPI(t, http.MethodPost, "/api/v1/fleet", "application/json", `{
		"name": "depot",
		"fuel_price_per_liter": 1.45,
		"vehicles": [{"class": "van", "count": 3, "monthly_distance_km": 2000}]
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["vehicles"])
	display := body["display"].(map[string]any)
	assert.Equal(t, "281.01", display["moneySavedCurrency"])
}

func TestAPIFleetYAML(t *testing.T) {
	doc := `
name: depot
fuel_price_per_liter: 1.5
vehicles:
  - name: haul
    class: heavyTruck
    count: 1
    monthly_distance_km: 5000
`
	rec := serveAPI(t, http.MethodPost, "/api/v1/fleet", "application/yaml", doc, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	display := body["display"].(map[string]any)
	assert.Equal(t, "997.50", display["moneySavedCurrency"])
}

func TestAPIImpactClassMatching(t *testing.T) {
	rec := serveAPI(t, http.MethodPost, "/api/v1/impact", "application/json",
		`{"vehicleClass":"HEAVY_TRUCK","monthlyDistanceKm":5000,"fuelPricePerLiter":1.5}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	display := decodeBody(t, rec)["display"].(map[string]any)
	assert.Equal(t, "665.0", display["fuelSavedLiters"])
}

func TestAPIFleetErrors(t *testing.T) {
	t.Run("invalid scenario", func(t *testing.T) {
		rec := serveAPI(t, http.MethodPost, "/api/v1/fleet", "application/yaml", "name: empty\nvehicles: []\n", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, string(core.ErrScenarioInvalid), decodeError(t, rec).Code)
	})

	t.Run("lane without router", func(t *testing.T) {
		rec := serveAPI(t, http.MethodPost, "/api/v1/fleet", "application/json", `{
			"fuel_price_per_liter": 1.5,
			"vehicles": [{"class": "truck", "count": 1, "lane": {"from": "40.4168,-3.7038", "to": "41.3874,2.1686", "trips_per_month": 4}}]
		}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, string(core.ErrScenarioInvalid), decodeError(t, rec).Code)
	})

	t.Run("bad lane point", func(t *testing.T) {
		s, err := NewServer(Config{Logger: testLogger(), Router: stubResolver{km: 350}})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/fleet", strings.NewReader(`{
			"fuel_price_per_liter": 1.5,
			"vehicles": [{"name": "x", "class": "van", "count": 1, "lane": {"from": "not a point", "to": "41.3874,2.1686", "trips_per_month": 4}}]
		}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.APIHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		e := decodeError(t, rec)
		assert.Equal(t, string(core.ErrInvalidCoordinates), e.Code)
		assert.Equal(t, 1, strings.Count(e.Message, "vehicle 1 (x)"), e.Message)
	})

	t.Run("not json", func(t *testing.T) {
		rec := serveAPI(t, http.MethodPost, "/api/v1/fleet", "application/json", "vehicles: []", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(core.ErrParseError), decodeError(t, rec).Code)
	})
}
