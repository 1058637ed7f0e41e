package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/tools"
)

// APIPrefix is the path prefix of the REST API.
const APIPrefix = "/api/v1/"

// APIHandler serves the REST API. Every route dispatches to the matching
// MCP tool so both surfaces share validation, tracing and metrics.
type APIHandler struct {
	logger   *slog.Logger
	registry *tools.Registry
	mux      *http.ServeMux
}

// NewAPIHandler creates a REST handler backed by the tool registry.
func NewAPIHandler(registry *tools.Registry, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &APIHandler{
		logger:   logger,
		registry: registry,
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("POST "+APIPrefix+"impact", h.handleImpact)
	h.mux.HandleFunc("POST "+APIPrefix+"validate", h.handleValidate)
	h.mux.HandleFunc("GET "+APIPrefix+"profiles", h.handleProfiles)
	h.mux.HandleFunc("POST "+APIPrefix+"fleet", h.handleFleet)
	return h
}

// APIHandler returns the REST handler for this server's tools.
func (s *Server) APIHandler() http.Handler {
	return NewAPIHandler(s.registry, s.logger)
}

// ServeHTTP implements the http.Handler interface
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get(RequestIDHeader)
	}

	wrapped := newResponseWriter(w)
	h.mux.ServeHTTP(wrapped, r)

	h.logger.Debug("api request completed",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", wrapped.statusCode,
		"duration", time.Since(start))
}

// requestLanguage resolves ?lang= first and Accept-Language second.
func requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return impact.MatchLanguage(lang).String()
	}
	return impact.MatchLanguage(r.Header.Get("Accept-Language")).String()
}

// decodeInput reads an impact.Input body. Absent fields stay at zero and are
// reported by the estimator like any other invalid value.
func (h *APIHandler) decodeInput(w http.ResponseWriter, r *http.Request) (impact.Input, bool) {
	var in impact.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, core.NewError(core.ErrParseError, "request body must be a JSON object").
			WithGuidance(`Send {"vehicleClass": "van", "monthlyDistanceKm": 2000, "fuelPricePerLiter": 1.45}`))
		return in, false
	}
	return in, true
}

// handleImpact estimates one vehicle. vehicleClass is matched like the
// estimate_impact tool argument: case and underscores are ignored.
func (h *APIHandler) handleImpact(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	h.callTool(w, r, "estimate_impact", map[string]any{
		core.ParamVehicleClass:      string(in.VehicleClass),
		core.ParamMonthlyDistanceKm: in.MonthlyDistanceKm,
		core.ParamFuelPrice:         in.FuelPricePerLiter,
		core.ParamLanguage:          requestLanguage(r),
	})
}

func (h *APIHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	h.callTool(w, r, "validate_impact_input", map[string]any{
		core.ParamMonthlyDistanceKm: in.MonthlyDistanceKm,
		core.ParamFuelPrice:         in.FuelPricePerLiter,
		core.ParamLanguage:          requestLanguage(r),
	})
}

func (h *APIHandler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	h.callTool(w, r, "list_vehicle_profiles", nil)
}

// handleFleet accepts a YAML scenario document or the JSON arguments of
// estimate_fleet_impact.
func (h *APIHandler) handleFleet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, core.NewError(core.ErrParseError, "failed to read request body"))
		return
	}

	args := map[string]any{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.Contains(mediaType, "yaml") {
		args["scenario"] = string(body)
	} else if err := json.Unmarshal(body, &args); err != nil {
		h.writeError(w, core.NewError(core.ErrParseError, "request body must be a JSON object or a YAML scenario").
			WithGuidance("Send Content-Type: application/yaml for scenario documents"))
		return
	}
	args[core.ParamLanguage] = requestLanguage(r)

	h.callTool(w, r, "estimate_fleet_impact", args)
}

// callTool runs a tool and writes its JSON text content. Tool errors carry
// a core.MCPError whose code selects the HTTP status.
func (h *APIHandler) callTool(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	handler, ok := h.registry.Handler(name)
	if !ok {
		h.writeError(w, core.NewError(core.ErrInternalError, "tool not registered: "+name))
		return
	}

	result, err := handler(r.Context(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		h.logger.Error("tool call failed", "tool", name, "error", err)
		h.writeError(w, core.NewError(core.ErrInternalError, err.Error()))
		return
	}

	content := resultText(result)
	status := http.StatusOK
	if result.IsError {
		var mcpErr core.MCPError
		if err := json.Unmarshal([]byte(content), &mcpErr); err != nil || mcpErr.Code == "" {
			h.writeError(w, core.NewError(core.ErrInvalidInput, content))
			return
		}
		status = mcpErr.HTTPStatus()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, content); err != nil {
		h.logger.Error("failed to write api response", "tool", name, "error", err)
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, e *core.MCPError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	if err := json.NewEncoder(w).Encode(e); err != nil {
		h.logger.Error("failed to encode api error", "error", err)
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			return t.Text
		}
	}
	return ""
}
