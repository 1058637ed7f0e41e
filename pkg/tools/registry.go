// Package tools provides the GreenRoute MCP tool implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/monitoring"
	"github.com/NERVsystems/greenroute/pkg/tools/prompts"
	"github.com/NERVsystems/greenroute/pkg/tracing"
)

// Config holds the dependencies of the tool handlers.
type Config struct {
	Estimator *impact.Estimator
	// Router resolves lanes. Route and lane-based fleet estimates fail
	// with SERVICE_UNAVAILABLE when it is nil.
	Router fleet.LaneResolver
	Logger *slog.Logger
}

// Registry contains all tool definitions and handlers
type Registry struct {
	logger    *slog.Logger
	factory   *core.ToolFactory
	estimator *impact.Estimator
	router    fleet.LaneResolver
}

// NewRegistry creates a new tool registry
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Estimator == nil {
		return nil, fmt.Errorf("tools: estimator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:    logger,
		factory:   core.NewToolFactory(cfg.Estimator.Limits()),
		estimator: cfg.Estimator,
		router:    cfg.Router,
	}, nil
}

// ToolHandler handles a tool call.
type ToolHandler = server.ToolHandlerFunc

// ToolDefinition represents a GreenRoute MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     ToolHandler
}

const (
	descEstimateImpact      = "Estimate the monthly CO2, fuel and money saved by optimizing routes, driving style and traffic for one vehicle. Parameters: vehicle_class (string), monthly_distance_km (number, at least 100), fuel_price_per_liter (number, greater than 0)"
	descValidateImpactInput = "Check a monthly distance and fuel price and return every validation message. Parameters: monthly_distance_km (number), fuel_price_per_liter (number), language (string: es, en)"
	descListVehicleProfiles = "List the supported vehicle classes with their consumption and CO2 factors, and the constants of the savings model"
	descEstimateRouteImpact = "Estimate monthly savings for a vehicle driving a lane between two points. The lane distance comes from OSRM. Parameters: vehicle_class, from, to (decimal, DMS or MGRS), trips_per_month, round_trip, fuel_price_per_liter"
	descEstimateFleetImpact = "Estimate monthly savings for a whole fleet of vehicle groups and return per-group and total figures"
)

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "get_version",
			Description: "Get the version information for this GreenRoute MCP",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},

		// Single vehicle estimates
		{
			Name:        "estimate_impact",
			Description: descEstimateImpact,
			Tool:        r.factory.CreateImpactTool("estimate_impact", descEstimateImpact),
			Handler:     r.HandleEstimateImpact,
		},
		{
			Name:        "validate_impact_input",
			Description: descValidateImpactInput,
			Tool:        r.factory.CreateValidationTool("validate_impact_input", descValidateImpactInput),
			Handler:     r.HandleValidateImpactInput,
		},
		{
			Name:        "list_vehicle_profiles",
			Description: descListVehicleProfiles,
			Tool:        r.factory.CreateBasicTool("list_vehicle_profiles", descListVehicleProfiles),
			Handler:     r.HandleListVehicleProfiles,
		},

		// Routing based estimates
		{
			Name:        "estimate_route_impact",
			Description: descEstimateRouteImpact,
			Tool:        r.factory.CreateLaneTool("estimate_route_impact", descEstimateRouteImpact),
			Handler:     r.HandleEstimateRouteImpact,
		},
		{
			Name:        "estimate_fleet_impact",
			Description: descEstimateFleetImpact,
			Tool:        FleetImpactTool(),
			Handler:     r.HandleEstimateFleetImpact,
		},
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, r.wrapWithTracing(def.Name, def.Handler))
	}
}

// wrapWithTracing wraps a tool handler with a span and request metrics.
func (r *Registry) wrapWithTracing(toolName string, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		startTime := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(startTime)

		status := tracing.StatusSuccess
		switch {
		case err != nil:
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			status = tracing.StatusError
			span.SetStatus(codes.Error, "tool returned an error result")
		default:
			span.SetStatus(codes.Ok, "")
		}
		monitoring.RecordMCPRequest(toolName, duration, status == tracing.StatusSuccess)

		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		span.SetAttributes(tracing.MCPToolAttributes(toolName, status, duration.Milliseconds(), resultSize)...)

		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", duration.Milliseconds(),
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// RegisterPrompts registers all prompts with the MCP server.
func (r *Registry) RegisterPrompts(mcpServer *server.MCPServer) {
	r.logger.Info("registering impact prompts")
	prompts.RegisterImpactPrompts(mcpServer, r.estimator)
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Handler returns the traced handler of the named tool.
func (r *Registry) Handler(name string) (ToolHandler, bool) {
	for _, def := range r.GetToolDefinitions() {
		if def.Name == name {
			return r.wrapWithTracing(def.Name, def.Handler), true
		}
	}
	return nil, false
}

// RegisterAll registers all tools and prompts with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
	r.RegisterPrompts(mcpServer)
}
