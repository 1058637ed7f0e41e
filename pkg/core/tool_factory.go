package core

import (
	"fmt"

	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolFactory builds tool definitions with the standard impact parameters
type ToolFactory struct {
	limits impact.Limits
}

// NewToolFactory creates a tool factory. Non-zero limits are advertised in
// parameter descriptions.
func NewToolFactory(limits impact.Limits) *ToolFactory {
	return &ToolFactory{limits: limits}
}

// CreateBasicTool creates a new tool with the specified name and description
func (f *ToolFactory) CreateBasicTool(name, description string) mcp.Tool {
	return mcp.NewTool(name, mcp.WithDescription(description))
}

func classNames() []string {
	names := make([]string, 0, len(impact.AllClasses()))
	for _, c := range impact.AllClasses() {
		names = append(names, c.String())
	}
	return names
}

func (f *ToolFactory) distanceDescription() string {
	desc := fmt.Sprintf("Distance driven per month in km (min %.0f)", impact.MinMonthlyKm)
	if f.limits.MaxMonthlyKm > 0 {
		desc = fmt.Sprintf("Distance driven per month in km (%.0f to %.0f)", impact.MinMonthlyKm, f.limits.MaxMonthlyKm)
	}
	return desc
}

func (f *ToolFactory) priceDescription() string {
	desc := "Fuel price per liter, greater than 0"
	if f.limits.MaxFuelPricePerLiter > 0 {
		desc += fmt.Sprintf(" (max %g)", f.limits.MaxFuelPricePerLiter)
	}
	return desc
}

// ClassMatchingNote describes how vehicle class keys are matched on every
// surface that accepts them.
const ClassMatchingNote = "Vehicle class key. Matching ignores case and underscores, so heavy_truck resolves to heavyTruck"

func vehicleClassOption() mcp.ToolOption {
	return mcp.WithString(ParamVehicleClass,
		mcp.Required(),
		mcp.Description(ClassMatchingNote),
		mcp.Enum(classNames()...),
	)
}

func languageOption() mcp.ToolOption {
	return mcp.WithString(ParamLanguage,
		mcp.Description("Language for validation messages: es or en"),
		mcp.DefaultString("es"),
	)
}

// CreateImpactTool creates a tool taking a vehicle class, monthly distance and fuel price
func (f *ToolFactory) CreateImpactTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		vehicleClassOption(),
		mcp.WithNumber(ParamMonthlyDistanceKm,
			mcp.Required(),
			mcp.Description(f.distanceDescription()),
		),
		mcp.WithNumber(ParamFuelPrice,
			mcp.Required(),
			mcp.Description(f.priceDescription()),
		),
		languageOption(),
	)
}

// CreateValidationTool creates a tool that only checks distance and price
func (f *ToolFactory) CreateValidationTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithNumber(ParamMonthlyDistanceKm,
			mcp.Description(f.distanceDescription()),
		),
		mcp.WithNumber(ParamFuelPrice,
			mcp.Description(f.priceDescription()),
		),
		languageOption(),
	)
}

// CreateLaneTool creates a tool estimating a recurring lane between two points
func (f *ToolFactory) CreateLaneTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		vehicleClassOption(),
		mcp.WithString(ParamFrom,
			mcp.Required(),
			mcp.Description("Lane origin as \"lat,lon\", DMS or MGRS"),
		),
		mcp.WithString(ParamTo,
			mcp.Required(),
			mcp.Description("Lane destination as \"lat,lon\", DMS or MGRS"),
		),
		mcp.WithNumber(ParamTripsPerMonth,
			mcp.Required(),
			mcp.Description("Number of trips driven on the lane each month"),
		),
		mcp.WithBoolean(ParamRoundTrip,
			mcp.Description("Count the return leg of every trip"),
			mcp.DefaultBool(false),
		),
		mcp.WithNumber(ParamFuelPrice,
			mcp.Required(),
			mcp.Description(f.priceDescription()),
		),
		languageOption(),
	)
}
