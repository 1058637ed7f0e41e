// Package prompts registers MCP prompts that explain the savings model.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

// MethodologyPrompt is the name of the prompt describing the model.
const MethodologyPrompt = "impact_methodology"

// RegisterImpactPrompts adds the methodology prompt to s.
func RegisterImpactPrompts(s *server.MCPServer, est *impact.Estimator) {
	prompt := mcp.NewPrompt(MethodologyPrompt,
		mcp.WithPromptDescription("Explain how GreenRoute estimates monthly CO2, fuel and money savings"),
		mcp.WithArgument("vehicle_class",
			mcp.ArgumentDescription("Focus the explanation on one vehicle class"),
		),
	)
	s.AddPrompt(prompt, MethodologyHandler(est))
}

// MethodologyHandler renders the methodology for the profiles of est.
func MethodologyHandler(est *impact.Estimator) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		profiles := est.Profiles()
		if raw := strings.TrimSpace(req.Params.Arguments["vehicle_class"]); raw != "" {
			class, err := impact.ParseVehicleClass(raw)
			if err != nil {
				return nil, err
			}
			p, err := est.Profile(class)
			if err != nil {
				return nil, err
			}
			profiles = []impact.VehicleProfile{p}
		}

		return mcp.NewGetPromptResult(
			"GreenRoute savings methodology",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(Methodology(profiles))),
			},
		), nil
	}
}

// Methodology describes the savings model for the given profiles.
func Methodology(profiles []impact.VehicleProfile) string {
	var b strings.Builder

	b.WriteString("GreenRoute estimates what one vehicle saves in a month when its routes, driving style and traffic timing are optimized.\n\n")
	fmt.Fprintf(&b, "Savings fractions of fuel burned: route optimization %.0f%%, eco driving %.0f%%, traffic optimization %.0f%%, total %.0f%%.\n",
		impact.RouteOptimizationFraction*100,
		impact.EcoModeFraction*100,
		impact.TrafficOptimizationFraction*100,
		impact.TotalOptimizationFraction*100,
	)
	b.WriteString("\nFor a monthly distance d in km and a fuel price p per liter:\n")
	b.WriteString("- base fuel = d / 100 x consumption per 100 km\n")
	b.WriteString("- fuel saved = base fuel x total fraction\n")
	b.WriteString("- CO2 saved = fuel saved x CO2 factor per liter\n")
	b.WriteString("- money saved = fuel saved x p\n")
	fmt.Fprintf(&b, "- trees equivalent = CO2 saved / %.0f kg absorbed by one tree per month\n", impact.TreeAbsorptionKgPerMonth)
	fmt.Fprintf(&b, "- distance optimized = d x %.2f\n", impact.RouteOptimizationFraction)
	fmt.Fprintf(&b, "\nDistances below %.0f km per month and fuel prices of zero or less are rejected.\n", impact.MinMonthlyKm)

	b.WriteString("\nVehicle profiles:\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "- %s (%s): %.1f L/100km, %.2f kg CO2 per liter\n",
			p.Name, p.Class, p.ConsumptionPer100km, p.CO2FactorPerLiter)
	}
	return b.String()
}
