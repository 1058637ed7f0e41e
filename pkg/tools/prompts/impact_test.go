package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

func newEstimator(t *testing.T) *impact.Estimator {
	t.Helper()
	est, err := impact.NewEstimator(impact.Config{})
	require.NoError(t, err)
	return est
}

func TestMethodology(t *testing.T) {
	text := Methodology(impact.DefaultProfiles())

	assert.Contains(t, text, "route optimization 18%")
	assert.Contains(t, text, "eco driving 12%")
	assert.Contains(t, text, "traffic optimization 8%")
	assert.Contains(t, text, "total 38%")
	assert.Contains(t, text, "21 kg absorbed by one tree per month")
	assert.Contains(t, text, "Heavy truck (heavyTruck): 35.0 L/100km, 2.31 kg CO2 per liter")
	assert.Contains(t, text, "below 100 km")
}

func TestMethodologyHandler(t *testing.T) {
	h := MethodologyHandler(newEstimator(t))

	req := mcp.GetPromptRequest{}
	req.Params.Name = MethodologyPrompt
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.RoleUser, res.Messages[0].Role)

	text, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Van (van)")
	assert.Contains(t, text.Text, "Motorcycle (motorcycle)")
}

func TestMethodologyHandlerSingleClass(t *testing.T) {
	h := MethodologyHandler(newEstimator(t))

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"vehicle_class": "bus"}
	res, err := h(context.Background(), req)
	require.NoError(t, err)

	text := res.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, "Bus (bus): 25.0 L/100km")
	assert.NotContains(t, text, "Van (van)")

	req.Params.Arguments = map[string]string{"vehicle_class": "tractor"}
	_, err = h(context.Background(), req)
	assert.ErrorIs(t, err, impact.ErrUnknownVehicleClass)
}
