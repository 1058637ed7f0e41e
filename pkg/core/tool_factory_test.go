package core

import (
	"strings"
	"testing"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

func TestImpactToolDocumentsClassMatching(t *testing.T) {
	tool := NewToolFactory(impact.DefaultLimits()).CreateImpactTool("estimate_impact", "Estimate")

	prop, ok := tool.InputSchema.Properties[ParamVehicleClass].(map[string]any)
	if !ok {
		t.Fatalf("missing %s property", ParamVehicleClass)
	}
	if prop["description"] != ClassMatchingNote {
		t.Errorf("description = %v", prop["description"])
	}
	if !strings.Contains(ClassMatchingNote, "ignores case") {
		t.Errorf("note does not mention case folding: %q", ClassMatchingNote)
	}

	for _, in := range []string{"heavyTruck", "heavy_truck", "HEAVY_TRUCK"} {
		c, err := impact.ParseVehicleClass(in)
		if err != nil || c != impact.HeavyTruck {
			t.Errorf("ParseVehicleClass(%q) = %v, %v", in, c, err)
		}
	}
}
