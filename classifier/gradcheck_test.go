package classifier

import (
	"testing"

	"github.com/nihei9/depar/feature"
)

func TestModel_CheckGradient_AgreesWithAnalyticBackprop(t *testing.T) {
	m, _ := buildTestModel(feature.Flags{UsePOS: true, UseValency: true})
	// A small hidden size and few active slots keep this test's
	// O(params) finite-difference sweep cheap.
	features := sampleFeatures(m)
	labels := []int8{0, 1, -1}

	if err := m.CheckGradient(features, labels, DefaultGradCheckOptions()); err != nil {
		t.Fatalf("gradient check failed: %v", err)
	}
}
