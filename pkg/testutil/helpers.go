// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/scenario"
)

// AlmostEqual reports whether a and b differ by at most tolerance.
func AlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// AllFinite reports whether every value is neither NaN nor infinite.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NeutralScenario returns the "base" scenario with every multiplier at 1.
func NeutralScenario() scenario.Config {
	return scenario.Neutral("base")
}

// ReferenceDrivers returns the reference driver set: the documented
// defaults, which already carry the reference revenue, fill rate, CPM,
// growth, churn and starting cash values.
func ReferenceDrivers() drivers.CalculationDrivers {
	return drivers.Defaults()
}
