package projection

import (
	"math"

	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/mathutil"
)

// BreakEvenMonth returns the 1-indexed first month in which that month's
// EBITDA is positive and the running cash balance (starting cash plus
// EBITDA to date) is positive. Nil means never within the series.
func BreakEvenMonth(ebitda []float64, startingCash float64) *int {
	balance := startingCash
	for i, v := range ebitda {
		balance += v
		if balance > 0 && v > 0 {
			month := i + 1
			return &month
		}
	}
	return nil
}

// RunwayMonths estimates how long starting cash lasts at the average burn
// of the first twelve months. A non-negative average burn yields the full
// horizon. The result is capped at the horizon, floored at zero and
// rounded to the nearest whole month.
func RunwayMonths(ebitda []float64, startingCash float64) int {
	horizon := len(ebitda)
	if horizon == 0 {
		return 0
	}
	window := constants.RunwayWindowMonths
	if window > horizon {
		window = horizon
	}
	average := mathutil.Sum(ebitda[:window]) / float64(window)
	if average >= 0 {
		return horizon
	}

	runway := startingCash / math.Abs(average)
	if runway > float64(horizon) {
		runway = float64(horizon)
	}
	if runway < 0 {
		runway = 0
	}
	return int(math.Round(runway))
}
