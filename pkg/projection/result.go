package projection

import (
	"fmt"

	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/mathutil"
	"github.com/iwvelando/business-forecast/pkg/scenario"
	"github.com/iwvelando/business-forecast/pkg/validation"
)

// Metrics are the scalar values derived from the monthly series and drivers.
type Metrics struct {
	BreakEvenMonth      *int    `json:"breakEvenMonth"`
	RunwayMonths        int     `json:"runwayMonths"`
	LTV                 float64 `json:"ltv"`
	BlendedCAC          float64 `json:"blendedCac"`
	LTVCACRatio         float64 `json:"ltvCacRatio"`
	PaybackPeriod       float64 `json:"paybackPeriod"`
	PremiumAdoptionRate float64 `json:"premiumAdoptionRate"`
}

// Result is the complete output of one projection. It is never modified
// after Run returns it.
type Result struct {
	HorizonMonths int     `json:"horizonMonths"`
	Monthly       Monthly `json:"monthly"`
	Yearly        Yearly  `json:"yearly"`
	Metrics       Metrics `json:"metrics"`
}

// Run validates the inputs, applies the scenario to the drivers, projects the
// series and assembles the derived metrics. Invalid input fails without a
// partial result.
func Run(d drivers.CalculationDrivers, sc scenario.Config, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(opts.Years()); err != nil {
		return nil, err
	}

	adjusted := scenario.Apply(d, sc)
	if err := adjusted.Validate(opts.Years()); err != nil {
		return nil, fmt.Errorf("after applying scenario %q: %w", sc.ScenarioKey, err)
	}

	monthly := Project(adjusted, opts)
	ue := ComputeUnitEconomics(adjusted.Churn, adjusted.ARPU, adjusted.PaidCAC, adjusted.OrganicCAC, adjusted.OrganicMix)

	result := &Result{
		HorizonMonths: opts.HorizonMonths,
		Monthly:       monthly,
		Yearly:        RollUp(monthly),
		Metrics: Metrics{
			BreakEvenMonth:      BreakEvenMonth(monthly.EBITDA, adjusted.StartingCash),
			RunwayMonths:        RunwayMonths(monthly.EBITDA, adjusted.StartingCash),
			LTV:                 ue.LTV,
			BlendedCAC:          ue.BlendedCAC,
			LTVCACRatio:         ue.LTVCACRatio,
			PaybackPeriod:       ue.PaybackPeriod,
			PremiumAdoptionRate: adjusted.PremiumAdoption,
		},
	}
	if err := result.checkFinite(); err != nil {
		return nil, err
	}
	return result, nil
}

// checkFinite rejects results where finite but extreme drivers overflowed
// during projection.
func (r *Result) checkFinite() error {
	series := []struct {
		name   string
		values []float64
	}{
		{"monthly.revenue", r.Monthly.Revenue},
		{"monthly.cogs", r.Monthly.COGS},
		{"monthly.opex", r.Monthly.OpEx},
		{"monthly.grossProfit", r.Monthly.GrossProfit},
		{"monthly.ebitda", r.Monthly.EBITDA},
		{"monthly.cumulativeEbitda", r.Monthly.CumulativeEBITDA},
		{"yearly.revenue", r.Yearly.Revenue},
		{"yearly.cogs", r.Yearly.COGS},
		{"yearly.opex", r.Yearly.OpEx},
		{"yearly.grossProfit", r.Yearly.GrossProfit},
		{"yearly.ebitda", r.Yearly.EBITDA},
		{"yearly.grossMarginPct", r.Yearly.GrossMargin},
		{"yearly.ebitdaMarginPct", r.Yearly.EBITDAMargin},
		{"metrics", []float64{r.Metrics.LTV, r.Metrics.BlendedCAC, r.Metrics.LTVCACRatio, r.Metrics.PaybackPeriod}},
	}
	for _, s := range series {
		for i, v := range s.values {
			if !mathutil.IsFinite(v) {
				return validation.Invalid(s.name, "overflows at index %d (%v); drivers are out of range", i, v)
			}
		}
	}
	return nil
}

// Years is the number of yearly entries in the result.
func (r *Result) Years() int {
	return len(r.Yearly.Revenue)
}
