// Package projection turns a resolved driver set into a monthly time series,
// yearly rollups and derived metrics. Everything here is pure and
// deterministic: the same drivers and scenario always produce an identical
// Result.
package projection

import (
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/mathutil"
	"github.com/iwvelando/business-forecast/pkg/validation"
)

// Options controls the horizon and the advertising normalization baselines.
// Baselines must stay constant across the scenarios being compared.
type Options struct {
	HorizonMonths    int     `json:"horizonMonths" yaml:"horizonMonths" mapstructure:"horizonMonths"`
	FillRateBaseline float64 `json:"fillRateBaseline" yaml:"fillRateBaseline" mapstructure:"fillRateBaseline"`
	CPMBaseline      float64 `json:"cpmBaseline" yaml:"cpmBaseline" mapstructure:"cpmBaseline"`
}

// DefaultOptions returns a 36 month horizon with baselines 65 and 22.
func DefaultOptions() Options {
	return Options{
		HorizonMonths:    constants.DefaultHorizonMonths,
		FillRateBaseline: constants.DefaultFillRateBaseline,
		CPMBaseline:      constants.DefaultCPMBaseline,
	}
}

// Years is the number of modeled years.
func (o Options) Years() int {
	return o.HorizonMonths / constants.MonthsPerYear
}

// Validate requires a positive whole number of years and positive baselines.
func (o Options) Validate() error {
	if o.HorizonMonths <= 0 {
		return validation.Invalid("horizonMonths", "must be positive, got %d", o.HorizonMonths)
	}
	if o.HorizonMonths%constants.MonthsPerYear != 0 {
		return validation.Invalid("horizonMonths", "must be a multiple of %d, got %d", constants.MonthsPerYear, o.HorizonMonths)
	}
	return validation.First(
		validation.Positive("fillRateBaseline", o.FillRateBaseline),
		validation.Positive("cpmBaseline", o.CPMBaseline),
	)
}

// Monthly holds one entry per projected month.
type Monthly struct {
	Revenue          []float64 `json:"revenue"`
	COGS             []float64 `json:"cogs"`
	OpEx             []float64 `json:"opex"`
	GrossProfit      []float64 `json:"grossProfit"`
	EBITDA           []float64 `json:"ebitda"`
	CumulativeEBITDA []float64 `json:"cumulativeEbitda"`
}

func newMonthly(months int) Monthly {
	return Monthly{
		Revenue:          make([]float64, months),
		COGS:             make([]float64, months),
		OpEx:             make([]float64, months),
		GrossProfit:      make([]float64, months),
		EBITDA:           make([]float64, months),
		CumulativeEBITDA: make([]float64, months),
	}
}

// Project walks the horizon month by month. d must already carry the
// scenario adjustments and must have passed Validate; opts must have passed
// Options.Validate.
func Project(d drivers.CalculationDrivers, opts Options) Monthly {
	months := opts.HorizonMonths
	m := newMonthly(months)

	pricing := 1 + d.PricingSensitivity/constants.PercentageMultiplier
	adScale := (d.FillRate / opts.FillRateBaseline) * (d.CPM / opts.CPMBaseline)
	premium := 1 + (d.PremiumAdoption/constants.PercentageMultiplier)*constants.PremiumUpliftFactor

	for month := 0; month < months; month++ {
		year := month / constants.MonthsPerYear
		g := mathutil.Compound(d.CreatorGrowth, month)
		r := mathutil.Compound(-d.Churn, month)

		subBase := d.SubscriptionRevenue[year] / constants.MonthsPerYear
		adBase := d.AdvertisingRevenue[year] / constants.MonthsPerYear

		subscription := subBase * g * r * pricing
		advertising := adBase * adScale
		revenue := (subscription + advertising) * premium

		accounts := mathutil.SafeDivide(subBase, d.ARPU, 0) * g * r
		hosting := accounts * (d.HostingCostPerAccount / constants.MonthsPerYear) * d.BandwidthMultiplier
		impressionUnits := d.Impressions[year] / constants.MonthsPerYear / constants.ImpressionsPerUsageUnit
		usage := d.UsageMultiplier * (accounts + impressionUnits)
		inference := usage * d.AICostPerUnit
		fees := mathutil.ApplyPercentage(revenue, d.PaymentProcessingFee)
		cogs := hosting + inference + fees

		baseOpex := d.BaseOpex[year] / constants.MonthsPerYear / d.HeadcountProductivity
		opex := (baseOpex + d.MarketingBudget) / d.EfficiencyMultiplier

		m.Revenue[month] = revenue
		m.COGS[month] = cogs
		m.OpEx[month] = opex
		m.GrossProfit[month] = revenue - cogs
		m.EBITDA[month] = m.GrossProfit[month] - opex
		if month == 0 {
			m.CumulativeEBITDA[month] = m.EBITDA[month]
		} else {
			m.CumulativeEBITDA[month] = m.CumulativeEBITDA[month-1] + m.EBITDA[month]
		}
	}
	return m
}

// Yearly holds one entry per projected year.
type Yearly struct {
	Revenue      []float64 `json:"revenue"`
	COGS         []float64 `json:"cogs"`
	OpEx         []float64 `json:"opex"`
	GrossProfit  []float64 `json:"grossProfit"`
	EBITDA       []float64 `json:"ebitda"`
	GrossMargin  []float64 `json:"grossMarginPct"`
	EBITDAMargin []float64 `json:"ebitdaMarginPct"`
}

// RollUp sums each block of 12 months. Margins are computed from the summed
// values, which equals the revenue-weighted average of the monthly margins.
func RollUp(m Monthly) Yearly {
	years := len(m.Revenue) / constants.MonthsPerYear
	y := Yearly{
		Revenue:      make([]float64, years),
		COGS:         make([]float64, years),
		OpEx:         make([]float64, years),
		GrossProfit:  make([]float64, years),
		EBITDA:       make([]float64, years),
		GrossMargin:  make([]float64, years),
		EBITDAMargin: make([]float64, years),
	}
	for i := 0; i < years; i++ {
		lo, hi := i*constants.MonthsPerYear, (i+1)*constants.MonthsPerYear
		y.Revenue[i] = mathutil.Sum(m.Revenue[lo:hi])
		y.COGS[i] = mathutil.Sum(m.COGS[lo:hi])
		y.OpEx[i] = mathutil.Sum(m.OpEx[lo:hi])
		y.GrossProfit[i] = mathutil.Sum(m.GrossProfit[lo:hi])
		y.EBITDA[i] = mathutil.Sum(m.EBITDA[lo:hi])
		y.GrossMargin[i] = mathutil.CalculatePercentage(y.GrossProfit[i], y.Revenue[i])
		y.EBITDAMargin[i] = mathutil.CalculatePercentage(y.EBITDA[i], y.Revenue[i])
	}
	return y
}
