// Package drivers defines the named numeric inputs of a business projection
// and merges a base driver set with ad-hoc overrides.
package drivers

import (
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/validation"
)

// ErrInvalidInput is returned (wrapped) for every rejected driver value.
var ErrInvalidInput = validation.ErrInvalidInput

// ValidationError names the offending driver.
type ValidationError = validation.FieldError

// CalculationDrivers is the fully resolved input of one projection. Rates are
// plain percentages, not pre-divided. Yearly series hold one entry per
// modeled year.
type CalculationDrivers struct {
	// Revenue
	SubscriptionRevenue []float64 `json:"subscriptionRevenue" yaml:"subscriptionRevenue" mapstructure:"subscriptionRevenue"`
	AdvertisingRevenue  []float64 `json:"advertisingRevenue" yaml:"advertisingRevenue" mapstructure:"advertisingRevenue"`
	FillRate            float64   `json:"fillRate" yaml:"fillRate" mapstructure:"fillRate"`
	CPM                 float64   `json:"cpm" yaml:"cpm" mapstructure:"cpm"`
	Impressions         []float64 `json:"impressions" yaml:"impressions" mapstructure:"impressions"`
	CreatorGrowth       float64   `json:"creatorGrowth" yaml:"creatorGrowth" mapstructure:"creatorGrowth"`
	Churn               float64   `json:"churn" yaml:"churn" mapstructure:"churn"`
	ARPU                float64   `json:"arpu" yaml:"arpu" mapstructure:"arpu"`
	PricingSensitivity  float64   `json:"pricingSensitivity" yaml:"pricingSensitivity" mapstructure:"pricingSensitivity"`
	PremiumAdoption     float64   `json:"premiumAdoption" yaml:"premiumAdoption" mapstructure:"premiumAdoption"`

	// Cost
	HostingCostPerAccount float64 `json:"hostingCostPerAccount" yaml:"hostingCostPerAccount" mapstructure:"hostingCostPerAccount"`
	BandwidthMultiplier   float64 `json:"bandwidthMultiplier" yaml:"bandwidthMultiplier" mapstructure:"bandwidthMultiplier"`
	AICostPerUnit         float64 `json:"aiCostPerUnit" yaml:"aiCostPerUnit" mapstructure:"aiCostPerUnit"`
	UsageMultiplier       float64 `json:"usageMultiplier" yaml:"usageMultiplier" mapstructure:"usageMultiplier"`
	PaymentProcessingFee  float64 `json:"paymentProcessingFee" yaml:"paymentProcessingFee" mapstructure:"paymentProcessingFee"`

	// Operating
	BaseOpex              []float64 `json:"baseOpex" yaml:"baseOpex" mapstructure:"baseOpex"`
	HeadcountProductivity float64   `json:"headcountProductivity" yaml:"headcountProductivity" mapstructure:"headcountProductivity"`
	PaidCAC               float64   `json:"paidCac" yaml:"paidCac" mapstructure:"paidCac"`
	OrganicCAC            float64   `json:"organicCac" yaml:"organicCac" mapstructure:"organicCac"`
	OrganicMix            float64   `json:"organicMix" yaml:"organicMix" mapstructure:"organicMix"`
	MarketingBudget       float64   `json:"marketingBudget" yaml:"marketingBudget" mapstructure:"marketingBudget"`
	EfficiencyMultiplier  float64   `json:"efficiencyMultiplier" yaml:"efficiencyMultiplier" mapstructure:"efficiencyMultiplier"`

	// Capital
	StartingCash float64 `json:"startingCash" yaml:"startingCash" mapstructure:"startingCash"`
}

// Defaults returns the documented reference driver set for a 3-year horizon.
func Defaults() CalculationDrivers {
	return CalculationDrivers{
		SubscriptionRevenue: []float64{480000, 1200000, 2400000},
		AdvertisingRevenue:  []float64{180000, 720000, 1800000},
		FillRate:            constants.DefaultFillRateBaseline,
		CPM:                 constants.DefaultCPMBaseline,
		Impressions:         []float64{12000000, 36000000, 90000000},
		CreatorGrowth:       8,
		Churn:               5,
		ARPU:                25,
		PricingSensitivity:  0,
		PremiumAdoption:     20,

		HostingCostPerAccount: 6,
		BandwidthMultiplier:   1,
		AICostPerUnit:         0.002,
		UsageMultiplier:       1,
		PaymentProcessingFee:  2.9,

		BaseOpex:              []float64{600000, 900000, 1200000},
		HeadcountProductivity: 1,
		PaidCAC:               120,
		OrganicCAC:            20,
		OrganicMix:            40,
		MarketingBudget:       15000,
		EfficiencyMultiplier:  1,

		StartingCash: 500000,
	}
}

// Clone returns a deep copy so callers can modify series without aliasing.
func (d CalculationDrivers) Clone() CalculationDrivers {
	c := d
	c.SubscriptionRevenue = cloneSeries(d.SubscriptionRevenue)
	c.AdvertisingRevenue = cloneSeries(d.AdvertisingRevenue)
	c.Impressions = cloneSeries(d.Impressions)
	c.BaseOpex = cloneSeries(d.BaseOpex)
	return c
}

func cloneSeries(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}

// Validate checks every driver against its allowed range for a horizon of
// the given number of years. The first violation is returned.
func (d CalculationDrivers) Validate(years int) error {
	if years <= 0 {
		return validation.Invalid("horizon", "must cover at least one year, got %d years", years)
	}
	return validation.First(
		validation.Series("subscriptionRevenue", d.SubscriptionRevenue, years, validation.NonNegative),
		validation.Series("advertisingRevenue", d.AdvertisingRevenue, years, validation.NonNegative),
		validation.NonNegative("fillRate", d.FillRate),
		validation.NonNegative("cpm", d.CPM),
		validation.Series("impressions", d.Impressions, years, validation.NonNegative),
		validateGrowth(d.CreatorGrowth),
		validation.Range("churn", d.Churn, 0, 100),
		validation.NonNegative("arpu", d.ARPU),
		validation.Finite("pricingSensitivity", d.PricingSensitivity),
		validation.Range("premiumAdoption", d.PremiumAdoption, 0, 100),

		validation.NonNegative("hostingCostPerAccount", d.HostingCostPerAccount),
		validation.NonNegative("bandwidthMultiplier", d.BandwidthMultiplier),
		validation.NonNegative("aiCostPerUnit", d.AICostPerUnit),
		validation.NonNegative("usageMultiplier", d.UsageMultiplier),
		validation.Range("paymentProcessingFee", d.PaymentProcessingFee, 0, 100),

		validation.Series("baseOpex", d.BaseOpex, years, validation.NonNegative),
		validation.Positive("headcountProductivity", d.HeadcountProductivity),
		validation.NonNegative("paidCac", d.PaidCAC),
		validation.NonNegative("organicCac", d.OrganicCAC),
		validation.Range("organicMix", d.OrganicMix, 0, 100),
		validation.NonNegative("marketingBudget", d.MarketingBudget),
		validation.Positive("efficiencyMultiplier", d.EfficiencyMultiplier),

		validation.Finite("startingCash", d.StartingCash),
	)
}

func validateGrowth(v float64) error {
	if err := validation.Finite("creatorGrowth", v); err != nil {
		return err
	}
	if v <= -100 {
		return validation.Invalid("creatorGrowth", "must be greater than -100, got %v", v)
	}
	return nil
}
