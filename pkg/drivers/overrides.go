package drivers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/business-forecast/pkg/validation"
)

// YearlyOverride replaces individual entries of a yearly series, keyed by
// 0-based year index.
type YearlyOverride map[int]float64

// Overrides is a partial driver set. Nil scalars and empty yearly maps leave
// the base value untouched.
type Overrides struct {
	SubscriptionRevenue YearlyOverride
	AdvertisingRevenue  YearlyOverride
	Impressions         YearlyOverride
	BaseOpex            YearlyOverride

	FillRate           *float64
	CPM                *float64
	CreatorGrowth      *float64
	Churn              *float64
	ARPU               *float64
	PricingSensitivity *float64
	PremiumAdoption    *float64

	HostingCostPerAccount *float64
	BandwidthMultiplier   *float64
	AICostPerUnit         *float64
	UsageMultiplier       *float64
	PaymentProcessingFee  *float64

	HeadcountProductivity *float64
	PaidCAC               *float64
	OrganicCAC            *float64
	OrganicMix            *float64
	MarketingBudget       *float64
	EfficiencyMultiplier  *float64

	StartingCash *float64
}

type scalarField struct {
	driver   func(*CalculationDrivers) *float64
	override func(*Overrides) **float64
}

type seriesField struct {
	driver   func(*CalculationDrivers) *[]float64
	override func(*Overrides) *YearlyOverride
}

var scalarFields = map[string]scalarField{
	"fillRate":              {func(d *CalculationDrivers) *float64 { return &d.FillRate }, func(o *Overrides) **float64 { return &o.FillRate }},
	"cpm":                   {func(d *CalculationDrivers) *float64 { return &d.CPM }, func(o *Overrides) **float64 { return &o.CPM }},
	"creatorGrowth":         {func(d *CalculationDrivers) *float64 { return &d.CreatorGrowth }, func(o *Overrides) **float64 { return &o.CreatorGrowth }},
	"churn":                 {func(d *CalculationDrivers) *float64 { return &d.Churn }, func(o *Overrides) **float64 { return &o.Churn }},
	"arpu":                  {func(d *CalculationDrivers) *float64 { return &d.ARPU }, func(o *Overrides) **float64 { return &o.ARPU }},
	"pricingSensitivity":    {func(d *CalculationDrivers) *float64 { return &d.PricingSensitivity }, func(o *Overrides) **float64 { return &o.PricingSensitivity }},
	"premiumAdoption":       {func(d *CalculationDrivers) *float64 { return &d.PremiumAdoption }, func(o *Overrides) **float64 { return &o.PremiumAdoption }},
	"hostingCostPerAccount": {func(d *CalculationDrivers) *float64 { return &d.HostingCostPerAccount }, func(o *Overrides) **float64 { return &o.HostingCostPerAccount }},
	"bandwidthMultiplier":   {func(d *CalculationDrivers) *float64 { return &d.BandwidthMultiplier }, func(o *Overrides) **float64 { return &o.BandwidthMultiplier }},
	"aiCostPerUnit":         {func(d *CalculationDrivers) *float64 { return &d.AICostPerUnit }, func(o *Overrides) **float64 { return &o.AICostPerUnit }},
	"usageMultiplier":       {func(d *CalculationDrivers) *float64 { return &d.UsageMultiplier }, func(o *Overrides) **float64 { return &o.UsageMultiplier }},
	"paymentProcessingFee":  {func(d *CalculationDrivers) *float64 { return &d.PaymentProcessingFee }, func(o *Overrides) **float64 { return &o.PaymentProcessingFee }},
	"headcountProductivity": {func(d *CalculationDrivers) *float64 { return &d.HeadcountProductivity }, func(o *Overrides) **float64 { return &o.HeadcountProductivity }},
	"paidCac":               {func(d *CalculationDrivers) *float64 { return &d.PaidCAC }, func(o *Overrides) **float64 { return &o.PaidCAC }},
	"organicCac":            {func(d *CalculationDrivers) *float64 { return &d.OrganicCAC }, func(o *Overrides) **float64 { return &o.OrganicCAC }},
	"organicMix":            {func(d *CalculationDrivers) *float64 { return &d.OrganicMix }, func(o *Overrides) **float64 { return &o.OrganicMix }},
	"marketingBudget":       {func(d *CalculationDrivers) *float64 { return &d.MarketingBudget }, func(o *Overrides) **float64 { return &o.MarketingBudget }},
	"efficiencyMultiplier":  {func(d *CalculationDrivers) *float64 { return &d.EfficiencyMultiplier }, func(o *Overrides) **float64 { return &o.EfficiencyMultiplier }},
	"startingCash":          {func(d *CalculationDrivers) *float64 { return &d.StartingCash }, func(o *Overrides) **float64 { return &o.StartingCash }},
}

var seriesFields = map[string]seriesField{
	"subscriptionRevenue": {func(d *CalculationDrivers) *[]float64 { return &d.SubscriptionRevenue }, func(o *Overrides) *YearlyOverride { return &o.SubscriptionRevenue }},
	"advertisingRevenue":  {func(d *CalculationDrivers) *[]float64 { return &d.AdvertisingRevenue }, func(o *Overrides) *YearlyOverride { return &o.AdvertisingRevenue }},
	"impressions":         {func(d *CalculationDrivers) *[]float64 { return &d.Impressions }, func(o *Overrides) *YearlyOverride { return &o.Impressions }},
	"baseOpex":            {func(d *CalculationDrivers) *[]float64 { return &d.BaseOpex }, func(o *Overrides) *YearlyOverride { return &o.BaseOpex }},
}

// Names lists every accepted override key in sorted order. Yearly series are
// listed as "name.N" where N is the 1-indexed year.
func Names() []string {
	names := make([]string, 0, len(scalarFields)+len(seriesFields))
	for name := range scalarFields {
		names = append(names, name)
	}
	for name := range seriesFields {
		names = append(names, name+".N")
	}
	sort.Strings(names)
	return names
}

// ParseOverrides converts a loosely keyed override map into Overrides.
// Unknown keys, malformed year suffixes and non-finite values are rejected.
func ParseOverrides(raw map[string]float64) (Overrides, error) {
	var o Overrides
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Sorted so the same bad input always reports the same field.
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		if err := validation.Finite(key, value); err != nil {
			return Overrides{}, err
		}

		if f, ok := scalarFields[key]; ok {
			v := value
			*f.override(&o) = &v
			continue
		}

		name, yearStr, hasYear := strings.Cut(key, ".")
		f, ok := seriesFields[name]
		if !ok {
			return Overrides{}, validation.Invalid(key, "is not a known driver")
		}
		if !hasYear {
			return Overrides{}, validation.Invalid(key, "is a yearly driver; use %s.N with a 1-indexed year", name)
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 1 {
			return Overrides{}, validation.Invalid(key, "has an invalid year suffix %q", yearStr)
		}
		target := f.override(&o)
		if *target == nil {
			*target = make(YearlyOverride)
		}
		(*target)[year-1] = value
	}
	return o, nil
}

// Empty reports whether no override is set.
func (o Overrides) Empty() bool {
	for _, f := range scalarFields {
		if *f.override(&o) != nil {
			return false
		}
	}
	for _, f := range seriesFields {
		if len(*f.override(&o)) > 0 {
			return false
		}
	}
	return true
}

// Resolve merges overrides into a copy of base. Fields without an override
// keep their base value. A yearly override past the end of the base series
// extends it; Validate then reports the length mismatch.
func Resolve(base CalculationDrivers, o Overrides) CalculationDrivers {
	resolved := base.Clone()
	for _, f := range scalarFields {
		if v := *f.override(&o); v != nil {
			*f.driver(&resolved) = *v
		}
	}
	for _, f := range seriesFields {
		yearly := *f.override(&o)
		if len(yearly) == 0 {
			continue
		}
		series := f.driver(&resolved)
		for year, v := range yearly {
			for len(*series) <= year {
				*series = append(*series, 0)
			}
			(*series)[year] = v
		}
	}
	return resolved
}
