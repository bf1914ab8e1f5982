// Package scenario holds named multiplier sets and applies them to driver
// inputs before a projection runs.
package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/validation"
)

// Config is one named scenario. Multipliers scale the matching driver
// inputs; PlatformRevenueShare is added, in percentage points, to the
// pricing sensitivity driver.
type Config struct {
	ScenarioKey          string  `json:"scenarioKey" yaml:"scenarioKey" mapstructure:"scenarioKey"`
	Label                string  `json:"label" yaml:"label" mapstructure:"label"`
	Active               bool    `json:"active" yaml:"active" mapstructure:"active"`
	SortOrder            int     `json:"sortOrder" yaml:"sortOrder" mapstructure:"sortOrder"`
	Growth               float64 `json:"growth" yaml:"growth" mapstructure:"growth"`
	Churn                float64 `json:"churn" yaml:"churn" mapstructure:"churn"`
	CAC                  float64 `json:"cac" yaml:"cac" mapstructure:"cac"`
	Impressions          float64 `json:"impressions" yaml:"impressions" mapstructure:"impressions"`
	CPM                  float64 `json:"cpm" yaml:"cpm" mapstructure:"cpm"`
	FillRate             float64 `json:"fillRate" yaml:"fillRate" mapstructure:"fillRate"`
	PlatformRevenueShare float64 `json:"platformRevenueShare" yaml:"platformRevenueShare" mapstructure:"platformRevenueShare"`
}

// Neutral returns a scenario whose multipliers are all 1 and whose revenue
// share adjustment is 0.
func Neutral(key string) Config {
	label := key
	if key != "" {
		label = strings.ToUpper(key[:1]) + key[1:]
	}
	return Config{
		ScenarioKey: key,
		Label:       label,
		Active:      true,
		Growth:      1,
		Churn:       1,
		CAC:         1,
		Impressions: 1,
		CPM:         1,
		FillRate:    1,
	}
}

// Validate rejects empty keys and negative or non-finite multipliers.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ScenarioKey) == "" {
		return validation.Invalid("scenarioKey", "cannot be empty")
	}
	field := func(name string) string { return c.ScenarioKey + "." + name }
	return validation.First(
		validation.NonNegative(field("growth"), c.Growth),
		validation.NonNegative(field("churn"), c.Churn),
		validation.NonNegative(field("cac"), c.CAC),
		validation.NonNegative(field("impressions"), c.Impressions),
		validation.NonNegative(field("cpm"), c.CPM),
		validation.NonNegative(field("fillRate"), c.FillRate),
		validation.Finite(field("platformRevenueShare"), c.PlatformRevenueShare),
	)
}

// Apply returns a copy of d with the scenario's adjustments applied to the
// inputs. The projection algorithm itself is identical for every scenario.
func Apply(d drivers.CalculationDrivers, c Config) drivers.CalculationDrivers {
	out := d.Clone()
	out.CreatorGrowth *= c.Growth
	out.Churn *= c.Churn
	if out.Churn > 100 {
		out.Churn = 100
	}
	out.PaidCAC *= c.CAC
	out.OrganicCAC *= c.CAC
	// Advertising base revenue is quoted at the base impression volume, so it
	// moves with impressions.
	scaleSeries(out.Impressions, c.Impressions)
	scaleSeries(out.AdvertisingRevenue, c.Impressions)
	out.CPM *= c.CPM
	out.FillRate *= c.FillRate
	out.PricingSensitivity += c.PlatformRevenueShare
	return out
}

func scaleSeries(s []float64, factor float64) {
	for i := range s {
		s[i] *= factor
	}
}

// Table is a lookup of scenarios keyed by unique scenario key.
type Table struct {
	ordered []Config
	byKey   map[string]int
}

// NewTable validates the configs and indexes them. Duplicate keys are an error.
func NewTable(configs []Config) (*Table, error) {
	t := &Table{byKey: make(map[string]int, len(configs))}
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byKey[c.ScenarioKey]; dup {
			return nil, fmt.Errorf("duplicate scenario key %q", c.ScenarioKey)
		}
		t.byKey[c.ScenarioKey] = len(t.ordered)
		t.ordered = append(t.ordered, c)
	}
	sort.SliceStable(t.ordered, func(i, j int) bool {
		if t.ordered[i].SortOrder != t.ordered[j].SortOrder {
			return t.ordered[i].SortOrder < t.ordered[j].SortOrder
		}
		return t.ordered[i].ScenarioKey < t.ordered[j].ScenarioKey
	})
	for i, c := range t.ordered {
		t.byKey[c.ScenarioKey] = i
	}
	return t, nil
}

// Lookup returns the scenario for key, active or not.
func (t *Table) Lookup(key string) (Config, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Config{}, false
	}
	return t.ordered[i], true
}

// Active returns the active scenarios in display order.
func (t *Table) Active() []Config {
	active := make([]Config, 0, len(t.ordered))
	for _, c := range t.ordered {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

// All returns every scenario in display order.
func (t *Table) All() []Config {
	return append([]Config(nil), t.ordered...)
}

// DefaultConfigs is the built-in conservative/base/aggressive table.
func DefaultConfigs() []Config {
	base := Neutral("base")
	base.SortOrder = 1
	return []Config{
		{
			ScenarioKey: "conservative", Label: "Conservative", Active: true, SortOrder: 0,
			Growth: 0.6, Churn: 1.3, CAC: 1.25, Impressions: 0.8, CPM: 0.9, FillRate: 0.9,
			PlatformRevenueShare: -2,
		},
		base,
		{
			ScenarioKey: "aggressive", Label: "Aggressive", Active: true, SortOrder: 2,
			Growth: 1.4, Churn: 0.8, CAC: 0.85, Impressions: 1.25, CPM: 1.1, FillRate: 1.05,
			PlatformRevenueShare: 2,
		},
	}
}
