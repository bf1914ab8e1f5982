// Package benchmark loads reference metrics from a TOML file and compares a
// projection against them.
package benchmark

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/mathutil"
	"github.com/iwvelando/business-forecast/pkg/projection"
)

// Metric names understood by Compare.
const (
	MetricLTVCACRatio   = "ltvCacRatio"
	MetricPaybackPeriod = "paybackPeriod"
	MetricGrossMargin   = "grossMargin"
	MetricEBITDAMargin  = "ebitdaMargin"
	MetricChurn         = "churn"
)

// Directions.
const (
	HigherIsBetter = "higher"
	LowerIsBetter  = "lower"
)

// Benchmark is one reference value.
type Benchmark struct {
	Metric    string  `toml:"metric"`
	Label     string  `toml:"label"`
	Target    float64 `toml:"target"`
	Direction string  `toml:"direction"`
	Source    string  `toml:"source,omitempty"`
}

// Table is the benchmark file.
type Table struct {
	Benchmarks []Benchmark `toml:"benchmark"`
}

// Comparison is a benchmark evaluated against one projection.
type Comparison struct {
	Metric    string  `json:"metric"`
	Label     string  `json:"label"`
	Target    float64 `json:"target"`
	Actual    float64 `json:"actual"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"`
	Met       bool    `json:"met"`
}

// Default returns the built-in SaaS reference table.
func Default() *Table {
	return &Table{Benchmarks: []Benchmark{
		{Metric: MetricLTVCACRatio, Label: "LTV:CAC ratio", Target: 3, Direction: HigherIsBetter},
		{Metric: MetricPaybackPeriod, Label: "CAC payback (months)", Target: 12, Direction: LowerIsBetter},
		{Metric: MetricGrossMargin, Label: "Gross margin, final year (%)", Target: 70, Direction: HigherIsBetter},
		{Metric: MetricEBITDAMargin, Label: "EBITDA margin, final year (%)", Target: 20, Direction: HigherIsBetter},
		{Metric: MetricChurn, Label: "Monthly churn (%)", Target: 5, Direction: LowerIsBetter},
	}}
}

// Load reads a benchmark table. An empty path returns the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading benchmarks: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes and validates TOML benchmark data.
func Parse(data string) (*Table, error) {
	var t Table
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("parsing benchmarks: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects unknown metrics, unknown directions and non-finite targets.
func (t *Table) Validate() error {
	for i, b := range t.Benchmarks {
		switch b.Metric {
		case MetricLTVCACRatio, MetricPaybackPeriod, MetricGrossMargin, MetricEBITDAMargin, MetricChurn:
		default:
			return fmt.Errorf("benchmark %d: unknown metric %q", i+1, b.Metric)
		}
		if b.Direction != HigherIsBetter && b.Direction != LowerIsBetter {
			return fmt.Errorf("benchmark %d (%s): direction must be %q or %q", i+1, b.Metric, HigherIsBetter, LowerIsBetter)
		}
		if !mathutil.IsFinite(b.Target) {
			return fmt.Errorf("benchmark %d (%s): target must be finite", i+1, b.Metric)
		}
	}
	return nil
}

// Write encodes the table as TOML. A nil table writes nothing.
func (t *Table) Write(w io.Writer) error {
	if t == nil {
		return nil
	}
	return toml.NewEncoder(w).Encode(t)
}

// Len is the number of benchmarks in the table; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Benchmarks)
}

// Compare evaluates every benchmark against result. effective must be the
// drivers after the scenario was applied, since churn is read from them.
func (t *Table) Compare(result *projection.Result, effective drivers.CalculationDrivers) []Comparison {
	if t == nil || result == nil {
		return nil
	}
	comparisons := make([]Comparison, 0, len(t.Benchmarks))
	for _, b := range t.Benchmarks {
		actual := actualValue(b.Metric, result, effective)
		met := actual >= b.Target
		if b.Direction == LowerIsBetter {
			met = actual <= b.Target
		}
		comparisons = append(comparisons, Comparison{
			Metric:    b.Metric,
			Label:     b.Label,
			Target:    b.Target,
			Actual:    actual,
			Delta:     actual - b.Target,
			Direction: b.Direction,
			Met:       met,
		})
	}
	return comparisons
}

func actualValue(metric string, result *projection.Result, effective drivers.CalculationDrivers) float64 {
	switch metric {
	case MetricLTVCACRatio:
		return result.Metrics.LTVCACRatio
	case MetricPaybackPeriod:
		return result.Metrics.PaybackPeriod
	case MetricGrossMargin:
		return last(result.Yearly.GrossMargin)
	case MetricEBITDAMargin:
		return last(result.Yearly.EBITDAMargin)
	case MetricChurn:
		return effective.Churn
	}
	return math.NaN()
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
