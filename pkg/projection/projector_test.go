package projection

import (
	"errors"
	"reflect"
	"testing"

	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/scenario"
	"github.com/iwvelando/business-forecast/pkg/testutil"
)

func runReference(t *testing.T, d drivers.CalculationDrivers) *Result {
	t.Helper()
	result, err := Run(d, testutil.NeutralScenario(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	return result
}

func TestRunDeterministic(t *testing.T) {
	for _, sc := range scenario.DefaultConfigs() {
		t.Run(sc.ScenarioKey, func(t *testing.T) {
			a, err := Run(testutil.ReferenceDrivers(), sc, DefaultOptions())
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			b, err := Run(testutil.ReferenceDrivers(), sc, DefaultOptions())
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(a, b) {
				t.Error("Run() produced different results for identical inputs")
			}
		})
	}
}

func TestCumulativeInvariant(t *testing.T) {
	for _, sc := range scenario.DefaultConfigs() {
		t.Run(sc.ScenarioKey, func(t *testing.T) {
			result, err := Run(testutil.ReferenceDrivers(), sc, DefaultOptions())
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			m := result.Monthly
			if m.CumulativeEBITDA[0] != m.EBITDA[0] {
				t.Errorf("cumulative[0] = %v, expected %v", m.CumulativeEBITDA[0], m.EBITDA[0])
			}
			for i := 1; i < len(m.EBITDA); i++ {
				if m.CumulativeEBITDA[i] != m.CumulativeEBITDA[i-1]+m.EBITDA[i] {
					t.Errorf("cumulative[%d] = %v, expected %v", i, m.CumulativeEBITDA[i], m.CumulativeEBITDA[i-1]+m.EBITDA[i])
				}
			}
		})
	}
}

func TestYearlyRollupInvariant(t *testing.T) {
	result := runReference(t, testutil.ReferenceDrivers())

	sum := func(values []float64, year int) float64 {
		total := 0.0
		for _, v := range values[12*year : 12*year+12] {
			total += v
		}
		return total
	}

	if len(result.Yearly.Revenue) != 3 || len(result.Monthly.Revenue) != 36 {
		t.Fatalf("unexpected shape: %d years, %d months", len(result.Yearly.Revenue), len(result.Monthly.Revenue))
	}

	for y := 0; y < 3; y++ {
		checks := []struct {
			name   string
			yearly float64
			month  []float64
		}{
			{"revenue", result.Yearly.Revenue[y], result.Monthly.Revenue},
			{"cogs", result.Yearly.COGS[y], result.Monthly.COGS},
			{"opex", result.Yearly.OpEx[y], result.Monthly.OpEx},
			{"gross profit", result.Yearly.GrossProfit[y], result.Monthly.GrossProfit},
			{"ebitda", result.Yearly.EBITDA[y], result.Monthly.EBITDA},
		}
		for _, c := range checks {
			if expected := sum(c.month, y); c.yearly != expected {
				t.Errorf("year %d %s = %v, expected %v", y+1, c.name, c.yearly, expected)
			}
		}

		expectedMargin := result.Yearly.GrossProfit[y] / result.Yearly.Revenue[y] * 100
		if !testutil.AlmostEqual(result.Yearly.GrossMargin[y], expectedMargin, 1e-9) {
			t.Errorf("year %d gross margin = %v, expected %v", y+1, result.Yearly.GrossMargin[y], expectedMargin)
		}
		expectedEbitdaMargin := result.Yearly.EBITDA[y] / result.Yearly.Revenue[y] * 100
		if !testutil.AlmostEqual(result.Yearly.EBITDAMargin[y], expectedEbitdaMargin, 1e-9) {
			t.Errorf("year %d ebitda margin = %v, expected %v", y+1, result.Yearly.EBITDAMargin[y], expectedEbitdaMargin)
		}
	}
}

func TestReferenceScenario(t *testing.T) {
	d := testutil.ReferenceDrivers()
	d.PremiumAdoption = 0
	result := runReference(t, d)

	if !testutil.AlmostEqual(result.Monthly.Revenue[0], 55000, 1e-9) {
		t.Errorf("month 0 revenue = %v, expected 55000 before premium uplift", result.Monthly.Revenue[0])
	}

	withPremium := runReference(t, testutil.ReferenceDrivers())
	if !testutil.AlmostEqual(withPremium.Monthly.Revenue[0], 55000*1.03, 1e-9) {
		t.Errorf("month 0 revenue = %v, expected %v with 20%% adoption", withPremium.Monthly.Revenue[0], 55000*1.03)
	}

	be := withPremium.Metrics.BreakEvenMonth
	if be == nil {
		t.Fatal("break-even month is nil, expected a month within the horizon")
	}
	if withPremium.Monthly.EBITDA[*be-1] <= 0 {
		t.Errorf("EBITDA at break-even month %d = %v, expected positive", *be, withPremium.Monthly.EBITDA[*be-1])
	}
	if 500000+withPremium.Monthly.CumulativeEBITDA[*be-1] <= 0 {
		t.Errorf("cash at break-even month %d is not positive", *be)
	}
}

func TestMonthZeroBreakdown(t *testing.T) {
	result := runReference(t, testutil.ReferenceDrivers())

	// revenue 55000 * 1.03; hosting 1600 accounts * 0.5; inference (1600 + 1000) * 0.002; fees 2.9%
	revenue := 56650.0
	cogs := 800 + 5.2 + revenue*0.029
	opex := 65000.0

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"revenue", result.Monthly.Revenue[0], revenue},
		{"cogs", result.Monthly.COGS[0], cogs},
		{"opex", result.Monthly.OpEx[0], opex},
		{"gross profit", result.Monthly.GrossProfit[0], revenue - cogs},
		{"ebitda", result.Monthly.EBITDA[0], revenue - cogs - opex},
		{"month 1 revenue", result.Monthly.Revenue[1], (40000*1.08*0.95 + 15000) * 1.03},
		{"month 12 opex", result.Monthly.OpEx[12], 900000.0/12 + 15000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !testutil.AlmostEqual(tt.got, tt.expected, 1e-6) {
				t.Errorf("%s = %v, expected %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestZeroRatesProduceFiniteFlatSeries(t *testing.T) {
	d := testutil.ReferenceDrivers()
	d.CreatorGrowth = 0
	d.Churn = 0
	d.ARPU = 0
	result := runReference(t, d)

	for name, series := range map[string][]float64{
		"revenue": result.Monthly.Revenue,
		"cogs":    result.Monthly.COGS,
		"opex":    result.Monthly.OpEx,
		"ebitda":  result.Monthly.EBITDA,
	} {
		if !testutil.AllFinite(series) {
			t.Errorf("%s contains non-finite values", name)
		}
	}

	for month := 1; month < 12; month++ {
		if result.Monthly.Revenue[month] != result.Monthly.Revenue[0] {
			t.Errorf("revenue[%d] = %v, expected flat %v", month, result.Monthly.Revenue[month], result.Monthly.Revenue[0])
		}
	}
	if result.Metrics.LTV != 0 {
		t.Errorf("LTV = %v, expected 0 with zero ARPU", result.Metrics.LTV)
	}
}

func TestScenarioAppliedToInputsOnly(t *testing.T) {
	d := testutil.ReferenceDrivers()
	for _, sc := range scenario.DefaultConfigs() {
		t.Run(sc.ScenarioKey, func(t *testing.T) {
			direct, err := Run(d, sc, DefaultOptions())
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			viaInputs, err := Run(scenario.Apply(d, sc), testutil.NeutralScenario(), DefaultOptions())
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(direct, viaInputs) {
				t.Error("scenario result differs from projecting pre-adjusted drivers with a neutral scenario")
			}
		})
	}
}

func TestScenarioOrdering(t *testing.T) {
	table, err := scenario.NewTable(scenario.DefaultConfigs())
	if err != nil {
		t.Fatalf("NewTable() unexpected error = %v", err)
	}
	revenue := make(map[string]float64)
	for _, sc := range table.Active() {
		result, err := Run(testutil.ReferenceDrivers(), sc, DefaultOptions())
		if err != nil {
			t.Fatalf("Run(%s) unexpected error = %v", sc.ScenarioKey, err)
		}
		revenue[sc.ScenarioKey] = result.Yearly.Revenue[2]
	}
	if !(revenue["conservative"] < revenue["base"] && revenue["base"] < revenue["aggressive"]) {
		t.Errorf("year 3 revenue not ordered conservative < base < aggressive: %v", revenue)
	}
}

func TestRunInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		mutate func(*drivers.CalculationDrivers)
		sc     scenario.Config
	}{
		{name: "Negative horizon", opts: Options{HorizonMonths: -12, FillRateBaseline: 65, CPMBaseline: 22}},
		{name: "Partial year horizon", opts: Options{HorizonMonths: 30, FillRateBaseline: 65, CPMBaseline: 22}},
		{name: "Zero CPM baseline", opts: Options{HorizonMonths: 36, FillRateBaseline: 65, CPMBaseline: 0}},
		{name: "Horizon longer than yearly drivers", opts: Options{HorizonMonths: 48, FillRateBaseline: 65, CPMBaseline: 22}},
		{name: "Negative churn", opts: DefaultOptions(), mutate: func(d *drivers.CalculationDrivers) { d.Churn = -1 }},
		{
			name:   "Scenario pushes growth below -100",
			opts:   DefaultOptions(),
			mutate: func(d *drivers.CalculationDrivers) { d.CreatorGrowth = -50 },
			sc:     scenario.Config{ScenarioKey: "crash", Growth: 3, Churn: 1, CAC: 1, Impressions: 1, CPM: 1, FillRate: 1},
		},
		{name: "Growth overflows projection", opts: DefaultOptions(), mutate: func(d *drivers.CalculationDrivers) { d.CreatorGrowth = 1e12 }},
		{name: "Revenue overflows projection", opts: DefaultOptions(), mutate: func(d *drivers.CalculationDrivers) { d.SubscriptionRevenue[2] = 1.7e308 }},
		{name: "ARPU overflows lifetime value", opts: DefaultOptions(), mutate: func(d *drivers.CalculationDrivers) { d.ARPU, d.Churn = 1.7e308, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.ReferenceDrivers()
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			sc := tt.sc
			if sc.ScenarioKey == "" {
				sc = testutil.NeutralScenario()
			}
			result, err := Run(d, sc, tt.opts)
			if !errors.Is(err, drivers.ErrInvalidInput) {
				t.Errorf("Run() error = %v, expected ErrInvalidInput", err)
			}
			if result != nil {
				t.Error("Run() returned a partial result alongside an error")
			}
		})
	}
}

func TestLongerHorizon(t *testing.T) {
	d := testutil.ReferenceDrivers()
	d.SubscriptionRevenue = append(d.SubscriptionRevenue, 3600000)
	d.AdvertisingRevenue = append(d.AdvertisingRevenue, 2400000)
	d.Impressions = append(d.Impressions, 120000000)
	d.BaseOpex = append(d.BaseOpex, 1500000)

	opts := DefaultOptions()
	opts.HorizonMonths = 48
	result, err := Run(d, testutil.NeutralScenario(), opts)
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	if len(result.Monthly.EBITDA) != 48 || result.Years() != 4 {
		t.Errorf("Run() shape = %d months / %d years, expected 48 / 4", len(result.Monthly.EBITDA), result.Years())
	}
	if result.Metrics.RunwayMonths > 48 {
		t.Errorf("runway = %d, expected capped at 48", result.Metrics.RunwayMonths)
	}
}
