package benchmark

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/projection"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantLen   int
		wantError bool
	}{
		{
			name: "valid table",
			data: `
[[benchmark]]
metric = "ltvCacRatio"
label = "LTV:CAC"
target = 3.0
direction = "higher"

[[benchmark]]
metric = "churn"
label = "Churn"
target = 4.5
direction = "lower"
source = "internal survey"
`,
			wantLen: 2,
		},
		{
			name:    "empty table",
			data:    "",
			wantLen: 0,
		},
		{
			name: "unknown metric",
			data: `
[[benchmark]]
metric = "nps"
target = 40.0
direction = "higher"
`,
			wantError: true,
		},
		{
			name: "bad direction",
			data: `
[[benchmark]]
metric = "churn"
target = 5.0
direction = "sideways"
`,
			wantError: true,
		},
		{
			name:      "malformed toml",
			data:      "[[benchmark]\nmetric =",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.data)
			if tt.wantError {
				if err == nil {
					t.Errorf("Parse() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if table.Len() != tt.wantLen {
				t.Errorf("Len() = %v, expected %v", table.Len(), tt.wantLen)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if table.Len() != Default().Len() {
		t.Errorf("Load(\"\") Len() = %v, expected built-in %v", table.Len(), Default().Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Load() of a missing file expected error but got none")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "benchmarks.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != Default().Len() {
		t.Fatalf("Len() = %v, expected %v", loaded.Len(), Default().Len())
	}
	for i, b := range loaded.Benchmarks {
		if b != Default().Benchmarks[i] {
			t.Errorf("Benchmarks[%d] = %+v, expected %+v", i, b, Default().Benchmarks[i])
		}
	}
}

func TestCompare(t *testing.T) {
	result := &projection.Result{
		Yearly: projection.Yearly{
			GrossMargin:  []float64{50, 72},
			EBITDAMargin: []float64{-10, 15},
		},
		Metrics: projection.Metrics{LTVCACRatio: 4, PaybackPeriod: 14},
	}
	effective := drivers.Defaults()
	effective.Churn = 6.5

	got := Default().Compare(result, effective)
	want := map[string]struct {
		actual float64
		met    bool
	}{
		MetricLTVCACRatio:   {4, true},
		MetricPaybackPeriod: {14, false},
		MetricGrossMargin:   {72, true},
		MetricEBITDAMargin:  {15, false},
		MetricChurn:         {6.5, false},
	}

	if len(got) != len(want) {
		t.Fatalf("len(Compare()) = %v, expected %v", len(got), len(want))
	}
	for _, c := range got {
		w := want[c.Metric]
		if c.Actual != w.actual || c.Met != w.met {
			t.Errorf("Compare() %s = (%v, %v), expected (%v, %v)", c.Metric, c.Actual, c.Met, w.actual, w.met)
		}
		if c.Delta != c.Actual-c.Target {
			t.Errorf("Compare() %s delta = %v, expected %v", c.Metric, c.Delta, c.Actual-c.Target)
		}
	}
}

func TestCompareNilTable(t *testing.T) {
	var table *Table
	if got := table.Compare(&projection.Result{}, drivers.Defaults()); got != nil {
		t.Errorf("Compare() on nil table = %v, expected nil", got)
	}
	if table.Len() != 0 {
		t.Errorf("Len() on nil table = %v, expected 0", table.Len())
	}
}
