// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/datetime"
	"github.com/iwvelando/business-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders results in the named format. startMonth is an optional
// YYYY-MM label for the first projected month.
func Write(w io.Writer, outputFormat string, results []*engine.Computation, startMonth string) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, results, startMonth)
	case constants.OutputFormatCSV:
		return CsvFormat(w, results, startMonth)
	case constants.OutputFormatJSON:
		return JSONFormat(w, results)
	case constants.OutputFormatXLSX:
		return XLSXFormat(w, results, startMonth)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []*engine.Computation, startMonth string) error {
	p := message.NewPrinter(language.English)
	for i, c := range results {
		months, err := datetime.MonthLabels(startMonth, c.Result.HorizonMonths)
		if err != nil {
			return err
		}
		years, err := datetime.YearLabels(startMonth, c.Result.Years())
		if err != nil {
			return err
		}

		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if c.ScenarioLabel == "" {
			_, _ = fmt.Fprintf(w, "--- Results for scenario %s ---\n", c.ScenarioKey)
		} else {
			_, _ = fmt.Fprintf(w, "--- Results for scenario %s (%s) ---\n", c.ScenarioLabel, c.ScenarioKey)
		}
		_, _ = fmt.Fprintf(w, "Month   | Revenue         | COGS            | OpEx            | EBITDA          | Cumulative\n")
		_, _ = fmt.Fprintf(w, "_____   | _______         | ____            | ____            | ______          | __________\n")
		m := c.Result.Monthly
		for j, label := range months {
			_, _ = p.Fprintf(w, "%-7s | %15.2f | %15.2f | %15.2f | %15.2f | %15.2f\n",
				label, m.Revenue[j], m.COGS[j], m.OpEx[j], m.EBITDA[j], m.CumulativeEBITDA[j])
		}

		_, _ = fmt.Fprintf(w, "\nYear                 | Revenue         | EBITDA          | Gross margin | EBITDA margin\n")
		y := c.Result.Yearly
		for j, label := range years {
			_, _ = p.Fprintf(w, "%-20s | %15.2f | %15.2f | %12s | %s\n",
				label, y.Revenue[j], y.EBITDA[j], format.Percent(y.GrossMargin[j]), format.Percent(y.EBITDAMargin[j]))
		}

		met := c.Result.Metrics
		breakEven := "not reached"
		if met.BreakEvenMonth != nil {
			breakEven = months[*met.BreakEvenMonth-1]
		}
		_, _ = fmt.Fprintf(w, "\nBreak-even month: %s\n", breakEven)
		_, _ = fmt.Fprintf(w, "Runway: %d months\n", met.RunwayMonths)
		_, _ = fmt.Fprintf(w, "LTV: %s | Blended CAC: %s | LTV:CAC %s | Payback %.1f months\n",
			format.Currency(met.LTV), format.Currency(met.BlendedCAC), format.Ratio(met.LTVCACRatio), met.PaybackPeriod)

		if len(c.Benchmarks) > 0 {
			_, _ = fmt.Fprintf(w, "\nBenchmarks (%d used)\n", c.BenchmarksUsed)
			for _, b := range c.Benchmarks {
				status := "below"
				if b.Met {
					status = "meets"
				}
				_, _ = p.Fprintf(w, "  %-30s actual %10.2f target %10.2f  %s\n", b.Label, b.Actual, b.Target, status)
			}
		}
	}
	return nil
}

var csvSeries = []string{"revenue", "cogs", "opex", "grossProfit", "ebitda", "cumulativeEbitda"}

// CsvFormat outputs the monthly series of every scenario side by side in
// comma-separated value format.
func CsvFormat(w io.Writer, results []*engine.Computation, startMonth string) error {
	if len(results) == 0 {
		return nil
	}
	// All results share a horizon, so the timeline comes from the first.
	months, err := datetime.MonthLabels(startMonth, results[0].Result.HorizonMonths)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"month"}
	for _, c := range results {
		for _, name := range csvSeries {
			header = append(header, fmt.Sprintf("%s (%s)", name, c.ScenarioKey))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, label := range months {
		row := []string{label}
		for _, c := range results {
			if c.Result.HorizonMonths != len(months) {
				return fmt.Errorf("scenario %s has %d months, expected %d", c.ScenarioKey, c.Result.HorizonMonths, len(months))
			}
			m := c.Result.Monthly
			for _, v := range []float64{m.Revenue[i], m.COGS[i], m.OpEx[i], m.GrossProfit[i], m.EBITDA[i], m.CumulativeEBITDA[i]} {
				row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the computations, unrounded, as indented JSON.
func JSONFormat(w io.Writer, results []*engine.Computation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
