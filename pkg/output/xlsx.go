package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/pkg/datetime"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// XLSXFormat writes a workbook with a summary sheet and one monthly sheet per
// scenario.
func XLSXFormat(w io.Writer, results []*engine.Computation, startMonth string) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := writeSummary(wb, results, startMonth); err != nil {
		return err
	}
	for _, c := range results {
		if err := writeMonthly(wb, c, startMonth); err != nil {
			return fmt.Errorf("writing sheet for %s: %w", c.ScenarioKey, err)
		}
	}

	_, err := wb.WriteTo(w)
	return err
}

func setRow(wb *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return wb.SetSheetRow(sheet, cell, &values)
}

func writeSummary(wb *excelize.File, results []*engine.Computation, startMonth string) error {
	row := 1
	header := []interface{}{"scenario", "year", "revenue", "cogs", "opex", "grossProfit", "ebitda", "grossMarginPct", "ebitdaMarginPct"}
	if err := setRow(wb, summarySheet, row, header); err != nil {
		return err
	}
	for _, c := range results {
		years, err := datetime.YearLabels(startMonth, c.Result.Years())
		if err != nil {
			return err
		}
		y := c.Result.Yearly
		for i, label := range years {
			row++
			values := []interface{}{c.ScenarioKey, label, y.Revenue[i], y.COGS[i], y.OpEx[i], y.GrossProfit[i], y.EBITDA[i], y.GrossMargin[i], y.EBITDAMargin[i]}
			if err := setRow(wb, summarySheet, row, values); err != nil {
				return err
			}
		}
	}

	row += 2
	if err := setRow(wb, summarySheet, row, []interface{}{"scenario", "breakEvenMonth", "runwayMonths", "ltv", "blendedCac", "ltvCacRatio", "paybackPeriod", "benchmarksUsed"}); err != nil {
		return err
	}
	for _, c := range results {
		row++
		m := c.Result.Metrics
		var breakEven interface{} = ""
		if m.BreakEvenMonth != nil {
			breakEven = *m.BreakEvenMonth
		}
		values := []interface{}{c.ScenarioKey, breakEven, m.RunwayMonths, m.LTV, m.BlendedCAC, m.LTVCACRatio, m.PaybackPeriod, c.BenchmarksUsed}
		if err := setRow(wb, summarySheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func writeMonthly(wb *excelize.File, c *engine.Computation, startMonth string) error {
	sheet := c.ScenarioKey
	if _, err := wb.NewSheet(sheet); err != nil {
		return err
	}
	months, err := datetime.MonthLabels(startMonth, c.Result.HorizonMonths)
	if err != nil {
		return err
	}

	if err := setRow(wb, sheet, 1, []interface{}{"month", "revenue", "cogs", "opex", "grossProfit", "ebitda", "cumulativeEbitda"}); err != nil {
		return err
	}
	m := c.Result.Monthly
	for i, label := range months {
		values := []interface{}{label, m.Revenue[i], m.COGS[i], m.OpEx[i], m.GrossProfit[i], m.EBITDA[i], m.CumulativeEBITDA[i]}
		if err := setRow(wb, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}
