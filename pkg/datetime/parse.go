// Package datetime provides month arithmetic for labelling projection months.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/business-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the month format used for start months and labels.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// MonthLabels returns one YYYY-MM label per projected month starting at
// start. An empty start yields ordinal labels ("M1", "M2", ...).
func MonthLabels(start string, months int) ([]string, error) {
	if months < 0 {
		return nil, fmt.Errorf("months cannot be negative: %d", months)
	}
	labels := make([]string, months)
	if start == "" {
		for i := range labels {
			labels[i] = fmt.Sprintf("M%d", i+1)
		}
		return labels, nil
	}

	startT, err := time.Parse(DateTimeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start month %q: %w", start, err)
	}
	for i := range labels {
		labels[i] = startT.AddDate(0, i, 0).Format(DateTimeLayout)
	}
	return labels, nil
}

// YearLabels returns one label per projected year ("Y1", "Y2", ...), or the
// calendar span of each year when start is set (e.g. "2026-01..2026-12").
func YearLabels(start string, years int) ([]string, error) {
	labels := make([]string, years)
	if start == "" {
		for i := range labels {
			labels[i] = fmt.Sprintf("Y%d", i+1)
		}
		return labels, nil
	}

	for i := range labels {
		first, err := OffsetDate(start, DateTimeLayout, i*constants.MonthsPerYear)
		if err != nil {
			return nil, fmt.Errorf("invalid start month %q: %w", start, err)
		}
		last, err := OffsetDate(first, DateTimeLayout, constants.MonthsPerYear-1)
		if err != nil {
			return nil, err
		}
		labels[i] = first + ".." + last
	}
	return labels, nil
}
