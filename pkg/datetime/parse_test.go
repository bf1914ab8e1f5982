package datetime

import (
	"testing"
)

func TestMustParseTime(t *testing.T) {
	result := MustParseTime(DateTimeLayout, "2025-01")
	if result.Format(DateTimeLayout) != "2025-01" {
		t.Errorf("MustParseTime() = %s, expected 2025-01", result.Format(DateTimeLayout))
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("MustParseTime() expected panic for invalid date")
		}
	}()
	MustParseTime(DateTimeLayout, "not-a-date")
}

func TestOffsetDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
		wantErr  bool
	}{
		{name: "Add one month", date: "2025-01", months: 1, expected: "2025-02"},
		{name: "Cross year boundary", date: "2025-12", months: 1, expected: "2026-01"},
		{name: "Add a full year", date: "2025-06", months: 12, expected: "2026-06"},
		{name: "Invalid date", date: "bad", months: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, DateTimeLayout, tt.months)
			if tt.wantErr {
				if err == nil {
					t.Errorf("OffsetDate() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("OffsetDate() unexpected error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %s, expected %s", result, tt.expected)
			}
		})
	}
}

func TestMonthLabels(t *testing.T) {
	labels, err := MonthLabels("2026-11", 3)
	if err != nil {
		t.Fatalf("MonthLabels() unexpected error = %v", err)
	}
	expected := []string{"2026-11", "2026-12", "2027-01"}
	for i := range expected {
		if labels[i] != expected[i] {
			t.Errorf("MonthLabels()[%d] = %s, expected %s", i, labels[i], expected[i])
		}
	}

	ordinal, err := MonthLabels("", 2)
	if err != nil {
		t.Fatalf("MonthLabels() unexpected error = %v", err)
	}
	if ordinal[0] != "M1" || ordinal[1] != "M2" {
		t.Errorf("MonthLabels() ordinal = %v, expected [M1 M2]", ordinal)
	}

	if _, err := MonthLabels("2026/01", 3); err == nil {
		t.Error("MonthLabels() expected error for malformed start month")
	}
}

func TestYearLabels(t *testing.T) {
	labels, err := YearLabels("2026-01", 2)
	if err != nil {
		t.Fatalf("YearLabels() unexpected error = %v", err)
	}
	if labels[0] != "2026-01..2026-12" || labels[1] != "2027-01..2027-12" {
		t.Errorf("YearLabels() = %v", labels)
	}

	ordinal, _ := YearLabels("", 3)
	if ordinal[2] != "Y3" {
		t.Errorf("YearLabels() ordinal = %v, expected Y3 last", ordinal)
	}
}
