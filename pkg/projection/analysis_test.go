package projection

import "testing"

func TestBreakEvenMonth(t *testing.T) {
	tests := []struct {
		name         string
		ebitda       []float64
		startingCash float64
		expected     int // 0 means nil
	}{
		{
			name:         "Strictly positive increasing from month 0",
			ebitda:       []float64{10, 20, 30, 40},
			startingCash: 0,
			expected:     1,
		},
		{
			name:         "Turns positive in month 4",
			ebitda:       []float64{-30, -20, -10, 5, 15},
			startingCash: 100,
			expected:     4,
		},
		{
			name:         "Positive cash while burning does not qualify",
			ebitda:       []float64{-10, -10, 5},
			startingCash: 100,
			expected:     3,
		},
		{
			name:         "Positive month while cash still negative does not qualify",
			ebitda:       []float64{100, 100, 100, 100},
			startingCash: -250,
			expected:     3,
		},
		{
			name:         "Never reached",
			ebitda:       []float64{-1, -2, -3},
			startingCash: 1000,
			expected:     0,
		},
		{
			name:         "Zero EBITDA is not positive",
			ebitda:       []float64{0, 0},
			startingCash: 1000,
			expected:     0,
		},
		{
			name:         "Empty series",
			ebitda:       nil,
			startingCash: 1000,
			expected:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BreakEvenMonth(tt.ebitda, tt.startingCash)
			if tt.expected == 0 {
				if got != nil {
					t.Errorf("BreakEvenMonth() = %d, expected nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("BreakEvenMonth() = nil, expected %d", tt.expected)
			}
			if *got != tt.expected {
				t.Errorf("BreakEvenMonth() = %d, expected %d", *got, tt.expected)
			}
		})
	}
}

func TestRunwayMonths(t *testing.T) {
	burn := func(amount float64, months int) []float64 {
		s := make([]float64, months)
		for i := range s {
			s[i] = amount
		}
		return s
	}

	tests := []struct {
		name         string
		ebitda       []float64
		startingCash float64
		expected     int
	}{
		{name: "Profitable average gives full horizon", ebitda: burn(100, 36), startingCash: 0, expected: 36},
		{name: "Zero average gives full horizon", ebitda: burn(0, 36), startingCash: 0, expected: 36},
		{name: "Burn of 50k with 500k cash", ebitda: burn(-50000, 36), startingCash: 500000, expected: 10},
		{name: "Rounds to nearest month", ebitda: burn(-40000, 36), startingCash: 500000, expected: 13},
		{name: "Capped at horizon", ebitda: burn(-1000, 36), startingCash: 500000, expected: 36},
		{name: "Negative cash floors at zero", ebitda: burn(-1000, 36), startingCash: -5000, expected: 0},
		{name: "Short horizon averages what exists", ebitda: burn(-100, 6), startingCash: 300, expected: 3},
		{name: "Empty series", ebitda: nil, startingCash: 100, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RunwayMonths(tt.ebitda, tt.startingCash); got != tt.expected {
				t.Errorf("RunwayMonths() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestRunwayUsesFirstTwelveMonths(t *testing.T) {
	ebitda := make([]float64, 36)
	for i := range ebitda {
		if i < 12 {
			ebitda[i] = -10000
		} else {
			ebitda[i] = 1000000
		}
	}
	if got := RunwayMonths(ebitda, 60000); got != 6 {
		t.Errorf("RunwayMonths() = %d, expected 6", got)
	}
}
