package validation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is the family of all numeric input validation failures.
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes why one named input was rejected.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds a FieldError.
func Invalid(field, format string, args ...interface{}) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Finite rejects NaN and infinities.
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, "must be a finite number, got %v", v)
	}
	return nil
}

// NonNegative rejects non-finite and negative values.
func NonNegative(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return Invalid(field, "cannot be negative, got %v", v)
	}
	return nil
}

// Positive rejects non-finite values and values <= 0. Used for divisors.
func Positive(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return Invalid(field, "must be greater than zero, got %v", v)
	}
	return nil
}

// Range rejects non-finite values and values outside [min, max].
func Range(field string, v, min, max float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < min || v > max {
		return Invalid(field, "must be between %v and %v, got %v", min, max, v)
	}
	return nil
}

// Series applies check to every element and requires exactly want entries.
func Series(field string, values []float64, want int, check func(string, float64) error) error {
	if len(values) != want {
		return Invalid(field, "must have exactly %d yearly entries, got %d", want, len(values))
	}
	for i, v := range values {
		if err := check(fmt.Sprintf("%s.%d", field, i+1), v); err != nil {
			return err
		}
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
