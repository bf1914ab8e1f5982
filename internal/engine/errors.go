package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/version"
)

var (
	// ErrScenarioNotFound is returned for a scenario key that is absent from
	// the table or inactive. There is no fallback scenario.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrStore wraps every failure crossing the version store or scenario
	// source boundary. These may be transient.
	ErrStore = errors.New("store failure")

	// ErrInvalidInput is the validation family shared with the drivers package.
	ErrInvalidInput = drivers.ErrInvalidInput
)

// IsRetryable reports whether err came from the store boundary and might
// succeed on a later attempt. Validation, lookup and encoding errors are
// deterministic and never retryable.
func IsRetryable(err error) bool {
	if err == nil || !errors.Is(err, ErrStore) {
		return false
	}
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, version.ErrNotFound) &&
		!errors.Is(err, version.ErrEncoding)
}

func storeError(op string, err error) error {
	if errors.Is(err, version.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
