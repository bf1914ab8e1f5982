package engine

import (
	"context"
	"errors"

	"github.com/iwvelando/business-forecast/pkg/version"
)

var errNoStore = errors.New("no version store configured")

// unavailableStore stands in when the service was built without a store.
type unavailableStore struct{}

func (unavailableStore) Create(context.Context, version.Snapshot) (version.Snapshot, error) {
	return version.Snapshot{}, errNoStore
}

func (unavailableStore) Get(context.Context, string) (version.Snapshot, error) {
	return version.Snapshot{}, errNoStore
}

func (unavailableStore) List(context.Context) ([]version.Snapshot, error) {
	return nil, errNoStore
}

func (unavailableStore) Delete(context.Context, string) error {
	return errNoStore
}
