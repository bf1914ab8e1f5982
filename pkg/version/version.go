// Package version defines immutable, named snapshots of a computed projection
// and the contract for storing them.
package version

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/projection"
)

// ErrNotFound is returned when a snapshot id does not exist.
var ErrNotFound = errors.New("version not found")

// ErrEncoding marks a snapshot that could not be encoded or decoded. It is
// deterministic, so stores never retry it.
var ErrEncoding = errors.New("version encoding")

// Snapshot is a persisted projection plus the inputs that produced it.
// Snapshots are append-only: they are created, read and deleted, never
// updated.
type Snapshot struct {
	ID          string                     `json:"id"`
	ScenarioKey string                     `json:"scenarioKey"`
	Label       string                     `json:"label"`
	Summary     string                     `json:"summary,omitempty"`
	Payload     projection.Result          `json:"forecastPayload"`
	Drivers     drivers.CalculationDrivers `json:"drivers"`
	Options     projection.Options         `json:"options"`
	CreatedBy   string                     `json:"createdBy,omitempty"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

// Store persists snapshots. Implementations own their own timeout and retry
// policy; List returns newest first.
type Store interface {
	Create(ctx context.Context, s Snapshot) (Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// Stamp assigns a fresh identifier and creation time. Stores call it inside
// Create so callers never choose ids.
func Stamp(s Snapshot, now time.Time) Snapshot {
	s.ID = uuid.NewString()
	s.CreatedAt = now.UTC().Truncate(time.Microsecond)
	s.Label = strings.TrimSpace(s.Label)
	return s
}

// SortNewestFirst orders snapshots by creation time, newest first, breaking
// ties by id so the order is stable.
func SortNewestFirst(snapshots []Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		if !snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
		}
		return snapshots[i].ID > snapshots[j].ID
	})
}

// Find returns the snapshot with the given id from a listed slice.
func Find(snapshots []Snapshot, id string) *Snapshot {
	for i := range snapshots {
		if snapshots[i].ID == id {
			return &snapshots[i]
		}
	}
	return nil
}
