// Package store provides the version snapshot stores: in-memory, SQLite and
// PostgreSQL, plus a wrapper that owns the timeout and retry policy.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/business-forecast/pkg/version"
)

// Memory keeps snapshots in process memory. Records are held encoded so a
// caller can never mutate a stored snapshot through a shared slice.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte), now: time.Now}
}

// Create stores s, stamping an id and creation time when s has none.
func (m *Memory) Create(ctx context.Context, s version.Snapshot) (version.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return version.Snapshot{}, err
	}
	if s.ID == "" {
		s = version.Stamp(s, m.now())
	}
	data, err := json.Marshal(s)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: encoding version: %w", version.ErrEncoding, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[s.ID]; ok {
		return decodeSnapshot(existing)
	}
	m.records[s.ID] = data
	return decodeSnapshot(data)
}

// Get returns one snapshot.
func (m *Memory) Get(ctx context.Context, id string) (version.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return version.Snapshot{}, err
	}
	m.mu.RLock()
	data, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return version.Snapshot{}, fmt.Errorf("%w: %s", version.ErrNotFound, id)
	}
	return decodeSnapshot(data)
}

// List returns all snapshots, newest first.
func (m *Memory) List(ctx context.Context) ([]version.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]version.Snapshot, 0, len(m.records))
	for _, data := range m.records {
		s, err := decodeSnapshot(data)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	version.SortNewestFirst(snapshots)
	return snapshots, nil
}

// Delete removes one snapshot.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("%w: %s", version.ErrNotFound, id)
	}
	delete(m.records, id)
	return nil
}

func decodeSnapshot(data []byte) (version.Snapshot, error) {
	var s version.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: decoding version: %w", version.ErrEncoding, err)
	}
	return s, nil
}
