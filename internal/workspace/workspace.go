// Package workspace holds the last result shown for each scenario key. It is
// a single-writer, single-slot cache: a fresh computation always replaces
// what was there, and a stored version only takes the slot on an explicit
// reload.
package workspace

import (
	"sort"
	"sync"
	"time"

	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/pkg/version"
)

// Origin tells a fresh computation apart from a reloaded version.
type Origin string

const (
	OriginComputed Origin = "computed"
	OriginStored   Origin = "stored"
)

// Entry is the result currently displayed for one scenario key.
type Entry struct {
	Computation *engine.Computation `json:"computation"`
	Origin      Origin              `json:"origin"`
	VersionID   string              `json:"versionId,omitempty"`
	Label       string              `json:"label,omitempty"`
	ComputedAt  time.Time           `json:"computedAt"`
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry), now: time.Now}
}

// Put records a fresh computation, replacing whatever was displayed for its
// scenario key.
func (c *Cache) Put(comp *engine.Computation) Entry {
	e := Entry{
		Computation: comp,
		Origin:      OriginComputed,
		ComputedAt:  c.now().UTC(),
	}
	c.mu.Lock()
	c.entries[comp.ScenarioKey] = e
	c.mu.Unlock()
	return e
}

// Reload displays a stored version for its scenario key.
func (c *Cache) Reload(snap version.Snapshot) Entry {
	payload := snap.Payload
	e := Entry{
		Computation: &engine.Computation{
			Result:      &payload,
			ScenarioKey: snap.ScenarioKey,
			Drivers:     snap.Drivers.Clone(),
			Options:     snap.Options,
		},
		Origin:     OriginStored,
		VersionID:  snap.ID,
		Label:      snap.Label,
		ComputedAt: snap.CreatedAt,
	}
	c.mu.Lock()
	c.entries[snap.ScenarioKey] = e
	c.mu.Unlock()
	return e
}

// Display returns the entry for key, if any.
func (c *Cache) Display(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateVersion drops any entry that displays the given stored version.
func (c *Cache) InvalidateVersion(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.Origin == OriginStored && e.VersionID == id {
			delete(c.entries, key)
		}
	}
}

// Keys lists the cached scenario keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
