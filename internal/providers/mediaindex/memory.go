package mediaindex

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/natefinch/atomic"
)

// MemoryCatalog keeps entries in memory and optionally snapshots them to a JSON file after
// every change.
type MemoryCatalog struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	snapshot string
}

// NewMemoryCatalog loads snapshot when it exists. An empty snapshot path disables persistence.
func NewMemoryCatalog(snapshot string) (*MemoryCatalog, error) {
	c := &MemoryCatalog{entries: make(map[string]Entry), snapshot: snapshot}
	if snapshot == "" {
		return c, nil
	}

	data, err := os.ReadFile(snapshot)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var stored []Entry
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", snapshot, err)
	}
	for _, e := range stored {
		c.entries[e.ID] = e
	}
	return c, nil
}

// Insert implements Catalog
func (c *MemoryCatalog) Insert(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[e.ID]; ok {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	c.entries[e.ID] = e
	return c.saveLocked()
}

// Update implements Catalog
func (c *MemoryCatalog) Update(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[e.ID]; !ok {
		return fmt.Errorf("entry %s does not exist", e.ID)
	}
	c.entries[e.ID] = e
	return c.saveLocked()
}

// Get implements Catalog
func (c *MemoryCatalog) Get(_ context.Context, id string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Delete implements Catalog
func (c *MemoryCatalog) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false, nil
	}
	delete(c.entries, id)
	return true, c.saveLocked()
}

// List implements Catalog
func (c *MemoryCatalog) List(_ context.Context, f Filter) ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if f.match(e) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

// Close implements Catalog
func (c *MemoryCatalog) Close() error { return nil }

func (c *MemoryCatalog) saveLocked() error {
	if c.snapshot == "" {
		return nil
	}
	stored := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		stored = append(stored, e)
	}
	sortEntries(stored)

	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := atomic.WriteFile(c.snapshot, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// sortEntries matches the Postgres catalog's ORDER BY relative_path, display_name, id
func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.RelativePath, b.RelativePath),
			cmp.Compare(a.DisplayName, b.DisplayName),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
