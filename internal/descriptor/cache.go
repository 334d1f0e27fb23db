package descriptor

import (
	"fmt"
	"sort"
	"sync"
)

// buildInputs is what a descriptor was requested with. Two requests for the
// same ID must agree on it.
type buildInputs struct {
	kind          string
	messageFormat string
	title         string
	enabled       string
}

type cacheEntry struct {
	d  *Descriptor
	in buildInputs
}

// Cache memoizes descriptors per identifier. It is safe for concurrent use.
type Cache struct {
	mu   sync.Mutex
	byID map[string]cacheEntry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[string]cacheEntry)}
}

func (c *Cache) getOrBuild(id string, in buildInputs, build func() (*Descriptor, error)) (*Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byID[id]; ok {
		if e.in != in {
			return nil, &ConfigError{ID: id, Err: fmt.Errorf("%w: rebuilt as %s with different inputs", ErrConflictingDescriptor, in.kind)}
		}
		return e.d, nil
	}
	d, err := build()
	if err != nil {
		return nil, err
	}
	c.byID[id] = cacheEntry{d: d, in: in}
	return d, nil
}

// Lookup returns the cached descriptor for id.
func (c *Cache) Lookup(id string) (*Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[id]
	return e.d, ok
}

// All returns every cached descriptor sorted by ID.
func (c *Cache) All() []*Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Descriptor, 0, len(c.byID))
	for _, e := range c.byID {
		out = append(out, e.d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
