package discovery

import "sync"

// SeenCache remembers recently seen mints, evicting the oldest past capacity.
type SeenCache struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
	head     int
}

// NewSeenCache creates a cache holding up to capacity mints.
func NewSeenCache(capacity int) *SeenCache {
	if capacity <= 0 {
		capacity = 10_000
	}
	return &SeenCache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// MarkNew records mint and reports whether it was not seen before.
func (c *SeenCache) MarkNew(mint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[mint]; ok {
		return false
	}

	if len(c.order) < c.capacity {
		c.order = append(c.order, mint)
	} else {
		delete(c.seen, c.order[c.head])
		c.order[c.head] = mint
		c.head = (c.head + 1) % c.capacity
	}
	c.seen[mint] = struct{}{}
	return true
}

// Len returns the number of cached mints.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
