package layout

import (
	"sync"

	"odinc/internal/types"
)

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

type cache struct {
	mu     sync.RWMutex
	byType map[types.TypeID]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]cacheEntry, 256)}
}

func (c *cache) get(id types.TypeID) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.byType[id]
	return l, ok
}

func (c *cache) put(id types.TypeID, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byType[id] = e
}

// forget drops a memoised entry; records are re-laid out once their body is set.
func (c *cache) forget(id types.TypeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byType, id)
}
