package cache

import (
	"sync"

	"github.com/wingops/debrief/pkg/core"
)

// PilotCache maps pilot ids to roster entries already read from the database.
type PilotCache struct {
	mu     sync.RWMutex
	pilots map[string]core.Pilot
}

// NewPilotCache creates a new PilotCache
func NewPilotCache() *PilotCache {
	return &PilotCache{
		pilots: make(map[string]core.Pilot),
	}
}

// Get retrieves a pilot by id
func (c *PilotCache) Get(id string) (core.Pilot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pilots[id]
	return p, ok
}

// Set stores a pilot
func (c *PilotCache) Set(p core.Pilot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pilots[p.ID] = p
}

// Delete removes a pilot by id
func (c *PilotCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pilots, id)
}

// Reset clears all pilots from the cache
func (c *PilotCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pilots = make(map[string]core.Pilot)
}
