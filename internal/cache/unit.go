package cache

import (
	"sync"

	"github.com/wingops/debrief/pkg/core"
)

// UnitTypeCache keeps catalog entries after their first read. The catalog is
// append-only, so entries are never invalidated.
type UnitTypeCache struct {
	mu         sync.RWMutex
	byID       map[string]core.UnitType
	byTypeName map[string]string
}

// NewUnitTypeCache creates an empty UnitTypeCache.
func NewUnitTypeCache() *UnitTypeCache {
	return &UnitTypeCache{
		byID:       make(map[string]core.UnitType),
		byTypeName: make(map[string]string),
	}
}

// Get returns the unit type with the given id.
func (c *UnitTypeCache) Get(id string) (core.UnitType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.byID[id]
	return u, ok
}

// GetByTypeName returns the unit type with the given internal name.
func (c *UnitTypeCache) GetByTypeName(typeName string) (core.UnitType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byTypeName[typeName]
	if !ok {
		return core.UnitType{}, false
	}
	u, ok := c.byID[id]
	return u, ok
}

// GetMany splits ids into cached entries and the ids still to be loaded.
// Duplicate ids are reported once.
func (c *UnitTypeCache) GetMany(ids []string) (map[string]core.UnitType, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make(map[string]core.UnitType, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if u, ok := c.byID[id]; ok {
			found[id] = u
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// Put stores units.
func (c *UnitTypeCache) Put(units ...core.UnitType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range units {
		if u.ID == "" {
			continue
		}
		c.byID[u.ID] = u
		c.byTypeName[u.TypeName] = u.ID
	}
}

// Len returns the number of cached unit types.
func (c *UnitTypeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Reset clears the cache.
func (c *UnitTypeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]core.UnitType)
	c.byTypeName = make(map[string]string)
}
