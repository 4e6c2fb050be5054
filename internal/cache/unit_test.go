package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/pkg/core"
)

func TestUnitTypeCache_PutAndGet(t *testing.T) {
	c := NewUnitTypeCache()
	c.Put(core.UnitType{ID: "u-1", TypeName: "F-14B", KillCategory: core.KillA2A})

	u, ok := c.Get("u-1")
	require.True(t, ok)
	assert.Equal(t, "F-14B", u.TypeName)

	u, ok = c.GetByTypeName("F-14B")
	require.True(t, ok)
	assert.Equal(t, "u-1", u.ID)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	_, ok = c.GetByTypeName("missing")
	assert.False(t, ok)
}

func TestUnitTypeCache_PutSkipsEmptyID(t *testing.T) {
	c := NewUnitTypeCache()
	c.Put(core.UnitType{TypeName: "unsaved"})
	assert.Equal(t, 0, c.Len())
}

func TestUnitTypeCache_GetMany(t *testing.T) {
	c := NewUnitTypeCache()
	c.Put(core.UnitType{ID: "a", TypeName: "A"}, core.UnitType{ID: "b", TypeName: "B"})

	found, missing := c.GetMany([]string{"a", "x", "b", "x", "a"})
	assert.Len(t, found, 2)
	assert.Equal(t, []string{"x"}, missing)
}

func TestUnitTypeCache_Reset(t *testing.T) {
	c := NewUnitTypeCache()
	c.Put(core.UnitType{ID: "a", TypeName: "A"})
	c.Reset()
	assert.Equal(t, 0, c.Len())
	_, ok := c.GetByTypeName("A")
	assert.False(t, ok)
}

func TestUnitTypeCache_ConcurrentAccess(t *testing.T) {
	c := NewUnitTypeCache()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("u-%d", n)
			c.Put(core.UnitType{ID: id, TypeName: "T" + id})
		}(i)
		go func(n int) {
			defer wg.Done()
			c.Get(fmt.Sprintf("u-%d", n))
			c.GetMany([]string{"u-1", "u-2"})
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
