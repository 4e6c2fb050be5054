package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/pkg/core"
)

func TestPilotCache_SetAndGet(t *testing.T) {
	cache := NewPilotCache()

	cache.Set(core.Pilot{ID: "p-1", Callsign: "Maverick"})

	p, ok := cache.Get("p-1")
	require.True(t, ok, "expected to find p-1")
	assert.Equal(t, "Maverick", p.Callsign)
}

func TestPilotCache_Get_NotFound(t *testing.T) {
	cache := NewPilotCache()

	_, ok := cache.Get("nonexistent")
	assert.False(t, ok)
}

func TestPilotCache_DeleteAndReset(t *testing.T) {
	cache := NewPilotCache()
	cache.Set(core.Pilot{ID: "p-1"})
	cache.Set(core.Pilot{ID: "p-2"})

	cache.Delete("p-1")
	_, ok := cache.Get("p-1")
	assert.False(t, ok)
	_, ok = cache.Get("p-2")
	assert.True(t, ok)

	cache.Reset()
	_, ok = cache.Get("p-2")
	assert.False(t, ok)
}
