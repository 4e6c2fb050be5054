package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/internal/database/dbtest"
	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/pkg/core"
	"gorm.io/gorm"
)

func newCatalog(t *testing.T) (*Catalog, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	c, err := New(Dependencies{DB: db})
	require.NoError(t, err)
	return c, db
}

func seedUnits(t *testing.T, c *Catalog) {
	t.Helper()
	_, err := c.Seed(context.Background(), []core.UnitType{
		{TypeName: "MiG-29A", DisplayName: "MiG-29A Fulcrum", Category: core.UnitAirplane, KillCategory: core.KillA2A, Active: true},
		{TypeName: "Su-27", DisplayName: "Su-27 Flanker", Category: core.UnitAirplane, KillCategory: core.KillA2A, Active: true},
		{TypeName: "An-26B", DisplayName: "An-26B Curl", Category: core.UnitAirplane, KillCategory: core.KillA2A, Active: true},
		{TypeName: "MiG-15", DisplayName: "MiG-15 Fagot", Category: core.UnitAirplane, KillCategory: core.KillA2A, Active: false},
		{TypeName: "T-72B", DisplayName: "T-72B", Category: core.UnitGround, KillCategory: core.KillA2G, Active: true},
	})
	require.NoError(t, err)
}

func idOf(t *testing.T, db *gorm.DB, typeName string) string {
	t.Helper()
	var row model.UnitType
	require.NoError(t, db.Where("type_name = ?", typeName).First(&row).Error)
	return row.ID
}

func TestFindByID(t *testing.T) {
	c, db := newCatalog(t)
	seedUnits(t, c)
	id := idOf(t, db, "T-72B")

	u, err := c.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "T-72B", u.TypeName)
	assert.Equal(t, core.KillA2G, u.KillCategory)
	assert.Equal(t, core.UnitGround, u.Category)

	// served from cache after the first read
	require.NoError(t, db.Where("id = ?", id).Delete(&model.UnitType{}).Error)
	u, err = c.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "T-72B", u.TypeName)
}

func TestFindByID_NotFound(t *testing.T) {
	c, _ := newCatalog(t)

	_, err := c.FindByID(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFindByIDs(t *testing.T) {
	c, db := newCatalog(t)
	seedUnits(t, c)
	a, b := idOf(t, db, "Su-27"), idOf(t, db, "T-72B")

	got, err := c.FindByIDs(context.Background(), []string{a, b, "ghost", a})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Su-27", got[a].TypeName)
	_, ok := got["ghost"]
	assert.False(t, ok)
}

func TestFindByKillCategory_ActiveOrdered(t *testing.T) {
	c, _ := newCatalog(t)
	seedUnits(t, c)

	units, err := c.FindByKillCategory(context.Background(), core.KillA2A)
	require.NoError(t, err)

	var names []string
	for _, u := range units {
		names = append(names, u.DisplayName)
	}
	assert.Equal(t, []string{"An-26B Curl", "MiG-29A Fulcrum", "Su-27 Flanker"}, names)

	_, err = c.FindByKillCategory(context.Background(), "A2X")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	c, _ := newCatalog(t)
	seedUnits(t, c)

	active, err := c.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, active, 4)

	all, err := c.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, core.KillA2A, all[0].KillCategory)
	assert.Equal(t, core.KillA2G, all[4].KillCategory)
}

func TestResolveOrCreateGeneric(t *testing.T) {
	c, db := newCatalog(t)
	ctx := context.Background()

	first, err := c.ResolveOrCreateGeneric(ctx, core.KillA2S)
	require.NoError(t, err)
	assert.Equal(t, "generic-a2s", first.TypeName)
	assert.Equal(t, "Generic A2S", first.DisplayName)
	assert.Equal(t, core.SourceManual, first.Source)
	assert.True(t, first.IsGeneric())

	// a fresh catalog (empty cache) must find the same row
	other, err := New(Dependencies{DB: db})
	require.NoError(t, err)
	second, err := other.ResolveOrCreateGeneric(ctx, core.KillA2S)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	require.NoError(t, db.Model(&model.UnitType{}).Where("type_name = ?", "generic-a2s").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestResolveOrCreateGeneric_Concurrent(t *testing.T) {
	_, db := newCatalog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := New(Dependencies{DB: db})
			if !assert.NoError(t, err) {
				return
			}
			u, err := c.ResolveOrCreateGeneric(ctx, core.KillA2G)
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var n int64
	require.NoError(t, db.Model(&model.UnitType{}).Where("kill_category = ?", "A2G").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestResolveOrCreateGeneric_InvalidCategory(t *testing.T) {
	c, _ := newCatalog(t)
	_, err := c.ResolveOrCreateGeneric(context.Background(), "A2Z")
	assert.Error(t, err)
}

func TestSeed_UpsertKeepsID(t *testing.T) {
	c, db := newCatalog(t)
	seedUnits(t, c)
	id := idOf(t, db, "Su-27")

	_, err := c.Seed(context.Background(), []core.UnitType{
		{TypeName: "Su-27", DisplayName: "Su-27S Flanker-B", Category: core.UnitAirplane, KillCategory: core.KillA2A, Active: true},
	})
	require.NoError(t, err)

	u, err := c.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Su-27S Flanker-B", u.DisplayName)

	var n int64
	require.NoError(t, db.Model(&model.UnitType{}).Count(&n).Error)
	assert.Equal(t, int64(5), n)
}

func TestParseSeed(t *testing.T) {
	doc := `
units:
  - typeName: F-14B
    displayName: F-14B Tomcat
    category: Airplane
    subCategory: fighter
    killCategory: a2a
  - typeName: ZSU-23-4
    category: ground-unit
    killCategory: A2G
    active: false
`
	units, err := ParseSeed(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, core.UnitAirplane, units[0].Category)
	assert.Equal(t, core.KillA2A, units[0].KillCategory)
	assert.True(t, units[0].Active)
	assert.Equal(t, "ZSU-23-4", units[1].DisplayName)
	assert.False(t, units[1].Active)
}

func TestParseSeed_Errors(t *testing.T) {
	tests := map[string]string{
		"missing type name": "units:\n  - killCategory: A2A\n",
		"bad category":      "units:\n  - typeName: X\n    killCategory: A2B\n",
		"duplicate":         "units:\n  - typeName: X\n    killCategory: A2A\n  - typeName: X\n    killCategory: A2G\n",
		"unknown field":     "units:\n  - typeName: X\n    killCategory: A2A\n    colour: red\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	units, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, units)
}
