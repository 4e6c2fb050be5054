// Package catalog reads the unit type catalog and lazily creates the generic
// unit entries used when a pilot cannot name what they destroyed.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wingops/debrief/internal/cache"
	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/internal/model/convert"
	"github.com/wingops/debrief/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the catalog.
type Dependencies struct {
	DB     *gorm.DB
	Cache  *cache.UnitTypeCache // optional, a private cache is created when nil
	Logger *slog.Logger
}

// Catalog implements read access to unit types plus generic get-or-create.
type Catalog struct {
	db     *gorm.DB
	cache  *cache.UnitTypeCache
	logger *slog.Logger

	lookups metric.Int64Counter
}

// New creates a Catalog.
func New(deps Dependencies) (*Catalog, error) {
	c := &Catalog{
		db:     deps.DB,
		cache:  deps.Cache,
		logger: deps.Logger,
	}
	if c.cache == nil {
		c.cache = cache.NewUnitTypeCache()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	var err error
	c.lookups, err = meter().Int64Counter(
		"catalog.lookups",
		metric.WithDescription("Unit type lookups by cache outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lookups counter: %w", err)
	}
	return c, nil
}

func (c *Catalog) count(ctx context.Context, outcome string, n int) {
	if n > 0 {
		c.lookups.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// FindByID returns the unit type with the given id.
// The error matches core.ErrNotFound when no such unit exists.
func (c *Catalog) FindByID(ctx context.Context, id string) (core.UnitType, error) {
	if u, ok := c.cache.Get(id); ok {
		c.count(ctx, "hit", 1)
		return u, nil
	}
	c.count(ctx, "miss", 1)

	var row model.UnitType
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.UnitType{}, core.NewOpError("catalog.FindByID", core.ErrNotFound, nil, "unitType", id)
	}
	if err != nil {
		return core.UnitType{}, core.NewOpError("catalog.FindByID", core.ErrPersistence, err, "unitType", id)
	}

	u := convert.UnitTypeToCore(row)
	c.cache.Put(u)
	return u, nil
}

// FindByIDs resolves many ids in one query. Ids that do not resolve are
// absent from the result.
func (c *Catalog) FindByIDs(ctx context.Context, ids []string) (map[string]core.UnitType, error) {
	found, missing := c.cache.GetMany(ids)
	c.count(ctx, "hit", len(found))
	c.count(ctx, "miss", len(missing))
	if len(missing) == 0 {
		return found, nil
	}

	var rows []model.UnitType
	if err := c.db.WithContext(ctx).Where("id IN ?", missing).Find(&rows).Error; err != nil {
		return nil, core.NewOpError("catalog.FindByIDs", core.ErrPersistence, err)
	}
	for _, row := range rows {
		u := convert.UnitTypeToCore(row)
		c.cache.Put(u)
		found[u.ID] = u
	}
	return found, nil
}

// FindByKillCategory lists the active unit types of one kill category ordered
// by display name.
func (c *Catalog) FindByKillCategory(ctx context.Context, cat core.KillCategory) ([]core.UnitType, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("catalog.FindByKillCategory: unknown kill category %q", cat)
	}

	var rows []model.UnitType
	err := c.db.WithContext(ctx).
		Where("kill_category = ? AND active = ?", string(cat), true).
		Order("display_name, id").
		Find(&rows).Error
	if err != nil {
		return nil, core.NewOpError("catalog.FindByKillCategory", core.ErrPersistence, err, "killCategory", string(cat))
	}
	return c.toCore(rows), nil
}

// List returns the whole catalog ordered by kill category and display name.
func (c *Catalog) List(ctx context.Context, includeInactive bool) ([]core.UnitType, error) {
	q := c.db.WithContext(ctx).Order("kill_category, display_name, id")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var rows []model.UnitType
	if err := q.Find(&rows).Error; err != nil {
		return nil, core.NewOpError("catalog.List", core.ErrPersistence, err)
	}
	return c.toCore(rows), nil
}

// ResolveOrCreateGeneric returns the generic unit for cat, creating it on first
// use. The insert is a no-op when the row already exists, so concurrent callers
// all end up with the same entry.
func (c *Catalog) ResolveOrCreateGeneric(ctx context.Context, cat core.KillCategory) (core.UnitType, error) {
	if !cat.Valid() {
		return core.UnitType{}, fmt.Errorf("catalog.ResolveOrCreateGeneric: unknown kill category %q", cat)
	}
	typeName := core.GenericTypeName(cat)
	if u, ok := c.cache.GetByTypeName(typeName); ok {
		return u, nil
	}

	db := c.db.WithContext(ctx)
	row := convert.CoreToUnitType(core.UnitType{
		TypeName:     typeName,
		DisplayName:  core.GenericDisplayName(cat),
		Category:     core.UnitUnknown,
		KillCategory: cat,
		Source:       core.SourceManual,
		Active:       true,
	})
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type_name"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return core.UnitType{}, core.NewOpError("catalog.ResolveOrCreateGeneric", core.ErrPersistence, res.Error, "typeName", typeName)
	}

	var stored model.UnitType
	if err := db.Where("type_name = ?", typeName).First(&stored).Error; err != nil {
		return core.UnitType{}, core.NewOpError("catalog.ResolveOrCreateGeneric", core.ErrPersistence, err, "typeName", typeName)
	}
	if res.RowsAffected > 0 {
		c.logger.InfoContext(ctx, "Created generic unit type", "killCategory", string(cat), "unitType", stored.ID)
	}

	u := convert.UnitTypeToCore(stored)
	c.cache.Put(u)
	return u, nil
}

func (c *Catalog) toCore(rows []model.UnitType) []core.UnitType {
	out := make([]core.UnitType, 0, len(rows))
	for _, row := range rows {
		u := convert.UnitTypeToCore(row)
		c.cache.Put(u)
		out = append(out, u)
	}
	return out
}
