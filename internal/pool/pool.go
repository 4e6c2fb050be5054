// Package pool manages the per-mission set of unit types offered for kill
// attribution.
package pool

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/internal/model/convert"
	"github.com/wingops/debrief/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitCatalog is the part of the catalog the pool needs.
type UnitCatalog interface {
	FindByID(ctx context.Context, id string) (core.UnitType, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]core.UnitType, error)
	ResolveOrCreateGeneric(ctx context.Context, cat core.KillCategory) (core.UnitType, error)
}

// Dependencies holds all dependencies for the pool manager.
type Dependencies struct {
	DB     *gorm.DB
	Units  UnitCatalog
	Logger *slog.Logger
}

// Manager reads and edits unit pools.
type Manager struct {
	db     *gorm.DB
	units  UnitCatalog
	logger *slog.Logger
}

// New creates a pool Manager.
func New(deps Dependencies) *Manager {
	m := &Manager{db: deps.DB, units: deps.Units, logger: deps.Logger}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Add makes unitTypeID selectable in the mission debrief. Adding a unit that is
// already pooled returns the existing entry.
func (m *Manager) Add(ctx context.Context, missionDebriefID, unitTypeID string) (core.UnitPoolEntry, error) {
	const op = "pool.Add"
	u, err := m.units.FindByID(ctx, unitTypeID)
	if errors.Is(err, core.ErrNotFound) {
		return core.UnitPoolEntry{}, core.NewOpError(op, core.ErrReferential, err, "missionDebrief", missionDebriefID, "unitType", unitTypeID)
	}
	if err != nil {
		return core.UnitPoolEntry{}, err
	}
	return m.add(ctx, op, missionDebriefID, u)
}

// AddGeneric pools the generic unit for cat, creating it if needed.
func (m *Manager) AddGeneric(ctx context.Context, missionDebriefID string, cat core.KillCategory) (core.UnitPoolEntry, error) {
	u, err := m.units.ResolveOrCreateGeneric(ctx, cat)
	if err != nil {
		return core.UnitPoolEntry{}, err
	}
	return m.add(ctx, "pool.AddGeneric", missionDebriefID, u)
}

func (m *Manager) add(ctx context.Context, op, missionDebriefID string, u core.UnitType) (core.UnitPoolEntry, error) {
	db := m.db.WithContext(ctx)
	row := model.UnitPoolEntry{
		MissionDebriefID: missionDebriefID,
		UnitTypeID:       u.ID,
		KillCategory:     string(u.KillCategory),
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mission_debrief_id"}, {Name: "unit_type_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return core.UnitPoolEntry{}, core.NewOpError(op, core.ErrPersistence, res.Error, "missionDebrief", missionDebriefID, "unitType", u.ID)
	}

	var stored model.UnitPoolEntry
	err := db.Where("mission_debrief_id = ? AND unit_type_id = ?", missionDebriefID, u.ID).First(&stored).Error
	if err != nil {
		return core.UnitPoolEntry{}, core.NewOpError(op, core.ErrPersistence, err, "missionDebrief", missionDebriefID, "unitType", u.ID)
	}
	if res.RowsAffected > 0 {
		m.logger.DebugContext(ctx, "Added unit to pool", "missionDebrief", missionDebriefID, "unitType", u.ID, "killCategory", string(u.KillCategory))
	}
	return convert.UnitPoolEntryToCore(stored), nil
}

// Remove takes unitTypeID out of the mission's pool. Kills already recorded
// against the unit are untouched.
func (m *Manager) Remove(ctx context.Context, missionDebriefID, unitTypeID string) error {
	err := m.db.WithContext(ctx).
		Where("mission_debrief_id = ? AND unit_type_id = ?", missionDebriefID, unitTypeID).
		Delete(&model.UnitPoolEntry{}).Error
	if err != nil {
		return core.NewOpError("pool.Remove", core.ErrPersistence, err, "missionDebrief", missionDebriefID, "unitType", unitTypeID)
	}
	return nil
}

// List returns the mission's pool partitioned by kill category, each partition
// ordered by display name. Every category is present, possibly empty.
func (m *Manager) List(ctx context.Context, missionDebriefID string) (core.UnitPool, error) {
	units, err := m.load(ctx, "pool.List", missionDebriefID, "")
	if err != nil {
		return nil, err
	}
	out := make(core.UnitPool, len(core.KillCategories))
	for _, cat := range core.KillCategories {
		out[cat] = []core.UnitType{}
	}
	for _, u := range units {
		out[u.KillCategory] = append(out[u.KillCategory], u)
	}
	return out, nil
}

// ListByCategory returns one partition of the mission's pool.
func (m *Manager) ListByCategory(ctx context.Context, missionDebriefID string, cat core.KillCategory) ([]core.UnitType, error) {
	return m.load(ctx, "pool.ListByCategory", missionDebriefID, cat)
}

func (m *Manager) load(ctx context.Context, op, missionDebriefID string, cat core.KillCategory) ([]core.UnitType, error) {
	q := m.db.WithContext(ctx).Where("mission_debrief_id = ?", missionDebriefID)
	if cat != "" {
		q = q.Where("kill_category = ?", string(cat))
	}
	var rows []model.UnitPoolEntry
	if err := q.Find(&rows).Error; err != nil {
		return nil, core.NewOpError(op, core.ErrPersistence, err, "missionDebrief", missionDebriefID)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UnitTypeID)
	}
	byID, err := m.units.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	units := make([]core.UnitType, 0, len(rows))
	for _, r := range rows {
		u, ok := byID[r.UnitTypeID]
		if !ok {
			m.logger.WarnContext(ctx, "Pool entry references unknown unit type", "missionDebrief", missionDebriefID, "unitType", r.UnitTypeID)
			continue
		}
		units = append(units, u)
	}
	slices.SortFunc(units, func(a, b core.UnitType) int {
		return cmp.Or(cmp.Compare(a.DisplayName, b.DisplayName), cmp.Compare(a.ID, b.ID))
	})
	return units, nil
}
