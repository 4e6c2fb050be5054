package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/internal/model/convert"
	"github.com/wingops/debrief/pkg/core"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/clause"
)

// seedBatchSize bounds the rows per INSERT when seeding.
const seedBatchSize = 500

// SeedFile is the YAML layout of a catalog seed file.
type SeedFile struct {
	Units []SeedUnit `yaml:"units"`
}

// SeedUnit is one catalog entry in a seed file.
type SeedUnit struct {
	TypeName     string `yaml:"typeName"`
	DisplayName  string `yaml:"displayName"`
	Category     string `yaml:"category"`
	SubCategory  string `yaml:"subCategory,omitempty"`
	KillCategory string `yaml:"killCategory"`
	Active       *bool  `yaml:"active,omitempty"`
}

// ParseSeed decodes a seed document and validates every entry.
func ParseSeed(r io.Reader) ([]core.UnitType, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Units))
	units := make([]core.UnitType, 0, len(f.Units))
	for i, su := range f.Units {
		typeName := strings.TrimSpace(su.TypeName)
		if typeName == "" {
			return nil, fmt.Errorf("seed entry %d: typeName is required", i)
		}
		if _, dup := seen[typeName]; dup {
			return nil, fmt.Errorf("seed entry %d: duplicate typeName %q", i, typeName)
		}
		seen[typeName] = struct{}{}

		cat, err := core.ParseKillCategory(su.KillCategory)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (%s): %w", i, typeName, err)
		}
		display := strings.TrimSpace(su.DisplayName)
		if display == "" {
			display = typeName
		}
		active := true
		if su.Active != nil {
			active = *su.Active
		}
		units = append(units, core.UnitType{
			TypeName:     typeName,
			DisplayName:  display,
			Category:     core.ParseUnitCategory(su.Category),
			SubCategory:  su.SubCategory,
			KillCategory: cat,
			Source:       core.SourceCatalog,
			Active:       active,
		})
	}
	return units, nil
}

// LoadSeedFile reads and parses a seed file from disk.
func LoadSeedFile(path string) ([]core.UnitType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// Seed upserts units by type name and returns the number of rows written.
// Existing rows keep their id; descriptive columns are overwritten.
func (c *Catalog) Seed(ctx context.Context, units []core.UnitType) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}
	rows := make([]model.UnitType, 0, len(units))
	for _, u := range units {
		u.ID = ""
		rows = append(rows, convert.CoreToUnitType(u))
	}

	res := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "category", "sub_category", "kill_category", "active", "updated_at"}),
	}).CreateInBatches(&rows, seedBatchSize)
	if res.Error != nil {
		return 0, core.NewOpError("catalog.Seed", core.ErrPersistence, res.Error)
	}

	// ids in rows are only right for freshly inserted entries
	c.cache.Reset()
	c.logger.InfoContext(ctx, "Seeded unit catalog", "units", len(units), "rowsAffected", res.RowsAffected)
	return int(res.RowsAffected), nil
}
