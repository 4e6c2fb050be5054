// pkg/core/unit.go
package core

import (
	"fmt"
	"strings"
	"time"
)

// KillCategory partitions engagements by target domain.
type KillCategory string

const (
	KillA2A KillCategory = "A2A"
	KillA2G KillCategory = "A2G"
	KillA2S KillCategory = "A2S"
)

// KillCategories lists every kill category in display order.
var KillCategories = []KillCategory{KillA2A, KillA2G, KillA2S}

// ParseKillCategory accepts a category in any case ("a2g", "A2G").
func ParseKillCategory(s string) (KillCategory, error) {
	c := KillCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown kill category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the known kill categories.
func (c KillCategory) Valid() bool {
	switch c {
	case KillA2A, KillA2G, KillA2S:
		return true
	}
	return false
}

// UnitCategory is the catalog classification of a unit type.
type UnitCategory string

const (
	UnitAirplane   UnitCategory = "airplane"
	UnitHelicopter UnitCategory = "helicopter"
	UnitGround     UnitCategory = "ground-unit"
	UnitShip       UnitCategory = "ship"
	UnitStructure  UnitCategory = "structure"
	UnitHeliport   UnitCategory = "heliport"
	UnitCargo      UnitCategory = "cargo"
	UnitUnknown    UnitCategory = "unknown"
)

// ParseUnitCategory maps a catalog string to a UnitCategory. Unrecognised values
// become UnitUnknown rather than failing, since catalogs are seeded externally.
func ParseUnitCategory(s string) UnitCategory {
	switch c := UnitCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case UnitAirplane, UnitHelicopter, UnitGround, UnitShip, UnitStructure, UnitHeliport, UnitCargo:
		return c
	}
	return UnitUnknown
}

// UnitSource records who created a catalog entry.
type UnitSource string

const (
	SourceCatalog UnitSource = "catalog"
	SourceManual  UnitSource = "manual"
)

// UnitType is a reference unit that can be attributed as a kill.
type UnitType struct {
	ID           string
	TypeName     string // unique internal name, e.g. "F-14B" or "generic-a2a"
	DisplayName  string
	Category     UnitCategory
	SubCategory  string
	KillCategory KillCategory
	Source       UnitSource
	Active       bool
	CreatedAt    time.Time
}

// GenericTypeName is the reserved internal name of the generic unit for a category.
func GenericTypeName(c KillCategory) string {
	return "generic-" + strings.ToLower(string(c))
}

// GenericDisplayName is the display name given to a lazily created generic unit.
func GenericDisplayName(c KillCategory) string {
	return "Generic " + string(c)
}

// IsGeneric reports whether u is a synthetic generic entry.
func (u UnitType) IsGeneric() bool {
	return u.TypeName == GenericTypeName(u.KillCategory)
}

// UnitPoolEntry is a unit type made available for attribution in one mission debrief.
type UnitPoolEntry struct {
	ID               string
	MissionDebriefID string
	UnitTypeID       string
	KillCategory     KillCategory
	CreatedAt        time.Time
}

// UnitPool is a mission's selectable units partitioned by kill category.
type UnitPool map[KillCategory][]UnitType

// Size returns the number of unit types across all partitions.
func (p UnitPool) Size() int {
	n := 0
	for _, units := range p {
		n += len(units)
	}
	return n
}
