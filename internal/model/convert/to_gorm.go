// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/pkg/core"
	"gorm.io/datatypes"
)

// optionalString maps "" to NULL.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CoreToUnitType converts a core.UnitType to a GORM model.UnitType.
func CoreToUnitType(u core.UnitType) model.UnitType {
	category := u.Category
	if category == "" {
		category = core.UnitUnknown
	}
	source := u.Source
	if source == "" {
		source = core.SourceCatalog
	}
	return model.UnitType{
		Base:         model.Base{ID: u.ID, CreatedAt: u.CreatedAt},
		TypeName:     u.TypeName,
		DisplayName:  u.DisplayName,
		Category:     string(category),
		SubCategory:  optionalString(u.SubCategory),
		KillCategory: string(u.KillCategory),
		Source:       string(source),
		Active:       u.Active,
	}
}

// LedgerToGorm converts a core.Ledger to the stored JSON column. An empty ledger
// is stored as [] rather than null.
func LedgerToGorm(l core.Ledger) datatypes.JSONType[[]model.KillEntry] {
	entries := make([]model.KillEntry, 0, l.Len())
	for _, e := range l.Entries() {
		entries = append(entries, model.KillEntry{UnitTypeID: e.UnitTypeID, KillCount: e.KillCount})
	}
	return datatypes.NewJSONType(entries)
}

// StatusesToGorm converts an assessment pair to nullable columns in storage form.
// Unassessed halves become NULL and "down" becomes "damaged".
func StatusesToGorm(s core.PilotStatuses) (pilot, aircraft *string) {
	s = s.ForStorage()
	if p, ok := s.Pilot.Get(); ok {
		pilot = optionalString(string(p))
	}
	if a, ok := s.Aircraft.Get(); ok {
		aircraft = optionalString(string(a))
	}
	return pilot, aircraft
}

// CoreToKillLedgerRecord converts a core.KillLedgerRecord to a GORM model.KillLedgerRecord.
func CoreToKillLedgerRecord(r core.KillLedgerRecord) model.KillLedgerRecord {
	pilot, aircraft := StatusesToGorm(r.Statuses)
	return model.KillLedgerRecord{
		Base:            model.Base{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		FlightDebriefID: r.FlightDebriefID,
		PilotID:         r.PilotID,
		MissionID:       r.MissionID,
		KillsDetail:     LedgerToGorm(r.Kills),
		PilotStatus:     pilot,
		AircraftStatus:  aircraft,
	}
}

// RatingsToGorm converts core performance ratings to their stored form.
func RatingsToGorm(m map[string]core.PerformanceRating) datatypes.JSONType[map[string]model.PerformanceRating] {
	out := make(map[string]model.PerformanceRating, len(m))
	for category, r := range m {
		out[category] = model.PerformanceRating{Rating: string(r.Rating), Comments: r.Comments}
	}
	return datatypes.NewJSONType(out)
}
