// Package convert provides functions to convert GORM models to core models
package convert

import (
	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/pkg/core"
)

// derefString returns the value of a nullable column, "" for NULL.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UnitTypeToCore converts a GORM UnitType to a core.UnitType.
func UnitTypeToCore(u model.UnitType) core.UnitType {
	sub := ""
	if u.SubCategory != nil {
		sub = *u.SubCategory
	}
	return core.UnitType{
		ID:           u.ID,
		TypeName:     u.TypeName,
		DisplayName:  u.DisplayName,
		Category:     core.ParseUnitCategory(u.Category),
		SubCategory:  sub,
		KillCategory: core.KillCategory(u.KillCategory),
		Source:       core.UnitSource(u.Source),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
	}
}

// UnitPoolEntryToCore converts a GORM UnitPoolEntry to a core.UnitPoolEntry.
func UnitPoolEntryToCore(e model.UnitPoolEntry) core.UnitPoolEntry {
	return core.UnitPoolEntry{
		ID:               e.ID,
		MissionDebriefID: e.MissionDebriefID,
		UnitTypeID:       e.UnitTypeID,
		KillCategory:     core.KillCategory(e.KillCategory),
		CreatedAt:        e.CreatedAt,
	}
}

// LedgerToCore builds a core.Ledger from stored entries. Zero counts and
// duplicate unit types left behind by older writers are normalised away.
func LedgerToCore(entries []model.KillEntry) core.Ledger {
	var l core.Ledger
	for _, e := range entries {
		l.Set(e.UnitTypeID, e.KillCount)
	}
	return l
}

// StatusesToCore converts the nullable status columns to an assessment pair.
func StatusesToCore(pilot, aircraft *string) core.PilotStatuses {
	return core.NewPilotStatuses(
		core.PilotStatus(derefString(pilot)),
		core.AircraftStatus(derefString(aircraft)),
	)
}

// KillLedgerRecordToCore converts a GORM KillLedgerRecord to a core.KillLedgerRecord.
func KillLedgerRecordToCore(r model.KillLedgerRecord) core.KillLedgerRecord {
	return core.KillLedgerRecord{
		ID:              r.ID,
		FlightDebriefID: r.FlightDebriefID,
		PilotID:         r.PilotID,
		MissionID:       r.MissionID,
		Kills:           LedgerToCore(r.KillsDetail.Data()),
		Statuses:        StatusesToCore(r.PilotStatus, r.AircraftStatus),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// SquadronToCore converts a GORM Squadron to a core.Squadron.
func SquadronToCore(s model.Squadron) core.Squadron {
	return core.Squadron{
		ID:          s.ID,
		Name:        s.Name,
		Designation: s.Designation,
	}
}

// PilotToCore converts a GORM Pilot to a core.Pilot.
func PilotToCore(p model.Pilot) core.Pilot {
	return core.Pilot{
		ID:          p.ID,
		Callsign:    p.Callsign,
		BoardNumber: p.BoardNumber,
		SquadronID:  derefString(p.SquadronID),
	}
}

// PilotAssignmentToCore converts a GORM PilotAssignment to a core.PilotSlot.
func PilotAssignmentToCore(a model.PilotAssignment) core.PilotSlot {
	return core.PilotSlot{
		FlightID:   a.FlightID,
		PilotID:    derefString(a.PilotID),
		DashNumber: a.DashNumber,
	}
}

// RatingsToCore converts stored performance ratings. Entries with an unknown
// rating value are dropped.
func RatingsToCore(m map[string]model.PerformanceRating) map[string]core.PerformanceRating {
	out := make(map[string]core.PerformanceRating, len(m))
	for category, r := range m {
		rating := core.Rating(r.Rating)
		if rating != core.RatingSAT && rating != core.RatingUNSAT {
			continue
		}
		out[category] = core.PerformanceRating{Rating: rating, Comments: r.Comments}
	}
	return out
}

// FlightDebriefToCore converts a GORM FlightDebrief to a core.FlightDebrief.
// flightCallsign is supplied by the caller, which already joined the flight.
func FlightDebriefToCore(d model.FlightDebrief, flightCallsign string) core.FlightDebrief {
	return core.FlightDebrief{
		ID:               d.ID,
		MissionDebriefID: d.MissionDebriefID,
		FlightID:         d.FlightID,
		FlightCallsign:   flightCallsign,
		Ratings:          RatingsToCore(d.PerformanceRatings.Data()),
		CreatedAt:        d.CreatedAt,
	}
}
