package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&UnitType{},
	&UnitPoolEntry{},
	&KillLedgerRecord{},
	&Squadron{},
	&Pilot{},
	&Mission{},
	&Flight{},
	&PilotAssignment{},
	&MissionDebrief{},
	&FlightDebrief{},
}

// Base carries the UUID primary key and timestamps shared by every table.
type Base struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

////////////////////////
// CATALOG MODELS
////////////////////////

// UnitType is a reference unit that can be credited as a kill.
// TypeName is unique; generic entries rely on that for get-or-create.
type UnitType struct {
	Base
	TypeName     string  `json:"typeName" gorm:"size:191;not null;uniqueIndex:idx_unit_type_name"`
	DisplayName  string  `json:"displayName" gorm:"size:255;not null"`
	Category     string  `json:"category" gorm:"size:32;not null"`
	SubCategory  *string `json:"subCategory" gorm:"size:64"`
	KillCategory string  `json:"killCategory" gorm:"size:3;not null;index:idx_unit_type_kill_category"`
	Source       string  `json:"source" gorm:"size:16;not null"`
	Active       bool    `json:"active" gorm:"not null"`
}

func (*UnitType) TableName() string {
	return "unit_types"
}

// UnitPoolEntry makes a unit type selectable in one mission debrief.
type UnitPoolEntry struct {
	Base
	MissionDebriefID string `json:"missionDebriefId" gorm:"size:36;not null;uniqueIndex:idx_unit_pool_debrief_unit,priority:1"`
	UnitTypeID       string `json:"unitTypeId" gorm:"size:36;not null;uniqueIndex:idx_unit_pool_debrief_unit,priority:2"`
	KillCategory     string `json:"killCategory" gorm:"size:3;not null;index:idx_unit_pool_kill_category"`
}

func (*UnitPoolEntry) TableName() string {
	return "unit_pool_entries"
}

////////////////////////
// LEDGER MODELS
////////////////////////

// KillEntry is the stored form of one ledger entry.
type KillEntry struct {
	UnitTypeID string `json:"unitTypeId"`
	KillCount  int    `json:"killCount"`
}

// KillLedgerRecord holds one pilot's kills and statuses for one flight debrief.
// At most one row exists per (flight debrief, pilot). NULL statuses mean the
// pilot has not been assessed.
type KillLedgerRecord struct {
	Base
	FlightDebriefID string                          `json:"flightDebriefId" gorm:"size:36;not null;uniqueIndex:idx_kill_ledger_flight_pilot,priority:1"`
	PilotID         string                          `json:"pilotId" gorm:"size:36;not null;uniqueIndex:idx_kill_ledger_flight_pilot,priority:2;index:idx_kill_ledger_pilot"`
	MissionID       string                          `json:"missionId" gorm:"size:36;not null;index:idx_kill_ledger_mission"`
	KillsDetail     datatypes.JSONType[[]KillEntry] `json:"killsDetail"`
	PilotStatus     *string                         `json:"pilotStatus" gorm:"size:16"`
	AircraftStatus  *string                         `json:"aircraftStatus" gorm:"size:16"`
}

func (*KillLedgerRecord) TableName() string {
	return "kill_ledger_records"
}

////////////////////////
// ROSTER MODELS
////////////////////////

// Squadron is a unit pilots belong to.
type Squadron struct {
	Base
	Name        string `json:"name" gorm:"size:127;not null"`
	Designation string `json:"designation" gorm:"size:32"`
}

func (*Squadron) TableName() string {
	return "squadrons"
}

// Pilot is a roster member. SquadronID is NULL for unaffiliated pilots.
type Pilot struct {
	Base
	Callsign    string  `json:"callsign" gorm:"size:64;not null"`
	BoardNumber string  `json:"boardNumber" gorm:"size:16"`
	SquadronID  *string `json:"squadronId" gorm:"size:36;index:idx_pilot_squadron"`
}

func (*Pilot) TableName() string {
	return "pilots"
}

// Mission is a scheduled operation.
type Mission struct {
	Base
	Name string `json:"name" gorm:"size:200;not null"`
}

func (*Mission) TableName() string {
	return "missions"
}

// Flight is one flight within a mission.
type Flight struct {
	Base
	MissionID string `json:"missionId" gorm:"size:36;not null;index:idx_flight_mission"`
	Callsign  string `json:"callsign" gorm:"size:64"`
}

func (*Flight) TableName() string {
	return "flights"
}

// PilotAssignment is one seat in a flight. PilotID is NULL for an open slot.
type PilotAssignment struct {
	Base
	MissionID  string  `json:"missionId" gorm:"size:36;not null;index:idx_assignment_mission"`
	FlightID   string  `json:"flightId" gorm:"size:36;not null;index:idx_assignment_flight"`
	PilotID    *string `json:"pilotId" gorm:"size:36"`
	DashNumber int     `json:"dashNumber"`
}

func (*PilotAssignment) TableName() string {
	return "pilot_assignments"
}

////////////////////////
// DEBRIEF MODELS
////////////////////////

// PerformanceRating is the stored grade for one rating category.
type PerformanceRating struct {
	Rating   string `json:"rating"`
	Comments string `json:"comments,omitempty"`
}

// MissionDebrief is the debrief header for a mission.
type MissionDebrief struct {
	Base
	MissionID string `json:"missionId" gorm:"size:36;not null;index:idx_mission_debrief_mission"`
}

func (*MissionDebrief) TableName() string {
	return "mission_debriefs"
}

// FlightDebrief is one flight's debrief under a mission debrief.
type FlightDebrief struct {
	Base
	MissionDebriefID   string                                           `json:"missionDebriefId" gorm:"size:36;not null;index:idx_flight_debrief_mission_debrief"`
	FlightID           string                                           `json:"flightId" gorm:"size:36;not null;index:idx_flight_debrief_flight"`
	PerformanceRatings datatypes.JSONType[map[string]PerformanceRating] `json:"performanceRatings"`
}

func (*FlightDebrief) TableName() string {
	return "flight_debriefs"
}
