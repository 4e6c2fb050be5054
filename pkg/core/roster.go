// pkg/core/roster.go
package core

import "time"

// Rating is a performance grade for one rating category.
type Rating string

const (
	RatingSAT   Rating = "SAT"
	RatingUNSAT Rating = "UNSAT"
)

// PerformanceRating is the grade and comments recorded for a rating category.
type PerformanceRating struct {
	Rating   Rating `json:"rating"`
	Comments string `json:"comments,omitempty"`
}

// Squadron is a pilot's current unit affiliation.
type Squadron struct {
	ID          string
	Name        string
	Designation string
}

// Pilot is a roster member.
type Pilot struct {
	ID          string
	Callsign    string
	BoardNumber string
	SquadronID  string // empty when unaffiliated
}

// RosterEntry is one pilot seated in a flight.
type RosterEntry struct {
	PilotID     string
	Callsign    string
	BoardNumber string
	DashNumber  int
}

// PilotSlot is one seat in a mission's pilot assignment. PilotID is empty for an
// open slot; open slots still count towards mission totals.
type PilotSlot struct {
	FlightID   string
	PilotID    string
	DashNumber int
}

// FlightDebrief is the per-flight debrief header the aggregator scans.
type FlightDebrief struct {
	ID               string
	MissionDebriefID string
	FlightID         string
	FlightCallsign   string
	Ratings          map[string]PerformanceRating
	CreatedAt        time.Time
}

// MissionDebrief ties a debrief to its mission.
type MissionDebrief struct {
	ID        string
	MissionID string
}
