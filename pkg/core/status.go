// pkg/core/status.go
package core

import (
	"fmt"
	"strings"
)

// PilotStatus is the assessed outcome for a pilot.
type PilotStatus string

const (
	PilotAlive       PilotStatus = "alive"
	PilotMIA         PilotStatus = "mia"
	PilotKIA         PilotStatus = "kia"
	PilotUnaccounted PilotStatus = "unaccounted"
)

// PilotStatusValues lists the pilot buckets in display order.
var PilotStatusValues = []PilotStatus{PilotAlive, PilotMIA, PilotKIA, PilotUnaccounted}

// AircraftStatus is the assessed outcome for a pilot's aircraft.
type AircraftStatus string

const (
	AircraftRecovered   AircraftStatus = "recovered"
	AircraftDamaged     AircraftStatus = "damaged"
	AircraftDestroyed   AircraftStatus = "destroyed"
	AircraftDown        AircraftStatus = "down" // display only, stored as damaged
	AircraftUnaccounted AircraftStatus = "unaccounted"
)

// AircraftStatusValues lists the aircraft buckets in display order.
var AircraftStatusValues = []AircraftStatus{AircraftRecovered, AircraftDamaged, AircraftDestroyed, AircraftDown, AircraftUnaccounted}

const unaccounted = "unaccounted"

// ParsePilotStatus parses a pilot status in any case.
func ParsePilotStatus(s string) (PilotStatus, error) {
	switch p := PilotStatus(strings.ToLower(strings.TrimSpace(s))); p {
	case PilotAlive, PilotMIA, PilotKIA, PilotUnaccounted:
		return p, nil
	}
	return "", fmt.Errorf("unknown pilot status %q", s)
}

// ParseAircraftStatus parses an aircraft status in any case.
func ParseAircraftStatus(s string) (AircraftStatus, error) {
	switch a := AircraftStatus(strings.ToLower(strings.TrimSpace(s))); a {
	case AircraftRecovered, AircraftDamaged, AircraftDestroyed, AircraftDown, AircraftUnaccounted:
		return a, nil
	}
	return "", fmt.Errorf("unknown aircraft status %q", s)
}

// Assessment is either an assessed status or "not yet assessed".
// The zero value is not yet assessed.
type Assessment[S ~string] struct {
	status   S
	assessed bool
}

// Assessed wraps s. The empty string and "unaccounted" yield the not-assessed value.
func Assessed[S ~string](s S) Assessment[S] {
	if s == "" || string(s) == unaccounted {
		return Assessment[S]{}
	}
	return Assessment[S]{status: s, assessed: true}
}

// Get returns the status and whether one has been assessed.
func (a Assessment[S]) Get() (S, bool) {
	return a.status, a.assessed
}

// IsAssessed reports whether a carries an assessed status.
func (a Assessment[S]) IsAssessed() bool {
	return a.assessed
}

// Or returns the assessed status, or def when not assessed.
func (a Assessment[S]) Or(def S) S {
	if !a.assessed {
		return def
	}
	return a.status
}

// String renders the assessment; unassessed values render as "unaccounted".
func (a Assessment[S]) String() string {
	if !a.assessed {
		return unaccounted
	}
	return string(a.status)
}

// PilotStatuses is the pilot/aircraft assessment pair kept per pilot.
type PilotStatuses struct {
	Pilot    Assessment[PilotStatus]
	Aircraft Assessment[AircraftStatus]
}

// NewPilotStatuses builds a pair from raw values.
func NewPilotStatuses(p PilotStatus, a AircraftStatus) PilotStatuses {
	return PilotStatuses{Pilot: Assessed(p), Aircraft: Assessed(a)}
}

// IsDefault reports whether neither half has been assessed.
func (s PilotStatuses) IsDefault() bool {
	return !s.Pilot.IsAssessed() && !s.Aircraft.IsAssessed()
}

// IsBaseline reports whether the pair carries nothing worth keeping on its own:
// the pilot is unassessed or alive and the aircraft is unassessed or recovered.
// These are exactly the values a pilot gets when kills are saved without an
// explicit status.
func (s PilotStatuses) IsBaseline() bool {
	p := s.Pilot.Or(PilotAlive)
	a := s.Aircraft.Or(AircraftRecovered)
	return p == PilotAlive && a == AircraftRecovered
}

// ForStorage collapses "down" to "damaged". Assessment state is untouched.
func (s PilotStatuses) ForStorage() PilotStatuses {
	if a, ok := s.Aircraft.Get(); ok && a == AircraftDown {
		s.Aircraft = Assessed(AircraftDamaged)
	}
	return s
}

// Working is the pair persisted alongside kills: unassessed halves fall back to
// alive/recovered and "down" collapses to "damaged".
func (s PilotStatuses) Working() PilotStatuses {
	out := PilotStatuses{
		Pilot:    Assessed(s.Pilot.Or(PilotAlive)),
		Aircraft: Assessed(s.Aircraft.Or(AircraftRecovered)),
	}
	return out.ForStorage()
}

// PilotValue returns the pilot status, "unaccounted" when not assessed.
func (s PilotStatuses) PilotValue() PilotStatus {
	return s.Pilot.Or(PilotUnaccounted)
}

// AircraftValue returns the aircraft status, "unaccounted" when not assessed.
func (s PilotStatuses) AircraftValue() AircraftStatus {
	return s.Aircraft.Or(AircraftUnaccounted)
}
