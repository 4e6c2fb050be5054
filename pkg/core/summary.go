// pkg/core/summary.go
package core

import (
	"fmt"
	"strings"
)

// PilotCounts buckets pilots by status.
type PilotCounts struct {
	Alive       int `json:"alive"`
	MIA         int `json:"mia"`
	KIA         int `json:"kia"`
	Unaccounted int `json:"unaccounted"`
}

// Total sums every bucket.
func (c PilotCounts) Total() int {
	return c.Alive + c.MIA + c.KIA + c.Unaccounted
}

// Get returns the bucket for s.
func (c PilotCounts) Get(s PilotStatus) int {
	switch s {
	case PilotAlive:
		return c.Alive
	case PilotMIA:
		return c.MIA
	case PilotKIA:
		return c.KIA
	}
	return c.Unaccounted
}

// AircraftCounts buckets aircraft by status.
type AircraftCounts struct {
	Recovered   int `json:"recovered"`
	Damaged     int `json:"damaged"`
	Destroyed   int `json:"destroyed"`
	Down        int `json:"down"`
	Unaccounted int `json:"unaccounted"`
}

// Total sums every bucket.
func (c AircraftCounts) Total() int {
	return c.Recovered + c.Damaged + c.Destroyed + c.Down + c.Unaccounted
}

// Get returns the bucket for s.
func (c AircraftCounts) Get(s AircraftStatus) int {
	switch s {
	case AircraftRecovered:
		return c.Recovered
	case AircraftDamaged:
		return c.Damaged
	case AircraftDestroyed:
		return c.Destroyed
	case AircraftDown:
		return c.Down
	}
	return c.Unaccounted
}

// KillTotals sums kill counts per category.
type KillTotals struct {
	A2A int `json:"a2a"`
	A2G int `json:"a2g"`
	A2S int `json:"a2s"`
}

// Get returns the total for c.
func (k KillTotals) Get(c KillCategory) int {
	switch c {
	case KillA2A:
		return k.A2A
	case KillA2G:
		return k.A2G
	case KillA2S:
		return k.A2S
	}
	return 0
}

// Total sums every category.
func (k KillTotals) Total() int {
	return k.A2A + k.A2G + k.A2S
}

// Add adds n kills to category c. Unknown categories are ignored.
func (k *KillTotals) Add(c KillCategory, n int) {
	switch c {
	case KillA2A:
		k.A2A += n
	case KillA2G:
		k.A2G += n
	case KillA2S:
		k.A2S += n
	}
}

// PerformanceCoverage counts graded and ungraded rating slots.
type PerformanceCoverage struct {
	SAT           int `json:"sat"`
	UNSAT         int `json:"unsat"`
	Unassessed    int `json:"unassessed"`
	TotalPossible int `json:"totalPossible"`
}

// MissionSummary is the derived view over one mission debrief. It is never
// stored and can be discarded and recomputed at any time.
type MissionSummary struct {
	MissionDebriefID string              `json:"missionDebriefId"`
	MissionID        string              `json:"missionId"`
	TotalSlots       int                 `json:"totalSlots"`
	TotalFlights     int                 `json:"totalFlights"`
	RatingCategories int                 `json:"ratingCategories"`
	Pilots           PilotCounts         `json:"pilots"`
	Aircraft         AircraftCounts      `json:"aircraft"`
	Kills            KillTotals          `json:"kills"`
	Performance      PerformanceCoverage `json:"performance"`
}

// BucketKind selects which family of summary buckets to drill into.
type BucketKind string

const (
	BucketPilot       BucketKind = "pilot"
	BucketAircraft    BucketKind = "aircraft"
	BucketKills       BucketKind = "kills"
	BucketPerformance BucketKind = "performance"
)

// RatingUnassessed selects rating slots with no grade in a performance bucket.
const RatingUnassessed Rating = "unassessed"

// Bucket identifies one aggregate bucket for drill-down.
type Bucket struct {
	Kind           BucketKind
	Pilot          PilotStatus
	Aircraft       AircraftStatus
	KillCategory   KillCategory
	Rating         Rating
	RatingCategory string // optional, performance buckets only
}

// String renders the bucket in the form accepted by ParseBucket.
func (b Bucket) String() string {
	switch b.Kind {
	case BucketPilot:
		return "pilot:" + string(b.Pilot)
	case BucketAircraft:
		return "aircraft:" + string(b.Aircraft)
	case BucketKills:
		return "kills:" + string(b.KillCategory)
	case BucketPerformance:
		if b.RatingCategory != "" {
			return "performance:" + string(b.Rating) + ":" + b.RatingCategory
		}
		return "performance:" + string(b.Rating)
	}
	return string(b.Kind)
}

// ParseBucket parses selectors such as "pilot:kia", "aircraft:destroyed",
// "kills:a2g", "performance:UNSAT" or "performance:UNSAT:communication".
func ParseBucket(s string) (Bucket, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return Bucket{}, fmt.Errorf("invalid bucket %q: want <kind>:<value>", s)
	}
	kind := BucketKind(strings.ToLower(parts[0]))
	if len(parts) == 3 && kind != BucketPerformance {
		return Bucket{}, fmt.Errorf("invalid bucket %q: only performance buckets take a rating category", s)
	}

	b := Bucket{Kind: kind}
	switch kind {
	case BucketPilot:
		p, err := ParsePilotStatus(parts[1])
		if err != nil {
			return Bucket{}, err
		}
		b.Pilot = p
	case BucketAircraft:
		a, err := ParseAircraftStatus(parts[1])
		if err != nil {
			return Bucket{}, err
		}
		b.Aircraft = a
	case BucketKills:
		c, err := ParseKillCategory(parts[1])
		if err != nil {
			return Bucket{}, err
		}
		b.KillCategory = c
	case BucketPerformance:
		switch r := Rating(strings.ToUpper(parts[1])); r {
		case RatingSAT, RatingUNSAT:
			b.Rating = r
		default:
			if strings.EqualFold(parts[1], string(RatingUnassessed)) {
				b.Rating = RatingUnassessed
			} else {
				return Bucket{}, fmt.Errorf("unknown rating %q", parts[1])
			}
		}
		if len(parts) == 3 {
			b.RatingCategory = parts[2]
		}
	default:
		return Bucket{}, fmt.Errorf("unknown bucket kind %q", parts[0])
	}
	return b, nil
}

// UnassignedGroupKey is the group for pilots with no squadron affiliation.
const UnassignedGroupKey = "unassigned"

// DetailEntry is one underlying row behind a summary bucket.
type DetailEntry struct {
	PilotID         string         `json:"pilotId,omitempty"`
	Callsign        string         `json:"callsign,omitempty"`
	BoardNumber     string         `json:"boardNumber,omitempty"`
	FlightDebriefID string         `json:"flightDebriefId,omitempty"`
	FlightID        string         `json:"flightId,omitempty"`
	PilotStatus     PilotStatus    `json:"pilotStatus,omitempty"`
	AircraftStatus  AircraftStatus `json:"aircraftStatus,omitempty"`
	UnitTypeID      string         `json:"unitTypeId,omitempty"`
	UnitDisplayName string         `json:"unitDisplayName,omitempty"`
	KillCategory    KillCategory   `json:"killCategory,omitempty"`
	KillCount       int            `json:"killCount,omitempty"`
	RatingCategory  string         `json:"ratingCategory,omitempty"`
	Rating          Rating         `json:"rating,omitempty"`
	Comments        string         `json:"comments,omitempty"`
}

// DetailGroup is a labelled set of detail entries, e.g. one squadron.
type DetailGroup struct {
	Key     string        `json:"key"`
	Label   string        `json:"label"`
	Entries []DetailEntry `json:"entries"`
}
