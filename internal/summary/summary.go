// Package summary derives mission-level totals from the kill ledger and flight
// debriefs, and expands a total back into the rows behind it.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wingops/debrief/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Aggregator computes mission summaries.
type Aggregator struct {
	deps     Dependencies
	duration metric.Float64Histogram
}

// NewAggregator creates an Aggregator.
func NewAggregator(deps Dependencies) (*Aggregator, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h, err := meter().Float64Histogram("summary.compute.duration",
		metric.WithDescription("Time to compute a mission summary"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &Aggregator{deps: deps, duration: h}, nil
}

// GetMissionSummary scans every ledger record and rating under a mission
// debrief. Missing data counts as zero; only read failures return an error.
func (a *Aggregator) GetMissionSummary(ctx context.Context, missionDebriefID string) (core.MissionSummary, error) {
	start := time.Now()
	snap, err := load(ctx, a.deps, missionDebriefID)
	if err != nil {
		return core.MissionSummary{}, err
	}
	s := summarize(snap, ratingCategoryCount(a.deps.Config, snap.flightDebriefs))

	a.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Int("records", len(snap.records))))
	a.deps.Logger.DebugContext(ctx, "Computed mission summary",
		"missionDebrief", missionDebriefID,
		"slots", s.TotalSlots,
		"records", len(snap.records),
		"kills", s.Kills.Total())
	return s, nil
}

func summarize(snap snapshot, categories int) core.MissionSummary {
	s := core.MissionSummary{
		MissionDebriefID: snap.debrief.ID,
		MissionID:        snap.debrief.MissionID,
		TotalSlots:       len(snap.slots),
		TotalFlights:     len(snap.flights()),
		RatingCategories: categories,
	}

	// every slot starts unaccounted and moves out as records assess it
	s.Pilots.Unaccounted = s.TotalSlots
	s.Aircraft.Unaccounted = s.TotalSlots
	for _, r := range snap.records {
		if p, ok := r.Statuses.Pilot.Get(); ok {
			addPilot(&s.Pilots, p)
		}
		if ac, ok := r.Statuses.Aircraft.Get(); ok {
			addAircraft(&s.Aircraft, ac)
		}
		for _, e := range r.Kills.Entries() {
			if u, ok := snap.units[e.UnitTypeID]; ok {
				s.Kills.Add(u.KillCategory, e.KillCount)
			}
		}
	}

	s.Performance.TotalPossible = s.TotalFlights * categories
	for _, fd := range snap.flightDebriefs {
		for _, r := range fd.Ratings {
			switch r.Rating {
			case core.RatingSAT:
				s.Performance.SAT++
			case core.RatingUNSAT:
				s.Performance.UNSAT++
			}
		}
	}
	s.Performance.Unassessed = s.Performance.TotalPossible - s.Performance.SAT - s.Performance.UNSAT
	return s
}

func addPilot(c *core.PilotCounts, p core.PilotStatus) {
	switch p {
	case core.PilotAlive:
		c.Alive++
	case core.PilotMIA:
		c.MIA++
	case core.PilotKIA:
		c.KIA++
	default:
		return
	}
	c.Unaccounted--
}

func addAircraft(c *core.AircraftCounts, a core.AircraftStatus) {
	switch a {
	case core.AircraftRecovered:
		c.Recovered++
	case core.AircraftDamaged:
		c.Damaged++
	case core.AircraftDestroyed:
		c.Destroyed++
	case core.AircraftDown:
		c.Down++
	default:
		return
	}
	c.Unaccounted--
}
