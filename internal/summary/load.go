package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wingops/debrief/internal/config"
	"github.com/wingops/debrief/pkg/core"
	"golang.org/x/sync/errgroup"
)

const defaultRatingCategoryCount = 8

// Roster reads the mission structure a summary is computed over.
type Roster interface {
	MissionDebrief(ctx context.Context, id string) (core.MissionDebrief, error)
	Assignments(ctx context.Context, missionID string) ([]core.PilotSlot, error)
	FlightDebriefs(ctx context.Context, missionDebriefID string) ([]core.FlightDebrief, error)
}

// Records reads ledger records.
type Records interface {
	ListByFlightDebriefs(ctx context.Context, flightDebriefIDs []string) ([]core.KillLedgerRecord, error)
}

// Units batch-resolves unit types.
type Units interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]core.UnitType, error)
}

// Directory resolves pilot and squadron details for drill-down.
type Directory interface {
	Pilots(ctx context.Context, ids []string) (map[string]core.Pilot, error)
	Squadrons(ctx context.Context, ids []string) (map[string]core.Squadron, error)
}

// Dependencies holds all dependencies for the aggregator and expander.
type Dependencies struct {
	Roster    Roster
	Records   Records
	Units     Units
	Directory Directory // expander only
	Config    config.SummaryConfig
	Logger    *slog.Logger
}

// snapshot is everything read for one mission debrief.
type snapshot struct {
	debrief        core.MissionDebrief
	slots          []core.PilotSlot
	flightDebriefs []core.FlightDebrief
	records        []core.KillLedgerRecord
	units          map[string]core.UnitType
}

// flights returns the distinct flight ids of the assignment in first-seen order.
func (s snapshot) flights() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, slot := range s.slots {
		if _, ok := seen[slot.FlightID]; ok {
			continue
		}
		seen[slot.FlightID] = struct{}{}
		out = append(out, slot.FlightID)
	}
	return out
}

// flightDebrief returns the flight debrief with id.
func (s snapshot) flightDebrief(id string) (core.FlightDebrief, bool) {
	for _, fd := range s.flightDebriefs {
		if fd.ID == id {
			return fd, true
		}
	}
	return core.FlightDebrief{}, false
}

// load reads the mission debrief and everything under it. A debrief that does
// not exist yields an empty snapshot.
func load(ctx context.Context, deps Dependencies, missionDebriefID string) (snapshot, error) {
	snap := snapshot{debrief: core.MissionDebrief{ID: missionDebriefID}}

	md, err := deps.Roster.MissionDebrief(ctx, missionDebriefID)
	if errors.Is(err, core.ErrNotFound) {
		deps.Logger.DebugContext(ctx, "Mission debrief not found, summarising nothing", "missionDebrief", missionDebriefID)
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("reading mission debrief: %w", err)
	}
	snap.debrief = md

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slots, err := deps.Roster.Assignments(gctx, md.MissionID)
		if err != nil {
			return fmt.Errorf("reading assignments: %w", err)
		}
		snap.slots = slots
		return nil
	})
	g.Go(func() error {
		fds, err := deps.Roster.FlightDebriefs(gctx, md.ID)
		if err != nil {
			return fmt.Errorf("reading flight debriefs: %w", err)
		}
		snap.flightDebriefs = fds
		if len(fds) == 0 {
			return nil
		}
		ids := make([]string, 0, len(fds))
		for _, fd := range fds {
			ids = append(ids, fd.ID)
		}
		recs, err := deps.Records.ListByFlightDebriefs(gctx, ids)
		if err != nil {
			return fmt.Errorf("reading ledger records: %w", err)
		}
		snap.records = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return snap, err
	}

	var unitIDs []string
	seen := make(map[string]struct{})
	for _, r := range snap.records {
		for _, e := range r.Kills.Entries() {
			if _, ok := seen[e.UnitTypeID]; !ok {
				seen[e.UnitTypeID] = struct{}{}
				unitIDs = append(unitIDs, e.UnitTypeID)
			}
		}
	}
	snap.units = map[string]core.UnitType{}
	if len(unitIDs) > 0 {
		snap.units, err = deps.Units.FindByIDs(ctx, unitIDs)
		if err != nil {
			return snap, fmt.Errorf("resolving unit types: %w", err)
		}
	}
	return snap, nil
}

// ratingCategoryCount picks the number of rating categories per flight.
func ratingCategoryCount(cfg config.SummaryConfig, fds []core.FlightDebrief) int {
	if cfg.RatingCategoryCount > 0 {
		return cfg.RatingCategoryCount
	}
	for _, fd := range fds {
		if len(fd.Ratings) > 0 {
			return len(fd.Ratings)
		}
	}
	if cfg.DefaultRatingCategoryCount > 0 {
		return cfg.DefaultRatingCategoryCount
	}
	return defaultRatingCategoryCount
}
