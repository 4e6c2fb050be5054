package summary

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/wingops/debrief/pkg/core"
)

const unassignedLabel = "Unassigned"

// Expander lists the rows behind a summary bucket.
type Expander struct {
	deps Dependencies
}

// NewExpander creates an Expander. deps.Directory is required.
func NewExpander(deps Dependencies) *Expander {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Expander{deps: deps}
}

// Expand re-reads the mission debrief and returns the entries behind bucket.
// Pilot, aircraft and kill entries are grouped by squadron with unaffiliated
// pilots last; performance entries are grouped by flight.
func (e *Expander) Expand(ctx context.Context, missionDebriefID string, bucket core.Bucket) ([]core.DetailGroup, error) {
	snap, err := load(ctx, e.deps, missionDebriefID)
	if err != nil {
		return nil, err
	}

	var entries []core.DetailEntry
	switch bucket.Kind {
	case core.BucketPilot:
		entries = pilotEntries(snap, bucket.Pilot)
	case core.BucketAircraft:
		entries = aircraftEntries(snap, bucket.Aircraft)
	case core.BucketKills:
		entries = killEntries(snap, bucket.KillCategory)
	case core.BucketPerformance:
		return performanceGroups(snap, bucket), nil
	default:
		return nil, fmt.Errorf("unknown bucket kind %q", bucket.Kind)
	}

	groups, err := e.groupBySquadron(ctx, entries)
	if err != nil {
		return nil, err
	}
	e.deps.Logger.DebugContext(ctx, "Expanded summary bucket",
		"missionDebrief", missionDebriefID, "bucket", bucket.String(),
		"entries", len(entries), "groups", len(groups))
	return groups, nil
}

func recordEntry(snap snapshot, r core.KillLedgerRecord) core.DetailEntry {
	fd, _ := snap.flightDebrief(r.FlightDebriefID)
	return core.DetailEntry{
		PilotID:         r.PilotID,
		FlightDebriefID: r.FlightDebriefID,
		FlightID:        fd.FlightID,
		PilotStatus:     r.Statuses.PilotValue(),
		AircraftStatus:  r.Statuses.AircraftValue(),
	}
}

// unassessedPilots returns assigned pilots that no record has assessed. Open
// slots are listed too, without a pilot, so the entries match the summary's
// unaccounted count.
func unassessedPilots(snap snapshot, assessed func(core.PilotStatuses) bool) []core.DetailEntry {
	done := make(map[string]bool)
	for _, r := range snap.records {
		if assessed(r.Statuses) {
			done[r.PilotID] = true
		}
	}
	var out []core.DetailEntry
	for _, slot := range snap.slots {
		if slot.PilotID != "" {
			if done[slot.PilotID] {
				continue
			}
			done[slot.PilotID] = true
		}
		out = append(out, core.DetailEntry{
			PilotID:        slot.PilotID,
			FlightID:       slot.FlightID,
			PilotStatus:    core.PilotUnaccounted,
			AircraftStatus: core.AircraftUnaccounted,
		})
	}
	return out
}

func pilotEntries(snap snapshot, status core.PilotStatus) []core.DetailEntry {
	if status == core.PilotUnaccounted {
		return unassessedPilots(snap, func(s core.PilotStatuses) bool { return s.Pilot.IsAssessed() })
	}
	var out []core.DetailEntry
	for _, r := range snap.records {
		if p, ok := r.Statuses.Pilot.Get(); ok && p == status {
			out = append(out, recordEntry(snap, r))
		}
	}
	return out
}

func aircraftEntries(snap snapshot, status core.AircraftStatus) []core.DetailEntry {
	if status == core.AircraftUnaccounted {
		return unassessedPilots(snap, func(s core.PilotStatuses) bool { return s.Aircraft.IsAssessed() })
	}
	var out []core.DetailEntry
	for _, r := range snap.records {
		if a, ok := r.Statuses.Aircraft.Get(); ok && a == status {
			out = append(out, recordEntry(snap, r))
		}
	}
	return out
}

func killEntries(snap snapshot, cat core.KillCategory) []core.DetailEntry {
	var out []core.DetailEntry
	for _, r := range snap.records {
		for _, k := range r.Kills.Entries() {
			u, ok := snap.units[k.UnitTypeID]
			if !ok || u.KillCategory != cat {
				continue
			}
			e := recordEntry(snap, r)
			e.UnitTypeID = u.ID
			e.UnitDisplayName = u.DisplayName
			e.KillCategory = u.KillCategory
			e.KillCount = k.KillCount
			out = append(out, e)
		}
	}
	return out
}

// performanceGroups lists rating slots per flight debrief. Unassessed slots are
// the categories graded on some flight but missing on this one; a flight with
// no grades at all when no category is known yields one entry without a
// category.
func performanceGroups(snap snapshot, bucket core.Bucket) []core.DetailGroup {
	known := make(map[string]struct{})
	for _, fd := range snap.flightDebriefs {
		for c := range fd.Ratings {
			known[c] = struct{}{}
		}
	}
	if bucket.RatingCategory != "" {
		known = map[string]struct{}{bucket.RatingCategory: {}}
	}
	categories := make([]string, 0, len(known))
	for c := range known {
		categories = append(categories, c)
	}
	slices.Sort(categories)

	var groups []core.DetailGroup
	for _, fd := range snap.flightDebriefs {
		g := core.DetailGroup{Key: fd.FlightID, Label: cmp.Or(fd.FlightCallsign, fd.FlightID)}
		base := core.DetailEntry{FlightDebriefID: fd.ID, FlightID: fd.FlightID}

		if bucket.Rating == core.RatingUnassessed {
			for _, c := range categories {
				if _, graded := fd.Ratings[c]; graded {
					continue
				}
				e := base
				e.RatingCategory = c
				e.Rating = core.RatingUnassessed
				g.Entries = append(g.Entries, e)
			}
			if len(categories) == 0 {
				e := base
				e.Rating = core.RatingUnassessed
				g.Entries = append(g.Entries, e)
			}
		} else {
			for _, c := range categories {
				r, ok := fd.Ratings[c]
				if !ok || r.Rating != bucket.Rating {
					continue
				}
				e := base
				e.RatingCategory = c
				e.Rating = r.Rating
				e.Comments = r.Comments
				g.Entries = append(g.Entries, e)
			}
		}

		if len(g.Entries) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// groupBySquadron fills in pilot details and groups entries by the pilot's
// current squadron, sorted by label with the unassigned group last.
func (e *Expander) groupBySquadron(ctx context.Context, entries []core.DetailEntry) ([]core.DetailGroup, error) {
	if len(entries) == 0 {
		return []core.DetailGroup{}, nil
	}

	pilotIDs := make([]string, 0, len(entries))
	for _, en := range entries {
		if en.PilotID != "" {
			pilotIDs = append(pilotIDs, en.PilotID)
		}
	}
	pilots := map[string]core.Pilot{}
	if len(pilotIDs) > 0 {
		var err error
		pilots, err = e.deps.Directory.Pilots(ctx, pilotIDs)
		if err != nil {
			return nil, fmt.Errorf("reading pilots: %w", err)
		}
	}

	var squadronIDs []string
	for _, p := range pilots {
		if p.SquadronID != "" {
			squadronIDs = append(squadronIDs, p.SquadronID)
		}
	}
	squadrons := map[string]core.Squadron{}
	if len(squadronIDs) > 0 {
		var err error
		squadrons, err = e.deps.Directory.Squadrons(ctx, squadronIDs)
		if err != nil {
			return nil, fmt.Errorf("reading squadrons: %w", err)
		}
	}

	byKey := make(map[string]*core.DetailGroup)
	for _, en := range entries {
		p := pilots[en.PilotID]
		en.Callsign = p.Callsign
		en.BoardNumber = p.BoardNumber

		key, label := core.UnassignedGroupKey, unassignedLabel
		if sq, ok := squadrons[p.SquadronID]; ok {
			key, label = sq.ID, cmp.Or(sq.Name, sq.Designation, sq.ID)
		}
		g, ok := byKey[key]
		if !ok {
			g = &core.DetailGroup{Key: key, Label: label}
			byKey[key] = g
		}
		g.Entries = append(g.Entries, en)
	}

	groups := make([]core.DetailGroup, 0, len(byKey))
	for _, g := range byKey {
		slices.SortStableFunc(g.Entries, func(a, b core.DetailEntry) int {
			// open slots after named pilots
			if aOpen, bOpen := a.PilotID == "", b.PilotID == ""; aOpen != bOpen {
				if aOpen {
					return 1
				}
				return -1
			}
			return cmp.Or(
				cmp.Compare(a.Callsign, b.Callsign),
				cmp.Compare(a.PilotID, b.PilotID),
				cmp.Compare(a.UnitDisplayName, b.UnitDisplayName),
			)
		})
		groups = append(groups, *g)
	}
	slices.SortFunc(groups, func(a, b core.DetailGroup) int {
		aLast, bLast := a.Key == core.UnassignedGroupKey, b.Key == core.UnassignedGroupKey
		if aLast != bLast {
			if aLast {
				return 1
			}
			return -1
		}
		return cmp.Or(cmp.Compare(a.Label, b.Label), cmp.Compare(a.Key, b.Key))
	})
	return groups, nil
}
