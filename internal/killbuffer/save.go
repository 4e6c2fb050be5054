package killbuffer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/wingops/debrief/internal/logging"
	"github.com/wingops/debrief/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SaveResult reports what a save wrote.
type SaveResult struct {
	Deleted    int
	Upserted   int
	Skipped    int
	StatusOnly int
}

// Changed reports whether the save wrote anything.
func (r SaveResult) Changed() bool {
	return r.Deleted+r.Upserted+r.StatusOnly > 0
}

type upsert struct {
	line  Line
	write core.UnitKillWrite
}

type plan struct {
	flightDebriefID string
	lines           []Line
	deletes         []core.LineKey
	upserts         []upsert
	skipped         int
	statusWrites    []core.StatusWrite
}

// planLocked diffs the buffer against what was last persisted. b.mu must be held.
func (b *Buffer) planLocked(flightDebriefID string) plan {
	p := plan{flightDebriefID: flightDebriefID, lines: slices.Clone(b.lines)}
	sameDebrief := flightDebriefID == b.flightDebriefID

	current := make(map[core.LineKey]struct{}, len(b.lines))
	withLines := make(map[string]bool)
	for _, l := range b.lines {
		withLines[l.PilotID] = true
		if !l.ID.IsTemp() {
			current[l.ID.Key] = struct{}{}
		}
	}

	// pilots whose persisted entries go away in this save
	lostLines := make(map[string]bool)
	recordPilot := b.recordPilotsLocked()
	for key := range b.originalIDs {
		if _, ok := current[key]; !ok {
			p.deletes = append(p.deletes, key)
			lostLines[recordPilot[key.RecordID]] = true
		}
	}
	slices.SortFunc(p.deletes, func(a, c core.LineKey) int {
		return cmp.Or(cmp.Compare(a.RecordID, c.RecordID), cmp.Compare(a.UnitTypeID, c.UnitTypeID))
	})

	for _, l := range b.lines {
		working := b.statuses[l.PilotID].Working()
		if sameDebrief && !l.ID.IsTemp() &&
			b.savedCounts[l.ID.Key] == l.KillCount &&
			b.savedStatuses[l.PilotID].Working() == working {
			p.skipped++
			continue
		}
		p.upserts = append(p.upserts, upsert{
			line: l,
			write: core.UnitKillWrite{
				FlightDebriefID: flightDebriefID,
				PilotID:         l.PilotID,
				MissionID:       b.missionID,
				UnitTypeID:      l.UnitTypeID,
				Count:           l.KillCount,
				Statuses:        working,
			},
		})
	}

	pilots := make(map[string]struct{}, len(b.statuses)+len(b.pilotHasRecord))
	for id := range b.statuses {
		pilots[id] = struct{}{}
	}
	for id := range b.pilotHasRecord {
		pilots[id] = struct{}{}
	}
	for _, pilotID := range slices.Sorted(maps.Keys(pilots)) {
		if withLines[pilotID] {
			continue
		}
		st := b.statuses[pilotID]
		if lostLines[pilotID] && st.IsBaseline() {
			// baseline statuses only live alongside kills
			st = core.PilotStatuses{}
		}
		if !lostLines[pilotID] {
			if b.pilotHasRecord[pilotID] && b.savedStatuses[pilotID] == st.ForStorage() {
				continue
			}
			if !b.pilotHasRecord[pilotID] && st.IsDefault() {
				continue
			}
		}
		p.statusWrites = append(p.statusWrites, core.StatusWrite{
			FlightDebriefID: flightDebriefID,
			PilotID:         pilotID,
			MissionID:       b.missionID,
			Statuses:        st,
		})
	}
	return p
}

// recordPilotsLocked maps persisted record ids to their pilot.
func (b *Buffer) recordPilotsLocked() map[string]string {
	out := make(map[string]string, len(b.savedCounts))
	for _, pl := range b.persistedPilots {
		out[pl.key.RecordID] = pl.pilotID
	}
	return out
}

// Save writes the difference between the buffer and the store for
// flightDebriefID, which replaces the id the buffer was opened with when the
// flight debrief was created after the buffer. Stale entries are deleted first,
// then every changed line is merged into its pilot's record, then pilots
// without lines get their statuses saved on their own.
//
// When a store call fails Save stops and returns the error. The buffer keeps
// its state, so calling Save again retries the whole diff.
func (b *Buffer) Save(ctx context.Context, flightDebriefID string) (SaveResult, error) {
	if !b.saving.TryLock() {
		return SaveResult{}, ErrSaveInProgress
	}
	defer b.saving.Unlock()

	if flightDebriefID == "" {
		flightDebriefID = b.flightDebriefID
	}
	ctx = logging.WithAttrs(ctx,
		slog.String("flightDebrief", flightDebriefID),
		slog.String("mission", b.missionID))
	attrs := metric.WithAttributes(attribute.String("flight_debrief", flightDebriefID))

	b.mu.Lock()
	p := b.planLocked(flightDebriefID)
	statuses := maps.Clone(b.statuses)
	b.mu.Unlock()

	res := SaveResult{Skipped: p.skipped}
	fail := func(step string, err error) (SaveResult, error) {
		b.ins.failures.Add(ctx, 1, attrs)
		b.logger.ErrorContext(ctx, "Kill save failed", "step", step, "error", err)
		return res, fmt.Errorf("%s: %w", step, err)
	}

	for _, key := range p.deletes {
		if err := b.store.DeleteUnitKill(ctx, key); err != nil {
			return fail("deleting removed kills", err)
		}
		res.Deleted++
	}
	b.ins.deletes.Add(ctx, int64(res.Deleted), attrs)

	keys := make(map[LineID]core.LineKey, len(p.upserts))
	for _, u := range p.upserts {
		key, err := b.store.RecordUnitKill(ctx, u.write)
		if err != nil {
			return fail("saving kills", err)
		}
		keys[u.line.ID] = key
		res.Upserted++
	}
	b.ins.upserts.Add(ctx, int64(res.Upserted), attrs)

	recordIDs := make(map[string]string, len(p.statusWrites))
	for _, w := range p.statusWrites {
		id, err := b.store.SavePilotStatusOnly(ctx, w)
		if err != nil {
			return fail("saving statuses", err)
		}
		recordIDs[w.PilotID] = id
		res.StatusOnly++
	}
	b.ins.statusOnly.Add(ctx, int64(res.StatusOnly), attrs)

	b.mu.Lock()
	b.commitLocked(p, keys, recordIDs, statuses)
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "Saved kills",
		"deleted", res.Deleted, "upserted", res.Upserted,
		"skipped", res.Skipped, "statusOnly", res.StatusOnly)
	return res, nil
}

type persistedLine struct {
	key     core.LineKey
	pilotID string
}

// commitLocked makes the saved plan the new baseline. b.mu must be held.
func (b *Buffer) commitLocked(p plan, keys map[LineID]core.LineKey, recordIDs map[string]string, statuses map[string]core.PilotStatuses) {
	b.flightDebriefID = p.flightDebriefID
	b.originalIDs = make(map[core.LineKey]struct{}, len(p.lines))
	b.savedCounts = make(map[core.LineKey]int, len(p.lines))
	b.persistedPilots = b.persistedPilots[:0]

	for _, l := range p.lines {
		key := l.ID.Key
		if k, ok := keys[l.ID]; ok {
			key = k
		}
		b.originalIDs[key] = struct{}{}
		b.savedCounts[key] = l.KillCount
		b.persistedPilots = append(b.persistedPilots, persistedLine{key: key, pilotID: l.PilotID})
		b.savedStatuses[l.PilotID] = statuses[l.PilotID].Working()
		b.pilotHasRecord[l.PilotID] = true

		// lines edited while the save ran keep their edits but take the new id
		if i := b.index(l.ID); i >= 0 {
			b.lines[i].ID = LineID{Key: key}
		}
	}

	for pilotID, id := range recordIDs {
		if id == "" {
			delete(b.savedStatuses, pilotID)
			delete(b.pilotHasRecord, pilotID)
			if b.statuses[pilotID] == statuses[pilotID] {
				delete(b.statuses, pilotID)
			}
			continue
		}
		b.savedStatuses[pilotID] = statuses[pilotID].ForStorage()
		b.pilotHasRecord[pilotID] = true
	}
}
