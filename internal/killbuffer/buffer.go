// Package killbuffer holds an operator's in-progress kill edits for one flight
// debrief and reconciles them with the ledger store on save.
package killbuffer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/wingops/debrief/pkg/core"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrSaveInProgress is returned when Save is called while another Save on
	// the same buffer has not finished.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrUnknownLine is returned when a line id is not in the buffer.
	ErrUnknownLine = errors.New("unknown line")
)

// Store is the ledger store as seen by the buffer.
type Store interface {
	GetByFlight(ctx context.Context, flightDebriefID string) ([]core.ExpandedKillLine, error)
	GetStatusesByFlight(ctx context.Context, flightDebriefID string) ([]core.StatusRow, error)
	RecordUnitKill(ctx context.Context, w core.UnitKillWrite) (core.LineKey, error)
	DeleteUnitKill(ctx context.Context, key core.LineKey) error
	SavePilotStatusOnly(ctx context.Context, w core.StatusWrite) (string, error)
}

// RosterLookup lists the pilots of a flight debrief.
type RosterLookup interface {
	FlightRoster(ctx context.Context, flightDebriefID string) ([]core.RosterEntry, error)
}

// Dependencies holds all dependencies for a buffer.
type Dependencies struct {
	Store  Store
	Roster RosterLookup // optional
	Logger *slog.Logger
}

type instruments struct {
	deletes    metric.Int64Counter
	upserts    metric.Int64Counter
	statusOnly metric.Int64Counter
	failures   metric.Int64Counter
}

func newInstruments() (instruments, error) {
	m := meter()
	var ins instruments
	var err error

	ins.deletes, err = m.Int64Counter("killbuffer.deletes",
		metric.WithDescription("Ledger entries deleted by saves"))
	if err != nil {
		return ins, fmt.Errorf("creating deletes counter: %w", err)
	}
	ins.upserts, err = m.Int64Counter("killbuffer.upserts",
		metric.WithDescription("Ledger entries written by saves"))
	if err != nil {
		return ins, fmt.Errorf("creating upserts counter: %w", err)
	}
	ins.statusOnly, err = m.Int64Counter("killbuffer.status_writes",
		metric.WithDescription("Status-only records written by saves"))
	if err != nil {
		return ins, fmt.Errorf("creating status writes counter: %w", err)
	}
	ins.failures, err = m.Int64Counter("killbuffer.save.failures",
		metric.WithDescription("Saves aborted by a store error"))
	if err != nil {
		return ins, fmt.Errorf("creating failures counter: %w", err)
	}
	return ins, nil
}

// Buffer is the editable kill state of one flight debrief. Mutations only touch
// memory; Save writes the difference to the store.
type Buffer struct {
	store  Store
	logger *slog.Logger
	ins    instruments

	flightDebriefID string
	missionID       string
	roster          []core.RosterEntry

	mu    sync.Mutex
	lines []Line
	// statuses holds the operator's view; pilots never touched are absent.
	statuses map[string]core.PilotStatuses

	// what the store holds as far as this buffer knows
	originalIDs     map[core.LineKey]struct{}
	savedCounts     map[core.LineKey]int
	persistedPilots []persistedLine
	savedStatuses   map[string]core.PilotStatuses
	pilotHasRecord  map[string]bool

	saving sync.Mutex
}

// New returns an empty buffer, e.g. for a flight debrief not created yet.
func New(deps Dependencies, flightDebriefID, missionID string) (*Buffer, error) {
	ins, err := newInstruments()
	if err != nil {
		return nil, err
	}
	b := &Buffer{
		store:           deps.Store,
		logger:          deps.Logger,
		ins:             ins,
		flightDebriefID: flightDebriefID,
		missionID:       missionID,
		statuses:        make(map[string]core.PilotStatuses),
		originalIDs:     make(map[core.LineKey]struct{}),
		savedCounts:     make(map[core.LineKey]int),
		savedStatuses:   make(map[string]core.PilotStatuses),
		pilotHasRecord:  make(map[string]bool),
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b, nil
}

// Open loads the persisted kills and statuses of a flight debrief.
func Open(ctx context.Context, deps Dependencies, flightDebriefID, missionID string) (*Buffer, error) {
	b, err := New(deps, flightDebriefID, missionID)
	if err != nil {
		return nil, err
	}

	persisted, err := b.store.GetByFlight(ctx, flightDebriefID)
	if err != nil {
		return nil, fmt.Errorf("loading kills: %w", err)
	}
	rows, err := b.store.GetStatusesByFlight(ctx, flightDebriefID)
	if err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}
	if deps.Roster != nil {
		b.roster, err = deps.Roster.FlightRoster(ctx, flightDebriefID)
		if err != nil {
			return nil, fmt.Errorf("loading roster: %w", err)
		}
	}

	for _, pl := range persisted {
		b.lines = append(b.lines, Line{
			ID:           LineID{Key: pl.Key},
			PilotID:      pl.PilotID,
			UnitTypeID:   pl.UnitTypeID,
			DisplayName:  pl.DisplayName,
			KillCategory: pl.KillCategory,
			KillCount:    pl.KillCount,
		})
		b.originalIDs[pl.Key] = struct{}{}
		b.savedCounts[pl.Key] = pl.KillCount
		b.persistedPilots = append(b.persistedPilots, persistedLine{key: pl.Key, pilotID: pl.PilotID})
	}
	for _, row := range rows {
		b.statuses[row.PilotID] = row.Statuses
		b.savedStatuses[row.PilotID] = row.Statuses
		b.pilotHasRecord[row.PilotID] = true
	}

	b.logger.DebugContext(ctx, "Opened kill buffer",
		"flightDebrief", flightDebriefID, "lines", len(b.lines), "statuses", len(rows))
	return b, nil
}

// FlightDebriefID returns the flight debrief the buffer was opened for.
func (b *Buffer) FlightDebriefID() string {
	return b.flightDebriefID
}

// Roster returns the flight's pilots loaded by Open, if a roster lookup was given.
func (b *Buffer) Roster() []core.RosterEntry {
	return slices.Clone(b.roster)
}

// Lines returns a copy of the current lines in display order.
func (b *Buffer) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.lines)
}

// Find returns the line for (pilotID, unitTypeID).
func (b *Buffer) Find(pilotID, unitTypeID string) (Line, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.find(pilotID, unitTypeID); i >= 0 {
		return b.lines[i], true
	}
	return Line{}, false
}

// Status returns the operator's statuses for a pilot.
func (b *Buffer) Status(pilotID string) core.PilotStatuses {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statuses[pilotID]
}

// Statuses returns a copy of the status map.
func (b *Buffer) Statuses() map[string]core.PilotStatuses {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.statuses)
}

func (b *Buffer) find(pilotID, unitTypeID string) int {
	return slices.IndexFunc(b.lines, func(l Line) bool {
		return l.PilotID == pilotID && l.UnitTypeID == unitTypeID
	})
}

func (b *Buffer) index(id LineID) int {
	return slices.IndexFunc(b.lines, func(l Line) bool { return l.ID == id })
}

// Add credits the pilot with one more kill of u, appending a new line when the
// pilot has none for that unit type.
func (b *Buffer) Add(pilotID string, u core.UnitType) LineID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(pilotID, u.ID, u.DisplayName, u.KillCategory, 1)
}

func (b *Buffer) addLocked(pilotID, unitTypeID, displayName string, cat core.KillCategory, n int) LineID {
	if i := b.find(pilotID, unitTypeID); i >= 0 {
		b.lines[i].KillCount += n
		return b.lines[i].ID
	}
	id := newTempID()
	b.lines = append(b.lines, Line{
		ID:           id,
		PilotID:      pilotID,
		UnitTypeID:   unitTypeID,
		DisplayName:  displayName,
		KillCategory: cat,
		KillCount:    n,
	})
	return id
}

// Increment adds one to a line.
func (b *Buffer) Increment(id LineID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLine, id)
	}
	b.lines[i].KillCount++
	return nil
}

// Decrement takes one from a line, removing it when the count reaches zero.
// It reports whether the line was removed.
func (b *Buffer) Decrement(id LineID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrUnknownLine, id)
	}
	if b.lines[i].KillCount <= 1 {
		b.lines = slices.Delete(b.lines, i, i+1)
		return true, nil
	}
	b.lines[i].KillCount--
	return false, nil
}

// Remove drops a line regardless of its count.
func (b *Buffer) Remove(id LineID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLine, id)
	}
	b.lines = slices.Delete(b.lines, i, i+1)
	return nil
}

// Move reassigns a line to another pilot. The kills are merged into the
// target's line for the same unit type if there is one.
func (b *Buffer) Move(id LineID, pilotID string) (LineID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return LineID{}, fmt.Errorf("%w: %s", ErrUnknownLine, id)
	}
	l := b.lines[i]
	if l.PilotID == pilotID {
		return l.ID, nil
	}
	b.lines = slices.Delete(b.lines, i, i+1)
	return b.addLocked(pilotID, l.UnitTypeID, l.DisplayName, l.KillCategory, l.KillCount), nil
}

// SetPilotStatus sets the pilot half of a pilot's statuses. "unaccounted"
// clears it.
func (b *Buffer) SetPilotStatus(pilotID string, s core.PilotStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.statuses[pilotID]
	st.Pilot = core.Assessed(s)
	b.statuses[pilotID] = st
}

// SetAircraftStatus sets the aircraft half of a pilot's statuses. "unaccounted"
// clears it.
func (b *Buffer) SetAircraftStatus(pilotID string, a core.AircraftStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.statuses[pilotID]
	st.Aircraft = core.Assessed(a)
	b.statuses[pilotID] = st
}

// Dirty reports whether Save would write anything.
func (b *Buffer) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.planLocked(b.flightDebriefID)
	return len(p.deletes) > 0 || len(p.upserts) > 0 || len(p.statusWrites) > 0
}
