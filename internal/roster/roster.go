// Package roster reads the squadron, pilot, flight and debrief data owned by
// the surrounding application. It never writes.
package roster

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wingops/debrief/internal/cache"
	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/internal/model/convert"
	"github.com/wingops/debrief/pkg/core"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the roster reader.
type Dependencies struct {
	DB     *gorm.DB
	Pilots *cache.PilotCache // optional
	Logger *slog.Logger
}

// Reader answers roster and debrief lookups.
type Reader struct {
	db     *gorm.DB
	pilots *cache.PilotCache
	logger *slog.Logger
}

// New creates a Reader.
func New(deps Dependencies) *Reader {
	r := &Reader{db: deps.DB, pilots: deps.Pilots, logger: deps.Logger}
	if r.pilots == nil {
		r.pilots = cache.NewPilotCache()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Pilot returns one pilot. The error matches core.ErrNotFound when absent.
func (r *Reader) Pilot(ctx context.Context, id string) (core.Pilot, error) {
	if p, ok := r.pilots.Get(id); ok {
		return p, nil
	}
	var row model.Pilot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Pilot{}, core.NewOpError("roster.Pilot", core.ErrNotFound, nil, "pilot", id)
	}
	if err != nil {
		return core.Pilot{}, core.NewOpError("roster.Pilot", core.ErrPersistence, err, "pilot", id)
	}
	p := convert.PilotToCore(row)
	r.pilots.Set(p)
	return p, nil
}

// PilotExists reports whether id names a pilot.
func (r *Reader) PilotExists(ctx context.Context, id string) (bool, error) {
	_, err := r.Pilot(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Pilots resolves many pilot ids. Unknown ids are absent from the result.
func (r *Reader) Pilots(ctx context.Context, ids []string) (map[string]core.Pilot, error) {
	out := make(map[string]core.Pilot, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.pilots.Get(id); ok {
			out[id] = p
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	var rows []model.Pilot
	if err := r.db.WithContext(ctx).Where("id IN ?", missing).Find(&rows).Error; err != nil {
		return nil, core.NewOpError("roster.Pilots", core.ErrPersistence, err)
	}
	for _, row := range rows {
		p := convert.PilotToCore(row)
		r.pilots.Set(p)
		out[p.ID] = p
	}
	return out, nil
}

// Squadrons resolves squadron ids. Unknown ids are absent from the result.
func (r *Reader) Squadrons(ctx context.Context, ids []string) (map[string]core.Squadron, error) {
	out := make(map[string]core.Squadron, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Squadron
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, core.NewOpError("roster.Squadrons", core.ErrPersistence, err)
	}
	for _, row := range rows {
		out[row.ID] = convert.SquadronToCore(row)
	}
	return out, nil
}

// MissionDebrief returns the debrief header. The error matches core.ErrNotFound
// when absent.
func (r *Reader) MissionDebrief(ctx context.Context, id string) (core.MissionDebrief, error) {
	var row model.MissionDebrief
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.MissionDebrief{}, core.NewOpError("roster.MissionDebrief", core.ErrNotFound, nil, "missionDebrief", id)
	}
	if err != nil {
		return core.MissionDebrief{}, core.NewOpError("roster.MissionDebrief", core.ErrPersistence, err, "missionDebrief", id)
	}
	return core.MissionDebrief{ID: row.ID, MissionID: row.MissionID}, nil
}

// Assignments returns every seat in the mission, open slots included, ordered
// by flight and dash number.
func (r *Reader) Assignments(ctx context.Context, missionID string) ([]core.PilotSlot, error) {
	var rows []model.PilotAssignment
	err := r.db.WithContext(ctx).
		Where("mission_id = ?", missionID).
		Order("flight_id, dash_number, id").
		Find(&rows).Error
	if err != nil {
		return nil, core.NewOpError("roster.Assignments", core.ErrPersistence, err, "mission", missionID)
	}
	out := make([]core.PilotSlot, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert.PilotAssignmentToCore(row))
	}
	return out, nil
}

// flightDebriefRow is a flight debrief joined with its flight's callsign.
type flightDebriefRow struct {
	model.FlightDebrief
	FlightCallsign string
}

// FlightDebriefs returns the mission debrief's flight debriefs ordered by
// creation time.
func (r *Reader) FlightDebriefs(ctx context.Context, missionDebriefID string) ([]core.FlightDebrief, error) {
	var rows []flightDebriefRow
	err := r.db.WithContext(ctx).
		Model(&model.FlightDebrief{}).
		Select("flight_debriefs.*, flights.callsign AS flight_callsign").
		Joins("LEFT JOIN flights ON flights.id = flight_debriefs.flight_id").
		Where("flight_debriefs.mission_debrief_id = ?", missionDebriefID).
		Order("flight_debriefs.created_at, flight_debriefs.id").
		Scan(&rows).Error
	if err != nil {
		return nil, core.NewOpError("roster.FlightDebriefs", core.ErrPersistence, err, "missionDebrief", missionDebriefID)
	}
	out := make([]core.FlightDebrief, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert.FlightDebriefToCore(row.FlightDebrief, row.FlightCallsign))
	}
	return out, nil
}

// FlightDebrief returns one flight debrief with its flight's callsign. The
// error matches core.ErrNotFound when absent.
func (r *Reader) FlightDebrief(ctx context.Context, id string) (core.FlightDebrief, error) {
	var rows []flightDebriefRow
	err := r.db.WithContext(ctx).
		Model(&model.FlightDebrief{}).
		Select("flight_debriefs.*, flights.callsign AS flight_callsign").
		Joins("LEFT JOIN flights ON flights.id = flight_debriefs.flight_id").
		Where("flight_debriefs.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return core.FlightDebrief{}, core.NewOpError("roster.FlightDebrief", core.ErrPersistence, err, "flightDebrief", id)
	}
	if len(rows) == 0 {
		return core.FlightDebrief{}, core.NewOpError("roster.FlightDebrief", core.ErrNotFound, nil, "flightDebrief", id)
	}
	return convert.FlightDebriefToCore(rows[0].FlightDebrief, rows[0].FlightCallsign), nil
}

// FlightRoster returns the pilots seated in the flight of a flight debrief,
// ordered by dash number. Open slots are skipped.
func (r *Reader) FlightRoster(ctx context.Context, flightDebriefID string) ([]core.RosterEntry, error) {
	var fd model.FlightDebrief
	err := r.db.WithContext(ctx).Where("id = ?", flightDebriefID).First(&fd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.NewOpError("roster.FlightRoster", core.ErrNotFound, nil, "flightDebrief", flightDebriefID)
	}
	if err != nil {
		return nil, core.NewOpError("roster.FlightRoster", core.ErrPersistence, err, "flightDebrief", flightDebriefID)
	}
	return r.FlightRosterByFlight(ctx, fd.FlightID)
}

// FlightRosterByFlight returns the pilots seated in a flight, ordered by dash number.
func (r *Reader) FlightRosterByFlight(ctx context.Context, flightID string) ([]core.RosterEntry, error) {
	var rows []core.RosterEntry
	err := r.db.WithContext(ctx).
		Model(&model.PilotAssignment{}).
		Select("pilots.id AS pilot_id, pilots.callsign, pilots.board_number, pilot_assignments.dash_number").
		Joins("JOIN pilots ON pilots.id = pilot_assignments.pilot_id").
		Where("pilot_assignments.flight_id = ?", flightID).
		Order("pilot_assignments.dash_number, pilots.id").
		Scan(&rows).Error
	if err != nil {
		return nil, core.NewOpError("roster.FlightRosterByFlight", core.ErrPersistence, err, "flight", flightID)
	}
	return rows, nil
}
