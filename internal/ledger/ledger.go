// Package ledger persists per-pilot kill ledgers and pilot/aircraft statuses
// for flight debriefs.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/internal/model/convert"
	"github.com/wingops/debrief/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitLookup resolves catalog entries.
type UnitLookup interface {
	FindByID(ctx context.Context, id string) (core.UnitType, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]core.UnitType, error)
}

// PilotLookup checks pilot ids against the roster.
type PilotLookup interface {
	PilotExists(ctx context.Context, id string) (bool, error)
}

// Dependencies holds all dependencies for the ledger store.
type Dependencies struct {
	DB     *gorm.DB
	Units  UnitLookup
	Pilots PilotLookup
	Logger *slog.Logger
}

// Store reads and writes kill ledger records.
type Store struct {
	db     *gorm.DB
	units  UnitLookup
	pilots PilotLookup
	logger *slog.Logger
}

// New creates a Store.
func New(deps Dependencies) *Store {
	s := &Store{db: deps.DB, units: deps.Units, pilots: deps.Pilots, logger: deps.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func persistence(op string, err error, ids ...string) error {
	return core.NewOpError(op, core.ErrPersistence, err, ids...)
}

// GetByFlight expands every record of the flight debrief into one line per
// unit, ordered by record creation time and then ledger order.
func (s *Store) GetByFlight(ctx context.Context, flightDebriefID string) ([]core.ExpandedKillLine, error) {
	const op = "ledger.GetByFlight"
	records, err := s.find(ctx, op, "flight_debrief_id = ?", flightDebriefID)
	if err != nil {
		return nil, err
	}

	var unitIDs []string
	for _, r := range records {
		for _, e := range r.Kills.Entries() {
			unitIDs = append(unitIDs, e.UnitTypeID)
		}
	}
	units, err := s.units.FindByIDs(ctx, unitIDs)
	if err != nil {
		return nil, err
	}

	var lines []core.ExpandedKillLine
	for _, r := range records {
		for _, e := range r.Kills.Entries() {
			line := core.ExpandedKillLine{
				Key:             core.LineKey{RecordID: r.ID, UnitTypeID: e.UnitTypeID},
				FlightDebriefID: r.FlightDebriefID,
				PilotID:         r.PilotID,
				MissionID:       r.MissionID,
				UnitTypeID:      e.UnitTypeID,
				KillCount:       e.KillCount,
				Statuses:        r.Statuses,
				RecordCreated:   r.CreatedAt,
			}
			if u, ok := units[e.UnitTypeID]; ok {
				line.DisplayName = u.DisplayName
				line.TypeName = u.TypeName
				line.Category = u.Category
				line.KillCategory = u.KillCategory
			} else {
				s.logger.WarnContext(ctx, "Ledger entry references unknown unit type",
					"record", r.ID, "unitType", e.UnitTypeID)
				line.DisplayName = e.UnitTypeID
				line.Category = core.UnitUnknown
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// GetStatusesByFlight returns the statuses of every record in the flight
// debrief, including records without kills.
func (s *Store) GetStatusesByFlight(ctx context.Context, flightDebriefID string) ([]core.StatusRow, error) {
	records, err := s.find(ctx, "ledger.GetStatusesByFlight", "flight_debrief_id = ?", flightDebriefID)
	if err != nil {
		return nil, err
	}
	out := make([]core.StatusRow, 0, len(records))
	for _, r := range records {
		out = append(out, core.StatusRow{RecordID: r.ID, PilotID: r.PilotID, Statuses: r.Statuses})
	}
	return out, nil
}

// GetRecord returns the pilot's record in the flight debrief.
// The error matches core.ErrNotFound when there is none.
func (s *Store) GetRecord(ctx context.Context, flightDebriefID, pilotID string) (core.KillLedgerRecord, error) {
	row, err := s.first(s.db.WithContext(ctx), flightDebriefID, pilotID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.KillLedgerRecord{}, core.NewOpError("ledger.GetRecord", core.ErrNotFound, nil, "flightDebrief", flightDebriefID, "pilot", pilotID)
	}
	if err != nil {
		return core.KillLedgerRecord{}, persistence("ledger.GetRecord", err, "flightDebrief", flightDebriefID, "pilot", pilotID)
	}
	return convert.KillLedgerRecordToCore(row), nil
}

// ListByPilot returns every record of a pilot across flight debriefs.
func (s *Store) ListByPilot(ctx context.Context, pilotID string) ([]core.KillLedgerRecord, error) {
	return s.find(ctx, "ledger.ListByPilot", "pilot_id = ?", pilotID)
}

// ListByFlightDebriefs returns the records of many flight debriefs.
func (s *Store) ListByFlightDebriefs(ctx context.Context, flightDebriefIDs []string) ([]core.KillLedgerRecord, error) {
	if len(flightDebriefIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, "ledger.ListByFlightDebriefs", "flight_debrief_id IN ?", flightDebriefIDs)
}

func (s *Store) find(ctx context.Context, op, query string, arg any) ([]core.KillLedgerRecord, error) {
	var rows []model.KillLedgerRecord
	err := s.db.WithContext(ctx).Where(query, arg).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, persistence(op, err)
	}
	out := make([]core.KillLedgerRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert.KillLedgerRecordToCore(row))
	}
	return out, nil
}

func (s *Store) first(tx *gorm.DB, flightDebriefID, pilotID string) (model.KillLedgerRecord, error) {
	var row model.KillLedgerRecord
	err := tx.Where("flight_debrief_id = ? AND pilot_id = ?", flightDebriefID, pilotID).First(&row).Error
	return row, err
}

func (s *Store) checkPilot(ctx context.Context, op, pilotID string) error {
	ok, err := s.pilots.PilotExists(ctx, pilotID)
	if err != nil {
		return persistence(op, err, "pilot", pilotID)
	}
	if !ok {
		return core.NewOpError(op, core.ErrReferential, errors.New("unknown pilot"), "pilot", pilotID)
	}
	return nil
}

func (s *Store) checkUnit(ctx context.Context, op, unitTypeID string) error {
	_, err := s.units.FindByID(ctx, unitTypeID)
	if errors.Is(err, core.ErrNotFound) {
		return core.NewOpError(op, core.ErrReferential, errors.New("unknown unit type"), "unitType", unitTypeID)
	}
	if err != nil {
		return persistence(op, err, "unitType", unitTypeID)
	}
	return nil
}

// RecordUnitKill sets the pilot's count for one unit type, creating the record
// if needed, and replaces the record's statuses with w.Statuses in storage
// form. Repeating the same call leaves the same single entry.
func (s *Store) RecordUnitKill(ctx context.Context, w core.UnitKillWrite) (core.LineKey, error) {
	const op = "ledger.RecordUnitKill"
	ids := []string{"flightDebrief", w.FlightDebriefID, "pilot", w.PilotID, "unitType", w.UnitTypeID}
	if w.Count <= 0 {
		return core.LineKey{}, core.NewOpError(op, core.ErrInvalidCount, nil, ids...)
	}
	if err := s.checkPilot(ctx, op, w.PilotID); err != nil {
		return core.LineKey{}, err
	}
	if err := s.checkUnit(ctx, op, w.UnitTypeID); err != nil {
		return core.LineKey{}, err
	}

	pilotStatus, aircraftStatus := convert.StatusesToGorm(w.Statuses)
	var key core.LineKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.KillLedgerRecord{
			FlightDebriefID: w.FlightDebriefID,
			PilotID:         w.PilotID,
			MissionID:       w.MissionID,
			KillsDetail:     convert.LedgerToGorm(core.NewLedger(core.KillEntry{UnitTypeID: w.UnitTypeID, KillCount: w.Count})),
			PilotStatus:     pilotStatus,
			AircraftStatus:  aircraftStatus,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "flight_debrief_id"}, {Name: "pilot_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			key = core.LineKey{RecordID: row.ID, UnitTypeID: w.UnitTypeID}
			return nil
		}

		existing, err := s.first(tx, w.FlightDebriefID, w.PilotID)
		if err != nil {
			return err
		}
		ledger := convert.LedgerToCore(existing.KillsDetail.Data())
		ledger.Set(w.UnitTypeID, w.Count)
		key = core.LineKey{RecordID: existing.ID, UnitTypeID: w.UnitTypeID}
		return tx.Model(&model.KillLedgerRecord{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"kills_detail":    convert.LedgerToGorm(ledger),
			"pilot_status":    pilotStatus,
			"aircraft_status": aircraftStatus,
			"updated_at":      time.Now(),
		}).Error
	})
	if err != nil {
		return core.LineKey{}, persistence(op, err, ids...)
	}

	s.logger.DebugContext(ctx, "Recorded unit kill",
		"record", key.RecordID, "pilot", w.PilotID, "unitType", w.UnitTypeID, "count", w.Count)
	return key, nil
}

// DeleteUnitKill removes one unit entry. When that empties the ledger and the
// pilot carries no status beyond alive/recovered, the whole record is deleted;
// otherwise the record stays so its statuses are kept. A key that no longer
// resolves is logged and ignored.
func (s *Store) DeleteUnitKill(ctx context.Context, key core.LineKey) error {
	const op = "ledger.DeleteUnitKill"
	var stale, removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.KillLedgerRecord
		err := tx.Where("id = ?", key.RecordID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stale = true
			return nil
		}
		if err != nil {
			return err
		}

		rec := convert.KillLedgerRecordToCore(row)
		if !rec.Kills.Remove(key.UnitTypeID) {
			stale = true
			return nil
		}
		if rec.Kills.Empty() && rec.Statuses.IsBaseline() {
			removed = true
			return tx.Delete(&model.KillLedgerRecord{}, "id = ?", row.ID).Error
		}
		return tx.Model(&model.KillLedgerRecord{}).Where("id = ?", row.ID).Updates(map[string]any{
			"kills_detail": convert.LedgerToGorm(rec.Kills),
			"updated_at":   time.Now(),
		}).Error
	})
	if err != nil {
		return persistence(op, err, "record", key.RecordID, "unitType", key.UnitTypeID)
	}

	if stale {
		s.logger.WarnContext(ctx, "Ignoring delete of missing ledger entry",
			"error", core.NewOpError(op, core.ErrStaleState, nil, "record", key.RecordID, "unitType", key.UnitTypeID))
		return nil
	}
	s.logger.DebugContext(ctx, "Deleted unit kill",
		"record", key.RecordID, "unitType", key.UnitTypeID, "recordDeleted", removed)
	return nil
}

// SavePilotStatusOnly creates or updates the pilot's record statuses without
// touching its kills and returns the record id. Clearing the statuses of a
// record without kills deletes it, and "" is returned.
func (s *Store) SavePilotStatusOnly(ctx context.Context, w core.StatusWrite) (string, error) {
	const op = "ledger.SavePilotStatusOnly"
	ids := []string{"flightDebrief", w.FlightDebriefID, "pilot", w.PilotID}
	if err := s.checkPilot(ctx, op, w.PilotID); err != nil {
		return "", err
	}

	pilotStatus, aircraftStatus := convert.StatusesToGorm(w.Statuses)
	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, w.FlightDebriefID, w.PilotID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if w.Statuses.IsDefault() {
				return nil
			}
			row := model.KillLedgerRecord{
				FlightDebriefID: w.FlightDebriefID,
				PilotID:         w.PilotID,
				MissionID:       w.MissionID,
				KillsDetail:     convert.LedgerToGorm(core.Ledger{}),
				PilotStatus:     pilotStatus,
				AircraftStatus:  aircraftStatus,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			id = row.ID
			return nil
		case err != nil:
			return err
		}

		if w.Statuses.IsDefault() && len(existing.KillsDetail.Data()) == 0 {
			return tx.Delete(&model.KillLedgerRecord{}, "id = ?", existing.ID).Error
		}
		id = existing.ID
		return tx.Model(&model.KillLedgerRecord{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"pilot_status":    pilotStatus,
			"aircraft_status": aircraftStatus,
			"updated_at":      time.Now(),
		}).Error
	})
	if err != nil {
		return "", persistence(op, err, ids...)
	}

	s.logger.DebugContext(ctx, "Saved pilot status",
		"record", id, "pilot", w.PilotID,
		"pilotStatus", w.Statuses.Pilot.String(), "aircraftStatus", w.Statuses.Aircraft.String())
	return id, nil
}
