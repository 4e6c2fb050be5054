package dbtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Builder creates roster and debrief rows for tests. Rows get increasing
// created_at values so ordering by creation time is deterministic.
type Builder struct {
	t     testing.TB
	db    *gorm.DB
	clock time.Time
}

// NewBuilder returns a Builder writing to db.
func NewBuilder(t testing.TB, db *gorm.DB) *Builder {
	return &Builder{t: t, db: db, clock: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
}

// Tick returns the next creation timestamp.
func (b *Builder) Tick() time.Time {
	b.clock = b.clock.Add(time.Second)
	return b.clock
}

func (b *Builder) create(v any) {
	b.t.Helper()
	require.NoError(b.t, b.db.Create(v).Error)
}

// Squadron creates a squadron.
func (b *Builder) Squadron(name, designation string) model.Squadron {
	b.t.Helper()
	s := model.Squadron{Base: model.Base{CreatedAt: b.Tick()}, Name: name, Designation: designation}
	b.create(&s)
	return s
}

// Pilot creates a pilot. An empty squadronID leaves the pilot unaffiliated.
func (b *Builder) Pilot(callsign, boardNumber, squadronID string) model.Pilot {
	b.t.Helper()
	p := model.Pilot{Base: model.Base{CreatedAt: b.Tick()}, Callsign: callsign, BoardNumber: boardNumber}
	if squadronID != "" {
		p.SquadronID = &squadronID
	}
	b.create(&p)
	return p
}

// Mission creates a mission.
func (b *Builder) Mission(name string) model.Mission {
	b.t.Helper()
	m := model.Mission{Base: model.Base{CreatedAt: b.Tick()}, Name: name}
	b.create(&m)
	return m
}

// Flight creates a flight in mission.
func (b *Builder) Flight(missionID, callsign string) model.Flight {
	b.t.Helper()
	f := model.Flight{Base: model.Base{CreatedAt: b.Tick()}, MissionID: missionID, Callsign: callsign}
	b.create(&f)
	return f
}

// Assign seats pilotID in the flight at dash. An empty pilotID creates an open slot.
func (b *Builder) Assign(missionID, flightID, pilotID string, dash int) model.PilotAssignment {
	b.t.Helper()
	a := model.PilotAssignment{Base: model.Base{CreatedAt: b.Tick()}, MissionID: missionID, FlightID: flightID, DashNumber: dash}
	if pilotID != "" {
		a.PilotID = &pilotID
	}
	b.create(&a)
	return a
}

// MissionDebrief creates the debrief header for a mission.
func (b *Builder) MissionDebrief(missionID string) model.MissionDebrief {
	b.t.Helper()
	d := model.MissionDebrief{Base: model.Base{CreatedAt: b.Tick()}, MissionID: missionID}
	b.create(&d)
	return d
}

// FlightDebrief creates a flight debrief with the given ratings.
func (b *Builder) FlightDebrief(missionDebriefID, flightID string, ratings map[string]model.PerformanceRating) model.FlightDebrief {
	b.t.Helper()
	if ratings == nil {
		ratings = map[string]model.PerformanceRating{}
	}
	d := model.FlightDebrief{
		Base:               model.Base{CreatedAt: b.Tick()},
		MissionDebriefID:   missionDebriefID,
		FlightID:           flightID,
		PerformanceRatings: datatypes.NewJSONType(ratings),
	}
	b.create(&d)
	return d
}

// UnitType creates an active catalog entry.
func (b *Builder) UnitType(typeName, displayName, killCategory string) model.UnitType {
	b.t.Helper()
	u := model.UnitType{
		Base:         model.Base{CreatedAt: b.Tick()},
		TypeName:     typeName,
		DisplayName:  displayName,
		Category:     "unknown",
		KillCategory: killCategory,
		Source:       "catalog",
		Active:       true,
	}
	b.create(&u)
	return u
}
