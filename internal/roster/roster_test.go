package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/internal/database/dbtest"
	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/pkg/core"
)

func TestPilot(t *testing.T) {
	db := dbtest.Open(t)
	b := dbtest.NewBuilder(t, db)
	sq := b.Squadron("VF-84 Jolly Rogers", "VF-84")
	p := b.Pilot("Jester", "201", sq.ID)
	loner := b.Pilot("Cougar", "", "")
	r := New(Dependencies{DB: db})
	ctx := context.Background()

	got, err := r.Pilot(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jester", got.Callsign)
	assert.Equal(t, sq.ID, got.SquadronID)

	got, err = r.Pilot(ctx, loner.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.SquadronID)

	_, err = r.Pilot(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)

	ok, err := r.PilotExists(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.PilotExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchLookups(t *testing.T) {
	db := dbtest.Open(t)
	b := dbtest.NewBuilder(t, db)
	sq := b.Squadron("VF-84 Jolly Rogers", "VF-84")
	p1 := b.Pilot("Jester", "201", sq.ID)
	p2 := b.Pilot("Viper", "202", sq.ID)
	r := New(Dependencies{DB: db})
	ctx := context.Background()

	// warm the cache for one of them
	_, err := r.Pilot(ctx, p1.ID)
	require.NoError(t, err)

	pilots, err := r.Pilots(ctx, []string{p1.ID, p2.ID, "ghost", p2.ID})
	require.NoError(t, err)
	assert.Len(t, pilots, 2)
	assert.Equal(t, "Viper", pilots[p2.ID].Callsign)

	sqs, err := r.Squadrons(ctx, []string{sq.ID, "ghost"})
	require.NoError(t, err)
	require.Len(t, sqs, 1)
	assert.Equal(t, "VF-84", sqs[sq.ID].Designation)

	empty, err := r.Squadrons(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMissionStructure(t *testing.T) {
	db := dbtest.Open(t)
	b := dbtest.NewBuilder(t, db)
	p1 := b.Pilot("Jester", "201", "")
	p2 := b.Pilot("Viper", "202", "")
	m := b.Mission("Op Tomcat")
	hornet := b.Flight(m.ID, "Hornet 1")
	b.Assign(m.ID, hornet.ID, p2.ID, 2)
	b.Assign(m.ID, hornet.ID, p1.ID, 1)
	b.Assign(m.ID, hornet.ID, "", 3)
	md := b.MissionDebrief(m.ID)
	fd := b.FlightDebrief(md.ID, hornet.ID, map[string]model.PerformanceRating{
		"comms":   {Rating: "SAT"},
		"tactics": {Rating: "UNSAT", Comments: "late"},
	})
	r := New(Dependencies{DB: db})
	ctx := context.Background()

	got, err := r.MissionDebrief(ctx, md.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.MissionID)
	_, err = r.MissionDebrief(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)

	slots, err := r.Assignments(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, p1.ID, slots[0].PilotID)
	assert.Equal(t, "", slots[2].PilotID)

	fds, err := r.FlightDebriefs(ctx, md.ID)
	require.NoError(t, err)
	require.Len(t, fds, 1)
	assert.Equal(t, fd.ID, fds[0].ID)
	assert.Equal(t, "Hornet 1", fds[0].FlightCallsign)
	assert.Equal(t, core.RatingUNSAT, fds[0].Ratings["tactics"].Rating)

	entries, err := r.FlightRoster(ctx, fd.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.RosterEntry{PilotID: p1.ID, Callsign: "Jester", BoardNumber: "201", DashNumber: 1}, entries[0])
	assert.Equal(t, "Viper", entries[1].Callsign)

	_, err = r.FlightRoster(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFlightDebrief(t *testing.T) {
	db := dbtest.Open(t)
	b := dbtest.NewBuilder(t, db)
	m := b.Mission("Op Red Flag")
	fl := b.Flight(m.ID, "Enfield 1")
	md := b.MissionDebrief(m.ID)
	fd := b.FlightDebrief(md.ID, fl.ID, map[string]model.PerformanceRating{
		"tactics": {Rating: "SAT"},
	})
	r := New(Dependencies{DB: db})
	ctx := context.Background()

	got, err := r.FlightDebrief(ctx, fd.ID)
	require.NoError(t, err)
	assert.Equal(t, md.ID, got.MissionDebriefID)
	assert.Equal(t, "Enfield 1", got.FlightCallsign)
	assert.Equal(t, core.RatingSAT, got.Ratings["tactics"].Rating)

	_, err = r.FlightDebrief(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
