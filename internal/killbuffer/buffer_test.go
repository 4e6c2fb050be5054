package killbuffer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/pkg/core"
)

var errBoom = errors.New("boom")

type fakeStore struct {
	lines  []core.ExpandedKillLine
	rows   []core.StatusRow
	calls  []string
	writes []core.UnitKillWrite
	failOn string
}

func (f *fakeStore) GetByFlight(context.Context, string) ([]core.ExpandedKillLine, error) {
	return f.lines, nil
}

func (f *fakeStore) GetStatusesByFlight(context.Context, string) ([]core.StatusRow, error) {
	return f.rows, nil
}

func (f *fakeStore) RecordUnitKill(_ context.Context, w core.UnitKillWrite) (core.LineKey, error) {
	if f.failOn == "upsert" {
		return core.LineKey{}, errBoom
	}
	f.calls = append(f.calls, fmt.Sprintf("upsert %s/%s=%d", w.PilotID, w.UnitTypeID, w.Count))
	f.writes = append(f.writes, w)
	return core.LineKey{RecordID: "rec-" + w.PilotID, UnitTypeID: w.UnitTypeID}, nil
}

func (f *fakeStore) DeleteUnitKill(_ context.Context, key core.LineKey) error {
	if f.failOn == "delete" {
		return errBoom
	}
	f.calls = append(f.calls, "delete "+key.RecordID+"/"+key.UnitTypeID)
	return nil
}

func (f *fakeStore) SavePilotStatusOnly(_ context.Context, w core.StatusWrite) (string, error) {
	if f.failOn == "status" {
		return "", errBoom
	}
	f.calls = append(f.calls, fmt.Sprintf("status %s=%s/%s", w.PilotID, w.Statuses.PilotValue(), w.Statuses.AircraftValue()))
	if w.Statuses.IsDefault() {
		return "", nil
	}
	return "rec-" + w.PilotID, nil
}

func persisted(pilot, unit string, count int) core.ExpandedKillLine {
	return core.ExpandedKillLine{
		Key:          core.LineKey{RecordID: "rec-" + pilot, UnitTypeID: unit},
		PilotID:      pilot,
		UnitTypeID:   unit,
		DisplayName:  unit,
		KillCategory: core.KillA2G,
		KillCount:    count,
	}
}

func baseline(pilot string) core.StatusRow {
	return core.StatusRow{
		RecordID: "rec-" + pilot,
		PilotID:  pilot,
		Statuses: core.NewPilotStatuses(core.PilotAlive, core.AircraftRecovered),
	}
}

func unit(id string) core.UnitType {
	return core.UnitType{ID: id, DisplayName: id, KillCategory: core.KillA2G}
}

func open(t *testing.T, store *fakeStore) *Buffer {
	t.Helper()
	b, err := Open(context.Background(), Dependencies{Store: store}, "fd-1", "m-1")
	require.NoError(t, err)
	return b
}

func TestAddMergesIntoExistingLine(t *testing.T) {
	b := open(t, &fakeStore{})

	first := b.Add("p1", unit("u1"))
	second := b.Add("p1", unit("u1"))

	assert.Equal(t, first, second)
	assert.True(t, first.IsTemp())
	require.Len(t, b.Lines(), 1)
	assert.Equal(t, 2, b.Lines()[0].KillCount)
}

func TestDecrementRemovesAtZero(t *testing.T) {
	b := open(t, &fakeStore{})
	id := b.Add("p1", unit("u1"))
	require.NoError(t, b.Increment(id))

	removed, err := b.Decrement(id)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = b.Decrement(id)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, b.Lines())

	_, err = b.Decrement(id)
	assert.ErrorIs(t, err, ErrUnknownLine)
	assert.ErrorIs(t, b.Increment(id), ErrUnknownLine)
	assert.ErrorIs(t, b.Remove(id), ErrUnknownLine)
}

func TestMoveMergesIntoTarget(t *testing.T) {
	b := open(t, &fakeStore{})
	src := b.Add("p1", unit("u1"))
	b.Add("p1", unit("u1"))
	dst := b.Add("p2", unit("u1"))

	moved, err := b.Move(src, "p2")
	require.NoError(t, err)
	assert.Equal(t, dst, moved)

	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].PilotID)
	assert.Equal(t, 3, lines[0].KillCount)
}

func TestOpenLoadsPersistedState(t *testing.T) {
	store := &fakeStore{
		lines: []core.ExpandedKillLine{persisted("p1", "u1", 2)},
		rows:  []core.StatusRow{baseline("p1")},
	}
	b := open(t, store)

	line, ok := b.Find("p1", "u1")
	require.True(t, ok)
	assert.False(t, line.ID.IsTemp())
	assert.Equal(t, "rec-p1/u1", line.ID.String())
	assert.Equal(t, core.PilotAlive, b.Status("p1").PilotValue())
	assert.False(t, b.Dirty())
}

func TestSaveWritesOnlyTheDiff(t *testing.T) {
	store := &fakeStore{
		lines: []core.ExpandedKillLine{
			persisted("p1", "uA", 1),
			persisted("p1", "uB", 2),
			persisted("p2", "uC", 1),
		},
		rows: []core.StatusRow{baseline("p1"), baseline("p2")},
	}
	b := open(t, store)

	lineB, _ := b.Find("p1", "uB")
	lineC, _ := b.Find("p2", "uC")
	require.NoError(t, b.Remove(lineB.ID))
	require.NoError(t, b.Increment(lineC.ID))
	b.Add("p2", unit("uD"))
	require.True(t, b.Dirty())

	res, err := b.Save(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"delete rec-p1/uB",
		"upsert p2/uC=2",
		"upsert p2/uD=1",
	}, store.calls)
	assert.Equal(t, SaveResult{Deleted: 1, Upserted: 2, Skipped: 1}, res)

	for _, l := range b.Lines() {
		assert.False(t, l.ID.IsTemp(), l.UnitTypeID)
	}
	assert.False(t, b.Dirty())

	store.calls = nil
	res, err = b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, store.calls)
	assert.False(t, res.Changed())
}

func TestSaveStoresWorkingStatuses(t *testing.T) {
	store := &fakeStore{}
	b := open(t, store)
	b.Add("p1", unit("u1"))
	b.SetAircraftStatus("p1", core.AircraftDown)

	_, err := b.Save(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, store.writes, 1)
	st := store.writes[0].Statuses
	assert.Equal(t, core.PilotAlive, st.PilotValue())
	assert.Equal(t, core.AircraftDamaged, st.AircraftValue())
	assert.Equal(t, "m-1", store.writes[0].MissionID)

	// the buffer keeps showing what the operator picked
	assert.Equal(t, core.AircraftDown, b.Status("p1").AircraftValue())
}

func TestSaveStatusChangeRewritesUnchangedLines(t *testing.T) {
	store := &fakeStore{
		lines: []core.ExpandedKillLine{persisted("p1", "u1", 1)},
		rows:  []core.StatusRow{baseline("p1")},
	}
	b := open(t, store)
	b.SetPilotStatus("p1", core.PilotKIA)

	res, err := b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"upsert p1/u1=1"}, store.calls)
	assert.Equal(t, 1, res.Upserted)
	assert.Equal(t, core.PilotKIA, store.writes[0].Statuses.PilotValue())
}

func TestSaveStatusOnlyPilots(t *testing.T) {
	store := &fakeStore{}
	b := open(t, store)
	b.SetPilotStatus("p3", core.PilotKIA)

	_, err := b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"status p3=kia/unaccounted"}, store.calls)

	store.calls = nil
	_, err = b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, store.calls)

	b.SetPilotStatus("p3", core.PilotUnaccounted)
	_, err = b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"status p3=unaccounted/unaccounted"}, store.calls)

	store.calls = nil
	_, err = b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, store.calls)
}

func TestSaveUntouchedPilotWritesNothing(t *testing.T) {
	store := &fakeStore{}
	b := open(t, store)
	b.SetPilotStatus("p1", core.PilotUnaccounted)

	res, err := b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, store.calls)
	assert.False(t, res.Changed())
}

func TestSaveClearsPilotWhoseLinesWereRemoved(t *testing.T) {
	store := &fakeStore{}
	b := open(t, store)
	id := b.Add("p1", unit("u1"))
	_, err := b.Save(context.Background(), "")
	require.NoError(t, err)

	line, _ := b.Find("p1", "u1")
	assert.NotEqual(t, id, line.ID)
	_, err = b.Decrement(line.ID)
	require.NoError(t, err)

	store.calls = nil
	_, err = b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"delete rec-p1/u1",
		"status p1=unaccounted/unaccounted",
	}, store.calls)
}

func TestSaveClearsReopenedBaselinePilot(t *testing.T) {
	store := &fakeStore{
		lines: []core.ExpandedKillLine{persisted("p1", "u1", 1)},
		rows:  []core.StatusRow{baseline("p1")},
	}
	b := open(t, store)
	line, _ := b.Find("p1", "u1")
	require.NoError(t, b.Remove(line.ID))

	_, err := b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"delete rec-p1/u1",
		"status p1=unaccounted/unaccounted",
	}, store.calls)
	assert.True(t, b.Status("p1").IsDefault())

	store.calls = nil
	res, err := b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Empty(t, store.calls)
}

func TestSaveUsesActualFlightDebrief(t *testing.T) {
	store := &fakeStore{}
	b, err := New(Dependencies{Store: store}, "", "m-1")
	require.NoError(t, err)
	b.Add("p1", unit("u1"))

	_, err = b.Save(context.Background(), "fd-new")
	require.NoError(t, err)
	require.Len(t, store.writes, 1)
	assert.Equal(t, "fd-new", store.writes[0].FlightDebriefID)
	assert.Equal(t, "fd-new", b.FlightDebriefID())
}

func TestSaveFailureKeepsBuffer(t *testing.T) {
	store := &fakeStore{failOn: "upsert"}
	b := open(t, store)
	b.Add("p1", unit("u1"))

	_, err := b.Save(context.Background(), "")
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "saving kills")
	assert.True(t, b.Lines()[0].ID.IsTemp())
	assert.True(t, b.Dirty())

	store.failOn = ""
	res, err := b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)
	assert.False(t, b.Lines()[0].ID.IsTemp())
}

func TestSaveRejectsConcurrentSave(t *testing.T) {
	store := &fakeStore{}
	b := open(t, store)
	b.Add("p1", unit("u1"))

	b.saving.Lock()
	_, err := b.Save(context.Background(), "")
	b.saving.Unlock()

	assert.ErrorIs(t, err, ErrSaveInProgress)
	assert.Empty(t, store.calls)
}
