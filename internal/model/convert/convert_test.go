package convert

import (
	"testing"
	"time"

	"github.com/wingops/debrief/internal/model"
	"github.com/wingops/debrief/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func TestUnitTypeRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	original := model.UnitType{
		Base:         model.Base{ID: "u-1", CreatedAt: now},
		TypeName:     "MiG-29A",
		DisplayName:  "MiG-29A Fulcrum",
		Category:     "airplane",
		SubCategory:  strPtr("fighter"),
		KillCategory: "A2A",
		Source:       "catalog",
		Active:       true,
	}

	coreObj := UnitTypeToCore(original)
	assert.Equal(t, core.UnitAirplane, coreObj.Category)
	assert.Equal(t, core.KillA2A, coreObj.KillCategory)
	assert.Equal(t, "fighter", coreObj.SubCategory)

	roundTripped := CoreToUnitType(coreObj)
	assert.Equal(t, original, roundTripped)
}

func TestCoreToUnitType_Defaults(t *testing.T) {
	got := CoreToUnitType(core.UnitType{TypeName: "x", KillCategory: core.KillA2G})
	assert.Equal(t, "unknown", got.Category)
	assert.Equal(t, "catalog", got.Source)
	assert.Nil(t, got.SubCategory)
}

func TestUnitTypeToCore_UnknownCategory(t *testing.T) {
	got := UnitTypeToCore(model.UnitType{Category: "submarine"})
	assert.Equal(t, core.UnitUnknown, got.Category)
}

func TestLedgerToCore_Normalises(t *testing.T) {
	l := LedgerToCore([]model.KillEntry{
		{UnitTypeID: "a", KillCount: 2},
		{UnitTypeID: "b", KillCount: 0},
		{UnitTypeID: "a", KillCount: 3},
		{UnitTypeID: "c", KillCount: 1},
	})
	assert.Equal(t, []core.KillEntry{
		{UnitTypeID: "a", KillCount: 3},
		{UnitTypeID: "c", KillCount: 1},
	}, l.Entries())
}

func TestLedgerToGorm_EmptyIsArray(t *testing.T) {
	col := LedgerToGorm(core.Ledger{})
	b, err := col.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(b))
}

func TestStatusesToGorm(t *testing.T) {
	tests := []struct {
		name         string
		in           core.PilotStatuses
		wantPilot    *string
		wantAircraft *string
	}{
		{"unassessed", core.PilotStatuses{}, nil, nil},
		{"kia destroyed", core.NewPilotStatuses(core.PilotKIA, core.AircraftDestroyed), strPtr("kia"), strPtr("destroyed")},
		{"down collapses", core.NewPilotStatuses(core.PilotAlive, core.AircraftDown), strPtr("alive"), strPtr("damaged")},
		{"unaccounted is null", core.NewPilotStatuses(core.PilotUnaccounted, core.AircraftUnaccounted), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, a := StatusesToGorm(tt.in)
			assert.Equal(t, tt.wantPilot, p)
			assert.Equal(t, tt.wantAircraft, a)
		})
	}
}

func TestKillLedgerRecordRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	original := model.KillLedgerRecord{
		Base:            model.Base{ID: "r-1", CreatedAt: now, UpdatedAt: now},
		FlightDebriefID: "fd-1",
		PilotID:         "p-1",
		MissionID:       "m-1",
		KillsDetail: datatypes.NewJSONType([]model.KillEntry{
			{UnitTypeID: "u-1", KillCount: 2},
			{UnitTypeID: "u-2", KillCount: 1},
		}),
		PilotStatus:    strPtr("mia"),
		AircraftStatus: strPtr("destroyed"),
	}

	coreObj := KillLedgerRecordToCore(original)
	assert.Equal(t, 2, coreObj.Kills.Count("u-1"))
	assert.Equal(t, core.PilotMIA, coreObj.Statuses.PilotValue())

	roundTripped := CoreToKillLedgerRecord(coreObj)
	assert.Equal(t, original.ID, roundTripped.ID)
	assert.Equal(t, original.FlightDebriefID, roundTripped.FlightDebriefID)
	assert.Equal(t, original.KillsDetail.Data(), roundTripped.KillsDetail.Data())
	assert.Equal(t, original.PilotStatus, roundTripped.PilotStatus)
	assert.Equal(t, original.AircraftStatus, roundTripped.AircraftStatus)
}

func TestRatingsToCore_DropsUnknown(t *testing.T) {
	got := RatingsToCore(map[string]model.PerformanceRating{
		"comms":   {Rating: "SAT"},
		"tactics": {Rating: "UNSAT", Comments: "late on the push"},
		"bogus":   {Rating: "MAYBE"},
	})
	assert.Len(t, got, 2)
	assert.Equal(t, core.RatingUNSAT, got["tactics"].Rating)
	assert.Equal(t, "late on the push", got["tactics"].Comments)
}

func TestPilotAssignmentToCore_OpenSlot(t *testing.T) {
	slot := PilotAssignmentToCore(model.PilotAssignment{FlightID: "f-1", DashNumber: 2})
	assert.Equal(t, "", slot.PilotID)
	assert.Equal(t, 2, slot.DashNumber)
}
