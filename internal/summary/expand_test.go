package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/pkg/core"
)

func expand(t *testing.T, m mission, selector string) []core.DetailGroup {
	t.Helper()
	bucket, err := core.ParseBucket(selector)
	require.NoError(t, err)
	groups, err := NewExpander(m.deps).Expand(context.Background(), m.debrief, bucket)
	require.NoError(t, err)
	return groups
}

func callsigns(g core.DetailGroup) []string {
	out := make([]string, 0, len(g.Entries))
	for _, e := range g.Entries {
		out = append(out, e.Callsign)
	}
	return out
}

func TestExpandPilotBucket(t *testing.T) {
	m := newMission(t)

	groups := expand(t, m, "pilot:alive")
	require.Len(t, groups, 1)
	assert.Equal(t, "Wolfpack", groups[0].Label)
	assert.Equal(t, []string{"Jester", "Viper"}, callsigns(groups[0]))
	assert.Equal(t, m.fdA, groups[0].Entries[0].FlightDebriefID)
	assert.Equal(t, m.flightA, groups[0].Entries[0].FlightID)

	groups = expand(t, m, "pilot:kia")
	require.Len(t, groups, 1)
	assert.Equal(t, core.UnassignedGroupKey, groups[0].Key)
	assert.Equal(t, []string{"Cougar"}, callsigns(groups[0]))
	assert.Equal(t, core.AircraftDestroyed, groups[0].Entries[0].AircraftStatus)
}

func TestExpandUnaccountedGroupsUnassignedLast(t *testing.T) {
	m := newMission(t)

	groups := expand(t, m, "pilot:unaccounted")
	require.Len(t, groups, 3)
	assert.Equal(t, "Bounty Hunters", groups[0].Label)
	assert.Equal(t, []string{"Hollywood"}, callsigns(groups[0]))
	assert.Equal(t, "Wolfpack", groups[1].Label)
	assert.Equal(t, []string{"Wolfman"}, callsigns(groups[1]))
	assert.Equal(t, core.UnassignedGroupKey, groups[2].Key)
	assert.Equal(t, []string{"Merlin", "Sundown", ""}, callsigns(groups[2]))

	slot := groups[2].Entries[2]
	assert.Empty(t, slot.PilotID)
	assert.NotEmpty(t, slot.FlightID)

	total := 0
	for _, g := range groups {
		for _, e := range g.Entries {
			assert.Equal(t, core.PilotUnaccounted, e.PilotStatus)
			total++
		}
	}
	s := aggregate(t, m.deps, m.debrief)
	assert.Equal(t, s.Pilots.Unaccounted, total)
}

func TestExpandAircraftBucket(t *testing.T) {
	m := newMission(t)

	groups := expand(t, m, "aircraft:destroyed")
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Cougar"}, callsigns(groups[0]))

	assert.Empty(t, expand(t, m, "aircraft:damaged"))
}

func TestExpandKillsBucket(t *testing.T) {
	m := newMission(t)

	groups := expand(t, m, "kills:a2a")
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Entries, 1)
	e := groups[0].Entries[0]
	assert.Equal(t, "Viper", e.Callsign)
	assert.Equal(t, "100", e.BoardNumber)
	assert.Equal(t, m.mig, e.UnitTypeID)
	assert.Equal(t, "MiG-28", e.UnitDisplayName)
	assert.Equal(t, core.KillA2A, e.KillCategory)
	assert.Equal(t, 2, e.KillCount)

	assert.Empty(t, expand(t, m, "kills:a2s"))
}

func TestExpandPerformanceBuckets(t *testing.T) {
	m := newMission(t)

	groups := expand(t, m, "performance:UNSAT")
	require.Len(t, groups, 1)
	assert.Equal(t, "Ford", groups[0].Label)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "weapons", groups[0].Entries[0].RatingCategory)
	assert.Equal(t, "late release", groups[0].Entries[0].Comments)

	groups = expand(t, m, "performance:SAT:formation")
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "formation", groups[0].Entries[0].RatingCategory)

	groups = expand(t, m, "performance:unassessed")
	require.Len(t, groups, 1)
	assert.Equal(t, "Dodge", groups[0].Label)
	assert.Equal(t, m.fdB, groups[0].Entries[0].FlightDebriefID)
	var cats []string
	for _, e := range groups[0].Entries {
		cats = append(cats, e.RatingCategory)
	}
	assert.Equal(t, []string{"communication", "formation", "weapons"}, cats)
}

func TestExpandUnknownBucketKind(t *testing.T) {
	m := newMission(t)
	_, err := NewExpander(m.deps).Expand(context.Background(), m.debrief, core.Bucket{Kind: "fuel"})
	assert.Error(t, err)
}
