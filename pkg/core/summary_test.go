package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBucket(t *testing.T) {
	tests := []struct {
		in   string
		want Bucket
	}{
		{"pilot:kia", Bucket{Kind: BucketPilot, Pilot: PilotKIA}},
		{"pilot:unaccounted", Bucket{Kind: BucketPilot, Pilot: PilotUnaccounted}},
		{"aircraft:destroyed", Bucket{Kind: BucketAircraft, Aircraft: AircraftDestroyed}},
		{"kills:a2g", Bucket{Kind: BucketKills, KillCategory: KillA2G}},
		{"performance:unsat", Bucket{Kind: BucketPerformance, Rating: RatingUNSAT}},
		{"performance:unassessed", Bucket{Kind: BucketPerformance, Rating: RatingUnassessed}},
		{"performance:SAT:comms", Bucket{Kind: BucketPerformance, Rating: RatingSAT, RatingCategory: "comms"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBucket(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBucket_Errors(t *testing.T) {
	for _, in := range []string{"", "pilot", "pilot:", "pilot:wounded", "kills:a2x", "weather:cloudy", "pilot:kia:extra", "performance:GOOD"} {
		_, err := ParseBucket(in)
		assert.Error(t, err, in)
	}
}

func TestBucket_StringRoundTrip(t *testing.T) {
	for _, s := range []string{"pilot:mia", "aircraft:down", "kills:A2S", "performance:UNSAT:tactics"} {
		b, err := ParseBucket(s)
		require.NoError(t, err)
		again, err := ParseBucket(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, again)
	}
}

func TestCounts(t *testing.T) {
	p := PilotCounts{Alive: 2, KIA: 1, Unaccounted: 5}
	assert.Equal(t, 8, p.Total())
	assert.Equal(t, 5, p.Get(PilotUnaccounted))

	a := AircraftCounts{Recovered: 3, Down: 1}
	assert.Equal(t, 4, a.Total())
	assert.Equal(t, 1, a.Get(AircraftDown))

	var k KillTotals
	k.Add(KillA2A, 2)
	k.Add(KillA2S, 1)
	k.Add("bogus", 7)
	assert.Equal(t, 3, k.Total())
	assert.Equal(t, 2, k.Get(KillA2A))
}

func TestUnitTypeGeneric(t *testing.T) {
	assert.Equal(t, "generic-a2g", GenericTypeName(KillA2G))
	assert.Equal(t, "Generic A2G", GenericDisplayName(KillA2G))
	assert.True(t, UnitType{TypeName: "generic-a2a", KillCategory: KillA2A}.IsGeneric())
	assert.False(t, UnitType{TypeName: "generic-a2a", KillCategory: KillA2G}.IsGeneric())

	c, err := ParseKillCategory("a2s")
	assert.NoError(t, err)
	assert.Equal(t, KillA2S, c)
	assert.Equal(t, UnitUnknown, ParseUnitCategory("blimp"))
}
