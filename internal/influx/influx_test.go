package influx

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingops/debrief/internal/config"
	"github.com/wingops/debrief/pkg/core"
)

func sampleSummary() core.MissionSummary {
	return core.MissionSummary{
		MissionDebriefID: "md-1",
		MissionID:        "m-1",
		TotalSlots:       8,
		TotalFlights:     2,
		RatingCategories: 8,
		Pilots:           core.PilotCounts{Alive: 2, KIA: 1, Unaccounted: 5},
		Aircraft:         core.AircraftCounts{Recovered: 2, Destroyed: 1, Unaccounted: 5},
		Kills:            core.KillTotals{A2A: 2, A2G: 1},
	}
}

func TestSummaryPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	line := influxdb2_write.PointToLineProtocol(SummaryPoint(sampleSummary(), at), time.Second)

	assert.Contains(t, line, "mission_summary,mission=m-1,mission_debrief=md-1 ")
	assert.Contains(t, line, "pilot_kia=1i")
	assert.Contains(t, line, "pilot_unaccounted=5i")
	assert.Contains(t, line, "kills_a2a=2i")
	assert.Contains(t, line, "total_slots=8i")
	assert.Contains(t, line, " 1700000000")
}

func TestPublishToBackup(t *testing.T) {
	var buf bytes.Buffer
	p := NewPublisher(config.InfluxConfig{}, zerolog.Nop(), "")
	p.BackupWriter = gzip.NewWriter(&buf)

	require.NoError(t, p.Publish(sampleSummary(), time.Unix(1700000000, 0)))
	require.NoError(t, p.Close())

	r, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mission_summary,mission=m-1")
}

func TestWritePointWithoutWriter(t *testing.T) {
	p := NewPublisher(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.Error(t, p.Publish(sampleSummary(), time.Now()))
}

func TestConnectDisabled(t *testing.T) {
	p := NewPublisher(config.InfluxConfig{Enabled: false}, zerolog.Nop(), "")
	assert.ErrorIs(t, p.Connect(context.Background()), ErrDisabled)
}

func TestConnectFallsBackToBackupFile(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	p := NewPublisher(config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Bucket:   "mission_data",
	}, zerolog.Nop(), backup)

	require.NoError(t, p.Connect(context.Background()))
	assert.False(t, p.IsValid)
	require.NoError(t, p.Publish(sampleSummary(), time.Now()))
	require.NoError(t, p.Close())

	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
