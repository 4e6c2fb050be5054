// Package influx publishes mission summaries to InfluxDB, falling back to a
// gzipped line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/wingops/debrief/internal/config"
	"github.com/wingops/debrief/pkg/core"
)

// MeasurementSummary is the measurement mission summaries are written to.
const MeasurementSummary = "mission_summary"

// ErrDisabled is returned by Connect when publishing is switched off.
var ErrDisabled = errors.New("influx publishing is disabled")

// Publisher handles the InfluxDB connection and summary writes.
type Publisher struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Config       config.InfluxConfig
	Logger       zerolog.Logger
	BackupPath   string

	backupFile *os.File
	mu         sync.Mutex
}

// NewPublisher creates a publisher. Nothing is opened until Connect.
func NewPublisher(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Publisher {
	return &Publisher{
		Config:     cfg,
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer, points go to the backup file instead.
func (p *Publisher) Connect(ctx context.Context) error {
	if !p.Config.Enabled {
		return ErrDisabled
	}

	p.Client = influxdb2.NewClientWithOptions(
		p.Config.URL(),
		p.Config.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(100).
			SetFlushInterval(1000),
	)

	running, err := p.Client.Ping(ctx)
	if err != nil || !running {
		p.IsValid = false
		if p.BackupWriter == nil {
			p.Logger.Info().Str("backupPath", p.BackupPath).
				Msg("Failed to reach InfluxDB, writing to backup file")

			file, err := os.OpenFile(p.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %w", err)
			}
			p.backupFile = file
			p.BackupWriter = gzip.NewWriter(file)
		}
		return nil
	}

	p.IsValid = true
	if err := p.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	p.createWriter()
	p.Logger.Info().Str("url", p.Config.URL()).Str("bucket", p.Config.Bucket).
		Msg("InfluxDB client initialized")
	return nil
}

func (p *Publisher) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := p.Config.Org

	org, err := p.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		p.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = p.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			p.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// 90 day retention
	if _, err = p.Client.BucketsAPI().FindBucketByName(ctx, p.Config.Bucket); err != nil {
		p.Logger.Info().Str("bucket", p.Config.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = p.Client.BucketsAPI().CreateBucketWithName(ctx, org, p.Config.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90,
		})
		if err != nil {
			p.Logger.Error().Err(err).Str("bucket", p.Config.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

func (p *Publisher) createWriter() {
	p.Writer = p.Client.WriteAPI(p.Config.Org, p.Config.Bucket)

	errorsCh := p.Writer.Errors()
	go func(bucket string, errorsCh <-chan error) {
		for writeErr := range errorsCh {
			p.Logger.Error().Err(writeErr).Str("bucket", bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(p.Config.Bucket, errorsCh)

	p.Logger.Debug().Str("bucket", p.Config.Bucket).Msg("InfluxDB writer created")
}

// WritePoint writes a point to InfluxDB or the backup file.
func (p *Publisher) WritePoint(point *influxdb2_write.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.IsValid {
		if p.Writer == nil {
			return errors.New("influxDB writer not initialized")
		}
		p.Writer.WritePoint(point)
		return nil
	}

	if p.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := p.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Publish writes one summary point.
func (p *Publisher) Publish(s core.MissionSummary, at time.Time) error {
	return p.WritePoint(SummaryPoint(s, at))
}

// Close flushes pending writes and releases the client and backup file.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Writer != nil {
		p.Writer.Flush()
	}
	if p.Client != nil {
		p.Client.Close()
	}
	var errs []error
	if p.BackupWriter != nil {
		errs = append(errs, p.BackupWriter.Close())
		p.BackupWriter = nil
	}
	if p.backupFile != nil {
		errs = append(errs, p.backupFile.Close())
		p.backupFile = nil
	}
	return errors.Join(errs...)
}

// SummaryPoint converts a mission summary to a point tagged by mission and
// mission debrief.
func SummaryPoint(s core.MissionSummary, at time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		MeasurementSummary,
		map[string]string{
			"mission":         s.MissionID,
			"mission_debrief": s.MissionDebriefID,
		},
		map[string]any{
			"total_slots":            s.TotalSlots,
			"total_flights":          s.TotalFlights,
			"rating_categories":      s.RatingCategories,
			"pilot_alive":            s.Pilots.Alive,
			"pilot_mia":              s.Pilots.MIA,
			"pilot_kia":              s.Pilots.KIA,
			"pilot_unaccounted":      s.Pilots.Unaccounted,
			"aircraft_recovered":     s.Aircraft.Recovered,
			"aircraft_damaged":       s.Aircraft.Damaged,
			"aircraft_destroyed":     s.Aircraft.Destroyed,
			"aircraft_down":          s.Aircraft.Down,
			"aircraft_unaccounted":   s.Aircraft.Unaccounted,
			"kills_a2a":              s.Kills.A2A,
			"kills_a2g":              s.Kills.A2G,
			"kills_a2s":              s.Kills.A2S,
			"performance_sat":        s.Performance.SAT,
			"performance_unsat":      s.Performance.UNSAT,
			"performance_unassessed": s.Performance.Unassessed,
			"performance_possible":   s.Performance.TotalPossible,
		},
		at,
	)
}
