package main

import (
	"context"
	"fmt"

	"github.com/wingops/debrief/internal/cache"
	"github.com/wingops/debrief/internal/catalog"
	"github.com/wingops/debrief/internal/config"
	"github.com/wingops/debrief/internal/database"
	"github.com/wingops/debrief/internal/killbuffer"
	"github.com/wingops/debrief/internal/ledger"
	"github.com/wingops/debrief/internal/pool"
	"github.com/wingops/debrief/internal/roster"
	"github.com/wingops/debrief/internal/summary"
)

// app wires the stores over one database connection.
type app struct {
	db       *database.Manager
	catalog  *catalog.Catalog
	pool     *pool.Manager
	roster   *roster.Reader
	ledger   *ledger.Store
	summary  *summary.Aggregator
	expander *summary.Expander
}

// openApp connects to the configured database, migrates it and builds every
// component.
func openApp() (*app, error) {
	db := database.NewManager(DBLogger)
	if err := db.Connect(config.GetStorageConfig()); err != nil {
		return nil, err
	}
	if err := db.Setup(); err != nil {
		db.Close()
		return nil, err
	}

	cat, err := catalog.New(catalog.Dependencies{
		DB:     db.DB,
		Cache:  cache.NewUnitTypeCache(),
		Logger: Logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	rosterReader := roster.New(roster.Dependencies{
		DB:     db.DB,
		Pilots: cache.NewPilotCache(),
		Logger: Logger,
	})
	store := ledger.New(ledger.Dependencies{
		DB:     db.DB,
		Units:  cat,
		Pilots: rosterReader,
		Logger: Logger,
	})

	deps := summary.Dependencies{
		Roster:    rosterReader,
		Records:   store,
		Units:     cat,
		Directory: rosterReader,
		Config:    config.GetSummaryConfig(),
		Logger:    Logger,
	}
	agg, err := summary.NewAggregator(deps)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		db:       db,
		catalog:  cat,
		pool:     pool.New(pool.Dependencies{DB: db.DB, Units: cat, Logger: Logger}),
		roster:   rosterReader,
		ledger:   store,
		summary:  agg,
		expander: summary.NewExpander(deps),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// openBuffer loads the kill buffer for a flight debrief, resolving its mission.
func (a *app) openBuffer(ctx context.Context, flightDebriefID string) (*killbuffer.Buffer, error) {
	fd, err := a.roster.FlightDebrief(ctx, flightDebriefID)
	if err != nil {
		return nil, err
	}
	md, err := a.roster.MissionDebrief(ctx, fd.MissionDebriefID)
	if err != nil {
		return nil, fmt.Errorf("resolving mission: %w", err)
	}
	return killbuffer.Open(ctx, killbuffer.Dependencies{
		Store:  a.ledger,
		Roster: a.roster,
		Logger: Logger,
	}, fd.ID, md.MissionID)
}
