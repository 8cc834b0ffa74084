// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sqlhealth/indexadvisor/internal/connection"
	"github.com/sqlhealth/indexadvisor/internal/models"
	"github.com/sqlhealth/indexadvisor/internal/queries"
	"github.com/sqlhealth/indexadvisor/internal/report"
	"github.com/sqlhealth/indexadvisor/internal/scrapers"
)

// runner owns the connection and the scrapers for one target database.
type runner struct {
	cfg    appConfig
	logger *zap.Logger
	format report.Format

	conn          *connection.SQLConnection
	engineEdition int

	indexUsage   *scrapers.IndexUsageScraper
	missingIndex *scrapers.MissingIndexScraper
	queryStats   *scrapers.QueryStatsScraper
	queryStore   *scrapers.QueryStoreScraper
	xeSession    *scrapers.XESessionScraper

	tracker    *scrapers.DeltaTracker
	obfuscator *report.Obfuscator
}

func newRunner(ctx context.Context, cfg appConfig, logger *zap.Logger) (*runner, error) {
	format, err := report.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	conn, err := connection.NewSQLConnection(ctx, &cfg.Connection, logger)
	if err != nil {
		return nil, err
	}

	edition, err := conn.EngineEdition(ctx)
	if err != nil {
		logger.Debug("failed to detect engine edition, assuming standard", zap.Error(err))
		edition = queries.StandardEngineEdition
	}
	logger.Info("connected to SQL Server",
		zap.String("hostname", cfg.Connection.Hostname),
		zap.String("database", cfg.Connection.Database),
		zap.Int("engine_edition", edition),
		zap.String("engine_type", queries.GetEngineTypeName(edition)))

	r := &runner{
		cfg:           cfg,
		logger:        logger,
		format:        format,
		conn:          conn,
		engineEdition: edition,
		indexUsage:    scrapers.NewIndexUsageScraper(conn, logger, cfg.InstanceName),
		missingIndex:  scrapers.NewMissingIndexScraper(conn, logger, cfg.TopMissingIndexes),
		queryStats:    scrapers.NewQueryStatsScraper(conn, logger, cfg.TopStatements),
		queryStore:    scrapers.NewQueryStoreScraper(conn, logger, cfg.TopScanPlans),
		xeSession:     scrapers.NewXESessionScraper(conn, logger, cfg.XESessionName),
	}

	if cfg.ObfuscateStatements {
		r.obfuscator = report.NewObfuscator()
	}
	if cfg.Watch {
		r.tracker, err = scrapers.NewDeltaTracker(cfg.DeltaCacheSize)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *runner) close() {
	if err := r.conn.Close(); err != nil {
		r.logger.Warn("failed to close database connection", zap.Error(err))
	}
}

// collect runs all scrapers for one pass. The index usage scrape is the
// backbone and its failure aborts the pass; the supporting sections degrade
// to warnings so a locked-down login still gets the core report.
func (r *runner) collect(ctx context.Context) (*report.Report, error) {
	var (
		usage            []models.IndexUsage
		missing          []models.MissingIndex
		missingTruncated bool
		statements       []models.LookupStatement
		scanPlans        []models.QueryStoreScanPlan
		xeTargets        []models.XESessionTarget

		missingErr, statsErr, storeErr, xeErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		usage, err = r.indexUsage.Scrape(gctx)
		return err
	})
	g.Go(func() error {
		missing, missingTruncated, missingErr = r.missingIndex.Scrape(gctx)
		return nil
	})
	g.Go(func() error {
		statements, statsErr = r.queryStats.Scrape(gctx)
		return nil
	})
	g.Go(func() error {
		scanPlans, storeErr = r.queryStore.Scrape(gctx)
		return nil
	})
	g.Go(func() error {
		xeTargets, xeErr = r.xeSession.Scrape(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if soft := multierr.Combine(missingErr, statsErr, storeErr, xeErr); soft != nil {
		r.logger.Warn("some diagnostic sections failed and were skipped", zap.Error(soft))
	}

	var deltas map[string]report.UsageDelta
	if r.tracker != nil {
		deltas = r.computeDeltas(usage)
	}

	instance := r.cfg.InstanceName
	if instance == "" && len(usage) > 0 {
		instance = usage[0].SQLInstance
	}

	return report.Build(report.BuildInput{
		Instance:         instance,
		Database:         r.cfg.Connection.Database,
		EngineEdition:    queries.GetEngineTypeName(r.engineEdition),
		CollectedAt:      time.Now(),
		Thresholds:       r.cfg.Thresholds,
		Usage:            usage,
		Missing:          missing,
		MissingTruncated: missingTruncated,
		Statements:       statements,
		ScanPlans:        scanPlans,
		XETargets:        xeTargets,
		Deltas:           deltas,
		Obfuscator:       r.obfuscator,
		Logger:           r.logger,
	}), nil
}

// computeDeltas records the cumulative counters and returns the growth since
// the previous pass. An index only gets a delta once every counter has a
// usable baseline, so the first pass reports none.
func (r *runner) computeDeltas(usage []models.IndexUsage) map[string]report.UsageDelta {
	deltas := make(map[string]report.UsageDelta)
	for _, row := range usage {
		key := row.Key()
		seeks, okSeeks := r.tracker.Diff(key, "user_seeks", row.UserSeeks)
		scans, okScans := r.tracker.Diff(key, "user_scans", row.UserScans)
		lookups, okLookups := r.tracker.Diff(key, "user_lookups", row.UserLookups)
		updates, okUpdates := r.tracker.Diff(key, "user_updates", row.UserUpdates)

		if okSeeks && okScans && okLookups && okUpdates {
			deltas[key] = report.UsageDelta{
				Seeks:   seeks,
				Scans:   scans,
				Lookups: lookups,
				Updates: updates,
			}
		}
	}
	return deltas
}

func (r *runner) runOnce(ctx context.Context, w io.Writer) error {
	rep, err := r.collect(ctx)
	if err != nil {
		return err
	}
	return report.Render(w, rep, r.format)
}

func (r *runner) runWatch(ctx context.Context, w io.Writer) error {
	r.logger.Info("watch mode", zap.Duration("interval", r.cfg.CollectionInterval))

	if err := r.runOnce(ctx, w); err != nil {
		return err
	}

	ticker := time.NewTicker(r.cfg.CollectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx, w); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// One failed pass should not kill a long watch.
				r.logger.Error("collection pass failed", zap.Error(err))
			}
		}
	}
}

func run(ctx context.Context, cfg appConfig, logger *zap.Logger, w io.Writer) error {
	r, err := newRunner(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting advisor: %w", err)
	}
	defer r.close()

	if cfg.Watch {
		return r.runWatch(ctx, w)
	}
	return r.runOnce(ctx, w)
}
