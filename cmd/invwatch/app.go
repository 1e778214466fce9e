package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"invwatch/internal/config"
	"invwatch/internal/csvexport"
	"invwatch/internal/metrics"
	"invwatch/internal/parser"
	"invwatch/internal/port"
	"invwatch/internal/remote/grist"
	"invwatch/internal/repository/postgres"
	"invwatch/internal/service"
	s3storage "invwatch/internal/storage/s3"
	"invwatch/internal/synclog"
	"invwatch/internal/textsource"
	"invwatch/internal/validator"
	"invwatch/internal/xlsxexport"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	db      *sqlx.DB
	ingest  service.IngestService
	sync    service.SyncService
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	rules, err := parser.LoadRules(cfg.Extract.RulesFile)
	if err != nil {
		return nil, err
	}

	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewMirror(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("initializing s3 mirror: %w", err)
		}
	}

	var extra []port.DocumentSink
	if cfg.Output.XLSX {
		extra = append(extra, xlsxexport.NewPeriodWorkbook(cfg.Output.Dir, log))
	}

	a.ingest = service.NewIngestService(service.IngestDeps{
		Parser:    parser.New(rules, log),
		Source:    newTextSource(cfg, log),
		Validator: validator.NewEngine(validator.NewBuiltinRegistry(), log),
		Output:    csvexport.NewPeriodAppender(cfg.Output.Dir, cfg.Output.BOM, log),
		Extra:     extra,
		Mover:     service.NewFileMover(cfg.Watch.ArchiveDir, cfg.Watch.ErrorDir, storage, cfg.S3.Bucket, log),
		Metrics:   a.metrics,
	}, service.IngestConfig{
		Stability: service.StabilityConfig{
			Delay:   cfg.Watch.StabilityDelay,
			Retries: cfg.Watch.StabilityRetries,
		},
		MaxFileSize: cfg.Watch.MaxFileSizeMB << 20,
	}, log)

	if cfg.Sync.Enabled {
		synced, err := a.syncLog()
		if err != nil {
			a.Close()
			return nil, err
		}
		remote := grist.NewClient(grist.Config{
			BaseURL:           cfg.Sync.ServerURL,
			DocID:             cfg.Sync.DocID,
			APIKey:            cfg.Sync.APIKey,
			Timeout:           cfg.Sync.Timeout,
			RequestsPerSecond: cfg.Sync.RequestsPerSecond,
		}, log)
		a.sync = service.NewSyncService(remote, synced, service.SyncConfig{
			OutputDir:    cfg.Output.Dir,
			HeadersTable: cfg.Sync.HeadersTable,
			ItemsTable:   cfg.Sync.ItemsTable,
			BatchSize:    cfg.Sync.BatchSize,
		}, a.metrics, log)
	}
	return a, nil
}

func (a *app) syncLog() (port.SyncLog, error) {
	if a.cfg.Sync.LogBackend != config.SyncLogPostgres {
		return synclog.NewFileLog(a.cfg.Sync.LogFile), nil
	}
	db, err := postgres.NewDB(&a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	return postgres.NewSyncLogRepo(db), nil
}

func newTextSource(cfg *config.Config, log zerolog.Logger) port.TextSource {
	pdfSource := textsource.NewPDFSource(log)
	if !cfg.Extract.TextFallback {
		return pdfSource
	}
	return textsource.NewFallbackSource(
		[]port.TextSource{pdfSource, textsource.SiblingTextSource{}},
		[]string{"pdf", "sibling-text"},
		log,
	)
}

// Close releases the database connection, if any.
func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
