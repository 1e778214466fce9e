package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"invwatch/internal/domain"
	"invwatch/internal/metrics"
	"invwatch/internal/parser"
	"invwatch/internal/port"
	"invwatch/internal/validator"
)

// IngestConfig holds per-file processing limits.
type IngestConfig struct {
	Stability   StabilityConfig
	MaxFileSize int64
}

// ParsePreview is the result of parsing a document without writing output.
type ParsePreview struct {
	Document   domain.InvoiceDocument       `json:"document"`
	Anomalies  []parser.SegmentationAnomaly `json:"anomalies,omitempty"`
	Validation *validator.Report            `json:"validation"`
}

// IngestService takes one file from the watch directory to its final place.
type IngestService interface {
	// Process parses path, writes its rows and archives it. Any failure
	// quarantines the file instead; a file that vanishes or never settles
	// is abandoned where it is.
	Process(ctx context.Context, path string) domain.ProcessOutcome
	// Preview parses and validates path without side effects.
	Preview(ctx context.Context, path string) (*ParsePreview, error)
	Stats() domain.IngestStats
	SetPending(n int)
}

// IngestDeps groups the collaborators of the ingest service. Output is the
// authoritative sink; Extra sinks are best effort.
type IngestDeps struct {
	Parser    *parser.Parser
	Source    port.TextSource
	Validator *validator.Engine
	Output    port.DocumentSink
	Extra     []port.DocumentSink
	Mover     *FileMover
	Metrics   *metrics.Metrics
}

type ingestService struct {
	deps IngestDeps
	cfg  IngestConfig
	log  zerolog.Logger

	mu    sync.Mutex
	stats domain.IngestStats
}

// NewIngestService creates a new IngestService.
func NewIngestService(deps IngestDeps, cfg IngestConfig, log zerolog.Logger) IngestService {
	return &ingestService{
		deps: deps,
		cfg:  cfg,
		log:  log.With().Str("component", "ingest").Logger(),
	}
}

func (s *ingestService) Process(ctx context.Context, path string) (outcome domain.ProcessOutcome) {
	log := s.log.With().Str("file", filepath.Base(path)).Logger()
	var procErr error

	defer func() {
		if r := recover(); r != nil {
			procErr = fmt.Errorf("panic while processing: %v", r)
			log.Error().Interface("panic", r).Msg("recovered panic")
			outcome = s.quarantine(ctx, path, log)
		}
		s.record(path, outcome, procErr)
	}()

	size, err := WaitStable(ctx, path, s.cfg.Stability)
	switch {
	case errors.Is(err, domain.ErrFileVanished):
		log.Debug().Msg("file vanished before processing")
		return domain.OutcomeAbandoned
	case errors.Is(err, domain.ErrFileUnstable):
		procErr = err
		log.Warn().Msg("file size never settled, leaving in place")
		return domain.OutcomeAbandoned
	case ctx.Err() != nil:
		return domain.OutcomeAbandoned
	case err != nil:
		procErr = err
		log.Error().Err(err).Msg("stability check failed")
		return s.quarantine(ctx, path, log)
	}

	if s.cfg.MaxFileSize > 0 && size > s.cfg.MaxFileSize {
		procErr = fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, size)
		log.Error().Int64("size", size).Msg("file too large")
		return s.quarantine(ctx, path, log)
	}

	preview, err := s.parse(ctx, path)
	if err != nil {
		procErr = err
		log.Error().Err(err).Msg("parse failed")
		return s.quarantine(ctx, path, log)
	}
	doc := &preview.Document

	if err := s.deps.Output.Write(ctx, doc); err != nil {
		procErr = fmt.Errorf("writing output: %w", err)
		log.Error().Err(err).Msg("writing output failed")
		return s.quarantine(ctx, path, log)
	}
	for _, sink := range s.deps.Extra {
		if err := sink.Write(ctx, doc); err != nil {
			log.Warn().Err(err).Msg("secondary output failed")
		}
	}

	dest, err := s.deps.Mover.Archive(ctx, path)
	if err != nil {
		procErr = fmt.Errorf("archiving: %w", err)
		log.Error().Err(err).Msg("archive failed")
		return s.quarantine(ctx, path, log)
	}

	log.Info().
		Str("invoice_number", doc.Header.InvoiceNumber).
		Str("period", doc.PeriodKey).
		Int("items", len(doc.Items)).
		Str("validation", string(preview.Validation.Status)).
		Str("archived_to", dest).
		Msg("invoice processed")
	return domain.OutcomeArchived
}

func (s *ingestService) Preview(ctx context.Context, path string) (*ParsePreview, error) {
	return s.parse(ctx, path)
}

func (s *ingestService) parse(ctx context.Context, path string) (*ParsePreview, error) {
	start := time.Now()
	res, err := s.deps.Parser.Parse(ctx, s.deps.Source, path)
	s.deps.Metrics.ParseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.ItemsExtracted.Add(float64(len(res.Document.Items)))
	s.deps.Metrics.SegmentAnomalies.Add(float64(len(res.Anomalies)))

	report := s.deps.Validator.Validate(ctx, &res.Document)
	for _, f := range report.Failures() {
		s.deps.Metrics.ValidationFailures.WithLabelValues(f.RuleKey).Inc()
	}

	return &ParsePreview{
		Document:   res.Document,
		Anomalies:  res.Anomalies,
		Validation: report,
	}, nil
}

func (s *ingestService) quarantine(ctx context.Context, path string, log zerolog.Logger) domain.ProcessOutcome {
	dest, err := s.deps.Mover.Quarantine(ctx, path)
	if err != nil {
		log.Error().Err(err).Msg("quarantine failed, leaving file in place")
		return domain.OutcomeAbandoned
	}
	log.Warn().Str("quarantined_to", dest).Msg("file quarantined")
	return domain.OutcomeQuarantined
}

func (s *ingestService) record(path string, outcome domain.ProcessOutcome, err error) {
	s.deps.Metrics.FilesProcessed.WithLabelValues(string(outcome)).Inc()

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Processed++
	switch outcome {
	case domain.OutcomeArchived:
		s.stats.Archived++
	case domain.OutcomeQuarantined:
		s.stats.Quarantined++
	case domain.OutcomeAbandoned:
		s.stats.Abandoned++
	}
	s.stats.LastFile = filepath.Base(path)
	s.stats.LastRunAt = &now
	if err != nil {
		s.stats.LastError = err.Error()
	}
}

func (s *ingestService) Stats() domain.IngestStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *ingestService) SetPending(n int) {
	s.deps.Metrics.PendingFiles.Set(float64(n))
	s.mu.Lock()
	s.stats.Pending = n
	s.mu.Unlock()
}
