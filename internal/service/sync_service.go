package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"invwatch/internal/domain"
	"invwatch/internal/metrics"
	"invwatch/internal/port"
)

const invoiceNumberColumn = "Invoice Number"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SyncConfig holds settings for pushing period CSVs to the remote tables.
type SyncConfig struct {
	OutputDir    string
	HeadersTable string
	ItemsTable   string
	BatchSize    int
}

// SyncResult counts what one cycle uploaded.
type SyncResult struct {
	Periods         int `json:"periods"`
	HeadersUploaded int `json:"headers_uploaded"`
	ItemsUploaded   int `json:"items_uploaded"`
	InvoicesSkipped int `json:"invoices_skipped"`
}

// SyncService uploads not-yet-synced invoices from the period CSVs.
type SyncService interface {
	// RunCycle performs one full sync pass. It returns ErrSyncInProgress
	// without doing anything when another cycle is running.
	RunCycle(ctx context.Context) (*SyncResult, error)
	Stats() domain.SyncStats
}

type syncService struct {
	remote  port.RemoteTable
	synced  port.SyncLog
	cfg     SyncConfig
	metrics *metrics.Metrics
	log     zerolog.Logger

	running atomic.Bool
	mu      sync.Mutex
	stats   domain.SyncStats
}

// NewSyncService creates a new SyncService.
func NewSyncService(remote port.RemoteTable, synced port.SyncLog, cfg SyncConfig, m *metrics.Metrics, log zerolog.Logger) SyncService {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &syncService{
		remote:  remote,
		synced:  synced,
		cfg:     cfg,
		metrics: m,
		log:     log.With().Str("component", "sync").Logger(),
	}
}

func (s *syncService) RunCycle(ctx context.Context) (*SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.SyncCycles.WithLabelValues("skipped").Inc()
		s.mu.Lock()
		s.stats.SkippedOverlaps++
		s.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	defer s.running.Store(false)

	start := time.Now().UTC()
	s.mu.Lock()
	s.stats.Running = true
	s.stats.LastStartedAt = &start
	s.mu.Unlock()

	res, err := s.cycle(ctx)

	finished := time.Now().UTC()
	s.metrics.SyncDuration.Observe(finished.Sub(start).Seconds())
	s.mu.Lock()
	s.stats.Running = false
	s.stats.LastFinishedAt = &finished
	if res != nil {
		s.stats.HeadersUploaded = res.HeadersUploaded
		s.stats.ItemsUploaded = res.ItemsUploaded
		s.stats.InvoicesSkipped = res.InvoicesSkipped
	}
	if err != nil {
		s.stats.LastError = err.Error()
	} else {
		s.stats.LastError = ""
		s.stats.CompletedCycles++
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.SyncCycles.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("sync cycle failed")
		return res, err
	}
	s.metrics.SyncCycles.WithLabelValues("ok").Inc()
	s.log.Info().
		Int("periods", res.Periods).
		Int("headers", res.HeadersUploaded).
		Int("items", res.ItemsUploaded).
		Int("skipped", res.InvoicesSkipped).
		Dur("took", finished.Sub(start)).
		Msg("sync cycle complete")
	return res, nil
}

func (s *syncService) Stats() domain.SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *syncService) cycle(ctx context.Context) (*SyncResult, error) {
	if err := s.remote.Ping(ctx); err != nil {
		if !errors.Is(err, domain.ErrRemoteUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
		}
		return nil, err
	}

	headerCols, err := s.remote.Columns(ctx, s.cfg.HeadersTable)
	if err != nil {
		return nil, fmt.Errorf("fetching columns of %s: %w", s.cfg.HeadersTable, err)
	}
	itemCols, err := s.remote.Columns(ctx, s.cfg.ItemsTable)
	if err != nil {
		return nil, fmt.Errorf("fetching columns of %s: %w", s.cfg.ItemsTable, err)
	}

	if err := s.bootstrap(ctx, headerCols); err != nil {
		return nil, err
	}

	pairs, err := PeriodPairs(s.cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{}
	for _, p := range pairs {
		if err := s.syncPeriod(ctx, p, headerCols, itemCols, res); err != nil {
			return res, fmt.Errorf("syncing %s: %w", filepath.Base(p.Headers), err)
		}
		res.Periods++
	}
	return res, nil
}

// bootstrap seeds an absent sync log with the invoice numbers already
// present in the remote header table, so a lost log never re-uploads.
func (s *syncService) bootstrap(ctx context.Context, headerCols []port.Column) error {
	exists, err := s.synced.Exists(ctx)
	if err != nil {
		return fmt.Errorf("checking sync log: %w", err)
	}
	if exists {
		return nil
	}

	numbers := []string{}
	if colID, ok := MapColumns([]string{invoiceNumberColumn}, headerCols)[invoiceNumberColumn]; ok {
		records, err := s.remote.Records(ctx, s.cfg.HeadersTable)
		if err != nil {
			return fmt.Errorf("fetching existing headers: %w", err)
		}
		seen := make(map[string]bool)
		for _, r := range records {
			v, ok := r[colID]
			if !ok || v == nil {
				continue
			}
			n := strings.TrimSpace(fmt.Sprint(v))
			if n != "" && !seen[n] {
				seen[n] = true
				numbers = append(numbers, n)
			}
		}
		sort.Strings(numbers)
	} else {
		s.log.Warn().Str("table", s.cfg.HeadersTable).Msg("remote header table has no invoice number column")
	}

	if err := s.synced.Record(ctx, numbers); err != nil {
		return fmt.Errorf("seeding sync log: %w", err)
	}
	s.log.Info().Int("invoices", len(numbers)).Msg("sync log bootstrapped from remote table")
	return nil
}

func (s *syncService) syncPeriod(ctx context.Context, p PeriodPair, headerCols, itemCols []port.Column, res *SyncResult) error {
	// Headers must be read before items. The appender writes an invoice's
	// items before its header row, so every header seen here has its items.
	headerCSV, headerRows, err := readCSV(p.Headers)
	if err != nil {
		return err
	}
	itemCSV, itemRows, err := readCSV(p.Items)
	if err != nil {
		return err
	}

	var numbers []string
	seen := make(map[string]bool)
	for _, row := range headerRows {
		n := row[invoiceNumberColumn]
		if n != "" && !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	logged, err := s.synced.Contains(ctx, numbers)
	if err != nil {
		return fmt.Errorf("checking sync log: %w", err)
	}
	fresh := make(map[string]bool)
	var freshNumbers []string
	for _, n := range numbers {
		if logged[n] {
			res.InvoicesSkipped++
			continue
		}
		fresh[n] = true
		freshNumbers = append(freshNumbers, n)
	}
	if len(freshNumbers) == 0 {
		return nil
	}

	headerMap := MapColumns(headerCSV, headerCols)
	itemMap := MapColumns(itemCSV, itemCols)

	headers := toRecords(headerRows, headerMap, fresh)
	items := toRecords(itemRows, itemMap, fresh)

	if err := s.upload(ctx, s.cfg.HeadersTable, headers); err != nil {
		return err
	}
	s.metrics.SyncRecords.WithLabelValues("headers").Add(float64(len(headers)))
	res.HeadersUploaded += len(headers)

	if err := s.upload(ctx, s.cfg.ItemsTable, items); err != nil {
		return err
	}
	s.metrics.SyncRecords.WithLabelValues("items").Add(float64(len(items)))
	res.ItemsUploaded += len(items)

	if err := s.synced.Record(ctx, freshNumbers); err != nil {
		return fmt.Errorf("recording synced invoices: %w", err)
	}
	s.log.Info().Str("period", filepath.Base(p.Headers)).Int("invoices", len(freshNumbers)).
		Int("headers", len(headers)).Int("items", len(items)).Msg("period synced")
	return nil
}

func (s *syncService) upload(ctx context.Context, table string, records []port.Record) error {
	for i := 0; i < len(records); i += s.cfg.BatchSize {
		end := i + s.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.remote.AddRecords(ctx, table, records[i:end]); err != nil {
			return fmt.Errorf("uploading %s batch %d: %w", table, i/s.cfg.BatchSize+1, err)
		}
	}
	return nil
}

func toRecords(rows []map[string]string, mapping map[string]string, fresh map[string]bool) []port.Record {
	var out []port.Record
	for _, row := range rows {
		if !fresh[row[invoiceNumberColumn]] {
			continue
		}
		rec := make(port.Record, len(mapping))
		for csvCol, colID := range mapping {
			if v, ok := row[csvCol]; ok {
				rec[colID] = v
			}
		}
		out = append(out, rec)
	}
	return out
}

// readCSV returns the column row and the data rows of a CSV file. A missing
// file reads as empty.
func readCSV(path string) ([]string, []map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}

	columns, err := gocsv.DefaultCSVReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	rows, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return columns, rows, nil
}

// PeriodPair is the header and items CSV of one period.
type PeriodPair struct {
	Period  time.Time
	Headers string
	Items   string
}

// PeriodPairs lists the period CSV pairs in dir, oldest period first.
// A headers file whose stem is not a period is ignored.
func PeriodPairs(dir string) ([]PeriodPair, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*Headers.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing period files: %w", err)
	}
	pairs := make([]PeriodPair, 0, len(matches))
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), "Headers.csv")
		period, err := time.Parse("Jan06", stem)
		if err != nil {
			continue
		}
		pairs = append(pairs, PeriodPair{
			Period:  period,
			Headers: m,
			Items:   filepath.Join(dir, stem+"Items.csv"),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Period.Before(pairs[j].Period) })
	return pairs, nil
}
