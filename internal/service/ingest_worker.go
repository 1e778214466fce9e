package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"invwatch/internal/domain"
)

// IngestWorkerConfig holds settings for the directory watcher.
type IngestWorkerConfig struct {
	InputDir     string
	Workers      int
	ScanInterval time.Duration
	QueueSize    int
	// FileTimeout bounds the processing of a single file.
	FileTimeout time.Duration
}

// IngestWorker watches the input directory and feeds new documents to the
// ingest service, one file per worker at a time.
type IngestWorker struct {
	svc IngestService
	cfg IngestWorkerConfig
	log zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	queue   chan string
	wg      sync.WaitGroup
}

// NewIngestWorker creates a new IngestWorker.
func NewIngestWorker(svc IngestService, cfg IngestWorkerConfig, log zerolog.Logger) *IngestWorker {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 256
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = 5 * time.Minute
	}
	return &IngestWorker{
		svc:     svc,
		cfg:     cfg,
		log:     log.With().Str("component", "ingest_worker").Logger(),
		pending: make(map[string]struct{}),
		queue:   make(chan string, cfg.QueueSize),
	}
}

// Start watches until ctx is canceled. Files already in the directory are
// queued first. It blocks until in-flight files have finished.
func (w *IngestWorker) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.InputDir, 0o755); err != nil {
		return fmt.Errorf("creating input dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(w.cfg.InputDir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.InputDir, err)
	}

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}

	w.log.Info().Str("dir", w.cfg.InputDir).Int("workers", w.cfg.Workers).Msg("watching for invoices")
	w.scan(ctx)

	var rescan <-chan time.Time
	if w.cfg.ScanInterval > 0 {
		ticker := time.NewTicker(w.cfg.ScanInterval)
		defer ticker.Stop()
		rescan = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("shutting down, waiting for in-flight files")
			close(w.queue)
			w.wg.Wait()
			w.log.Info().Msg("shutdown complete")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.enqueue(ctx, ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if ok {
				w.log.Error().Err(err).Msg("watcher error")
			}
		case <-rescan:
			w.scan(ctx)
		}
	}
}

// Pending returns the number of files queued or in flight.
func (w *IngestWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *IngestWorker) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.InputDir)
	if err != nil {
		w.log.Error().Err(err).Msg("scanning input dir")
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.enqueue(ctx, filepath.Join(w.cfg.InputDir, name))
	}
}

func (w *IngestWorker) enqueue(ctx context.Context, path string) {
	if !IsSupportedFile(path) {
		return
	}
	w.mu.Lock()
	if _, dup := w.pending[path]; dup {
		w.mu.Unlock()
		return
	}
	w.pending[path] = struct{}{}
	n := len(w.pending)
	w.mu.Unlock()
	w.svc.SetPending(n)

	select {
	case w.queue <- path:
		w.log.Debug().Str("file", filepath.Base(path)).Msg("queued")
	case <-ctx.Done():
		w.done(path)
	}
}

func (w *IngestWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for path := range w.queue {
		if ctx.Err() != nil {
			// left for the startup scan of the next run
			w.done(path)
			continue
		}
		// Fresh context so a file in flight completes during shutdown.
		fileCtx, cancel := context.WithTimeout(context.Background(), w.cfg.FileTimeout)
		w.svc.Process(fileCtx, path)
		cancel()
		w.done(path)
	}
}

func (w *IngestWorker) done(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	n := len(w.pending)
	w.mu.Unlock()
	w.svc.SetPending(n)
}

// IsSupportedFile reports whether path has an accepted document extension.
func IsSupportedFile(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := domain.AllowedExtensions[ext]
	return ok
}
