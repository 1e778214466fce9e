package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"invwatch/internal/handler"
	"invwatch/internal/router"
	"invwatch/internal/service"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the input directory, serve the status API and run scheduled syncs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if runOnce {
			return processExisting(ctx, a)
		}
		return serve(ctx, a)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "process files already in the input directory and exit")
}

func serve(ctx context.Context, a *app) error {
	for _, d := range []string{cfg.Watch.InputDir, cfg.Watch.ArchiveDir, cfg.Watch.ErrorDir, cfg.Output.Dir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}

	worker := service.NewIngestWorker(a.ingest, service.IngestWorkerConfig{
		InputDir:     cfg.Watch.InputDir,
		Workers:      cfg.Watch.Workers,
		ScanInterval: cfg.Watch.ScanInterval,
	}, log)

	var scheduler *service.SyncScheduler
	if a.sync != nil {
		scheduler = service.NewSyncScheduler(a.sync, cfg.Sync.Interval, log)
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Start(gctx) })

	if cfg.Server.Enabled {
		srv := newHTTPServer(a)
		g.Go(func() error {
			log.Info().Str("addr", cfg.Server.Port).Msg("status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	log.Info().Msg("invwatch stopped")
	return err
}

func newHTTPServer(a *app) *http.Server {
	h := router.Handlers{
		Health: handler.NewHealthHandler(a.db, cfg.Watch.InputDir, cfg.Output.Dir),
		Stats:  handler.NewStatsHandler(a.ingest, a.sync),
		Parse:  handler.NewParseHandler(a.ingest, cfg.Watch.MaxFileSizeMB<<20),
		Sync:   handler.NewSyncHandler(a.sync),
	}
	opts := router.Options{CORSOrigins: cfg.Server.CORSOrigins}
	if cfg.Metrics.Enabled {
		opts.Metrics = a.metrics
		opts.MetricsPath = cfg.Metrics.Path
	}
	return &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.Setup(h, opts, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func processExisting(ctx context.Context, a *app) error {
	entries, err := os.ReadDir(cfg.Watch.InputDir)
	if err != nil {
		return err
	}
	var paths []string
	for _, e := range entries {
		p := filepath.Join(cfg.Watch.InputDir, e.Name())
		if !e.IsDir() && service.IsSupportedFile(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	counts := map[string]int{}
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		counts[string(a.ingest.Process(ctx, p))]++
	}
	log.Info().Int("files", len(paths)).Interface("outcomes", counts).Msg("batch complete")
	return nil
}
