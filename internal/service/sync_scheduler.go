package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"invwatch/internal/domain"
)

// SyncScheduler runs sync cycles on a fixed interval in the background.
type SyncScheduler struct {
	cron     *cron.Cron
	svc      SyncService
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// NewSyncScheduler creates a scheduler that runs svc every interval. A tick
// that fires while the previous cycle is still running is skipped.
func NewSyncScheduler(svc SyncService, interval time.Duration, log zerolog.Logger) *SyncScheduler {
	l := log.With().Str("component", "sync_scheduler").Logger()
	cl := cronLogger{log: l}
	return &SyncScheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		svc:      svc,
		interval: interval,
		timeout:  30 * time.Minute,
		log:      l,
	}
}

// Start registers the sync job, runs a first cycle right away and starts
// the schedule.
func (s *SyncScheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", s.interval)
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick); err != nil {
		return fmt.Errorf("scheduling sync: %w", err)
	}
	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Msg("sync scheduler started")
	go s.tick()
	return nil
}

// Stop halts the schedule; the returned context is done once a running
// cycle has finished.
func (s *SyncScheduler) Stop() context.Context {
	s.log.Info().Msg("sync scheduler stopping")
	return s.cron.Stop()
}

// TriggerNow runs a cycle synchronously outside the schedule.
func (s *SyncScheduler) TriggerNow(ctx context.Context) (*SyncResult, error) {
	return s.svc.RunCycle(ctx)
}

func (s *SyncScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.svc.RunCycle(ctx); errors.Is(err, domain.ErrSyncInProgress) {
		s.log.Debug().Msg("previous sync cycle still running, skipped")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
