package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mlb_standings/ingestion/internal/season"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner runs one season ingestion
type Runner interface {
	Run(ctx context.Context, opts season.RunOptions) (*season.RunReport, error)
}

// Scheduler runs the nightly incremental update of the current season.
// Runs never overlap; a tick that fires while one is in progress is skipped.
type Scheduler struct {
	spec     string
	runner   Runner
	cron     *cron.Cron
	now      func() time.Time
	stopChan chan struct{}

	running sync.Mutex

	mu         sync.RWMutex
	lastReport *season.RunReport
	lastErr    error
	lastRun    time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(spec string, runner Runner) *Scheduler {
	return &Scheduler{
		spec:     spec,
		runner:   runner,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start registers the update job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.spec, func() {
		select {
		case <-s.stopChan:
			return
		default:
		}
		log.Info().Msg("Running scheduled update...")
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule update: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.spec).
		Msg("Nightly update scheduled")

	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	close(s.stopChan)
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	log.Info().Msg("Scheduler stopped")
}

// RunOnce runs an incremental update of the current season unless one is
// already in progress. It reports whether a run took place.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.TryLock() {
		log.Warn().Msg("Previous update still running, skipping")
		return false
	}
	defer s.running.Unlock()

	year := s.now().Year()
	report, err := s.runner.Run(ctx, season.RunOptions{Year: year, Update: true})

	s.mu.Lock()
	s.lastReport, s.lastErr, s.lastRun = report, err, s.now()
	s.mu.Unlock()

	switch {
	case errors.Is(err, season.ErrSeasonNotStarted):
		log.Info().Int("year", year).Msg("Season not started yet, nothing to update")
	case err != nil:
		log.Error().Err(err).Int("year", year).Msg("Scheduled update failed")
	default:
		log.Info().
			Int("year", year).
			Str("last_day", report.LastDay.String()).
			Bool("valid", report.Validation.OK).
			Msg("Scheduled update complete")
	}
	return true
}

// cronLogger routes cron's own messages through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Status describes the most recent run
type Status struct {
	LastRun    time.Time
	LastReport *season.RunReport
	LastError  error
}

// Status returns the outcome of the most recent run
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{LastRun: s.lastRun, LastReport: s.lastReport, LastError: s.lastErr}
}
