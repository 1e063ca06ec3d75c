// Package scheduler runs the recurring-pattern bulk-generation job on a
// cron trigger, grounded on the invoice-generation scheduler pattern: a
// mutex-guarded running flag around a robfig/cron/v3 instance.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rotakit/rotakit/internal/rota/facade"
	"github.com/rotakit/rotakit/pkg/actor"
	"github.com/rotakit/rotakit/pkg/logger"
)

// Config holds scheduler configuration.
type Config struct {
	// Schedule is a standard 5-field cron expression (e.g. "0 2 * * *" for
	// 02:00 daily).
	Schedule string
	// HorizonDays is how far past "now" GeneratePattern should materialize
	// shifts for every active pattern.
	HorizonDays int
	Enabled     bool
}

// Scheduler manages the recurring-pattern generation background job.
type Scheduler struct {
	cron    *cron.Cron
	facade  *facade.Facade
	config  Config
	log     *logger.Logger
	running bool
	mu      sync.Mutex
}

// New constructs a Scheduler over an already-wired facade.
func New(f *facade.Facade, config Config, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		facade: f,
		config: config,
		log:    log,
	}
}

// Start registers the bulk-generation job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if !s.config.Enabled {
		s.log.Info().Msg("pattern generation scheduler is disabled")
		return nil
	}

	// Convert standard 5-field cron to the 6-field seconds form this library
	// expects, by prepending "0 " for the seconds field.
	schedule := "0 " + s.config.Schedule
	if _, err := s.cron.AddFunc(schedule, s.runBulkGenerate); err != nil {
		return fmt.Errorf("failed to add pattern generation job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.log.Info().
		Str("schedule", s.config.Schedule).
		Int("horizon_days", s.config.HorizonDays).
		Msg("pattern generation scheduler started")

	return nil
}

// Stop stops the cron loop, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	ctx := s.cron.Stop()
	s.running = false
	s.log.Info().Msg("pattern generation scheduler stopped")
	return ctx
}

func (s *Scheduler) runBulkGenerate() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	horizon := time.Now().AddDate(0, 0, s.config.HorizonDays)

	s.log.Info().Time("horizon", horizon).Msg("starting scheduled pattern generation")

	generated, err := s.facade.BulkGenerate(ctx, actor.SystemActor(), horizon)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled pattern generation failed")
		return
	}

	total := 0
	for _, shifts := range generated {
		total += len(shifts)
	}
	s.log.Info().Int("patterns", len(generated)).Int("shifts_created", total).
		Msg("scheduled pattern generation complete")
}
