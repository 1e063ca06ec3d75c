package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rotakit/rotakit/internal/rota/approval"
	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/events"
	"github.com/rotakit/rotakit/internal/rota/facade"
	"github.com/rotakit/rotakit/internal/rota/fairness"
	"github.com/rotakit/rotakit/internal/rota/handler"
	"github.com/rotakit/rotakit/internal/rota/notify"
	"github.com/rotakit/rotakit/internal/rota/orchestrator"
	"github.com/rotakit/rotakit/internal/rota/roles"
	"github.com/rotakit/rotakit/internal/rota/scheduler"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
	"github.com/rotakit/rotakit/internal/rota/store/postgres"
	"github.com/rotakit/rotakit/pkg/config"
	"github.com/rotakit/rotakit/pkg/database"
	httpmw "github.com/rotakit/rotakit/pkg/httputil"
	"github.com/rotakit/rotakit/pkg/logger"
	"github.com/rotakit/rotakit/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("rota-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("rota-service", cfg.Server.Environment)
	log.Info().Msg("starting Rota Service")

	// Resolve the scheduling engine's store. The in-memory store is only for
	// local development/demo runs; anything with a real database URL or host
	// configured goes through Postgres.
	st, closeStore, err := newStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer closeStore()

	// Connect to RabbitMQ for best-effort email notification delivery.
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeScheduleEvents, "rota-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	emailQueue := notify.NewAMQPQueue(publisher)

	// Build the organization clock from configured timezone and holidays.
	clk, err := newClock(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scheduling clock")
	}

	limits := conflict.DefaultLimits()
	limits.MaxDailyHours = cfg.Scheduling.MaxDailyHours
	limits.MaxWeeklyHours = cfg.Scheduling.MaxWeeklyHours
	limits.MaxMonthlyHours = cfg.Scheduling.MaxMonthlyHours
	limits.PartialAvailabilityThreshold = cfg.Scheduling.PartialAvailabilityThreshold
	limits.MinRequiredStaff = cfg.Scheduling.MinRequiredStaff

	conflictSvc := conflict.New(st, clk, limits)
	ledger := fairness.New(st)
	orch := orchestrator.New(st, clk, ledger, conflictSvc)
	roleResolver := roles.New(st, cfg.Scheduling.AdminApproverID, cfg.Scheduling.EscalationApproverIDs)
	sink := events.New(st, clk, emailQueue, log)
	approvalEngine := approval.New(st, clk, conflictSvc, sink, roleResolver)

	f := facade.New(st, clk, conflictSvc, ledger, orch, approvalEngine, sink)
	h := handler.New(f, log)

	// Recurring shift patterns materialize on a schedule rather than only on
	// demand, so managers don't have to remember to call generate themselves.
	sched := scheduler.New(f, scheduler.Config{
		Schedule:    cfg.Scheduling.PatternGenerationCron,
		HorizonDays: cfg.Scheduling.PatternHorizonDays,
		Enabled:     cfg.Scheduling.PatternGenerationCron != "",
	}, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start pattern generation scheduler")
	}

	// Build router
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httpmw.RequestID)
	r.Use(httpmw.Logger(log))
	r.Use(httpmw.Recoverer(log))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httpmw.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Mount("/api/v1/rota", h.Routes())

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	<-sched.Stop().Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newStore picks Postgres when a database connection is configured, and
// falls back to the in-memory store otherwise (local development only;
// config.DatabaseConfig.Validate already refuses this in staging/production).
func newStore(cfg *config.Config, log *logger.Logger) (store.Store, func(), error) {
	if cfg.Database.URL == "" && cfg.Database.Host == "" {
		log.Warn().Msg("no database configured, using in-memory store")
		st := memstore.New()
		return st, func() {}, nil
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return postgres.New(db), func() { db.Close() }, nil
}

// newClock builds the organization clock from the configured IANA timezone
// and a civil-date holiday set ("2006-01-02" per entry).
func newClock(cfg *config.Config) (*clock.Real, error) {
	loc, err := time.LoadLocation(cfg.Scheduling.OrganizationTimezone)
	if err != nil {
		return nil, fmt.Errorf("load organization timezone %q: %w", cfg.Scheduling.OrganizationTimezone, err)
	}

	holidays := make([]time.Time, 0, len(cfg.Scheduling.HolidaySet))
	for _, raw := range cfg.Scheduling.HolidaySet {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", raw, err)
		}
		holidays = append(holidays, d)
	}

	return clock.New(loc, holidays), nil
}
