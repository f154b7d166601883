package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mlb_standings/ingestion/internal/metrics"
	"mlb_standings/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the nightly update scheduler with metrics and health endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run an update immediately on startup")
	return cmd
}

func runServe(ctx context.Context, runNow bool) error {
	log.Info().Msg("Starting MLB standings ingestion service")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("backend", cfg.SnapshotBackend).
		Msg("Configuration loaded")

	runner, cleanup, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.NewScheduler(cfg.UpdateCron, runner)

	var srv *http.Server
	if cfg.EnableMetrics {
		srv = newMetricsServer(cfg.MetricsPort, sched)
		go func() {
			log.Info().Int("port", cfg.MetricsPort).Msg("Starting metrics server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := sched.Start(ctx); err != nil {
		return err
	}

	if runNow {
		log.Info().Msg("Running initial update...")
		go sched.RunOnce(ctx)
	}

	// Keep running until context is cancelled
	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, gracefully shutting down...")

	sched.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	log.Info().Msg("Service shutdown complete")
	return nil
}

type healthResponse struct {
	Status    string     `json:"status"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Year      int        `json:"year,omitempty"`
	LastDay   string     `json:"last_day,omitempty"`
	Valid     *bool      `json:"valid,omitempty"`
}

func newMetricsServer(port int, sched *scheduler.Scheduler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler(sched.Status))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(status func() scheduler.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := status()
		resp := healthResponse{Status: "healthy"}
		if !st.LastRun.IsZero() {
			resp.LastRun = &st.LastRun
		}
		if st.LastError != nil {
			resp.LastError = st.LastError.Error()
		}
		if rep := st.LastReport; rep != nil {
			valid := rep.Validation.OK
			resp.Year = rep.Year
			resp.LastDay = rep.LastDay.String()
			resp.Valid = &valid
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
