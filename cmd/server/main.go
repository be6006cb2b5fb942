package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sensei/dashboard/internal/artifacts"
	"github.com/sensei/dashboard/internal/config"
	"github.com/sensei/dashboard/internal/poller"
	"github.com/sensei/dashboard/internal/sensei"
	"github.com/sensei/dashboard/internal/server"
	"github.com/sensei/dashboard/internal/session"
	"github.com/sensei/dashboard/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	sessions := session.NewMemoryStore()

	// Pick the result store: MySQL when a DSN is configured, otherwise an
	// in-memory database that lasts for the process lifetime.
	var results store.Store
	if cfg.MySQLDSN != "" {
		log.Info().Msg("initializing MySQL result store...")
		results, err = store.NewMySQLStore(cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize the MySQL result store")
		}
	} else {
		log.Info().Msg("no MySQL DSN configured, using the in-memory result store")
		results, err = store.NewMemDBStore()
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize the in-memory result store")
		}
	}
	defer results.Close()

	var api sensei.API
	if cfg.UseMock {
		log.Info().Msg("using the mock backend client (SENSEI_USE_MOCK=true)")
		api = sensei.NewMockClient()
	} else {
		log.Info().Str("base_url", cfg.APIBaseURL).Msg("using the real backend client")
		api = sensei.NewClient(cfg.APIBaseURL, sessions,
			sensei.WithLogger(log.Logger),
			sensei.WithSessionExpiredHook(func() {
				log.Warn().Msg("session expired, login required")
			}),
		)
	}

	// Every poller tick lands in both the result store and the per-project
	// session cache.
	sink := func(snap poller.Snapshot) {
		for id, tc := range snap.Cases {
			result := store.CheckResult{
				ID:        id,
				ProjectID: snap.ProjectID,
				Name:      tc.Name,
				Status:    tc.Status,
				StartedAt: tc.StartedAt,
			}
			if tc.FinishedAt != nil {
				result.FinishedAt = *tc.FinishedAt
			}
			if report, ok := snap.Reports[id]; ok {
				result.Total = report.Total
				result.Passed = report.Passed
				result.Failed = report.Failed
				result.AvgLatencyMs = report.AvgLatencyMs
			}
			if errs := snap.Errors[id]; len(errs) > 0 {
				result.ErrorType = errs[0].ErrorType
			}
			if err := results.UpsertResult(result); err != nil {
				log.Error().Err(err).Int("test_case", id).Msg("could not record check result")
			}

			if sensei.IsTerminal(tc.Status) {
				sessions.PushCheckResult(strconv.Itoa(snap.ProjectID), session.CheckResult{
					ID:         id,
					Name:       tc.Name,
					Status:     tc.Status,
					Passed:     result.Passed,
					Failed:     result.Failed,
					RecordedAt: time.Now(),
				})
			}
		}
	}
	pollers := poller.NewManager(api, cfg.PollInterval, log.Logger, sink)

	graphs := artifacts.NewManager(cfg.GraphCacheDir, cfg.GraphCacheTTL)

	rootDir, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("could not determine the working directory")
	}

	srv := server.NewServer(api, results, sessions, pollers, graphs, rootDir, log.Logger)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: srv.Router(),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down...")

		srv.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("address", cfg.ListenAddress).Msg("starting the dashboard")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
