// Package main is the entry point for the Lunisolar API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/api"
	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/logger"
	"github.com/zapponejosh/lunisolar-api/internal/warmer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting lunisolar API",
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("calendar_tz", cfg.CalendarTZ),
	)

	// ==========================================================================
	// Cache
	// ==========================================================================
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	log.Info("database ready", slog.String("path", cfg.DatabasePath), slog.Int("migrations_applied", applied))

	// ==========================================================================
	// Calendar
	// ==========================================================================
	set, err := ephemeris.LoadFrom(cfg.EphemerisDir)
	if err != nil {
		return fmt.Errorf("load ephemeris: %w", err)
	}
	asm, err := calendar.FromSet(set, log, calendar.WithZone(cfg.Location()))
	if err != nil {
		return fmt.Errorf("build assembler: %w", err)
	}
	resolver := calendar.NewResolver(asm, db, log)
	log.Info("ephemeris loaded",
		slog.String("solar", set.Solar.Name),
		slog.String("lunar_v", set.LunarV.Name),
	)

	// ==========================================================================
	// Background warming
	// ==========================================================================
	var w *warmer.Warmer
	if cfg.CacheWarmSchedule != "" {
		w, err = warmer.New(resolver, cfg.CacheWarmSchedule, warmer.WithLogger(log))
		if err != nil {
			return err
		}
		w.Start()
		go w.Run()
	}

	// ==========================================================================
	// HTTP server
	// ==========================================================================
	handlers := api.NewHandlers(resolver, db, cfg, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, log),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.ConvertTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("lunisolar API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Handle ctrl-c gracefully.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		log.Info("shutting down", slog.String("signal", s.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if w != nil {
		if err := w.Stop(shutdownCtx); err != nil {
			log.Warn("cache warmer did not stop cleanly", slog.Any("error", err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("lunisolar API stopped")
	return nil
}
