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

	"github.com/spf13/cobra"

	"github.com/erazemk/oprema/internal/api"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/web"
)

func (a *app) serveCommand() *cobra.Command {
	var adminUser string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, adminUser)
		},
	}
	cmd.Flags().StringVarP(&adminUser, "user", "u", "admin", "admin username when the database is created on first run")
	return cmd
}

func (a *app) serve(ctx context.Context, adminUser string) error {
	cfg := a.cfg

	if _, err := os.Stat(cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		password, err := initDatabase(ctx, cfg.DBPath, adminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(cfg.DBPath, adminUser, password)
		fmt.Println()
	}

	database, err := openMigrated(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.DBPath)

	if purged, err := store.PurgeRevokedSessions(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked sessions", "error", err)
	} else if purged > 0 {
		slog.Info("purged revoked sessions", "count", purged)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		if jwtSecret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading jwt secret: %w", err)
		}
	}

	webRouter, err := web.NewRouter(database, jwtSecret)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(database, jwtSecret))
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}

	slog.Info("server stopped, closing database")
	return nil
}
