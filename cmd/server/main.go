package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tphummel/server_inventory/internal/config"
	"github.com/tphummel/server_inventory/internal/console"
	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/handlers"
	"github.com/tphummel/server_inventory/internal/metrics"
	"github.com/tphummel/server_inventory/internal/middleware"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// newHandler wires every route onto one mux and wraps it in the request
// middleware. Metrics registration is left to main since it is global.
func newHandler(database handlers.Store) (http.Handler, error) {
	ui, err := console.New()
	if err != nil {
		return nil, err
	}

	h := &handlers.Handler{DB: database, Version: version, Commit: commit}

	mux := http.NewServeMux()
	h.Register(mux)
	ui.Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	skip := middleware.SkipPaths("/health", "/metrics")
	return middleware.RequestID(middleware.RequestLogger(slog.Default(), skip, mux)), nil
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("server_inventory %s (%s)\n", version, commit)
		return
	}

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()
	database.SetMaxOpenConns(cfg.MaxOpenConns)

	metrics.Register(database)

	handler, err := newHandler(database)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "store", database.Dialect(), "version", version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
