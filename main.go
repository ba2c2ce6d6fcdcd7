// ABOUTME: Entry point for the EON dashboard server
// ABOUTME: Wires the session store, API client and views into the HTTP router

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eondash/eon-dashboard/cache"
	"github.com/eondash/eon-dashboard/config"
	"github.com/eondash/eon-dashboard/handlers"
	"github.com/eondash/eon-dashboard/logger"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/store"
	"github.com/eondash/eon-dashboard/views"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 10 * time.Minute
)

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting EON dashboard")
	slog.Info("Remote API configured", "url", cfg.APIBaseURL, "files", cfg.FileBaseURL)
	if cfg.APIAllProxy != "" {
		slog.Info("Remote API reached through SOCKS5 proxy")
	}

	sessionStore, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	api, err := services.NewAPIClient(services.ClientOptions{
		BaseURL:     cfg.APIBaseURL,
		FileBaseURL: cfg.FileBaseURL,
		Timeout:     cfg.APITimeout,
		AllProxy:    cfg.APIAllProxy,
	})
	if err != nil {
		return err
	}

	renderer, err := views.New()
	if err != nil {
		return err
	}

	sessions := services.NewSessionService(sessionStore, cfg.SessionTTL)
	h := handlers.NewHandler(cfg, sessions, api, renderer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openSessionStore builds the configured backend. The returned func releases it.
func openSessionStore(ctx context.Context, cfg *config.Config) (store.SessionStore, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreSQLite:
		s, err := store.NewSQLiteStore(ctx, cfg.SessionDBPath)
		if err != nil {
			return nil, nil, err
		}
		go s.RunPurger(ctx, purgeInterval)
		slog.Info("Session store initialized", "backend", "sqlite", "path", cfg.SessionDBPath)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("Failed to close session store", "error", err)
			}
		}, nil
	default:
		c := cache.New(cfg.SessionTTL)
		slog.Info("Session store initialized", "backend", "memory", "ttl", cfg.SessionTTL)
		return store.NewMemoryStore(c), c.Stop, nil
	}
}
