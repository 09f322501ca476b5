// ABOUTME: Entry point for the Intercom connector service
// ABOUTME: Wires config, storage, services and the HTTP server together
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

	"github.com/tylercowie/intercomconnector/cache"
	"github.com/tylercowie/intercomconnector/config"
	"github.com/tylercowie/intercomconnector/db"
	"github.com/tylercowie/intercomconnector/handlers"
	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/oauth"
	"github.com/tylercowie/intercomconnector/schema"
	syncdata "github.com/tylercowie/intercomconnector/sync"
	"github.com/tylercowie/intercomconnector/webhooks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("connector stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	store, err := cache.OpenBadger(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	api := intercom.NewClient(intercom.ClientOptions{Logger: logger})
	schemas := schema.NewProvider(api, cache.New(store, logger))
	data := syncdata.NewService(api, schemas, cfg.PublicURL(), logger)

	dispatcher := webhooks.NewDispatcher(cfg.MaxConcurrentWebhooks, logger)
	defer dispatcher.Close()

	hooks := webhooks.NewService(api, data, schemas, db.NewRegistrationStore(database), dispatcher, logger)
	flow := oauth.NewFlow(cfg.OAuthClientID, cfg.OAuthClientSecret, "")
	accounts := db.NewAccountStore(database)

	server := handlers.NewServer(cfg, logger, database, api, data, schemas, hooks, flow, accounts)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
