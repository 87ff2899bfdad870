/**
 * @description
 * Entry point for the session service: the headless companion process that
 * owns the banking client's identity and account-snapshot cache. It restores
 * the persisted session before any network activity, starts the periodic
 * reconciliation scheduler, and serves the local control surface for UI
 * consumers.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ALTER-2357/bank-app-thing/internal/api"
	"github.com/ALTER-2357/bank-app-thing/internal/app"
	"github.com/ALTER-2357/bank-app-thing/internal/config"
	"github.com/ALTER-2357/bank-app-thing/internal/store"
	"github.com/ALTER-2357/bank-app-thing/pkg/bankclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// No durable storage means the client cannot keep a session at all;
	// abort rather than limp along memory-only.
	sessions, err := store.NewFileSessionStore(cfg.StateDir)
	if err != nil {
		logger.Error("unable to open session store", "error", err)
		os.Exit(1)
	}
	cache, err := store.NewFileAccountCache(cfg.StateDir)
	if err != nil {
		logger.Error("unable to open account cache", "error", err)
		os.Exit(1)
	}

	client := bankclient.NewClient(cfg.BankAPIBaseURL, cfg.BankAPITimeout())
	manager := app.NewManager(sessions, cache, client, logger)

	// The persisted PAN decides initial routing, so it is consulted before
	// anything touches the network.
	if err := manager.Restore(); err != nil {
		logger.Error("unable to restore persisted session", "error", err)
		os.Exit(1)
	}
	session := manager.CurrentSession()
	logger.Info("session restored", "authenticated", session.IsAuthenticated())

	scheduler := app.NewScheduler(manager, logger, cfg.ReconcileSchedule, cfg.BankAPITimeout())
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start reconciliation scheduler", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(manager, client, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting control server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("session service stopped")
}
