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

	"voxvid-client/internal/backend"
	"voxvid-client/internal/config"
	"voxvid-client/internal/handlers"
	"voxvid-client/internal/session"
	"voxvid-client/internal/store"
	"voxvid-client/internal/wizard"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open local store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	media, err := wizard.NewMediaStore(logger, cfg.MediaDir)
	if err != nil {
		logger.Error("failed to prepare media dir", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(logger, st)
	api := backend.NewClient(logger, cfg.APIBaseURL, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	media.StartCleanupLoop(ctx, 30*time.Minute, cfg.MediaTTL)

	app := handlers.NewApp(ctx, handlers.Options{
		Logger:         logger,
		Session:        sessions,
		API:            api,
		Media:          media,
		Store:          st,
		PollInterval:   cfg.PollInterval,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("client started", "addr", cfg.ListenAddr, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		_ = srv.Close()
	}
	logger.Info("client stopped")
}
