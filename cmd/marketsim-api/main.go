package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketsim/internal/api"
	"marketsim/internal/catalog"
	"marketsim/internal/config"
	"marketsim/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Engine.LogLevel}))
	cat, err := catalog.Load(cfg.Engine.CatalogFile)
	if err != nil {
		logger.Error("catalog load failed", "file", cfg.Engine.CatalogFile, "err", err)
		os.Exit(1)
	}

	gameSvc := game.NewService(game.Options{
		Catalog:     cat,
		Rand:        game.NewRand(cfg.Engine.Seed),
		SettleDelay: cfg.Engine.SettleDelay,
		Logger:      logger,
	})

	server := api.New(cfg, logger, gameSvc)
	defer server.Close()
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		server.Close()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("marketsim api listening", "addr", cfg.Addr, "products", cat.Len(), "settle_delay", cfg.Engine.SettleDelay.String())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
