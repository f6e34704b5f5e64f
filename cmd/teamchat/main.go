package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"teamchat/internal/chatapp"
	"teamchat/internal/config"
	"teamchat/internal/db"
	"teamchat/internal/httpapi"
	"teamchat/internal/presence"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration, falling back to defaults when no file exists.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = config.Default()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.Paths.Data, 0755); err != nil {
		logger.Fatal("create data directory", zap.Error(err))
	}

	// Open database
	database, err := db.Open(cfg.Paths.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()
	logger.Info("database opened", zap.String("path", cfg.Paths.Database))

	app, err := chatapp.New(cfg, database, logger, chatapp.NewLogNotifier(logger))
	if err != nil {
		logger.Fatal("initialize app", zap.Error(err))
	}
	logger.Info("workspace ready", zap.String("company", app.Branding().Name))

	// --- Presence simulator ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := presence.New(app, cfg.Simulator, logger, rand.New(rand.NewSource(time.Now().UnixNano())))
	go sim.Run(ctx)

	// --- HTTP server ---
	api := httpapi.NewServer(app, logger)
	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	fmt.Printf("\n%s is running\n", app.Branding().Name)
	fmt.Printf("  HTTP: %s\n", cfg.Server.ListenAddr)
	fmt.Println("\nPress Ctrl+C to shut down.")

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutting down", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
