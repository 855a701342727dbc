package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fula-deployer/internal/api"
	"fula-deployer/internal/config"
	"fula-deployer/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to serve the deployment registry")
	}

	// 2. Configure logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// 3. Initialize database connection
	ctx := context.Background()
	repository, err := storage.NewPostgresRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repository.Close()
	if err := repository.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare journal schema: %v", err)
	}
	slog.Info("Database connected successfully")

	// 4. Start HTTP server
	server := api.NewServer(cfg.RegistryPort, repository, cfg.Token.Decimals)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start registry server: %v", err)
	}

	// 5. Wait for interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	slog.Warn("Interrupt received, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping registry server", "error", err)
	}

	slog.Info("Registry stopped")
}
