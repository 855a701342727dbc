package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/integration/sorobanrpc"
	"fula-deployer/internal/metrics"
	"fula-deployer/internal/orchestrator"
	"fula-deployer/internal/storage"

	"github.com/joho/godotenv"
)

// Process exit codes
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 10
	exitTransaction   = 20
)

func main() {
	os.Exit(run(os.Stdout, os.Stderr))
}

func run(stdout, stderr io.Writer) int {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		return fail(stderr, err)
	}

	// 2. Configure logger
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	network, err := cfg.ActiveNetwork()
	if err != nil {
		return fail(stderr, err)
	}
	slog.Info("Configuration loaded",
		"network", network.Name,
		"endpoint", network.Endpoint,
		"gas_limit", network.GasLimit,
		"log_level", cfg.LogLevel,
	)

	// 3. Setup cancellation on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Build the orchestrator over the Soroban RPC adapter
	builder := &sorobanrpc.Builder{ClientConfig: sorobanrpc.ConfigFromNetwork(network)}
	orch := orchestrator.New(cfg, builder.Dialer())
	orch.SetOutput(stdout)

	// 5. Optional journal
	if repository := openJournal(ctx, cfg); repository != nil {
		defer repository.Close()
		orch.SetJournal(repository)
	}

	// 6. Deploy
	_, err = orch.Run(ctx)
	writeMetrics(cfg)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintln(stdout, "Deployed successfully.")
	return exitOK
}

// openJournal connects to the journal database when one is configured.
// A journal that cannot be reached is skipped.
func openJournal(ctx context.Context, cfg *config.Config) *storage.PostgresRepository {
	if cfg.DatabaseURL == "" {
		return nil
	}
	repository, err := storage.NewPostgresRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("Journal unavailable, continuing without it", "error", err)
		return nil
	}
	if err := repository.EnsureSchema(ctx); err != nil {
		slog.Warn("Journal schema unavailable, continuing without it", "error", err)
		repository.Close()
		return nil
	}
	slog.Info("Journal connected")
	return repository
}

func writeMetrics(cfg *config.Config) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
	}
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Unexpected error during deployment: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var cfgErr *config.ConfigurationError
	var txErr *chain.TransactionError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cfgErr):
		return exitConfiguration
	case errors.As(err, &txErr):
		return exitTransaction
	default:
		return exitFailure
	}
}
