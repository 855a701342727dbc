package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/integration/sorobanrpc"
	"fula-deployer/internal/verify"

	"github.com/joho/godotenv"
)

func main() {
	parallel := flag.Int("parallel", 2, "scenarios run at the same time, each on its own deployment")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification aborted: %v\n", err)
		os.Exit(10)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runSuite(ctx, cfg, *parallel, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		os.Exit(1)
	}
}

// runSuite runs the standard cases against the active network over one
// connection and prints a line per case.
func runSuite(ctx context.Context, cfg *config.Config, parallel int, out io.Writer) error {
	network, err := cfg.ActiveNetwork()
	if err != nil {
		return err
	}
	builder := &sorobanrpc.Builder{ClientConfig: sorobanrpc.ConfigFromNetwork(network)}

	return chain.WithConnection(ctx, builder.Dialer(), func(client chain.Client) error {
		reports, err := verify.NewSuite(verify.NewHarness(cfg, client), parallel).Run(ctx, verify.StandardCases())
		printReports(out, reports)
		return err
	})
}

func printReports(out io.Writer, reports []verify.Report) {
	failed := 0
	for _, r := range reports {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s  %s (%s)\n", status, r.Name, r.Duration.Round(1e6))
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "      warning: %s\n", w)
		}
		var assertErr *verify.AssertionError
		if errors.As(r.Err, &assertErr) {
			fmt.Fprintf(out, "      %s\n", assertErr.Error())
		} else if r.Err != nil {
			fmt.Fprintf(out, "      error: %v\n", r.Err)
		}
	}
	fmt.Fprintf(out, "%d passed, %d failed\n", len(reports)-failed, failed)
}
