package sorobanrpc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"fula-deployer/internal/chain"

	rpcclient "github.com/stellar/go/clients/rpcclient"
)

// Builder creates a Client from ClientConfig
type Builder struct {
	ClientConfig ClientConfig
}

// Build validates the configuration and creates the client. No request is
// made against the endpoint.
func (b *Builder) Build() (*Client, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: b.ClientConfig.TimeoutConfig.RequestTimeout}
	rpc := rpcclient.NewClient(b.ClientConfig.Endpoint, httpClient)

	return newClient(b.ClientConfig, rpc), nil
}

// Dialer adapts Build to chain.Dialer. The endpoint must report healthy
// before the client is handed out.
func (b *Builder) Dialer() chain.Dialer {
	return func(ctx context.Context) (chain.Client, error) {
		client, err := b.Build()
		if err != nil {
			return nil, err
		}
		latest, err := client.Health(ctx)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("rpc health check: %w", err)
		}
		slog.Info("Connected to Soroban RPC", "endpoint", b.ClientConfig.Endpoint, "latest_ledger", latest)
		return client, nil
	}
}

func (b *Builder) validate() error {
	if b.ClientConfig.Endpoint == "" {
		return fmt.Errorf("ClientConfig.Endpoint value is empty, please provide a valid endpoint")
	}
	if b.ClientConfig.NetworkPassphrase == "" {
		return fmt.Errorf("ClientConfig.NetworkPassphrase value is empty")
	}
	if b.ClientConfig.GasLimit <= 0 {
		return fmt.Errorf("ClientConfig.GasLimit must be positive")
	}
	return nil
}
