package sorobanrpc

import (
	"time"

	"fula-deployer/internal/config"
)

// ClientTimeoutConfig bounds RPC requests and the wait for inclusion
type ClientTimeoutConfig struct {
	RequestTimeout   time.Duration
	InclusionTimeout time.Duration
	PollInterval     time.Duration
	PollMaxInterval  time.Duration
}

// ClientConfig describes how to reach a Soroban RPC endpoint
type ClientConfig struct {
	Endpoint          string
	NetworkPassphrase string

	// Maximum resource fee in stroops a single transaction may pay
	GasLimit int64

	// Requests per second, 0 disables limiting
	RateLimit float64

	TimeoutConfig ClientTimeoutConfig
}

// ConfigFromNetwork maps a network profile onto a ClientConfig.
func ConfigFromNetwork(n config.Network) ClientConfig {
	return ClientConfig{
		Endpoint:          n.Endpoint,
		NetworkPassphrase: n.Passphrase,
		GasLimit:          n.GasLimit,
		RateLimit:         n.RateLimit,
		TimeoutConfig: ClientTimeoutConfig{
			RequestTimeout:   30 * time.Second,
			InclusionTimeout: n.InclusionTimeout,
			PollInterval:     n.PollInterval,
			PollMaxInterval:  n.PollMaxInterval,
		},
	}
}

// RPC statuses reported by sendTransaction and getTransaction
const (
	sendStatusPending       = "PENDING"
	sendStatusDuplicate     = "DUPLICATE"
	sendStatusTryAgainLater = "TRY_AGAIN_LATER"
	sendStatusError         = "ERROR"

	txStatusSuccess  = "SUCCESS"
	txStatusNotFound = "NOT_FOUND"
	txStatusFailed   = "FAILED"
)
