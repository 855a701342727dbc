package poll

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrPending is returned by an Operation whose result is not available yet.
// It is the only error that makes a Strategy try again.
var ErrPending = errors.New("result pending")

// Strategy defines how a pending result is awaited
type Strategy interface {
	// Execute runs the operation until it stops returning ErrPending
	Execute(ctx context.Context, operation Operation) error

	// Name returns the name of the strategy for logging
	Name() string
}

// Operation is a function that can be polled
type Operation func() error

// Config holds polling configuration
type Config struct {
	Enabled         bool
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewStrategy creates a polling strategy based on configuration
func NewStrategy(config Config) Strategy {
	if !config.Enabled || config.InitialInterval <= 0 {
		slog.Debug("Polling disabled, using FixedStrategy")
		return NewFixedStrategy()
	}

	slog.Debug("Polling enabled, using ExponentialBackoffStrategy",
		"initial_interval", config.InitialInterval,
		"max_interval", config.MaxInterval,
	)

	return NewExponentialBackoffStrategy(config.InitialInterval, config.MaxInterval)
}
