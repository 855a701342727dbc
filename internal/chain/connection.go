package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// BackendHandler defines the lifecycle of a process-wide backend
type BackendHandler[T any] interface {
	Start(ctx context.Context) error // Acquire the backend
	Close() error                    // Release the backend
	HandleBackend() (T, error)       // Retrieve the backend instance
	IsAvailable() bool               // Check if the backend is ready
}

// Dialer opens a chain client.
type Dialer func(ctx context.Context) (Client, error)

// Connection owns the chain client for one run. Close releases the client
// exactly once no matter how many times it is called.
type Connection struct {
	dial Dialer

	mu          sync.Mutex
	client      Client
	dialErr     error
	isAvailable bool
	closeOnce   sync.Once
	closeErr    error
}

var _ BackendHandler[Client] = (*Connection)(nil)

// NewConnection creates a Connection that dials lazily on Start.
func NewConnection(dial Dialer) *Connection {
	return &Connection{dial: dial}
}

// Start dials the chain. Calling Start on an open connection is a no-op.
func (c *Connection) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}
	client, err := c.dial(ctx)
	if err != nil {
		c.dialErr = err
		c.isAvailable = false
		return err
	}
	c.client = client
	c.isAvailable = true
	return nil
}

// Close releases the client
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.isAvailable = false
		if c.client != nil {
			c.closeErr = c.client.Close()
			slog.Debug("Chain connection closed", "error", c.closeErr)
		}
	})
	return c.closeErr
}

// IsAvailable returns whether the client is ready for use
func (c *Connection) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isAvailable
}

// HandleBackend returns the underlying client
func (c *Connection) HandleBackend() (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dialErr != nil {
		return nil, c.dialErr
	}
	if !c.isAvailable {
		return nil, errors.New("chain connection is not available")
	}
	return c.client, nil
}

// WithConnection dials once, runs fn with the client and closes the
// connection on every exit path, including a panic in fn.
func WithConnection(ctx context.Context, dial Dialer, fn func(Client) error) (err error) {
	conn := NewConnection(dial)
	if err := conn.Start(ctx); err != nil {
		return fmt.Errorf("connect to chain: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Warn("Failed to close chain connection", "error", closeErr)
			if err == nil {
				err = fmt.Errorf("close chain connection: %w", closeErr)
			}
		}
	}()

	client, err := conn.HandleBackend()
	if err != nil {
		return err
	}
	return fn(client)
}
