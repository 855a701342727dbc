package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ExponentialBackoffStrategy polls with a doubling interval capped at maxInterval.
// The number of attempts is bounded only by the context deadline.
type ExponentialBackoffStrategy struct {
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewExponentialBackoffStrategy creates a new ExponentialBackoffStrategy
func NewExponentialBackoffStrategy(initialInterval, maxInterval time.Duration) *ExponentialBackoffStrategy {
	if maxInterval < initialInterval {
		maxInterval = initialInterval
	}
	return &ExponentialBackoffStrategy{
		initialInterval: initialInterval,
		maxInterval:     maxInterval,
	}
}

// Execute runs the operation until it returns something other than ErrPending
func (s *ExponentialBackoffStrategy) Execute(ctx context.Context, operation Operation) error {
	delay := s.initialInterval

	for attempt := 1; ; attempt++ {
		err := operation()
		if !errors.Is(err, ErrPending) {
			if err == nil && attempt > 1 {
				slog.Debug("Poll resolved", "attempts", attempt)
			}
			return err
		}

		slog.Debug("Result pending, polling again",
			"attempt", attempt,
			"poll_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("polling stopped after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
			delay *= 2
			if delay > s.maxInterval {
				delay = s.maxInterval
			}
		}
	}
}

// Name returns the strategy name
func (s *ExponentialBackoffStrategy) Name() string {
	return "ExponentialBackoff"
}
