package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoffStrategy_ImmediateResult(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(10*time.Millisecond, 100*time.Millisecond)

	attempts := 0
	err := strategy.Execute(context.Background(), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestExponentialBackoffStrategy_ResolvesAfterPending(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(5*time.Millisecond, 20*time.Millisecond)

	attempts := 0
	err := strategy.Execute(context.Background(), func() error {
		attempts++
		if attempts < 4 {
			return ErrPending
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error after polling, got: %v", err)
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
}

func TestExponentialBackoffStrategy_WrappedPendingKeepsPolling(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(time.Millisecond, time.Millisecond)

	attempts := 0
	err := strategy.Execute(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return errors.Join(errors.New("status NOT_FOUND"), ErrPending)
		}
		return nil
	})

	if err != nil || attempts != 2 {
		t.Errorf("Expected success on attempt 2, got err=%v attempts=%d", err, attempts)
	}
}

func TestExponentialBackoffStrategy_OtherErrorStopsImmediately(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(10*time.Millisecond, 100*time.Millisecond)
	failure := errors.New("transaction failed")

	attempts := 0
	err := strategy.Execute(context.Background(), func() error {
		attempts++
		return failure
	})

	if !errors.Is(err, failure) {
		t.Errorf("Expected the operation error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected only 1 attempt, got: %d", attempts)
	}
}

func TestExponentialBackoffStrategy_DeadlineStopsPolling(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(10*time.Millisecond, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := strategy.Execute(ctx, func() error {
		attempts++
		return ErrPending
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got: %v", err)
	}
	if attempts < 1 {
		t.Errorf("Expected at least 1 attempt, got: %d", attempts)
	}
}

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{"disabled", Config{Enabled: false, InitialInterval: time.Second}, "Fixed"},
		{"zero interval", Config{Enabled: true}, "Fixed"},
		{"enabled", Config{Enabled: true, InitialInterval: time.Second, MaxInterval: 5 * time.Second}, "ExponentialBackoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewStrategy(tt.config).Name(); got != tt.expected {
				t.Errorf("NewStrategy(%+v) = %s, expected %s", tt.config, got, tt.expected)
			}
		})
	}
}

func TestFixedStrategy_ReturnsPending(t *testing.T) {
	err := NewFixedStrategy().Execute(context.Background(), func() error {
		return ErrPending
	})
	if !errors.Is(err, ErrPending) {
		t.Errorf("Expected ErrPending, got: %v", err)
	}
}
