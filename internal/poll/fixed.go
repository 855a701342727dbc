package poll

import (
	"context"
)

// FixedStrategy executes the operation once. A pending result is returned
// to the caller as ErrPending.
type FixedStrategy struct{}

// NewFixedStrategy creates a new FixedStrategy
func NewFixedStrategy() *FixedStrategy {
	return &FixedStrategy{}
}

// Execute runs the operation once without polling
func (s *FixedStrategy) Execute(ctx context.Context, operation Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return operation()
}

// Name returns the strategy name
func (s *FixedStrategy) Name() string {
	return "Fixed"
}
