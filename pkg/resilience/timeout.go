package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

// WithTimeout runs fn under a deadline and returns as soon as the deadline
// passes, even if fn has not yet returned. The error then matches both
// context.DeadlineExceeded and apperrors.ErrTimeout. A timeout <= 0 runs fn
// unbounded.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s exceeded %v: %w: %w", name, timeout, apperrors.ErrTimeout, context.DeadlineExceeded)
		}
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
}
