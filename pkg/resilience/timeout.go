// Package resilience bounds slow operations so one expensive query cannot
// hold a request past its budget.
package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

// Do runs fn with a context cancelled after timeout. A late result is
// replaced by an error wrapping both ErrTimeout and
// context.DeadlineExceeded. A timeout of zero or less runs fn directly.
func Do[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(timeoutCtx)
		done <- result{value: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && timeoutCtx.Err() != nil {
			return zero, expired(ctx, name, timeout)
		}
		return r.value, r.err
	case <-timeoutCtx.Done():
		return zero, expired(ctx, name, timeout)
	}
}

func expired(parent context.Context, name string, timeout time.Duration) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s: parent context cancelled: %w", name, parent.Err())
	}
	return fmt.Errorf("%s: %w (limit: %v): %w", name, apperrors.ErrTimeout, timeout, context.DeadlineExceeded)
}
