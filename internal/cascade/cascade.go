// Package cascade implements the rich/legacy fallback shared by every
// emojikey operation: try the conversation-scoped path first, fall back
// to the user/model-scoped path at most once, and never duplicate a
// write.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single backend attempt.
const DefaultTimeout = 10 * time.Second

// Fn is one attempt of an operation against a backend path.
type Fn[T any] func(ctx context.Context) (T, error)

func attempt[T any](ctx context.Context, timeout time.Duration, fn Fn[T]) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// Read runs the rich path and, on any error, the legacy path exactly
// once. Reads are side-effect free, so a timed-out rich attempt is safe
// to recover from; only a dead parent context stops the cascade. The
// bool reports whether the legacy path served the request.
func Read[T any](ctx context.Context, timeout time.Duration, rich, legacy Fn[T]) (T, bool, error) {
	out, err := attempt(ctx, timeout, rich)
	if err == nil {
		return out, false, nil
	}

	var zero T
	if ctx.Err() != nil {
		return zero, false, err
	}
	if legacy == nil {
		return zero, false, err
	}

	fallbackOut, fallbackErr := attempt(ctx, timeout, legacy)
	if fallbackErr != nil {
		return zero, true, fmt.Errorf("rich path error: %w; legacy path error: %v", err, fallbackErr)
	}
	return fallbackOut, true, nil
}

// Write runs the rich path and falls back only when the rich write
// definitively failed before being acknowledged. A cancellation or
// deadline leaves the rich write in an unknown state, so it is terminal:
// retrying blind could commit the record twice.
func Write[T any](ctx context.Context, timeout time.Duration, rich, legacy Fn[T]) (T, bool, error) {
	out, err := attempt(ctx, timeout, rich)
	if err == nil {
		return out, false, nil
	}

	var zero T
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return zero, false, err
	}
	if legacy == nil {
		return zero, false, err
	}

	fallbackOut, fallbackErr := attempt(ctx, timeout, legacy)
	if fallbackErr != nil {
		return zero, true, fmt.Errorf("rich path error: %w; legacy path error: %v", err, fallbackErr)
	}
	return fallbackOut, true, nil
}
