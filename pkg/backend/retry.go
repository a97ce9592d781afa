package backend

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// WithRetry runs fn with retry on transient network failures,
// waiting 1s, 3s, and 5s between attempts. It is used for startup
// stream setup only; shipping ticks never retry within a tick.
func WithRetry(ctx context.Context, fn func() error) error {
	delays := []time.Duration{0, 1 * time.Second, 3 * time.Second, 5 * time.Second}
	var err error
	for _, delay := range delays {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = fn()
		if err == nil || !isRetriable(err) {
			return err
		}
	}
	return err
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMismatch) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return os.IsTimeout(err)
}
