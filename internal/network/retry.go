package network

import (
	"context"
	"errors"
	"time"
)

// DefaultAttempts and DefaultDelay are the retry policy every external
// call uses unless it has a reason not to.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// ErrNotFound marks a definitive miss (200 with an empty result set).
// Retry does not re-attempt after it: the answer will not change.
var ErrNotFound = errors.New("not found")

// Retry runs fn up to attempts times, sleeping delay between attempts.
// It stops early on success, on ErrNotFound, or when ctx is done.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
		}

		err = fn(ctx)
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return err
}

// sleep waits for d, returning false if ctx is canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
