// Package retry implements the verify-after-mutate backoff loop.
//
// The Immich server is eventually consistent: an asset added to an album may not
// appear in the album's membership on the very next read. Confirming a mutation is
// therefore retried a few times with exponential backoff; exhausting the retries is
// expected behavior worth a warning, never a pipeline failure.
package retry

import (
	"context"
	"time"
)

const (
	// DefaultAttempts is how many verification reads are made before giving up.
	DefaultAttempts = 4
	// DefaultBase is the initial backoff delay, doubled after each attempt.
	DefaultBase = 100 * time.Millisecond
)

// Verify calls check until it reports success, retrying up to attempts times with
// exponential backoff starting at base. It returns true on success and false when
// retries were exhausted; an error from check aborts immediately.
func Verify(ctx context.Context, attempts int, base time.Duration, check func(ctx context.Context) (bool, error)) (bool, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if base <= 0 {
		base = DefaultBase
	}

	delay := base
	for i := 0; i < attempts; i++ {
		ok, err := check(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return false, nil
}
