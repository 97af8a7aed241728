package retry

import (
	"context"
	"errors"
	"time"
)

// Policy defines bounded retry behavior for an operation
type Policy struct {
	MaxAttempts int           // Total attempts including the first (minimum 1)
	Delay       time.Duration // Fixed delay between attempts (0 = retry immediately)
}

// ReconnectPolicy returns the policy for remote command execution:
// one attempt plus exactly one retry on a fresh connection, no backoff.
func ReconnectPolicy() Policy {
	return Policy{
		MaxAttempts: 2,
		Delay:       0,
	}
}

// ConflictPolicy returns the policy for conditional-update conflicts:
// the initial attempt plus two retries, each preceded by a refetch.
func ConflictPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       0,
	}
}

// ShouldRetry reports whether another attempt is allowed after the given
// number of completed attempts.
func (p Policy) ShouldRetry(attempts int) bool {
	return attempts < p.MaxAttempts
}

// Validate checks if the policy configuration is valid
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("MaxAttempts must be at least 1")
	}
	if p.Delay < 0 {
		return errors.New("Delay must be non-negative")
	}
	return nil
}

// Run executes fn up to MaxAttempts times. A nil error stops immediately.
// A non-nil error is retried only while retryable returns true for it;
// otherwise it is returned as-is. The error from the final attempt is
// returned when attempts are exhausted.
func (p Policy) Run(ctx context.Context, fn func(attempt int) error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if !p.ShouldRetry(attempt) {
			return lastErr
		}
		if p.Delay > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			}
		} else if err := ctx.Err(); err != nil {
			return errors.Join(lastErr, err)
		}
	}
}
