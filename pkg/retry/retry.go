// Package retry provides bounded retry with pluggable delay policies.
//
// A Policy only decides whether and when to retry; Do owns the loop, the
// attempt budget, and context cancellation.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxAttempts is the total attempt budget, including the first attempt.
const DefaultMaxAttempts = 3

// Decision is the outcome of consulting a Policy after a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Policy decides what happens after a failed attempt. attempt is the 1-based
// number of the attempt that just failed.
type Policy interface {
	Next(attempt, maxAttempts int, err error) Decision
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(attempt, maxAttempts int, err error) Decision

func (f PolicyFunc) Next(attempt, maxAttempts int, err error) Decision {
	return f(attempt, maxAttempts, err)
}

// Immediate retries with no delay until the attempt budget is spent.
func Immediate() Policy {
	return PolicyFunc(func(attempt, maxAttempts int, _ error) Decision {
		return Decision{Retry: attempt < maxAttempts}
	})
}

// BackoffConfig configures exponential delays between attempts.
type BackoffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultBackoffConfig returns the delays used when none are configured.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
	}
}

// Backoff is a Policy with exponentially growing delays. It holds no
// per-loop state and is safe to share between goroutines.
type Backoff struct {
	c BackoffConfig
}

// NewBackoff creates an exponential backoff policy. Zero fields fall back to
// DefaultBackoffConfig.
func NewBackoff(c BackoffConfig) *Backoff {
	d := DefaultBackoffConfig()
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	if c.RandomizationFactor < 0 {
		c.RandomizationFactor = 0
	}

	return &Backoff{c: c}
}

// Next returns the delay before attempt+1 while attempts remain.
func (p *Backoff) Next(attempt, maxAttempts int, _ error) Decision {
	if attempt >= maxAttempts {
		return Decision{}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.c.InitialInterval
	b.MaxInterval = p.c.MaxInterval
	b.Multiplier = p.c.Multiplier
	b.RandomizationFactor = p.c.RandomizationFactor
	// The attempt budget bounds the loop, not elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()

	var delay time.Duration
	for i := 0; i < max(attempt, 1); i++ {
		delay = b.NextBackOff()
	}
	if delay == backoff.Stop {
		return Decision{}
	}

	return Decision{Retry: true, Delay: delay}
}

// Do runs fn until it succeeds, the policy gives up, the attempt budget is
// spent, or ctx is done. It returns the number of attempts made and the last
// error.
func Do(ctx context.Context, p Policy, maxAttempts int, fn func(ctx context.Context, attempt int) error) (int, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if p == nil {
		p = Immediate()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, joinCtx(err, lastErr)
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return attempt, perm.Err
		}

		d := p.Next(attempt, maxAttempts, lastErr)
		if !d.Retry {
			return attempt, lastErr
		}

		if d.Delay > 0 {
			t := time.NewTimer(d.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return attempt, joinCtx(ctx.Err(), lastErr)
			case <-t.C:
			}
		}
	}

	return maxAttempts, lastErr
}

// PermanentError stops Do without consulting the policy.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func joinCtx(ctxErr, last error) error {
	if last == nil {
		return ctxErr
	}
	return fmt.Errorf("%w (last attempt: %w)", ctxErr, last)
}
