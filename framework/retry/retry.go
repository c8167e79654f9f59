package retry

import (
	"context"
	"errors"
	"time"
)

// Default policy values, matching the harness-wide convention for retrying
// transient cluster errors.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 1 * time.Second
	DefaultMaxDelay    = 5 * time.Minute
	DefaultBackoff     = 1.0
)

// Policy is an explicit retry policy value: how many times to attempt an
// operation, how long to pause between attempts, how the pause grows, and
// which errors justify another attempt. Call sites construct a Policy (or
// apply Options) rather than relying on any implicit wrapping.
type Policy struct {
	// MaxAttempts is the maximum number of attempts, including the first
	MaxAttempts int

	// Delay is the pause before the first retry
	Delay time.Duration

	// Backoff multiplies the pause after each attempt. 1.0 keeps the pause
	// fixed; values above 1.0 grow it geometrically up to MaxDelay.
	Backoff float64

	// MaxDelay caps the pause between attempts
	MaxDelay time.Duration

	// RetryIf decides whether an error is worth another attempt. A nil
	// predicate retries every error.
	RetryIf func(error) bool

	// OnRetry is called before each retry with the attempt number that
	// failed, its error and the upcoming pause
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns a Policy with default values
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Backoff:     DefaultBackoff,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Option is a function that modifies a Policy
type Option func(*Policy)

// WithMaxAttempts sets the maximum number of attempts
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		p.MaxAttempts = n
	}
}

// WithDelay sets the pause before the first retry
func WithDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.Delay = d
	}
}

// WithBackoff sets the factor by which the pause grows after each attempt
func WithBackoff(factor float64) Option {
	return func(p *Policy) {
		p.Backoff = factor
	}
}

// WithMaxDelay caps the pause between attempts
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// WithRetryIf sets the retry predicate
func WithRetryIf(fn func(error) bool) Option {
	return func(p *Policy) {
		p.RetryIf = fn
	}
}

// WithOnRetry sets the retry callback
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(p *Policy) {
		p.OnRetry = fn
	}
}

// PermanentError wraps an error that must never be retried, regardless of
// the policy's predicate.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as non-retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether the error is marked as permanent
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Do executes fn under the policy assembled from opts, returning nil on the
// first success or the last error once attempts are exhausted.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	p := DefaultPolicy()
	for _, opt := range opts {
		opt(p)
	}
	return p.Do(ctx, fn)
}

// Do executes fn under the policy
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.Backoff
	if backoff < 1.0 {
		backoff = 1.0
	}

	var lastErr error
	delay := p.Delay

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if IsPermanent(lastErr) {
			var pe *PermanentError
			errors.As(lastErr, &pe)
			return pe.Err
		}

		if p.RetryIf != nil && !p.RetryIf(lastErr) {
			return lastErr
		}

		if attempt >= attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * backoff)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

// DoWithData executes fn under the policy and returns its result
func DoWithData[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	}, opts...)
	return result, err
}
