package sampler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
)

// Forever disables the sampling deadline. A sampler with Timeout set to
// Forever polls until the caller stops consuming results or the context is
// cancelled.
const Forever time.Duration = 0

// ErrNonPositiveInterval indicates an invalid sampling interval
var ErrNonPositiveInterval = errors.New("sampling interval must be positive")

// TimeoutError indicates that a sampling loop exhausted its time budget
// without the caller terminating the sequence. It carries the number of
// probe invocations attempted and the most recent raw observation.
type TimeoutError struct {
	Iterations int
	Last       any
	Budget     time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("timed out after %v (%d probe attempts, no observation)", e.Budget, e.Iterations)
	}
	return fmt.Sprintf("timed out after %v (%d probe attempts, last observation: %v)", e.Budget, e.Iterations, e.Last)
}

// IsTimeout reports whether the error is a sampling timeout
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Sampler repeatedly invokes a probe at a fixed interval, producing a lazy
// sequence of observations. The sampler does not interpret observations as
// success or failure; that policy belongs to the consumer, which breaks out
// of the sequence once it has what it needs. Unexpected probe errors
// terminate the sequence unless RetryIf classifies them as retryable.
type Sampler[T any] struct {
	// Interval is the pause between probe invocations. Must be positive.
	Interval time.Duration

	// Timeout bounds the whole sampling loop. Forever (zero) means no bound;
	// the context is then the only way to stop an unsatisfied wait.
	Timeout time.Duration

	// Probe is invoked once per cycle, starting immediately.
	Probe func(ctx context.Context) (T, error)

	// RetryIf classifies probe errors as transient. A nil classifier treats
	// every probe error as fatal, so a persistent misconfiguration is not
	// silently masked as "still polling".
	RetryIf func(error) bool
}

// New returns a Sampler with the given interval, timeout and probe
func New[T any](interval, timeout time.Duration, probe func(ctx context.Context) (T, error)) *Sampler[T] {
	return &Sampler[T]{
		Interval: interval,
		Timeout:  timeout,
		Probe:    probe,
	}
}

// Results returns a fresh lazy sequence of probe observations. Every call
// restarts the sampling loop from scratch, including the time budget. The
// sequence ends with a non-nil error on timeout, context cancellation or a
// fatal probe error; consumers that find what they are looking for simply
// stop iterating.
func (s *Sampler[T]) Results(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if s.Interval <= 0 {
			yield(zero, ErrNonPositiveInterval)
			return
		}

		var deadline time.Time
		bounded := s.Timeout > 0
		if bounded {
			deadline = time.Now().Add(s.Timeout)
		}

		iterations := 0
		var last any

		for {
			v, err := s.Probe(ctx)
			iterations++
			if err != nil {
				if s.RetryIf == nil || !s.RetryIf(err) {
					yield(zero, err)
					return
				}
			} else {
				last = v
				if !yield(v, nil) {
					return
				}
			}

			pause := s.Interval
			if bounded {
				remaining := time.Until(deadline)
				if remaining <= 0 {
					yield(zero, &TimeoutError{Iterations: iterations, Last: last, Budget: s.Timeout})
					return
				}
				if remaining < pause {
					pause = remaining
				}
			}

			select {
			case <-ctx.Done():
				yield(zero, ctx.Err())
				return
			case <-time.After(pause):
			}

			if bounded && !time.Now().Before(deadline) {
				yield(zero, &TimeoutError{Iterations: iterations, Last: last, Budget: s.Timeout})
				return
			}
		}
	}
}

// WaitFor consumes the sampler's sequence until done accepts an observation,
// returning that observation. It fails with a TimeoutError when the budget
// elapses first, or with the probe's own error when the probe fails fatally.
func (s *Sampler[T]) WaitFor(ctx context.Context, done func(T) bool) (T, error) {
	var last T
	var failure error

	for v, err := range s.Results(ctx) {
		if err != nil {
			failure = err
			break
		}
		last = v
		if done(v) {
			return v, nil
		}
	}

	if failure == nil {
		// The sequence can only end without an error if iteration was
		// abandoned externally; report the context state.
		failure = ctx.Err()
	}
	return last, failure
}
