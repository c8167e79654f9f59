// Package retry represents retry behavior as an explicit policy value:
// bounded attempts, a base delay, a backoff factor and a predicate over
// errors, passed to the call site instead of wrapping functions implicitly.
//
// # Basic Usage
//
// Retry a function until it succeeds or attempts are exhausted:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return someOperation()
//	}, retry.WithMaxAttempts(5))
//
// # Policies
//
// A Policy can be built once and reused across call sites:
//
//	healthPolicy := &retry.Policy{
//	    MaxAttempts: 20,
//	    Delay:       30 * time.Second,
//	    Backoff:     1.0, // fixed pause between attempts
//	    RetryIf:     ceph.IsHealthError,
//	}
//	err := healthPolicy.Do(ctx, checkClusterHealth)
//
// A Backoff of 1.0 keeps the pause fixed; larger factors grow it
// geometrically, capped at MaxDelay.
//
// # Retry Predicates
//
// Only named error classes are worth retrying; anything else fails fast:
//
//	err := retry.Do(ctx, fn,
//	    retry.WithRetryIf(apierrors.IsServerTimeout),
//	)
//
// # Permanent Errors
//
// Mark errors as permanent to stop retrying immediately regardless of the
// predicate:
//
//	func operation() error {
//	    if badRequest {
//	        return retry.Permanent(err)
//	    }
//	    return err
//	}
//
// # Returning Values
//
// Use DoWithData to retry and return a value:
//
//	status, err := retry.DoWithData(ctx, func(ctx context.Context) (string, error) {
//	    return fetchStatus(ctx)
//	})
package retry
