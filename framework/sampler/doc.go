// Package sampler provides the polling primitive underlying every wait
// operation in the harness: a lazy sequence of probe observations taken at a
// fixed interval under a time budget.
//
// # Basic Usage
//
// Build a sampler and consume its observations until one satisfies you:
//
//	s := sampler.New(3*time.Second, 180*time.Second, func(ctx context.Context) ([]string, error) {
//	    return listWorkerNodes(ctx)
//	})
//	for nodes, err := range s.Results(ctx) {
//	    if err != nil {
//	        return err // timeout or fatal probe error
//	    }
//	    if len(nodes) > 0 {
//	        break
//	    }
//	}
//
// # WaitFor
//
// Most callers only need the first observation matching a predicate:
//
//	nodes, err := s.WaitFor(ctx, func(nodes []string) bool {
//	    return len(nodes) > 0
//	})
//
// # Timeouts
//
// When the budget elapses before the consumer stops the sequence, the final
// element carries a *TimeoutError with the number of probe attempts and the
// most recent observation. A Timeout of sampler.Forever removes the budget.
//
// # Probe Errors
//
// Probe errors end the sequence immediately. To tolerate transient failures
// (an API server briefly unreachable, for example), set RetryIf:
//
//	s.RetryIf = apierrors.IsServerTimeout
//
// Separating how to poll from what counts as done lets node-status waits,
// workload-phase waits and health checks share one mechanism with different
// success predicates.
package sampler
