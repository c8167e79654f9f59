// Package concurrent provides the bounded worker pool used to parallelize
// independent waits (bulk PVC creation, multi-node readiness) and join their
// results. Parallelism here reduces wall-clock time only; correctness never
// depends on it.
//
// # ForEach
//
// Execute a function for each item in parallel:
//
//	err := concurrent.ForEach(handles, func(h resource.Handle) error {
//	    return checkHandle(h)
//	})
//
// # ForEachWithLimit
//
// Bound the number of in-flight operations (DefaultLimit is 5):
//
//	err := concurrent.ForEachWithLimit(ctx, pvcs, concurrent.DefaultLimit,
//	    func(ctx context.Context, pvc string) error {
//	        return waitForBound(ctx, pvc)
//	    })
//
// # MapWithLimit
//
// Transform items under the same bound, preserving input order:
//
//	logs, err := concurrent.MapWithLimit(ctx, pods, 5,
//	    func(ctx context.Context, pod string) (string, error) {
//	        return fetchLogs(ctx, pod)
//	    })
//
// # Collector
//
// Collect results from heterogeneous concurrent operations:
//
//	c := concurrent.NewCollector[Result]()
//	c.Go(func() (Result, error) { return scaleUp() })
//	c.Go(func() (Result, error) { return runWorkload() })
//	results, err := c.Wait()
//
// # Error Handling
//
// All functions wait for every goroutine and aggregate failures with
// errors.Join, so callers see all failures rather than just the first.
package concurrent
