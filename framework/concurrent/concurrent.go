package concurrent

import (
	"context"
	"errors"
	"sync"
)

// DefaultLimit is the bulk-wait parallelism used when callers do not tune it.
// Parallel waits exist to cut wall-clock time only; each individual wait is
// still a sequential poll loop.
const DefaultLimit = 5

// ForEach executes fn for each item concurrently without a limit.
// All goroutines are waited for even if some fail; errors are joined.
func ForEach[T any](items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(items))

	for _, item := range items {
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			if err := fn(item); err != nil {
				errCh <- err
			}
		}(item)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ForEachWithLimit executes fn for each item with at most limit goroutines
// in flight. Remaining work is abandoned once the context is cancelled.
func ForEachWithLimit[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	errCh := make(chan error, len(items))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, item := range items {
		select {
		case <-ctx.Done():
			break
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			if err := fn(ctx, item); err != nil {
				errCh <- err
			}
		}(item)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// MapWithLimit applies fn to each item with at most limit goroutines in
// flight. The order of results matches the order of items.
func MapWithLimit[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i, item := range items {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			default:
			}

			results[i], errs[i] = fn(ctx, item)
		}(i, item)
	}

	wg.Wait()

	var allErrs []error
	for _, err := range errs {
		if err != nil {
			allErrs = append(allErrs, err)
		}
	}

	if len(allErrs) > 0 {
		return results, errors.Join(allErrs...)
	}
	return results, nil
}

// Collector gathers results from ad-hoc concurrent operations.
type Collector[T any] struct {
	mu      sync.Mutex
	results []T
	errs    []error
	wg      sync.WaitGroup
}

// NewCollector creates a new Collector
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

// Go runs fn in a goroutine and collects its result
func (c *Collector[T]) Go(fn func() (T, error)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := fn()
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.errs = append(c.errs, err)
		} else {
			c.results = append(c.results, result)
		}
	}()
}

// Wait waits for all operations to complete and returns results and errors
func (c *Collector[T]) Wait() ([]T, error) {
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errs) > 0 {
		return c.results, errors.Join(c.errs...)
	}
	return c.results, nil
}
