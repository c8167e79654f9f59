package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestForEach_AllSucceed(t *testing.T) {
	var count atomic.Int32
	err := ForEach([]int{1, 2, 3, 4}, func(n int) error {
		count.Add(1)
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if count.Load() != 4 {
		t.Errorf("expected 4 executions, got %d", count.Load())
	}
}

func TestForEach_CollectsAllErrors(t *testing.T) {
	err1 := errors.New("failure one")
	err2 := errors.New("failure two")

	err := ForEach([]int{1, 2, 3}, func(n int) error {
		switch n {
		case 1:
			return err1
		case 2:
			return err2
		}
		return nil
	})

	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Errorf("expected joined error containing both failures, got %v", err)
	}
}

func TestForEach_Empty(t *testing.T) {
	if err := ForEach(nil, func(int) error { return errors.New("never") }); err != nil {
		t.Errorf("expected nil for empty input, got %v", err)
	}
}

func TestForEachWithLimit_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	items := make([]int, 20)
	err := ForEachWithLimit(context.Background(), items, 3, func(ctx context.Context, n int) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("expected at most 3 in flight, observed %d", peak.Load())
	}
}

func TestMapWithLimit_PreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1}
	results, err := MapWithLimit(context.Background(), items, 2, func(ctx context.Context, n int) (int, error) {
		return n * 10, nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := []int{50, 30, 80, 10}
	for i := range expected {
		if results[i] != expected[i] {
			t.Errorf("results[%d]: expected %d, got %d", i, expected[i], results[i])
		}
	}
}

func TestMapWithLimit_PartialFailure(t *testing.T) {
	boom := errors.New("boom")
	results, err := MapWithLimit(context.Background(), []int{1, 2, 3}, 2, func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// Successful results are still available
	if results[0] != 1 || results[2] != 3 {
		t.Errorf("expected successful results preserved, got %v", results)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector[int]()
	c.Go(func() (int, error) { return 1, nil })
	c.Go(func() (int, error) { return 2, nil })
	c.Go(func() (int, error) { return 0, errors.New("bad") })

	results, err := c.Wait()
	if err == nil {
		t.Error("expected an error from the failed operation")
	}
	if len(results) != 2 {
		t.Errorf("expected 2 successful results, got %d", len(results))
	}
}
