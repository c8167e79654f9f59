package sampler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor_ImmediateSuccess(t *testing.T) {
	calls := 0
	s := New(time.Millisecond, time.Second, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	v, err := s.WaitFor(context.Background(), func(v int) bool { return v == 42 })
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 probe call, got %d", calls)
	}
}

func TestWaitFor_SucceedsAfterPolling(t *testing.T) {
	calls := 0
	s := New(time.Millisecond, time.Second, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	v, err := s.WaitFor(context.Background(), func(v int) bool { return v >= 3 })
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestWaitFor_TimeoutShorterThanInterval(t *testing.T) {
	// With timeout < interval exactly one probe happens before failure.
	calls := 0
	s := New(time.Hour, 10*time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		return "pending", nil
	})

	_, err := s.WaitFor(context.Background(), func(string) bool { return false })

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 probe call, got %d", calls)
	}
	if te.Iterations != 1 {
		t.Errorf("expected Iterations=1, got %d", te.Iterations)
	}
	if te.Last != "pending" {
		t.Errorf("expected last observation 'pending', got %v", te.Last)
	}
}

func TestWaitFor_TimeoutCarriesLastObservation(t *testing.T) {
	calls := 0
	s := New(time.Millisecond, 20*time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	_, err := s.WaitFor(context.Background(), func(int) bool { return false })

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if te.Iterations < 2 {
		t.Errorf("expected multiple iterations, got %d", te.Iterations)
	}
	if te.Last != calls {
		t.Errorf("expected last observation %d, got %v", calls, te.Last)
	}
}

func TestWaitFor_FatalProbeError(t *testing.T) {
	probeErr := errors.New("api unreachable")
	calls := 0
	s := New(time.Millisecond, time.Second, func(ctx context.Context) (int, error) {
		calls++
		return 0, probeErr
	})

	_, err := s.WaitFor(context.Background(), func(int) bool { return true })
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 probe call (errors fatal by default), got %d", calls)
	}
}

func TestWaitFor_RetryableProbeError(t *testing.T) {
	transient := errors.New("transient")
	calls := 0
	s := New(time.Millisecond, time.Second, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, transient
		}
		return 7, nil
	})
	s.RetryIf = func(err error) bool { return errors.Is(err, transient) }

	v, err := s.WaitFor(context.Background(), func(v int) bool { return v == 7 })
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	if calls != 3 {
		t.Errorf("expected 3 probe calls, got %d", calls)
	}
}

func TestWaitFor_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(time.Millisecond, Forever, func(ctx context.Context) (int, error) {
		return 0, nil
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.WaitFor(ctx, func(int) bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResults_RestartableSequence(t *testing.T) {
	// Each call to Results produces a fresh sequence with a fresh budget.
	calls := 0
	s := New(time.Millisecond, time.Second, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	for range 2 {
		n := 0
		for _, err := range s.Results(context.Background()) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n++
			if n == 2 {
				break
			}
		}
		if n != 2 {
			t.Fatalf("expected 2 observations, got %d", n)
		}
	}
	if calls != 4 {
		t.Errorf("expected 4 total probe calls, got %d", calls)
	}
}

func TestResults_InvalidInterval(t *testing.T) {
	s := New(0, time.Second, func(ctx context.Context) (int, error) { return 0, nil })

	for _, err := range s.Results(context.Background()) {
		if !errors.Is(err, ErrNonPositiveInterval) {
			t.Fatalf("expected ErrNonPositiveInterval, got %v", err)
		}
		return
	}
	t.Fatal("expected the sequence to yield an error")
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(errors.New("other")) {
		t.Error("arbitrary error should not be a timeout")
	}
	if !IsTimeout(&TimeoutError{Iterations: 1, Budget: time.Second}) {
		t.Error("TimeoutError should be a timeout")
	}
}
