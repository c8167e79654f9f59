package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_Success(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDo_RetryOnError(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.New("transient error")
		}
		return nil
	}, WithMaxAttempts(5), WithDelay(time.Millisecond))

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_MaxAttemptsExceeded(t *testing.T) {
	callCount := 0
	testErr := errors.New("persistent error")
	err := Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return testErr
	}, WithMaxAttempts(3), WithDelay(time.Millisecond))

	if !errors.Is(err, testErr) {
		t.Errorf("expected persistent error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_PermanentError(t *testing.T) {
	callCount := 0
	testErr := errors.New("permanent error")
	err := Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return Permanent(testErr)
	}, WithMaxAttempts(5), WithDelay(time.Millisecond))

	if !errors.Is(err, testErr) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call (no retries for permanent error), got %d", callCount)
	}
}

func TestDo_RetryIfPredicate(t *testing.T) {
	retryable := errors.New("retryable")
	nonRetryable := errors.New("non-retryable")
	isRetryable := func(err error) bool { return errors.Is(err, retryable) }

	callCount := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		callCount++
		if callCount == 1 {
			return retryable
		}
		return nil
	}, WithMaxAttempts(5), WithDelay(time.Millisecond), WithRetryIf(isRetryable))
	if err != nil {
		t.Errorf("expected retryable error to be retried, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}

	callCount = 0
	err = Do(context.Background(), func(ctx context.Context) error {
		callCount++
		return nonRetryable
	}, WithMaxAttempts(5), WithDelay(time.Millisecond), WithRetryIf(isRetryable))
	if !errors.Is(err, nonRetryable) {
		t.Errorf("expected non-retryable error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", callCount)
	}
}

func TestDo_FixedBackoff(t *testing.T) {
	// Backoff of 1.0 keeps the pause fixed between attempts.
	var delays []time.Duration
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	},
		WithMaxAttempts(4),
		WithDelay(2*time.Millisecond),
		WithBackoff(1.0),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		}),
	)

	if len(delays) != 3 {
		t.Fatalf("expected 3 retries, got %d", len(delays))
	}
	for i, d := range delays {
		if d != 2*time.Millisecond {
			t.Errorf("retry %d: expected fixed delay 2ms, got %v", i+1, d)
		}
	}
}

func TestDo_GeometricBackoffCapped(t *testing.T) {
	var delays []time.Duration
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	},
		WithMaxAttempts(5),
		WithDelay(time.Millisecond),
		WithBackoff(2.0),
		WithMaxDelay(3*time.Millisecond),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		}),
	)

	expected := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond, // capped
		3 * time.Millisecond,
	}
	if len(delays) != len(expected) {
		t.Fatalf("expected %d retries, got %d", len(expected), len(delays))
	}
	for i := range expected {
		if delays[i] != expected[i] {
			t.Errorf("retry %d: expected delay %v, got %v", i+1, expected[i], delays[i])
		}
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, func(ctx context.Context) error {
		callCount++
		return errors.New("fail")
	}, WithMaxAttempts(100), WithDelay(2*time.Millisecond))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoWithData(t *testing.T) {
	callCount := 0
	result, err := DoWithData(context.Background(), func(ctx context.Context) (string, error) {
		callCount++
		if callCount < 2 {
			return "", errors.New("not yet")
		}
		return "done", nil
	}, WithMaxAttempts(3), WithDelay(time.Millisecond))

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "done" {
		t.Errorf("expected 'done', got %q", result)
	}
}

func TestIsPermanent(t *testing.T) {
	base := errors.New("base")
	if IsPermanent(base) {
		t.Error("plain error should not be permanent")
	}
	if !IsPermanent(Permanent(base)) {
		t.Error("wrapped error should be permanent")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
