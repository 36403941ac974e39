package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Fatalf("got %q, %v", result, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		retried = append(retried, attempt)
	}

	result, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Fatalf("got %d, %v", result, err)
	}
	if len(retried) != 2 {
		t.Errorf("expected 2 retries, got %v", retried)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetry(4), func() error {
		calls++
		return errors.New("still failing")
	})
	if err == nil || err.Error() != "still failing" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRetry_RetryIfStopsEarly(t *testing.T) {
	permanent := errors.New("bad request")
	cfg := fastRetry(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := RetryFunc(context.Background(), cfg, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("expected single call with permanent error, got %d calls, %v", calls, err)
	}
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryFunc(ctx, fastRetry(3), func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("expected cancellation before first call, got %d calls, %v", calls, err)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(context.Canceled) || DefaultRetryIf(context.DeadlineExceeded) {
		t.Error("context errors must not be retried")
	}
	if !DefaultRetryIf(errors.New("x")) {
		t.Error("plain errors should be retried")
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffFactor: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{10, 3 * time.Second},
	}
	for _, tc := range tests {
		if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
