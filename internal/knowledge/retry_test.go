package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	initial := 500 * time.Millisecond
	max := 3 * time.Second

	if got := CalculateBackoff(0, initial, max); got != 0 {
		t.Errorf("CalculateBackoff(0) = %v, want 0", got)
	}

	// Full Jitter: delay is uniform in [0, min(max, initial*2^(n-1))).
	for attempt := 1; attempt <= 5; attempt++ {
		ceiling := initial * time.Duration(1<<(attempt-1))
		if ceiling > max {
			ceiling = max
		}
		for i := 0; i < 20; i++ {
			got := CalculateBackoff(attempt, initial, max)
			if got < 0 || got >= ceiling {
				t.Errorf("CalculateBackoff(%d) = %v, want in [0, %v)", attempt, got, ceiling)
			}
		}
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled context = %v, want context.Canceled", err)
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v, want nil", err)
	}
}

func TestWithRetrySucceedsAfterFailure(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	wantErr := errors.New("persistent")
	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("WithRetry error = %v, want %v", err, wantErr)
	}
	if calls != cfg.MaxAttempts {
		t.Errorf("fn called %d times, want %d", calls, cfg.MaxAttempts)
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := WithRetry(ctx, cfg, func() error {
		calls++
		// Cancel so the backoff sleep before the next attempt aborts.
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
