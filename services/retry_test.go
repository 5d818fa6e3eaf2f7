package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}
}

func TestWithRetry_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_EventualSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_Exhausted(t *testing.T) {
	boom := errors.New("still down")
	calls := 0
	err := WithRetry(context.Background(), fastRetry(2), func() error {
		calls++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("WithRetry() error = %v, want wrapped %v", err, boom)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 attempt + 2 retries)", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxRetries: 5, BaseDelay: time.Minute, MaxDelay: time.Minute}, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after cancellation)", calls)
	}
}

func TestWithRetry_ZeroRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(0), func() error {
		calls++
		return errors.New("nope")
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_DelayCapped(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries: 4,
		BaseDelay:  time.Millisecond,
		MaxDelay:   4 * time.Millisecond,
	}

	// 1 + 2 + 4 + 4 = 11ms of backoff; without the cap it would be
	// 1 + 2 + 4 + 8 = 15ms. Just assert it terminates well under the
	// uncapped worst case with generous slack for scheduling.
	start := time.Now()
	_ = WithRetry(context.Background(), cfg, func() error {
		return errors.New("always")
	})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("retries took %v, backoff cap not applied", elapsed)
	}
}
