package orchestrator

import (
	"errors"
	"testing"
	"time"
)

func TestBackoffDelayCapsAtMaxDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: 10 * time.Second}
	d := backoffDelay(10, cfg) // 2^10s would blow past the cap
	if d < cfg.MaxDelay || d > cfg.MaxDelay+cfg.MaxDelay/5 {
		t.Fatalf("expected delay within [%v, %v], got %v", cfg.MaxDelay, cfg.MaxDelay+cfg.MaxDelay/5, d)
	}
}

func TestBackoffDelayGrowsExponentially(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: time.Hour}
	d0 := backoffDelay(0, cfg)
	d1 := backoffDelay(1, cfg)
	if d0 < time.Second || d0 >= 2*time.Second {
		t.Fatalf("expected attempt 0 delay in [1s, 2s), got %v", d0)
	}
	if d1 < 2*time.Second || d1 >= 3*time.Second {
		t.Fatalf("expected attempt 1 delay in [2s, 3s), got %v", d1)
	}
}

func TestWithRetrySucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		return nil
	}, DefaultRetryConfig(), func(time.Duration) {})
	if err != nil || calls != 1 {
		t.Fatalf("expected 1 call and no error, got calls=%d err=%v", calls, err)
	}
}

func TestWithRetryExhaustsAttemptsThenReturnsLastError(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	var slept []time.Duration
	err := withRetry(func() error {
		calls++
		return sentinel
	}, RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, func(d time.Duration) {
		slept = append(slept, d)
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 total attempts (1 + 2 retries), got %d", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 sleeps between 3 attempts, got %d", len(slept))
	}
}

func TestWithRetryStopsEarlyOnSuccess(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		if calls == 2 {
			return nil
		}
		return errors.New("not yet")
	}, RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, func(time.Duration) {})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on 2nd call, got calls=%d err=%v", calls, err)
	}
}
