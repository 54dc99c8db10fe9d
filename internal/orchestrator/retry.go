package orchestrator

import (
	"math/rand"
	"time"
)

// RetryConfig controls the exponential-backoff-with-jitter wrapper
// applied around Discovery, per spec.md §4.11's withRetry combinator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig matches spec.md's withRetry defaults: 3 retries,
// 1s base delay, 10s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

// backoffDelay computes the delay for a 0-based attempt number:
// baseDelay*2^attempt, capped at maxDelay, plus up to 20% jitter so a
// fleet of workers retrying the same domain doesn't thunder in
// lockstep.
func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	d := cfg.BaseDelay * time.Duration(int64(1)<<uint(attempt))
	if d <= 0 || d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}

// withRetry runs fn up to cfg.MaxRetries additional times after the
// first attempt, sleeping backoffDelay between attempts, and returns
// the last error if every attempt fails.
func withRetry(fn func() error, cfg RetryConfig, sleep func(time.Duration)) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			sleep(backoffDelay(attempt-1, cfg))
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}
