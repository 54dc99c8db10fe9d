// Package breaker implements the process-wide, per-domain circuit
// breaker described in spec.md §3/§4.11: three consecutive failures
// within a window opens the breaker; it half-opens after the window
// elapses with no new failures, and a success fully resets it.
//
// The shape is lifted from the teacher's engine.DomainMemory: a
// sync.Map keyed by domain plus a background goroutine that prunes
// stale entries, generalized from "remember an engine name" to
// "remember failure count and timestamp".
package breaker

import (
	"sync"
	"time"
)

const (
	// DefaultThreshold is the consecutive-failure count that opens the breaker.
	DefaultThreshold = 3
	// DefaultWindow is how long failures stay relevant / how long an open
	// breaker stays open before half-opening.
	DefaultWindow = 5 * time.Minute
)

type domainState struct {
	mu             sync.Mutex
	failureCount   int
	lastFailureAt  time.Time
}

// Breaker is a process-wide circuit breaker keyed by domain. Safe for
// concurrent use; all mutation of a domain's state happens under that
// domain's own lock, which satisfies spec.md §5's "all mutations atomic
// under a single lock" without serializing unrelated domains.
type Breaker struct {
	threshold int
	window    time.Duration

	states sync.Map // domain (string) -> *domainState

	done chan struct{}
}

// New creates a Breaker with the given threshold/window and starts a
// background goroutine that prunes domains whose last failure has aged
// out, so long-idle domains don't leak memory.
func New(threshold int, window time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	b := &Breaker{
		threshold: threshold,
		window:    window,
		done:      make(chan struct{}),
	}
	go b.cleanupLoop()
	return b
}

func (b *Breaker) get(domain string) *domainState {
	v, _ := b.states.LoadOrStore(domain, &domainState{})
	return v.(*domainState)
}

// Allow reports whether a site visit to domain may proceed. It returns
// false while the breaker is open (failureCount >= threshold and the
// window has not yet elapsed since the last failure).
func (b *Breaker) Allow(domain string) bool {
	st := b.get(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.failureCount < b.threshold {
		return true
	}
	// Open: check if the window has elapsed (half-open transition).
	if time.Since(st.lastFailureAt) >= b.window {
		return true
	}
	return false
}

// RecordFailure increments the domain's failure count and stamps the
// current time. Called on navigation/discovery errors, unhandled
// per-site errors, or a per-site timeout.
func (b *Breaker) RecordFailure(domain string) {
	st := b.get(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	// Failures only accumulate within the window: once the window has
	// elapsed since the last failure (including a half-open probe that
	// then failed again), this failure counts as a fresh first strike.
	if time.Since(st.lastFailureAt) >= b.window {
		st.failureCount = 0
	}
	st.failureCount++
	st.lastFailureAt = time.Now()
}

// RecordSuccess resets the domain's failure count to zero. Called only
// when a site run produced at least one result.
func (b *Breaker) RecordSuccess(domain string) {
	st := b.get(domain)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failureCount = 0
	st.lastFailureAt = time.Time{}
}

// State reports the current failure count and last-failure time for a
// domain, for monitoring/inspection.
func (b *Breaker) State(domain string) (failureCount int, lastFailureAt time.Time) {
	st := b.get(domain)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.failureCount, st.lastFailureAt
}

// Domains returns every domain the breaker currently holds state for,
// for monitoring endpoints that need to list all tracked domains
// before calling State on each.
func (b *Breaker) Domains() []string {
	var domains []string
	b.states.Range(func(key, _ any) bool {
		domains = append(domains, key.(string))
		return true
	})
	return domains
}

// Stop terminates the background cleanup goroutine.
func (b *Breaker) Stop() {
	close(b.done)
}

func (b *Breaker) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-24 * time.Hour)
			b.states.Range(func(key, value any) bool {
				st := value.(*domainState)
				st.mu.Lock()
				stale := st.lastFailureAt.Before(cutoff) && time.Since(st.lastFailureAt) >= b.window
				st.mu.Unlock()
				if stale {
					b.states.Delete(key)
				}
				return true
			})
		}
	}
}
