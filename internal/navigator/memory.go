package navigator

import (
	"sync"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// DefaultMemoryTTL is how long a remembered navigation method stays
// valid for a domain before Position falls back to the full waterfall
// again.
const DefaultMemoryTTL = 24 * time.Hour

// memoryEntry stores the navigation method that last positioned a
// domain's page on its leaderboard section, plus the resolved target
// URL it landed on (when navigation, rather than a profile path,
// produced it).
type memoryEntry struct {
	method    model.LeaderboardMethod
	targetURL string
	expiresAt time.Time
}

// Memory remembers which Navigator strategy last succeeded for a
// domain, so repeat visits can try that strategy first instead of
// re-running the full waterfall (profile path → anchor scan → SPA
// click → standard paths).
//
// Generalized from engine/domain_memory.go's DomainMemory, which
// remembers a preferred fetch engine per domain on the same
// sync.Map-plus-TTL shape; here the remembered value is a navigation
// method instead of an engine name.
type Memory struct {
	store sync.Map // domain (string) -> *memoryEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewMemory creates a Memory with the given TTL (DefaultMemoryTTL if
// ttl <= 0) and starts a background goroutine that prunes expired
// entries every hour.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	m := &Memory{ttl: ttl, done: make(chan struct{})}
	go m.cleanupLoop()
	return m
}

// Get returns the remembered method and target URL for a domain. ok is
// false if nothing is remembered or the entry has expired.
func (m *Memory) Get(domain string) (method model.LeaderboardMethod, targetURL string, ok bool) {
	val, found := m.store.Load(domain)
	if !found {
		return "", "", false
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.store.Delete(domain)
		return "", "", false
	}
	return entry.method, entry.targetURL, true
}

// Set records the navigation method and target URL that succeeded for
// a domain.
func (m *Memory) Set(domain string, method model.LeaderboardMethod, targetURL string) {
	m.store.Store(domain, &memoryEntry{
		method:    method,
		targetURL: targetURL,
		expiresAt: time.Now().Add(m.ttl),
	})
}

// Forget removes the memory for a domain, e.g. after the remembered
// method fails to position the page.
func (m *Memory) Forget(domain string) {
	m.store.Delete(domain)
}

// Stop terminates the background cleanup goroutine.
func (m *Memory) Stop() {
	close(m.done)
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.store.Range(func(key, value any) bool {
				entry := value.(*memoryEntry)
				if now.After(entry.expiresAt) {
					m.store.Delete(key)
				}
				return true
			})
		}
	}
}
