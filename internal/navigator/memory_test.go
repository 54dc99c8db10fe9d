package navigator

import (
	"testing"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestMemoryGetSetRoundTrip(t *testing.T) {
	m := NewMemory(time.Hour)
	defer m.Stop()

	if _, _, ok := m.Get("a.example"); ok {
		t.Fatal("expected no memory for an unseen domain")
	}

	m.Set("a.example", model.MethodURLNavigation, "https://a.example/leaderboards")
	method, target, ok := m.Get("a.example")
	if !ok {
		t.Fatal("expected memory to be present after Set")
	}
	if method != model.MethodURLNavigation || target != "https://a.example/leaderboards" {
		t.Fatalf("unexpected memory contents: %v %v", method, target)
	}
}

func TestMemoryExpiresAfterTTL(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Stop()

	m.Set("a.example", model.MethodSwitcherClick, "")
	time.Sleep(20 * time.Millisecond)

	if _, _, ok := m.Get("a.example"); ok {
		t.Fatal("expected memory to expire after TTL elapsed")
	}
}

func TestMemoryForgetRemovesEntry(t *testing.T) {
	m := NewMemory(time.Hour)
	defer m.Stop()

	m.Set("a.example", model.MethodProfileKnown, "")
	m.Forget("a.example")

	if _, _, ok := m.Get("a.example"); ok {
		t.Fatal("expected memory to be gone after Forget")
	}
}

func TestMemoryDefaultTTLUsedWhenNonPositive(t *testing.T) {
	m := NewMemory(0)
	defer m.Stop()
	if m.ttl != DefaultMemoryTTL {
		t.Fatalf("expected default TTL %v, got %v", DefaultMemoryTTL, m.ttl)
	}
}
