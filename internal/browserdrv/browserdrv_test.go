package browserdrv

import (
	"testing"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/config"
)

func TestNavigationBudgetDefaultsWhenUnset(t *testing.T) {
	if got := NavigationBudget(config.SiteConfig{}); got != 5*time.Minute {
		t.Fatalf("expected 5m default, got %v", got)
	}
}

func TestNavigationBudgetHonorsExplicitTimeout(t *testing.T) {
	want := 90 * time.Second
	if got := NavigationBudget(config.SiteConfig{SiteTimeout: want}); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
