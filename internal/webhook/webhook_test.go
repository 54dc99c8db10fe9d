package webhook

import (
	"testing"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestEventForRunCompletedWhenResultsExist(t *testing.T) {
	run := model.SiteRun{Domain: "example.com", Results: []model.Result{{Name: "Weekly"}}}
	ev := EventForRun(run, 1000)
	if ev.Type != "run.completed" {
		t.Fatalf("expected run.completed, got %s", ev.Type)
	}
}

func TestEventForRunFailedWhenNoResults(t *testing.T) {
	run := model.SiteRun{Domain: "example.com"}
	ev := EventForRun(run, 1000)
	if ev.Type != "run.failed" {
		t.Fatalf("expected run.failed, got %s", ev.Type)
	}
}

func TestDelayForClampsToLastInterval(t *testing.T) {
	if delayFor(0) != 0 {
		t.Fatalf("expected 0 delay for first attempt, got %v", delayFor(0))
	}
	if got := delayFor(99); got != 30*time.Second {
		t.Fatalf("expected clamp to last interval (30s), got %v", got)
	}
}
