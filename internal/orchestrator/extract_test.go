package orchestrator

import (
	"testing"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/fusion"
	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestDetectColumnOrderHint(t *testing.T) {
	cases := []struct {
		name string
		md   string
		want bool
	}{
		{"prize before wager", "| Rank | Prize | Wagered |\n|---|---|---|", true},
		{"wager before prize", "| Rank | Wagered | Reward |\n|---|---|---|", false},
		{"no table", "1. alice - $500", false},
	}
	for _, c := range cases {
		if got := detectColumnOrderHint(c.md); got != c.want {
			t.Errorf("%s: detectColumnOrderHint(%q) = %v, want %v", c.name, c.md, got, c.want)
		}
	}
}

func TestLeaderboardNamePrefersCandidateName(t *testing.T) {
	cand := model.LeaderboardCandidate{Name: "Weekly", Switcher: &model.Switcher{Keyword: "weekly-tab"}}
	if got := leaderboardName(cand); got != "Weekly" {
		t.Fatalf("expected Weekly, got %q", got)
	}
}

func TestLeaderboardNameFallsBackToSwitcherKeyword(t *testing.T) {
	cand := model.LeaderboardCandidate{Switcher: &model.Switcher{Keyword: "monthly-tab"}}
	if got := leaderboardName(cand); got != "monthly-tab" {
		t.Fatalf("expected monthly-tab, got %q", got)
	}
}

func TestLeaderboardNameDefaultsWhenNothingKnown(t *testing.T) {
	if got := leaderboardName(model.LeaderboardCandidate{}); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestLeaderboardTypeDetectsHistoricalMarkers(t *testing.T) {
	cases := []struct {
		cand model.LeaderboardCandidate
		want model.LeaderboardType
	}{
		{model.LeaderboardCandidate{Name: "Previous Week"}, model.LeaderboardPrevious},
		{model.LeaderboardCandidate{URL: "https://example.com/leaderboard/archive"}, model.LeaderboardPrevious},
		{model.LeaderboardCandidate{Name: "Weekly Wager Race"}, model.LeaderboardCurrent},
	}
	for _, c := range cases {
		if got := leaderboardType(c.cand); got != c.want {
			t.Errorf("leaderboardType(%+v) = %v, want %v", c.cand, got, c.want)
		}
	}
}

func TestBuildResultClampsConfidenceAndSetsID(t *testing.T) {
	entries := []model.Entry{
		{Rank: 1, Username: "alice", Wager: 1000, Prize: 100},
		{Rank: 2, Username: "bob", Wager: 500, Prize: 50},
	}
	cand := model.LeaderboardCandidate{Name: "Weekly"}
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	result := buildResult(cand, "https://example.com/weekly", "ext-1", entries, model.SourceFused,
		fusion.Report{OverallAgreement: 1, ConfidenceAdjust: 50}, true, now, nil)

	if result.Confidence > 100 {
		t.Fatalf("expected confidence clamped to 100, got %d", result.Confidence)
	}
	if result.ID != "Weekly:ext-1" {
		t.Fatalf("expected ID Weekly:ext-1, got %q", result.ID)
	}
	if result.Source != model.SourceFused {
		t.Fatalf("expected source fused, got %s", result.Source)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries to survive sanitize/normalize, got %d", len(result.Entries))
	}
}

func TestBuildResultClampsConfidenceFloor(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: "alice", Wager: 1000, Prize: 100}}
	cand := model.LeaderboardCandidate{Name: "Weekly"}
	now := time.Now()
	if now.IsZero() {
		t.Skip("time.Now unavailable")
	}

	result := buildResult(cand, "", "ext-2", entries, model.SourceDOM,
		fusion.Report{ConfidenceAdjust: -100}, false, now, nil)

	if result.Confidence < 0 {
		t.Fatalf("expected confidence floor at 0, got %d", result.Confidence)
	}
}
