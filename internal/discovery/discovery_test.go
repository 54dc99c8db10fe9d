package discovery

import (
	"testing"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestShortCircuitKeywordMatches(t *testing.T) {
	kw, ok := ShortCircuitKeyword("https://site.com/leaderboards/monthly", []string{"monthly", "weekly"})
	if !ok || kw != "monthly" {
		t.Fatalf("expected monthly short-circuit, got %q ok=%v", kw, ok)
	}
}

func TestShortCircuitKeywordNoMatch(t *testing.T) {
	_, ok := ShortCircuitKeyword("https://site.com/leaderboards/unknown-thing", []string{"monthly", "weekly"})
	if ok {
		t.Fatal("expected no short-circuit for an unconfigured keyword")
	}
}

func TestScanSwitchersFindsHrefAndTextMatches(t *testing.T) {
	html := `
	<nav>
	  <a href="/leaderboard/weekly">Weekly Leaderboard</a>
	  <button data-tab="monthly">Monthly</button>
	  <img src="/icons/daily-trophy.png" alt="Daily rankings" />
	</nav>`
	switchers := ScanSwitchers(html, "https://site.com", "/", []string{"weekly", "monthly", "daily"})
	if len(switchers) != 3 {
		t.Fatalf("expected 3 switchers, got %d: %+v", len(switchers), switchers)
	}
}

func TestScanSwitchersIgnoresUnrelatedElements(t *testing.T) {
	html := `<nav><a href="/about">About</a><a href="/contact">Contact</a></nav>`
	switchers := ScanSwitchers(html, "https://site.com", "/", []string{"weekly", "monthly"})
	if len(switchers) != 0 {
		t.Fatalf("expected no switchers, got %+v", switchers)
	}
}

func TestCollapseDuplicatesPrefersCoordinates(t *testing.T) {
	pt := model.Point{X: 10, Y: 20}
	switchers := []model.Switcher{
		{Keyword: "weekly", Priority: 3},
		{Keyword: "weekly", Priority: 1, Coordinates: &pt},
	}
	out := CollapseDuplicates(switchers)
	if len(out) != 1 || out[0].Coordinates == nil {
		t.Fatalf("expected the coordinate-bearing switcher to win, got %+v", out)
	}
}

func TestCollapseDuplicatesPrefersHigherPriority(t *testing.T) {
	switchers := []model.Switcher{
		{Keyword: "weekly", Priority: 1},
		{Keyword: "weekly", Priority: 3},
	}
	out := CollapseDuplicates(switchers)
	if len(out) != 1 || out[0].Priority != 3 {
		t.Fatalf("expected higher-priority switcher to win, got %+v", out)
	}
}

func TestDiscoverShortCircuit(t *testing.T) {
	res := Discover("https://site.com/leaderboards/monthly", nil, []string{"monthly"}, nil)
	if len(res.LeaderboardURLs) != 1 || res.LeaderboardURLs[0] != "https://site.com/leaderboards/monthly" {
		t.Fatalf("expected short-circuit URL retained, got %+v", res)
	}
	if res.URLPattern == "" {
		t.Fatal("expected a learned URL pattern")
	}
}

func TestDiscoverScansCandidatePaths(t *testing.T) {
	pages := map[string]string{
		"/": `<nav><a href="/leaderboard/weekly">Weekly</a></nav>`,
	}
	res := Discover("https://site.com/", pages, []string{"weekly"}, nil)
	if len(res.Switchers) != 1 {
		t.Fatalf("expected 1 switcher from candidate-path scan, got %+v", res.Switchers)
	}
}

func TestMergeProfileKnownAppendsMissing(t *testing.T) {
	profile := &model.SiteProfile{
		KnownLeaderboards: []model.KnownLeaderboard{
			{Name: "Seasonal", URL: "https://site.com/leaderboard/seasonal"},
		},
	}
	res := Discover("https://site.com/leaderboards/monthly", nil, []string{"monthly"}, profile)
	found := false
	for _, u := range res.LeaderboardURLs {
		if u == "https://site.com/leaderboard/seasonal" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected profile-known leaderboard merged in, got %+v", res.LeaderboardURLs)
	}
}
