package navigator

import "testing"

func TestAlreadyPositioned(t *testing.T) {
	cases := map[string]bool{
		"https://site.com/leaderboard":          true,
		"https://site.com/leaderboards":         true,
		"https://site.com/leaderboard/previous-week": false,
		"https://site.com/archive/leaderboard":  false,
		"https://site.com/home":                 false,
	}
	for u, want := range cases {
		if got := AlreadyPositioned(u); got != want {
			t.Errorf("AlreadyPositioned(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestSelectBestAnchorPrefersNonHistorical(t *testing.T) {
	anchors := []AnchorCandidate{
		{Text: "Previous Leaderboard", Href: "/leaderboard/previous-week"},
		{Text: "Leaderboard", Href: "/leaderboard"},
	}
	best, ok := SelectBestAnchor(anchors)
	if !ok || best.Href != "/leaderboard" {
		t.Fatalf("expected non-historical anchor selected, got %+v ok=%v", best, ok)
	}
}

func TestSelectBestAnchorFallsBackToHistorical(t *testing.T) {
	anchors := []AnchorCandidate{
		{Text: "Past Leaderboard", Href: "/leaderboard/past-week"},
	}
	best, ok := SelectBestAnchor(anchors)
	if !ok || best.Href != "/leaderboard/past-week" {
		t.Fatalf("expected fallback to the only leaderboard anchor, got %+v ok=%v", best, ok)
	}
}

func TestSelectBestAnchorNoLeaderboardAnchors(t *testing.T) {
	anchors := []AnchorCandidate{{Text: "Home", Href: "/"}}
	_, ok := SelectBestAnchor(anchors)
	if ok {
		t.Fatal("expected no match when no anchor mentions leaderboard")
	}
}

func TestResolveURLRelativePath(t *testing.T) {
	got, err := ResolveURL("https://site.com/dashboard", "/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://site.com/leaderboard" {
		t.Fatalf("expected resolved URL, got %q", got)
	}
}

func TestSameDomain(t *testing.T) {
	if !SameDomain("https://site.com/a", "https://site.com/b") {
		t.Fatal("expected same domain to match")
	}
	if SameDomain("https://site.com/a", "https://other.com/b") {
		t.Fatal("expected different domains to not match")
	}
}
