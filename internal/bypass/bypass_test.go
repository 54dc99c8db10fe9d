package bypass

import (
	"strings"
	"testing"
)

// titleMatchesChallenge mirrors Detect's title-matching logic without
// needing a live page, so the marker list itself is testable.
func titleMatchesChallenge(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range challengeTitleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func TestTitleMatchesChallenge(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Just a moment...", true},
		{"Attention Required! | Cloudflare", true},
		{"Weekly Wager Leaderboard", false},
		{"", false},
	}
	for _, c := range cases {
		if got := titleMatchesChallenge(c.title); got != c.want {
			t.Errorf("titleMatchesChallenge(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}
