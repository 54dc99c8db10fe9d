package normalize

import (
	"testing"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestParseRankVariants(t *testing.T) {
	cases := map[string]int{
		"#04.": 4,
		"04":   4,
		"4.":   4,
		"4":    4,
		"1st":  1,
		"2nd":  2,
		"3rd":  3,
		"4th":  4,
		"":     0,
	}
	for raw, want := range cases {
		if got := ParseRank(raw); got != want {
			t.Errorf("ParseRank(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestParseAmountCommutative(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1,234.56", 1234.56},
		{"1234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"10k", 10000},
		{"2.5m", 2_500_000},
		{"$285,750", 285750},
		{"€1.234,56", 1234.56},
	}
	for _, c := range cases {
		got := ParseAmount(c.raw)
		if diff := got - c.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("ParseAmount(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestParseAmountNeverNegative(t *testing.T) {
	if got := ParseAmount("-50"); got != 50 {
		t.Errorf("ParseAmount(-50) = %v, want 50 (sign stripped)", got)
	}
}

func TestParseUsernameFallsBackToHidden(t *testing.T) {
	if got := ParseUsername("   "); got != model.HiddenUsername {
		t.Errorf("ParseUsername(blank) = %q, want hidden sentinel", got)
	}
	if got := ParseUsername("Alice"); got != "Alice" {
		t.Errorf("ParseUsername(Alice) = %q", got)
	}
}

func TestNormalizeSortsAscendingByRank(t *testing.T) {
	entries := []model.Entry{
		{Rank: 3, Username: "c"},
		{Rank: 1, Username: "a"},
		{Rank: 2, Username: "b"},
	}
	out := Normalize(entries, time.Now())
	if out[0].Rank != 1 || out[1].Rank != 2 || out[2].Rank != 3 {
		t.Fatalf("expected ascending rank order, got %+v", out)
	}
}

func TestNormalizeDefaultsTimestampAndType(t *testing.T) {
	now := time.Now()
	out := Normalize([]model.Entry{{Rank: 1, Username: "a"}}, now)
	if !out[0].ExtractedAt.Equal(now) {
		t.Errorf("expected defaulted timestamp %v, got %v", now, out[0].ExtractedAt)
	}
	if out[0].LeaderboardType != model.LeaderboardCurrent {
		t.Errorf("expected default leaderboard type current, got %v", out[0].LeaderboardType)
	}
}

func TestNormalizeClampsNegativeAmounts(t *testing.T) {
	out := Normalize([]model.Entry{{Rank: 1, Username: "a", Wager: -5, Prize: -1}}, time.Now())
	if out[0].Wager != 0 || out[0].Prize != 0 {
		t.Errorf("expected negative amounts clamped to zero, got wager=%v prize=%v", out[0].Wager, out[0].Prize)
	}
}
