package sanitize

import (
	"testing"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestCensoredSingleLetterAccepted(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: "A*", Wager: 100}}
	kept, rejected := Sanitize(entries, Options{})
	if len(rejected) != 0 {
		t.Fatalf("expected censored username kept, got rejection %+v", rejected)
	}
	if len(kept) != 1 {
		t.Fatalf("expected 1 entry kept, got %d", len(kept))
	}
}

func TestHiddenWithWagerValid(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: model.HiddenUsername, Wager: 500}}
	kept, rejected := Sanitize(entries, Options{})
	if len(rejected) != 0 || len(kept) != 1 {
		t.Fatalf("expected hidden username with wager kept, got kept=%d rejected=%+v", len(kept), rejected)
	}
}

func TestHiddenWithNoAmountsRejected(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: model.HiddenUsername, Wager: 0, Prize: 0}}
	_, rejected := Sanitize(entries, Options{})
	if len(rejected) != 1 || rejected[0].Reason != ReasonEmptyHidden {
		t.Fatalf("expected empty_hidden rejection, got %+v", rejected)
	}
}

func TestInvalidUsernameUIText(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: "Show More", Wager: 10}}
	_, rejected := Sanitize(entries, Options{})
	if len(rejected) != 1 || rejected[0].Reason != ReasonInvalidUsername {
		t.Fatalf("expected invalid_username rejection for UI text, got %+v", rejected)
	}
}

func TestWebsiteNameRejected(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: "stake.com", Wager: 10}}
	_, rejected := Sanitize(entries, Options{})
	if len(rejected) != 1 || rejected[0].Reason != ReasonWebsiteName {
		t.Fatalf("expected website_name rejection, got %+v", rejected)
	}
}

func TestEmailUsernameNeverFlaggedAsWebsiteName(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: "player@stake.com", Wager: 10}}
	kept, rejected := Sanitize(entries, Options{})
	if len(rejected) != 1 || rejected[0].Reason != ReasonInvalidUsername || len(kept) != 0 {
		t.Fatalf("expected email-shaped username rejected as invalid_username, not website_name, got kept=%d rejected=%+v", len(kept), rejected)
	}
}

func TestNegativeWagerRejected(t *testing.T) {
	entries := []model.Entry{{Rank: 1, Username: "alice", Wager: -5}}
	_, rejected := Sanitize(entries, Options{})
	if len(rejected) != 1 || rejected[0].Reason != ReasonInvalidWager {
		t.Fatalf("expected invalid_wager rejection, got %+v", rejected)
	}
}

func TestAggregateLabelFiltered(t *testing.T) {
	entries := []model.Entry{
		{Rank: 1, Username: "alice", Wager: 100},
		{Rank: 2, Username: "Total Prize Pool", Wager: 100},
	}
	kept, rejected := Sanitize(entries, Options{})
	if len(kept) != 1 || kept[0].Username != "alice" {
		t.Fatalf("expected only alice kept, got %+v", kept)
	}
	found := false
	for _, r := range rejected {
		if r.Reason == ReasonAggregateRow {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected aggregate_row rejection, got %+v", rejected)
	}
}

func TestSumOfOthersWithinToleranceFiltered(t *testing.T) {
	entries := []model.Entry{
		{Rank: 1, Username: "alice", Wager: 100},
		{Rank: 2, Username: "bob", Wager: 200},
		{Rank: 3, Username: "grandtotal", Wager: 300},
	}
	kept, _ := Sanitize(entries, Options{})
	for _, e := range kept {
		if e.Username == "grandtotal" {
			t.Fatalf("expected sum-of-others row filtered, still present: %+v", kept)
		}
	}
	if len(kept) != 2 {
		t.Fatalf("expected 2 entries kept, got %d", len(kept))
	}
}

func TestFlagOutlierWagerDoesNotRemove(t *testing.T) {
	entries := []model.Entry{
		{Rank: 1, Username: "alice", Wager: 100},
		{Rank: 2, Username: "bob", Wager: 5000},
	}
	kept, rejected := Sanitize(entries, Options{})
	if len(kept) != 2 || len(rejected) != 0 {
		t.Fatalf("10x-outlier should be flagged, not removed: kept=%d rejected=%d", len(kept), len(rejected))
	}
	if !FlagOutlierWager(entries[1], entries) {
		t.Fatal("expected FlagOutlierWager to flag the 5000 wager against a 100 peer")
	}
}

func TestSiteNameOptionRejectsConfiguredBrand(t *testing.T) {
	opts := Options{SiteNames: map[string]struct{}{"mycasino": {}}}
	entries := []model.Entry{{Rank: 1, Username: "MyCasino", Wager: 10}}
	_, rejected := Sanitize(entries, opts)
	if len(rejected) != 1 || rejected[0].Reason != ReasonWebsiteName {
		t.Fatalf("expected configured brand name rejected, got %+v", rejected)
	}
}
