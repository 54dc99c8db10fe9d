package validate

import (
	"testing"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func entries(ranks ...int) []model.Entry {
	out := make([]model.Entry, len(ranks))
	for i, r := range ranks {
		out[i] = model.Entry{Rank: r, Username: "user", Wager: 100, Prize: 10}
	}
	return out
}

func TestCompletenessPassesSequentialRanks(t *testing.T) {
	result := model.Result{Entries: entries(1, 2, 3), Confidence: 90}
	v, conf := Validate(result, Options{MinRows: 1})
	if !v.CompletenessOK {
		t.Fatalf("expected completeness ok, reasons=%v", v.Reasons)
	}
	if conf != 90 {
		t.Fatalf("expected no penalty, got confidence %d", conf)
	}
}

func TestCompletenessFlagsRankCountMismatch(t *testing.T) {
	result := model.Result{Entries: entries(1, 2, 5), Confidence: 90}
	v, conf := Validate(result, Options{MinRows: 1})
	if v.CompletenessOK {
		t.Fatal("expected completeness failure on rank count mismatch")
	}
	if conf != 75 {
		t.Fatalf("expected confidence penalized by 15, got %d", conf)
	}
}

func TestCompletenessFlagsDuplicateRank(t *testing.T) {
	result := model.Result{Entries: entries(1, 1, 3), Confidence: 90}
	v, _ := Validate(result, Options{MinRows: 1})
	if v.CompletenessOK {
		t.Fatal("expected completeness failure on duplicate rank")
	}
}

func TestSanityFlagsNegativeAmount(t *testing.T) {
	result := model.Result{
		Entries:    []model.Entry{{Rank: 1, Username: "a", Wager: -5}},
		Confidence: 90,
	}
	v, conf := Validate(result, Options{MinRows: 1})
	if v.SanityOK {
		t.Fatal("expected sanity failure on negative wager")
	}
	if conf != 80 {
		t.Fatalf("expected confidence penalized by 10, got %d", conf)
	}
}

func TestStrategyAgreementPenaltyAppliedOnlyWhenFusionRan(t *testing.T) {
	result := model.Result{Entries: entries(1, 2), Confidence: 90}
	v, conf := Validate(result, Options{MinRows: 1, FusionRan: true, OverallAgreement: 0.5})
	if v.StrategyAgreeOK {
		t.Fatal("expected strategy agreement failure below 0.7 threshold")
	}
	if conf != 70 {
		t.Fatalf("expected confidence penalized by 20, got %d", conf)
	}

	v2, conf2 := Validate(result, Options{MinRows: 1, FusionRan: false})
	if !v2.StrategyAgreeOK {
		t.Fatal("expected no strategy agreement penalty when fusion did not run")
	}
	if conf2 != 90 {
		t.Fatalf("expected unpenalized confidence, got %d", conf2)
	}
}

func TestConfidenceClampedToZero(t *testing.T) {
	result := model.Result{
		Entries:    []model.Entry{{Rank: 1, Username: "", Wager: -1}},
		Confidence: 10,
	}
	_, conf := Validate(result, Options{MinRows: 5, FusionRan: true, OverallAgreement: 0.1})
	if conf != 0 {
		t.Fatalf("expected confidence clamped to 0, got %d", conf)
	}
}

func TestWarningsDetectsAllZeroWagers(t *testing.T) {
	es := []model.Entry{{Rank: 1, Wager: 0}, {Rank: 2, Wager: 0}}
	warnings := Warnings(es)
	found := false
	for _, w := range warnings {
		if w == "all wagers are zero" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected all-zero-wagers warning, got %v", warnings)
	}
}

func TestWarningsDetectsDuplicateWagers(t *testing.T) {
	es := []model.Entry{
		{Rank: 1, Wager: 50}, {Rank: 2, Wager: 50}, {Rank: 3, Wager: 50}, {Rank: 4, Wager: 10},
	}
	warnings := Warnings(es)
	if len(warnings) == 0 {
		t.Fatal("expected at least one warning for duplicate wagers")
	}
}

func TestWarningsDetectsWagerOrderViolation(t *testing.T) {
	es := []model.Entry{{Rank: 1, Wager: 10}, {Rank: 2, Wager: 500}}
	warnings := Warnings(es)
	found := false
	for _, w := range warnings {
		if len(w) >= len("wager order") && w[:len("wager order")] == "wager order" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected wager order warning, got %v", warnings)
	}
}
