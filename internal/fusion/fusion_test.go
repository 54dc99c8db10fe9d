package fusion

import (
	"testing"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestFuseSingleSourcePenalized(t *testing.T) {
	entries := SourceEntries{
		model.SourceAPI: {{Rank: 1, Username: "alice", Wager: 100}},
	}
	report := Fuse(entries)
	if report.RecommendedSource != model.SourceAPI {
		t.Fatalf("expected api recommended, got %s", report.RecommendedSource)
	}
	if report.ConfidenceAdjust != -5 {
		t.Fatalf("expected -5 single-source penalty, got %d", report.ConfidenceAdjust)
	}
}

func TestFuseAgreeingSourcesHighConfidenceBoost(t *testing.T) {
	entries := SourceEntries{
		model.SourceAPI:      {{Rank: 1, Username: "alice", Wager: 100}, {Rank: 2, Username: "bob", Wager: 50}},
		model.SourceMarkdown: {{Rank: 1, Username: "alice", Wager: 100}, {Rank: 2, Username: "bob", Wager: 50}},
	}
	report := Fuse(entries)
	if report.OverallAgreement != 1.0 {
		t.Fatalf("expected perfect agreement, got %v", report.OverallAgreement)
	}
	if report.ConfidenceAdjust != 20 {
		t.Fatalf("expected +20 confidence adjustment, got %d", report.ConfidenceAdjust)
	}
	for _, ea := range report.EntryAgreement {
		if ea.Status != StatusAgreed {
			t.Fatalf("expected all entries agreed, got %+v", ea)
		}
	}
}

func TestFuseDisagreeingWagersFlagsDiscrepancy(t *testing.T) {
	entries := SourceEntries{
		model.SourceAPI: {{Rank: 1, Username: "alice", Wager: 1000}},
		model.SourceDOM: {{Rank: 1, Username: "alice", Wager: 10}},
	}
	report := Fuse(entries)
	if len(report.Discrepancies) == 0 {
		t.Fatal("expected a wager discrepancy to be recorded")
	}
}

func TestFuseRankToleranceOfOne(t *testing.T) {
	a := model.Entry{Rank: 5, Username: "alice", Wager: 100}
	b := model.Entry{Rank: 6, Username: "alice", Wager: 100}
	var username, rank, wager, prize FieldAgreement
	matched, disagreeing := comparePair(a, b, &username, &rank, &wager, &prize)
	if !matched || len(disagreeing) != 0 {
		t.Fatalf("expected ranks 5 and 6 to agree within tolerance, got matched=%v disagreeing=%v", matched, disagreeing)
	}
	if rank.Comparisons != 1 || rank.Matches != 1 {
		t.Fatalf("expected one agreeing rank comparison, got %+v", rank)
	}
}

func TestFuseUsernameFallbackAlignment(t *testing.T) {
	entries := SourceEntries{
		model.SourceMarkdown:  {{Username: "Al_ice*", Wager: 100}},
		model.SourceGeometric: {{Username: "alice", Wager: 100}},
	}
	report := Fuse(entries)
	agreed := false
	for _, ea := range report.EntryAgreement {
		if ea.Status == StatusAgreed {
			agreed = true
		}
	}
	if !agreed {
		t.Fatalf("expected username-normalized alignment to agree, got %+v", report.EntryAgreement)
	}
}

func TestFuseEmptyInput(t *testing.T) {
	report := Fuse(SourceEntries{})
	if report.OverallAgreement != 0 {
		t.Fatalf("expected zero agreement for empty input, got %v", report.OverallAgreement)
	}
}
