// Package validate implements the Dataset Validator (C10): a
// completeness/sanity/strategy-agreement check that penalizes a
// result's reported confidence, plus a set of non-penalizing warnings
// surfaced for human review, per spec.md §4.10.
package validate

import (
	"fmt"
	"sort"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

const (
	penaltyCompleteness   = 15
	penaltySanity         = 10
	penaltyStrategyAgree  = 20
	lowAgreementThreshold = 0.7
	defaultMinRows        = 1
)

// Options configures thresholds the caller may want to tune per site.
type Options struct {
	MinRows int
	// OverallAgreement is the Fusion report's overallAgreement ratio.
	// Zero value (no fusion run, single source) is treated as
	// trivially agreeing — strategyAgreement only penalizes when
	// fusion actually ran and disagreed.
	OverallAgreement float64
	FusionRan        bool
}

// Validate runs completeness/sanity/strategy-agreement checks against
// a result's entries and returns the populated Validation verdict plus
// a penalty-adjusted confidence. It does not mutate result.Confidence;
// callers apply the returned confidence themselves.
func Validate(result model.Result, opts Options) (model.Validation, int) {
	if opts.MinRows <= 0 {
		opts.MinRows = defaultMinRows
	}

	v := model.Validation{Valid: true, CompletenessOK: true, SanityOK: true, StrategyAgreeOK: true}
	penalty := 0

	if reasons, gap, ok := checkCompleteness(result.Entries, opts.MinRows); !ok {
		v.CompletenessOK = false
		v.FirstRankGap = gap
		v.Reasons = append(v.Reasons, reasons...)
		penalty += penaltyCompleteness
	}

	if reasons, ok := checkSanity(result.Entries); !ok {
		v.SanityOK = false
		v.Reasons = append(v.Reasons, reasons...)
		penalty += penaltySanity
	}

	if opts.FusionRan && opts.OverallAgreement < lowAgreementThreshold {
		v.StrategyAgreeOK = false
		v.Reasons = append(v.Reasons, "lowConfidence")
		penalty += penaltyStrategyAgree
	}

	v.ConfidencePenalty = penalty
	v.Valid = v.CompletenessOK && v.SanityOK

	confidence := result.Confidence - penalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return v, confidence
}

// checkCompleteness verifies row count, rank contiguity, and duplicate
// ranks. gap is the index of the first sequence break (0 if none).
func checkCompleteness(entries []model.Entry, minRows int) (reasons []string, gap int, ok bool) {
	ok = true
	if len(entries) < minRows {
		reasons = append(reasons, "row_count_below_minimum")
		ok = false
	}

	ranksPresent := false
	maxRank := 0
	seen := make(map[int]int, len(entries))
	for _, e := range entries {
		if e.Rank > 0 {
			ranksPresent = true
		}
		if e.Rank > maxRank {
			maxRank = e.Rank
		}
		seen[e.Rank]++
	}

	for rank, count := range seen {
		if rank > 0 && count > 1 {
			reasons = append(reasons, "duplicate_rank")
			ok = false
			break
		}
	}

	if ranksPresent && maxRank != len(entries) {
		reasons = append(reasons, "rank_count_mismatch")
		ok = false
	}

	sorted := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.Rank > 0 {
			sorted = append(sorted, e.Rank)
		}
	}
	sort.Ints(sorted)
	for i, r := range sorted {
		if r != i+1 {
			gap = i + 1
			break
		}
	}

	return reasons, gap, ok
}

// checkSanity verifies per-entry non-negative numerics and non-empty
// usernames (the hidden sentinel counts as present).
func checkSanity(entries []model.Entry) ([]string, bool) {
	for _, e := range entries {
		if e.Wager < 0 || e.Prize < 0 {
			return []string{"negative_amount"}, false
		}
		if e.Username == "" {
			return []string{"empty_username"}, false
		}
	}
	return nil, true
}

// Warnings computes the non-penalizing advisory checks from spec.md
// §4.10: prize/wager monotonicity, suspicious prize≈rank values,
// absurd prize/wager ratios, all-zero wagers, and duplicate wagers.
// Warnings never alter confidence; callers append the returned strings
// to Result.Warnings.
func Warnings(entries []model.Entry) []string {
	var warnings []string

	if w := checkOrderViolation(entries, func(e model.Entry) float64 { return e.Prize }, 0.20); w != "" {
		warnings = append(warnings, "prize order: "+w)
	}
	if w := checkOrderViolation(entries, func(e model.Entry) float64 { return e.Wager }, 0.0); w != "" {
		warnings = append(warnings, "wager order: "+w)
	}

	rankArtifacts := 0
	for _, e := range entries {
		if e.Rank > 20 && e.Prize > 0 && prizeLooksLikeRank(e.Prize, e.Rank) {
			rankArtifacts++
		}
	}
	if rankArtifacts > 0 {
		warnings = append(warnings, fmt.Sprintf("%d entries beyond rank 20 have prize values suspiciously close to their rank number", rankArtifacts))
	}

	absurd := 0
	for _, e := range entries {
		if e.Prize > e.Wager && e.Wager > 0 {
			absurd++
		}
	}
	if len(entries) > 3 && float64(absurd)/float64(len(entries)) > 0.20 {
		warnings = append(warnings, "prize exceeds wager on over 20% of entries")
	}

	if len(entries) > 0 {
		allZero := true
		for _, e := range entries {
			if e.Wager != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			warnings = append(warnings, "all wagers are zero")
		}
	}

	if dup := countDuplicateWagers(entries); dup >= 3 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate wager values found", dup))
	}

	return warnings
}

// checkOrderViolation reports a violation message if field(entries)
// violates non-increasing-with-rank order on more than tolerance
// fraction of adjacent pairs (ranked by Rank ascending).
func checkOrderViolation(entries []model.Entry, field func(model.Entry) float64, tolerance float64) string {
	if len(entries) < 2 {
		return ""
	}
	ranked := make([]model.Entry, len(entries))
	copy(ranked, entries)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	violations := 0
	comparisons := 0
	for i := 1; i < len(ranked); i++ {
		comparisons++
		if field(ranked[i]) > field(ranked[i-1]) {
			violations++
		}
	}
	if comparisons == 0 {
		return ""
	}
	if float64(violations)/float64(comparisons) > tolerance {
		return fmt.Sprintf("%d/%d adjacent pairs increase with rank", violations, comparisons)
	}
	return ""
}

// prizeLooksLikeRank flags a prize value within 1 unit of the entry's
// own rank, a common artifact of misread DOM columns.
func prizeLooksLikeRank(prize float64, rank int) bool {
	diff := prize - float64(rank)
	return diff > -1 && diff < 1
}

func countDuplicateWagers(entries []model.Entry) int {
	counts := make(map[float64]int, len(entries))
	for _, e := range entries {
		if e.Wager == 0 {
			continue
		}
		counts[e.Wager]++
	}
	dup := 0
	for _, c := range counts {
		if c > 1 {
			dup += c
		}
	}
	return dup
}
