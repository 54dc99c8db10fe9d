// Package fusion implements the Fusion & Cross-Validator (C7): it
// aligns entries produced by independent strategies on a stable key,
// compares them field-by-field, and recommends which source's entries
// to keep, per spec.md §4.7.
//
// The per-source race-then-pick shape generalizes
// cleaner/pipeline.go's autoExtract, which ran two extraction
// strategies concurrently and picked whichever returned usable
// content; here the same "try several, compare, pick" idea spans four
// strategies and produces a structured agreement report instead of an
// either/or choice.
package fusion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// FieldAgreement accumulates match/comparison counts for one field.
type FieldAgreement struct {
	Matches     int
	Comparisons int
}

// Ratio returns Matches/Comparisons, or 1.0 if there were no comparisons.
func (f FieldAgreement) Ratio() float64 {
	if f.Comparisons == 0 {
		return 1.0
	}
	return float64(f.Matches) / float64(f.Comparisons)
}

// EntryAgreementStatus classifies how well an aligned entry agreed
// across the sources that reported it.
type EntryAgreementStatus string

const (
	StatusAgreed       EntryAgreementStatus = "agreed"
	StatusDisputed     EntryAgreementStatus = "disputed"
	StatusSingleSource EntryAgreementStatus = "single_source"
)

// EntryAgreement reports the per-key outcome of cross-source alignment.
type EntryAgreement struct {
	Key     string
	Status  EntryAgreementStatus
	Sources []model.Source
}

// Report is the Fusion & Cross-Validator's output.
type Report struct {
	OverallAgreement  float64
	FieldRatios       map[string]float64
	Discrepancies     []string
	EntryAgreement    []EntryAgreement
	RecommendedSource model.Source
	SourceScores      map[model.Source]float64
	ConfidenceAdjust  int
}

// SourceEntries is one strategy's output per source, keyed by source name.
type SourceEntries map[model.Source][]model.Entry

var nonAlnumRe = regexp.MustCompile(`[_\-\s]+`)

// alignKey computes the stable alignment key for an entry: rank if
// present, else normalized "username|round(wager)".
func alignKey(e model.Entry) string {
	if e.Rank > 0 {
		return fmt.Sprintf("rank:%d", e.Rank)
	}
	u := strings.ToLower(strings.TrimSpace(e.Username))
	u = strings.ReplaceAll(u, "*", "")
	u = nonAlnumRe.ReplaceAllString(u, "")
	return fmt.Sprintf("user:%s|%d", u, int64(e.Wager+0.5))
}

// Fuse aligns entries from every source with at least one entry,
// compares them field-by-field, scores each source, and recommends
// one. There is no per-source confidence input: every source is scored
// as if its confidence were 100.
func Fuse(entries SourceEntries) Report {
	report := Report{
		FieldRatios:   make(map[string]float64),
		SourceScores:  make(map[model.Source]float64),
	}

	if len(entries) == 0 {
		return report
	}

	if len(entries) == 1 {
		var only model.Source
		for src := range entries {
			only = src
		}
		report.RecommendedSource = only
		report.OverallAgreement = 1.0
		report.ConfidenceAdjust = -5
		report.SourceScores[only] = scoreSource(entries[only], 100)
		for _, e := range entries[only] {
			report.EntryAgreement = append(report.EntryAgreement, EntryAgreement{
				Key: alignKey(e), Status: StatusSingleSource, Sources: []model.Source{only},
			})
		}
		return report
	}

	// Group entries by alignment key across sources.
	grouped := make(map[string]map[model.Source]model.Entry)
	for src, list := range entries {
		for _, e := range list {
			key := alignKey(e)
			if grouped[key] == nil {
				grouped[key] = make(map[model.Source]model.Entry)
			}
			grouped[key][src] = e
		}
	}

	usernameAgreement := FieldAgreement{}
	rankAgreement := FieldAgreement{}
	wagerAgreement := FieldAgreement{}
	prizeAgreement := FieldAgreement{}

	totalPairs := 0
	agreedPairs := 0

	for key, bySource := range grouped {
		if len(bySource) < 2 {
			var only model.Source
			for src := range bySource {
				only = src
			}
			report.EntryAgreement = append(report.EntryAgreement, EntryAgreement{
				Key: key, Status: StatusSingleSource, Sources: []model.Source{only},
			})
			continue
		}

		sources := make([]model.Source, 0, len(bySource))
		for src := range bySource {
			sources = append(sources, src)
		}

		allPairsMatch := true
		for i := 0; i < len(sources); i++ {
			for j := i + 1; j < len(sources); j++ {
				a, b := bySource[sources[i]], bySource[sources[j]]
				matched, fields := comparePair(a, b, &usernameAgreement, &rankAgreement, &wagerAgreement, &prizeAgreement)
				totalPairs++
				if matched {
					agreedPairs++
				} else {
					allPairsMatch = false
					report.Discrepancies = append(report.Discrepancies,
						fmt.Sprintf("%s: %s vs %s disagree on %v", key, sources[i], sources[j], fields))
				}
			}
		}

		status := StatusDisputed
		if allPairsMatch {
			status = StatusAgreed
		}
		report.EntryAgreement = append(report.EntryAgreement, EntryAgreement{
			Key: key, Status: status, Sources: sources,
		})
	}

	if totalPairs > 0 {
		report.OverallAgreement = float64(agreedPairs) / float64(totalPairs)
	} else {
		report.OverallAgreement = 1.0
	}

	report.FieldRatios["username"] = usernameAgreement.Ratio()
	report.FieldRatios["rank"] = rankAgreement.Ratio()
	report.FieldRatios["wager"] = wagerAgreement.Ratio()
	report.FieldRatios["prize"] = prizeAgreement.Ratio()

	agreedCounts := make(map[model.Source]int)
	for _, ea := range report.EntryAgreement {
		if ea.Status == StatusAgreed {
			for _, s := range ea.Sources {
				agreedCounts[s]++
			}
		}
	}

	var best model.Source
	bestScore := -1.0
	for src, list := range entries {
		coverage := coverageRatios(list)
		score := scoreSourceFull(100, len(list), coverage.wager, coverage.prize, agreedCounts[src])
		report.SourceScores[src] = score
		if score > bestScore {
			bestScore = score
			best = src
		}
	}
	report.RecommendedSource = best

	switch {
	case report.OverallAgreement >= 0.9:
		report.ConfidenceAdjust += 20
	case report.OverallAgreement >= 0.7:
		report.ConfidenceAdjust += 10
	case report.OverallAgreement >= 0.5:
		report.ConfidenceAdjust += 5
	case report.OverallAgreement < 0.3:
		report.ConfidenceAdjust -= 15
	case report.OverallAgreement < 0.5:
		report.ConfidenceAdjust -= 10
	}

	n := len(report.Discrepancies)
	switch {
	case n > 10:
		report.ConfidenceAdjust -= 10
	case n > 5:
		report.ConfidenceAdjust -= 5
	}

	return report
}

// comparePair compares two entries field-by-field, updating the
// running per-field tallies, and reports whether >= 75% of comparable
// fields agreed.
func comparePair(a, b model.Entry, username, rank, wager, prize *FieldAgreement) (matched bool, disagreeing []string) {
	total := 0
	agree := 0

	total++
	username.Comparisons++
	if normalizeUsername(a.Username) == normalizeUsername(b.Username) {
		agree++
		username.Matches++
	} else {
		disagreeing = append(disagreeing, "username")
	}

	if a.Rank > 0 && b.Rank > 0 {
		total++
		rank.Comparisons++
		diff := a.Rank - b.Rank
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			agree++
			rank.Matches++
		} else {
			disagreeing = append(disagreeing, "rank")
		}
	}

	if a.Wager > 0 || b.Wager > 0 {
		total++
		wager.Comparisons++
		if withinPercent(a.Wager, b.Wager, 0.05) {
			agree++
			wager.Matches++
		} else {
			disagreeing = append(disagreeing, "wager")
		}
	}

	if a.Prize > 0 || b.Prize > 0 {
		total++
		prize.Comparisons++
		if withinPercent(a.Prize, b.Prize, 0.05) {
			agree++
			prize.Matches++
		} else {
			disagreeing = append(disagreeing, "prize")
		}
	}

	if total == 0 {
		return true, nil
	}
	ratio := float64(agree) / float64(total)
	return ratio >= 0.75, disagreeing
}

func normalizeUsername(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "*", "")
	return nonAlnumRe.ReplaceAllString(s, "")
}

func withinPercent(a, b, pct float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	max := a
	if b > max {
		max = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= max*pct
}

type coverage struct {
	wager float64
	prize float64
}

// coverageRatios computes the fraction of entries in list that carry a
// non-zero wager / prize, a proxy for "did this source actually find
// the numeric columns".
func coverageRatios(list []model.Entry) coverage {
	if len(list) == 0 {
		return coverage{}
	}
	var w, p int
	for _, e := range list {
		if e.Wager > 0 {
			w++
		}
		if e.Prize > 0 {
			p++
		}
	}
	return coverage{
		wager: float64(w) / float64(len(list)),
		prize: float64(p) / float64(len(list)),
	}
}

// scoreSource scores a single source using the formula from spec.md
// §4.7 when it is the only source present.
func scoreSource(list []model.Entry, confidence float64) float64 {
	cov := coverageRatios(list)
	return scoreSourceFull(confidence, len(list), cov.wager, cov.prize, 0)
}

// scoreSourceFull implements spec.md §4.7's source-recommendation
// formula: 0.3*confidence + min(entryCount*2, 30) + wagerCoverage*20 +
// prizeCoverage*10 + agreedEntries*3. confidence is on a 0-100 scale.
func scoreSourceFull(confidence float64, entryCount int, wagerCoverage, prizeCoverage float64, agreedEntries int) float64 {
	entryComponent := float64(entryCount) * 2
	if entryComponent > 30 {
		entryComponent = 30
	}
	return 0.3*confidence + entryComponent + wagerCoverage*20 + prizeCoverage*10 + float64(agreedEntries)*3
}

