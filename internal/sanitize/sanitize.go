// Package sanitize implements the Entry Sanitizer (C8): it rejects
// individually-invalid entries and filters whole rows that are really
// aggregate statistics rather than leaderboard placements, per
// spec.md §4.8.
//
// The two-pass shape — remove the rows that clearly don't belong, then
// keep only what remains — mirrors cleaner.FilterContent's
// exclude-then-include ordering, generalized from CSS selectors to
// entry predicates.
package sanitize

import (
	"math"
	"regexp"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/textrules"
)

// RejectReason classifies why an entry was dropped, for diagnostics.
type RejectReason string

const (
	ReasonInvalidUsername RejectReason = "invalid_username"
	ReasonWebsiteName     RejectReason = "website_name"
	ReasonEmptyHidden     RejectReason = "empty_hidden"
	ReasonInvalidWager    RejectReason = "invalid_wager"
	ReasonAggregateRow    RejectReason = "aggregate_row"
)

// Rejection pairs a dropped entry with why it was dropped.
type Rejection struct {
	Entry  model.Entry
	Reason RejectReason
}

// aggregateUsernameRe matches row labels that describe a summary
// statistic rather than a ranked participant.
var aggregateUsernameRe = regexp.MustCompile(
	`(?i)^(total|sum|average|prize\s*pool|grand\s*total|volume|duration|ending|remaining|participants|entries|players|time\s*(left|remaining))\b|^\d+\s*(days?|hours?|minutes?|seconds?)\b`,
)

// Options configures site-specific sanitizer behavior.
type Options struct {
	// SiteNames are known site/brand names that should never be
	// accepted as a username (case-insensitive exact match).
	SiteNames map[string]struct{}
}

// Sanitize applies the reject-then-filter pipeline described in
// spec.md §4.8 and returns the surviving entries plus a record of
// every rejection, in the order rules were evaluated.
func Sanitize(entries []model.Entry, opts Options) (kept []model.Entry, rejected []Rejection) {
	kept = make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if reason, bad := rejectIndividual(e, opts); bad {
			rejected = append(rejected, Rejection{Entry: e, Reason: reason})
			continue
		}
		kept = append(kept, e)
	}
	kept, aggRejected := filterAggregateRows(kept)
	rejected = append(rejected, aggRejected...)
	return kept, rejected
}

// rejectIndividual applies the per-entry rejection rules, in the order
// spec.md §4.8 lists them: invalid username, website-name-as-username,
// empty-hidden-with-no-amounts, invalid wager.
func rejectIndividual(e model.Entry, opts Options) (RejectReason, bool) {
	username := strings.TrimSpace(e.Username)

	if !textrules.IsValidUsername(username) {
		return ReasonInvalidUsername, true
	}

	if textrules.IsWebsiteName(username, opts.SiteNames) {
		return ReasonWebsiteName, true
	}

	if username == model.HiddenUsername && e.Wager == 0 && e.Prize == 0 {
		return ReasonEmptyHidden, true
	}

	if math.IsNaN(e.Wager) || e.Wager < 0 {
		return ReasonInvalidWager, true
	}

	return "", false
}

// filterAggregateRows drops rows that are aggregate statistics
// disguised as leaderboard entries: a recognizable aggregate label, a
// wager equal to the sum of every other row within tolerance (checked
// only when there are at least two other rows to sum), or (as a soft
// flag only, not a removal) a wager at least 10x the next-highest.
func filterAggregateRows(entries []model.Entry) ([]model.Entry, []Rejection) {
	kept := make([]model.Entry, 0, len(entries))
	var rejected []Rejection

	total := 0.0
	for _, e := range entries {
		total += e.Wager
	}

	for _, e := range entries {
		if aggregateUsernameRe.MatchString(strings.TrimSpace(e.Username)) {
			rejected = append(rejected, Rejection{Entry: e, Reason: ReasonAggregateRow})
			continue
		}

		othersSum := total - e.Wager
		tolerance := math.Max(othersSum*0.01, 100)
		if len(entries) >= 3 && e.Wager > 0 && math.Abs(e.Wager-othersSum) <= tolerance {
			rejected = append(rejected, Rejection{Entry: e, Reason: ReasonAggregateRow})
			continue
		}

		// The >=10x-next-highest rule is flag-only: it does not remove
		// the row, so callers who need it inspect FlagOutlierWager
		// themselves rather than relying on Sanitize's output.
		kept = append(kept, e)
	}
	return kept, rejected
}

// FlagOutlierWager reports whether e's wager is at least 10x the next-
// highest wager among entries, a signal the caller may surface as a
// validation warning without removing the row.
func FlagOutlierWager(e model.Entry, entries []model.Entry) bool {
	nextHighest := 0.0
	for _, o := range entries {
		if o.Rank == e.Rank {
			continue
		}
		if o.Wager > nextHighest {
			nextHighest = o.Wager
		}
	}
	if nextHighest == 0 {
		return false
	}
	return e.Wager >= nextHighest*10
}
