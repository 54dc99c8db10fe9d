// Package normalize coerces loosely-typed parsed fields into the
// canonical Entry schema: rank/username/wager/prize coercion and
// timestamp defaulting, per spec.md §4.9.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// rankPrefixRe strips ordinal/markers from a rank string: "#04.", "04",
// "4.", "4", "1st", "2nd", "3rd", "4th".
var rankPrefixRe = regexp.MustCompile(`^[#\s]*0*(\d+)\s*(?:st|nd|rd|th)?\.?\)?$`)

// ParseRank coerces a raw rank token to a non-negative integer. Returns
// 0 (unknown) if no digits can be found. Handles "#04." -> 4, "01" -> 1,
// "4." -> 4, "4" -> 4, "1st"/"2nd"/"3rd"/"4th" -> 1/2/3/4.
func ParseRank(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	m := rankPrefixRe.FindStringSubmatch(s)
	if m == nil {
		// Last resort: pull any leading digit run.
		digits := leadingDigits(s)
		if digits == "" {
			return 0
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0
		}
		return n
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func leadingDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// ParseUsername trims whitespace and falls back to the hidden sentinel
// for empty input. It does not reject UI text or validate content —
// that is the Entry Sanitizer's job (C8), applied before normalization.
func ParseUsername(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.HiddenUsername
	}
	return s
}

// thousandsSepRe matches a run of digits possibly grouped by separators.
var nonAmountCharsRe = regexp.MustCompile(`[^\d.,]`)

// ParseAmount coerces a raw monetary/numeric string to a non-negative
// float64. It strips currency symbols/emoji/whitespace, honours k/m/b
// multipliers, and disambiguates U.S. (1,234.56) vs European
// (1.234,56) thousands/decimal grouping. Per spec.md §8:
//
//	parse("1,234.56") == parse("1234.56") == 1234.56
//	parse("1.234,56") == 1234.56
//	parse("10k")       == 10000
//	parse("2.5m")      == 2_500_000
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ToLower(s)

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "b"):
		multiplier = 1_000_000_000
		s = strings.TrimSuffix(s, "b")
	}

	s = nonAmountCharsRe.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}

	s = normalizeDecimalSeparator(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	v *= multiplier
	if v < 0 {
		return 0
	}
	return v
}

// normalizeDecimalSeparator decides whether '.' or ',' is the decimal
// point and strips the other as a thousands separator.
//
//   - Only commas present  -> comma is decimal iff exactly one comma and
//     it has 1-2 trailing digits (e.g. "1234,56"); otherwise thousands.
//   - Only dots present    -> symmetric rule.
//   - Both present         -> whichever appears LAST is the decimal
//     separator; the other is stripped as a thousands separator.
func normalizeDecimalSeparator(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	if hasComma && hasDot {
		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		if lastComma > lastDot {
			// European: dots are thousands, comma is decimal.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// US: commas are thousands, dot is decimal.
			s = strings.ReplaceAll(s, ",", "")
		}
		return s
	}

	if hasComma && !hasDot {
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			return strings.Join(parts, ".")
		}
		return strings.ReplaceAll(s, ",", "")
	}

	// Only dots, or neither: dots already behave like decimal points in
	// Go's ParseFloat unless there are multiple (thousands-grouped with
	// dots and no decimal, e.g. "1.234.567").
	if strings.Count(s, ".") > 1 {
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// Normalize coerces a slice of loosely-parsed entries into the
// canonical schema: defaults the timestamp, and sorts ascending by
// rank. It does not assign ranks to zero-rank entries — that is a
// strategy-specific decision made before normalization runs.
func Normalize(entries []model.Entry, extractedAt time.Time) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].Username == "" {
			out[i].Username = model.HiddenUsername
		}
		if out[i].Wager < 0 {
			out[i].Wager = 0
		}
		if out[i].Prize < 0 {
			out[i].Prize = 0
		}
		if out[i].ExtractedAt.IsZero() {
			out[i].ExtractedAt = extractedAt
		}
		if out[i].LeaderboardType == "" {
			out[i].LeaderboardType = model.LeaderboardCurrent
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank < out[j].Rank
	})
	return out
}
