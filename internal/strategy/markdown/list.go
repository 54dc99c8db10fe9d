package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/normalize"
)

var explicitRankRe = regexp.MustCompile(`^(?:\*\*#\*\*|#)?(\d+)[.)]?\s*(.*)$`)
var bareIntRe = regexp.MustCompile(`^(\d+)\.\.\s*(.*)$`)

// parseList matches explicit rank markers (#N, **#**N, N.) anywhere,
// or bare "N.." markers only sequentially within a challengers-style
// context following the podium. For each rank it collects a username
// and labeled/unlabeled amounts, using columnOrderHint to disambiguate
// wager vs prize when both are unlabeled.
func parseList(markdownText string, columnOrderHint bool) []model.Entry {
	lines := strings.Split(markdownText, "\n")
	var entries []model.Entry
	expectedNext := 4 // sequential bare markers only make sense after a 3-entry podium

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var rank int
		var rest string

		if m := explicitRankRe.FindStringSubmatch(line); m != nil && looksLikeRankMarker(line) {
			rank, _ = strconv.Atoi(m[1])
			rest = m[2]
		} else if m := bareIntRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n != expectedNext {
				continue
			}
			rank = n
			rest = m[2]
			expectedNext++
		} else {
			continue
		}

		username, wager, prize := parseListRemainder(rest, columnOrderHint)
		if username == "" {
			continue
		}
		entries = append(entries, model.Entry{Rank: rank, Username: username, Wager: wager, Prize: prize})
	}
	return entries
}

// looksLikeRankMarker filters out false positives from explicitRankRe
// matching plain sentences that happen to start with a number followed
// by a period, by requiring a "#" prefix or a short trailing remainder
// consistent with a list row (username + amounts).
func looksLikeRankMarker(line string) bool {
	return strings.HasPrefix(line, "#") || strings.Contains(line, "**#**") ||
		regexp.MustCompile(`^\d+[.)]\s+\S`).MatchString(line)
}

var wageredInlineRe = regexp.MustCompile(`(?i)wagered\s*:?\s*([\$€£¥]?[\d][\d.,]*\s*[kKmMbB]?)`)
var prizeInlineRe = regexp.MustCompile(`(?i)prize\s*:?\s*([\$€£¥]?[\d][\d.,]*\s*[kKmMbB]?)`)
var genericAmountRe = regexp.MustCompile(`[\$€£¥]?[\d][\d.,]*\s*[kKmMbB]?`)

func parseListRemainder(rest string, columnOrderHint bool) (username string, wager, prize float64) {
	wagerMatch := wageredInlineRe.FindStringSubmatch(rest)
	prizeMatch := prizeInlineRe.FindStringSubmatch(rest)

	nameField := rest
	if wagerMatch != nil {
		nameField = strings.Replace(nameField, wagerMatch[0], "", 1)
		wager = normalize.ParseAmount(wagerMatch[1])
	}
	if prizeMatch != nil {
		nameField = strings.Replace(nameField, prizeMatch[0], "", 1)
		prize = normalize.ParseAmount(prizeMatch[1])
	}

	// Unlabeled amounts: strip them from the name field, and if neither
	// label matched, use the column-order hint to disambiguate the
	// first two bare amounts found.
	amounts := genericAmountRe.FindAllString(nameField, -1)
	for _, a := range amounts {
		nameField = strings.Replace(nameField, a, "", 1)
	}
	if wagerMatch == nil && prizeMatch == nil && len(amounts) >= 1 {
		if columnOrderHint {
			if len(amounts) >= 1 {
				prize = normalize.ParseAmount(amounts[0])
			}
			if len(amounts) >= 2 {
				wager = normalize.ParseAmount(amounts[1])
			}
		} else {
			if len(amounts) >= 1 {
				wager = normalize.ParseAmount(amounts[0])
			}
			if len(amounts) >= 2 {
				prize = normalize.ParseAmount(amounts[1])
			}
		}
	}

	username = cleanMarkdownUsername(strings.TrimSpace(nameField))
	if !isAcceptableUsername(username) {
		return "", 0, 0
	}
	return username, wager, prize
}
