package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/normalize"
	"github.com/use-agent/leaderboard-scout/internal/textrules"
)

var headerBlockRe = regexp.MustCompile(`^#{3}\s+(.*)$`)
var positionBadgeRe = regexp.MustCompile(`^\d{1,2}$`)
var pointsRe = regexp.MustCompile(`(?i)([\d][\d.,]*)\s*(points?|coins?)`)

const headerLookahead = 8

// parseHeader handles sites whose entries are "### username" blocks:
// for each level-3 heading (after skipping UI-text phrases) it walks
// up to 8 following lines collecting an optional tier, labeled
// Wagered/prize, and "N Points/Coins" fields. A bare 1..10 line
// immediately preceding the heading is treated as a position badge.
func parseHeader(markdownText string) []model.Entry {
	lines := strings.Split(markdownText, "\n")
	var entries []model.Entry
	nextRank := 1

	for i, line := range lines {
		m := headerBlockRe.FindStringSubmatch(strings.TrimRight(line, " "))
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		if textrules.IsUIText(title) {
			continue
		}
		username := cleanMarkdownUsername(title)
		if !isAcceptableUsername(username) {
			continue
		}

		rank := nextRank
		if i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			if positionBadgeRe.MatchString(prev) {
				if n, err := strconv.Atoi(prev); err == nil && n >= 1 && n <= 10 {
					rank = n
				}
			}
		}

		var wager, prize float64
		for j := i + 1; j < len(lines) && j <= i+headerLookahead; j++ {
			l := lines[j]
			if headerBlockRe.MatchString(strings.TrimRight(l, " ")) {
				break
			}
			if m := wageredInlineRe.FindStringSubmatch(l); m != nil {
				wager = normalize.ParseAmount(m[1])
			}
			if m := prizeInlineRe.FindStringSubmatch(l); m != nil {
				prize = normalize.ParseAmount(m[1])
			}
			if m := pointsRe.FindStringSubmatch(l); m != nil && prize == 0 {
				prize = normalize.ParseAmount(m[1])
			}
		}

		entries = append(entries, model.Entry{Rank: rank, Username: username, Wager: wager, Prize: prize})
		nextRank = rank + 1
	}
	return entries
}
