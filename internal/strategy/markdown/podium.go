package markdown

import (
	"regexp"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/normalize"
)

var wageredLabelRe = regexp.MustCompile(`(?i)wagered\s*:?\s*(.*)$`)
var prizeLabelRe = regexp.MustCompile(`(?i)prize\s*:?\s*(.*)$`)
var amountTokenRe = regexp.MustCompile(`[\$€£¥]?\s*[\d][\d.,]*\s*[kKmMbB]?`)

const podiumCap = 3
const lookbackLines = 8

// parsePodium finds "Wagered:" labels (inline, or label-then-amount on
// the next lines) and walks back up to 8 lines for the nearest
// plausible username, then forward for an explicit or bare prize.
// Returns at most the top 3 entries found, in document order.
func parsePodium(markdownText string) []model.Entry {
	lines := strings.Split(markdownText, "\n")
	var entries []model.Entry

	for i, line := range lines {
		m := wageredLabelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		wagerText := strings.TrimSpace(m[1])
		if wagerText == "" && i+1 < len(lines) {
			wagerText = amountTokenRe.FindString(lines[i+1])
		}
		if wagerText == "" {
			continue
		}
		wager := normalize.ParseAmount(wagerText)
		if wager == 0 {
			continue
		}

		username := findUsernameLookback(lines, i)
		if username == "" {
			continue
		}

		prize := findPrizeLookahead(lines, i)

		entries = append(entries, model.Entry{
			Rank:     len(entries) + 1,
			Username: username,
			Wager:    wager,
			Prize:    prize,
		})
		if len(entries) >= podiumCap {
			break
		}
	}
	return entries
}

// findUsernameLookback scans up to 8 lines above idx for the nearest
// plausible username line, skipping separators, images, and amounts.
func findUsernameLookback(lines []string, idx int) string {
	for i := idx - 1; i >= 0 && i >= idx-lookbackLines; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate == "" || tableSeparatorRe.MatchString(candidate) {
			continue
		}
		if strings.HasPrefix(candidate, "![") {
			continue
		}
		if amountTokenRe.MatchString(candidate) && len(amountTokenRe.FindString(candidate)) == len(candidate) {
			continue
		}
		cleaned := cleanMarkdownUsername(candidate)
		if isAcceptableUsername(cleaned) {
			return cleaned
		}
	}
	return ""
}

// findPrizeLookahead looks for an explicit "Prize: X" line or a bare
// amount shortly after idx. Bare amounts of 20 or less are always
// rejected as likely rank numbers; no column-order hint, prize icon or
// currency symbol is consulted to keep them.
func findPrizeLookahead(lines []string, idx int) float64 {
	for i := idx + 1; i < len(lines) && i <= idx+lookbackLines; i++ {
		line := lines[i]
		if m := prizeLabelRe.FindStringSubmatch(line); m != nil {
			if v := normalize.ParseAmount(strings.TrimSpace(m[1])); v > 0 {
				return v
			}
		}
		if wageredLabelRe.MatchString(line) {
			// Hit the next entry's wager label first; no prize found.
			break
		}
		if tok := amountTokenRe.FindString(line); tok != "" {
			v := normalize.ParseAmount(tok)
			if v > 0 && v > 20 {
				// Reject values that plausibly look like small rank
				// numbers (<=20).
				return v
			}
		}
	}
	return 0
}
