package markdown

import "github.com/use-agent/leaderboard-scout/internal/model"

// Extract runs all four sub-parsers against the projected Markdown and
// returns the first non-empty result in priority order: header >
// podium > table > list, per spec.md §4.6.2. columnOrderHint signals
// that a table header (or icon) places "Prize"/"Reward" before
// "Wagered", so the list parser should treat the first unlabeled
// amount as prize rather than wager.
func Extract(markdownText string, columnOrderHint bool) []model.Entry {
	if entries := parseHeader(markdownText); len(entries) > 0 {
		return entries
	}
	if entries := parsePodium(markdownText); len(entries) > 0 {
		return entries
	}
	if entries := parseTable(markdownText); len(entries) > 0 {
		return entries
	}
	return parseList(markdownText, columnOrderHint)
}
