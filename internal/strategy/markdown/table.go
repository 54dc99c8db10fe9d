package markdown

import (
	"regexp"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/normalize"
)

var tableSeparatorRe = regexp.MustCompile(`^\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?$`)

var headerFieldRe = regexp.MustCompile(`(?i)^(rank|#|pos|place|player|user|wager(ed)?|amount|prize|reward|bonus|winnings)$`)

type tableField int

const (
	fieldNone tableField = iota
	fieldRank
	fieldUsername
	fieldWager
	fieldPrize
)

// parseTable scans for the first pipe-delimited table and maps its
// rows to entries. It recognizes a header row by matching >= 2 cells
// against the field vocabulary; absent a recognizable header it falls
// back to positional mapping (Rank | Player | Wagered | Prize).
func parseTable(markdownText string) []model.Entry {
	lines := strings.Split(markdownText, "\n")

	for i := 0; i < len(lines); i++ {
		cells := splitRow(lines[i])
		if len(cells) < 2 {
			continue
		}
		// A table needs a following separator row ("---|---").
		if i+1 >= len(lines) || !tableSeparatorRe.MatchString(strings.TrimSpace(lines[i+1])) {
			continue
		}

		fields, isHeader := classifyHeader(cells)
		if !isHeader {
			fields = positionalFields(len(cells))
		}

		var entries []model.Entry
		for j := i + 2; j < len(lines); j++ {
			rowCells := splitRow(lines[j])
			if len(rowCells) < 2 {
				break
			}
			e, ok := mapRow(rowCells, fields)
			if ok {
				entries = append(entries, e)
			}
		}
		if len(entries) > 0 {
			return entries
		}
	}
	return nil
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// classifyHeader maps each column to a field if >= 2 cells match the
// header vocabulary.
func classifyHeader(cells []string) ([]tableField, bool) {
	fields := make([]tableField, len(cells))
	matches := 0
	for i, c := range cells {
		if !headerFieldRe.MatchString(strings.TrimSpace(c)) {
			continue
		}
		matches++
		lower := strings.ToLower(strings.TrimSpace(c))
		switch {
		case lower == "rank" || lower == "#" || lower == "pos" || lower == "place":
			fields[i] = fieldRank
		case lower == "player" || lower == "user":
			fields[i] = fieldUsername
		case strings.HasPrefix(lower, "wager") || lower == "amount":
			fields[i] = fieldWager
		case lower == "prize" || lower == "reward" || lower == "bonus" || lower == "winnings":
			fields[i] = fieldPrize
		}
	}
	return fields, matches >= 2
}

// positionalFields is the fallback column order: Rank | Player | Wagered | Prize.
func positionalFields(n int) []tableField {
	order := []tableField{fieldRank, fieldUsername, fieldWager, fieldPrize}
	fields := make([]tableField, n)
	for i := 0; i < n && i < len(order); i++ {
		fields[i] = order[i]
	}
	return fields
}

func mapRow(cells []string, fields []tableField) (model.Entry, bool) {
	var e model.Entry
	found := false
	for i, cell := range cells {
		if i >= len(fields) {
			break
		}
		switch fields[i] {
		case fieldRank:
			e.Rank = normalize.ParseRank(cell)
			found = true
		case fieldUsername:
			name := cleanMarkdownUsername(cell)
			if !isAcceptableUsername(name) {
				return model.Entry{}, false
			}
			e.Username = name
			found = true
		case fieldWager:
			e.Wager = normalize.ParseAmount(cell)
			found = true
		case fieldPrize:
			e.Prize = normalize.ParseAmount(cell)
			found = true
		}
	}
	return e, found
}
