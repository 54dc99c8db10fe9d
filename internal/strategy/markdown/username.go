// Package markdown implements the Markdown Strategy (C6b): four
// sub-parsers (table, podium, list, header) run against the Page
// Collector's noise-stripped Markdown projection and are merged with
// priority header > podium > table > list, per spec.md §4.6.2.
//
// Parsing plain-text projections with several cooperating regex-driven
// passes is the same shape as cleaner/pruning.go's density-scoring
// walk over blocks; here the "block" is a Markdown line or a labeled
// group of lines instead of a DOM node.
package markdown

import (
	"regexp"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/textrules"
)

var (
	headingMarkerRe = regexp.MustCompile(`^#{1,6}\s*`)
	boldRe          = regexp.MustCompile(`^\*\*(.*)\*\*$`)
	italicUnderRe   = regexp.MustCompile(`^_(.*)_$`)
	codeRe          = regexp.MustCompile(`^` + "`" + `(.*)` + "`" + `$`)
	linkImageRe     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	rankPrefixRe    = regexp.MustCompile(`^#?\d+\s*[.)]?\s*(?:st|nd|rd|th)?\s*`)
	quoteOnlyRe     = regexp.MustCompile(`^>+\s*$`)
)

// cleanMarkdownUsername strips heading/bold/italic/code markers only
// when they form a balanced pair, preserves trailing asterisks
// (censorship), unescapes backslashes, drops leading rank markers and
// markdown link/image wrappers, and maps empty/quote-only text to the
// hidden sentinel.
func cleanMarkdownUsername(raw string) string {
	s := strings.TrimSpace(raw)
	s = headingMarkerRe.ReplaceAllString(s, "")
	s = rankPrefixRe.ReplaceAllString(s, "")

	if m := boldRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if m := italicUnderRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if m := codeRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	s = linkImageRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, `\`, "")
	s = strings.TrimSpace(s)

	if s == "" || quoteOnlyRe.MatchString(raw) {
		return textrules.HiddenSentinel
	}

	return s
}

// isAcceptableUsername applies the Markdown strategy's acceptance
// rule: email-shaped strings rejected, single alphanumeric characters
// accepted, UI text rejected unless censored.
func isAcceptableUsername(s string) bool {
	return textrules.IsValidUsername(s)
}
