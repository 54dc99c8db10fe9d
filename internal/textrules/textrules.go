// Package textrules centralizes the username/UI-text classification
// rules shared by the Markdown strategy's cleanMarkdownUsername() and
// the Entry Sanitizer: censored-username detection, UI-text rejection,
// and website-name matching. Keeping one definition avoids the two
// components silently drifting apart on what counts as a username.
package textrules

import (
	"regexp"
	"strings"
	"unicode"
)

// uiPhrases are short strings that are interface labels, not usernames
// (glossary: "UI text"). Matched case-insensitively against the full
// trimmed candidate.
var uiPhrases = map[string]struct{}{
	"show more": {}, "load more": {}, "view all": {}, "show all": {},
	"display all": {}, "next": {}, "previous": {}, "back": {}, "more": {},
	"total wagered": {}, "total wager": {}, "total prize": {}, "total":    {},
	"sum": {}, "average": {}, "prize pool": {}, "grand total": {},
	"volume": {}, "duration": {}, "ending": {}, "remaining": {},
	"participants": {}, "entries": {}, "players": {}, "rank": {}, "place": {},
	"wagered": {}, "wager": {}, "prize": {}, "reward": {}, "bonus": {},
	"winnings": {}, "username": {}, "user": {}, "player": {}, "leaderboard": {},
	"leaderboards": {}, "ranking": {}, "rankings": {}, "standings": {},
	"top players": {}, "wager race": {}, "time left": {}, "time remaining": {},
}

var romanNumeralRe = regexp.MustCompile(`^[ivxlcdm]+$`)
var pureNumberOrCurrencyRe = regexp.MustCompile(`^[\$€£¥]?[\d.,\s]+[kmb%]?$`)
var rankMarkerRe = regexp.MustCompile(`^#?\d+(st|nd|rd|th)?\.?$`)
var timerUnitRe = regexp.MustCompile(`^\d+\s*(d|days?|h|hours?|m|min|minutes?|s|sec|seconds?)\s*(left|remaining)?$`)
var emailLikeRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsUIText reports whether s is an interface label rather than a
// plausible username: known UI phrases, Roman numerals, pure numbers
// or currency, bare rank markers, or timer units.
func IsUIText(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return true
	}
	if _, ok := uiPhrases[t]; ok {
		return true
	}
	if romanNumeralRe.MatchString(t) {
		return true
	}
	if pureNumberOrCurrencyRe.MatchString(t) {
		return true
	}
	if rankMarkerRe.MatchString(t) {
		return true
	}
	if timerUnitRe.MatchString(t) {
		return true
	}
	return false
}

// IsCensored reports whether s is a censored username per the
// glossary: contains >= 2 asterisks, or is <= 4 chars and contains any
// asterisk.
func IsCensored(s string) bool {
	n := strings.Count(s, "*")
	if n >= 2 {
		return true
	}
	if n >= 1 && len(s) <= 4 {
		return true
	}
	return false
}

// letterCount counts Unicode letters (script-agnostic: CJK, Cyrillic,
// Latin, etc. all count — see DESIGN.md Open Question #1).
func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// IsValidUsername reports whether s is acceptable as a username:
// non-empty, not an email address (emails are rejected even when
// censored), not UI text (unless censored), and not a single
// non-alphanumeric-only run. A single-character username is
// accepted if alphanumeric. Strings with < 2 letters are rejected
// unless censored (asterisks present).
func IsValidUsername(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s == HiddenSentinel {
		return true
	}
	if emailLikeRe.MatchString(s) {
		return false
	}
	censored := IsCensored(s)
	if IsUIText(s) && !censored {
		return false
	}
	if letterCount(s) < 2 && !censored {
		// Single-character usernames are accepted if alphanumeric.
		if len(s) == 1 {
			r := []rune(s)[0]
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}
		return false
	}
	return true
}

// HiddenSentinel mirrors model.HiddenUsername without importing model,
// to keep textrules dependency-free of the pipeline's data model.
const HiddenSentinel = "[hidden]"

// websiteNameSuffixRe matches common site-name-as-username shapes like
// "casinoX.com" or "site-official".
var websiteNameSuffixRe = regexp.MustCompile(`(?i)\.(com|net|io|co|bet|casino|gg)$|-official$|^www\.`)

// IsWebsiteName reports whether s exactly matches one of the
// configured site names, or looks like a domain-suffixed handle.
// Email-shaped strings are always skipped (never flagged this way).
func IsWebsiteName(s string, siteNames map[string]struct{}) bool {
	if emailLikeRe.MatchString(s) {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	if _, ok := siteNames[lower]; ok {
		return true
	}
	return websiteNameSuffixRe.MatchString(lower)
}
