// Package discovery implements Discovery (C4): given a page already
// positioned by the Navigator, either short-circuits on a URL-embedded
// keyword or scans a set of already-fetched candidate pages for
// switcher elements — clickable nodes whose text, image alt, image
// filename, data-* attribute, or href segment names a configured
// keyword.
//
// Discovery itself never drives a browser: the caller supplies each
// candidate path's HTML (fetched via the Navigator/Page Collector),
// keeping the scanning logic grounded on cleaner/extract.go's
// goquery-based link/image walk and fully unit-testable against
// static fixtures.
package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// CandidatePaths are scanned, in order, up to three, when no
// URL-embedded keyword short-circuits discovery.
var CandidatePaths = []string{"/", "/leaderboard", "/leaderboards"}

var shortCircuitRe = regexp.MustCompile(`(?i)/leaderboards?/([a-zA-Z0-9_-]+)`)

const dataAttrPrefix = "data-"

// switcherPriority ranks how strongly a given attribute kind signals a
// real leaderboard switcher, used only to break ties when the same
// keyword is found on more than one element.
const (
	priorityHref = 3
	priorityText = 2
	priorityAlt  = 1
)

// Result is Discovery's output for one site: directly-navigable
// leaderboard URLs, clickable switcher candidates, and a learned URL
// template (when a keyword-shaped URL was seen).
type Result struct {
	LeaderboardURLs []string
	Switchers       []model.Switcher
	URLPattern      string
}

// ShortCircuitKeyword extracts a `/leaderboard(s)/<keyword>` segment
// from a URL and reports whether it matches one of the configured
// keywords.
func ShortCircuitKeyword(currentURL string, keywords []string) (string, bool) {
	m := shortCircuitRe.FindStringSubmatch(currentURL)
	if m == nil {
		return "", false
	}
	segment := m[1]
	for _, kw := range keywords {
		if strings.EqualFold(segment, kw) {
			return segment, true
		}
	}
	return "", false
}

// buildURLPattern replaces the matched keyword segment with a
// `{keyword}` placeholder so later runs can reconstruct other
// leaderboards' URLs without rediscovering them.
func buildURLPattern(currentURL, keyword string) string {
	loc := shortCircuitRe.FindStringSubmatchIndex(currentURL)
	if loc == nil {
		return currentURL
	}
	return currentURL[:loc[2]] + "{keyword}" + currentURL[loc[3]:]
}

// Discover runs Discovery for one site. pages maps each scanned
// candidate path to its already-fetched HTML (paths the caller didn't
// fetch are simply absent and skipped).
func Discover(currentURL string, pages map[string]string, keywords []string, profile *model.SiteProfile) Result {
	var res Result

	if kw, ok := ShortCircuitKeyword(currentURL, keywords); ok {
		res.LeaderboardURLs = []string{currentURL}
		res.URLPattern = buildURLPattern(currentURL, kw)
		return mergeProfileKnown(res, profile)
	}

	var all []model.Switcher
	for _, path := range CandidatePaths {
		html, ok := pages[path]
		if !ok {
			continue
		}
		all = append(all, ScanSwitchers(html, currentURL, path, keywords)...)
	}
	res.Switchers = CollapseDuplicates(all)
	return mergeProfileKnown(res, profile)
}

// ScanSwitchers walks html for clickable elements — <a>, <button>,
// role=button, and <img> — whose text, alt, src filename, any data-*
// attribute, or href path segment matches one of the keywords.
func ScanSwitchers(html, baseURL, foundOnPath string, keywords []string) []model.Switcher {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []model.Switcher
	doc.Find(`a, button, [role="button"], img`).Each(func(_ int, s *goquery.Selection) {
		kw, priority, ok := matchSwitcherKeyword(s, baseURL, keywords)
		if !ok {
			return
		}
		out = append(out, model.Switcher{
			Keyword:     kw,
			Priority:    priority,
			FoundOnPath: foundOnPath,
		})
	})
	return out
}

func matchSwitcherKeyword(s *goquery.Selection, baseURL string, keywords []string) (keyword string, priority int, ok bool) {
	text := strings.ToLower(strings.TrimSpace(s.Text()))
	alt, _ := s.Attr("alt")
	alt = strings.ToLower(alt)
	src, _ := s.Attr("src")
	href, _ := s.Attr("href")

	hrefSegment := ""
	if href != "" {
		if resolved, err := resolveHref(baseURL, href); err == nil {
			hrefSegment = strings.ToLower(resolved)
		} else {
			hrefSegment = strings.ToLower(href)
		}
	}
	filename := strings.ToLower(lastPathSegment(src))

	for _, kw := range keywords {
		lkw := strings.ToLower(kw)
		switch {
		case hrefSegment != "" && strings.Contains(hrefSegment, lkw):
			return kw, priorityHref, true
		case text != "" && strings.Contains(text, lkw):
			return kw, priorityText, true
		case alt != "" && strings.Contains(alt, lkw):
			return kw, priorityAlt, true
		case filename != "" && strings.Contains(filename, lkw):
			return kw, priorityAlt, true
		case hasMatchingDataAttr(s, lkw):
			return kw, priorityAlt, true
		}
	}
	return "", 0, false
}

func hasMatchingDataAttr(s *goquery.Selection, keyword string) bool {
	matched := false
	if node := s.Get(0); node != nil {
		for _, attr := range node.Attr {
			if strings.HasPrefix(attr.Key, dataAttrPrefix) && strings.Contains(strings.ToLower(attr.Val), keyword) {
				matched = true
				break
			}
		}
	}
	return matched
}

func resolveHref(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).Path, nil
}

func lastPathSegment(src string) string {
	if src == "" {
		return ""
	}
	src = strings.TrimSuffix(src, "/")
	idx := strings.LastIndex(src, "/")
	if idx == -1 {
		return src
	}
	return src[idx+1:]
}

// CollapseDuplicates collapses switchers sharing a keyword, preferring
// the one with coordinates (a live-page measurement) and, absent that,
// the higher priority.
func CollapseDuplicates(switchers []model.Switcher) []model.Switcher {
	best := make(map[string]model.Switcher)
	order := make([]string, 0, len(switchers))

	for _, s := range switchers {
		key := strings.ToLower(s.Keyword)
		existing, seen := best[key]
		if !seen {
			best[key] = s
			order = append(order, key)
			continue
		}
		if switcherBetter(s, existing) {
			best[key] = s
		}
	}

	out := make([]model.Switcher, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

func switcherBetter(candidate, incumbent model.Switcher) bool {
	if candidate.Coordinates != nil && incumbent.Coordinates == nil {
		return true
	}
	if candidate.Coordinates == nil && incumbent.Coordinates != nil {
		return false
	}
	return candidate.Priority > incumbent.Priority
}

// ToCandidates maps Discovery's output to the canonical
// LeaderboardCandidate list the Orchestrator consumes.
func (r Result) ToCandidates() []model.LeaderboardCandidate {
	out := make([]model.LeaderboardCandidate, 0, len(r.LeaderboardURLs)+len(r.Switchers))
	for _, u := range r.LeaderboardURLs {
		out = append(out, model.LeaderboardCandidate{URL: u, Method: model.MethodURLNavigation})
	}
	for i := range r.Switchers {
		sw := r.Switchers[i]
		out = append(out, model.LeaderboardCandidate{
			Name:     sw.Keyword,
			Method:   model.MethodSwitcherClick,
			Switcher: &sw,
		})
	}
	return out
}

// MergeProfileKnown appends leaderboards the site profile already
// knows about that discovery didn't surface this run, tagged
// profile-known.
func MergeProfileKnown(candidates []model.LeaderboardCandidate, profile *model.SiteProfile) []model.LeaderboardCandidate {
	if profile == nil {
		return candidates
	}
	have := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.URL != "" {
			have[c.URL] = struct{}{}
		}
	}
	for _, kl := range profile.KnownLeaderboards {
		if _, ok := have[kl.URL]; ok {
			continue
		}
		candidates = append(candidates, model.LeaderboardCandidate{
			Name:   kl.Name,
			URL:    kl.URL,
			Method: model.MethodProfileKnown,
		})
	}
	return candidates
}

func mergeProfileKnown(res Result, profile *model.SiteProfile) Result {
	if profile == nil {
		return res
	}
	candidates := MergeProfileKnown(res.ToCandidates(), profile)
	res.LeaderboardURLs = res.LeaderboardURLs[:0]
	for _, c := range candidates {
		if c.Method == model.MethodURLNavigation || c.Method == model.MethodProfileKnown {
			if c.URL != "" {
				res.LeaderboardURLs = append(res.LeaderboardURLs, c.URL)
			}
		}
	}
	return res
}
