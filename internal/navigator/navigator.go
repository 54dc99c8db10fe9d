// Package navigator implements the Navigator (C3): it positions a
// page on a site's leaderboard section by trying, in order, a known
// path from the site profile, anchor scanning, SPA-tab clicking, and a
// fixed list of standard paths.
//
// The waterfall shape — try the cheapest known-good option first, then
// escalate — is grounded on engine/dispatcher.go's domain-memory-first
// lookup before falling back to a full race; here the escalation is
// sequential (each step mutates the live page) rather than
// concurrent, since only one navigation can be "current" at a time.
package navigator

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

var historicalMarkerRe = regexp.MustCompile(`(?i)prev-|previous-|past-|history|archive`)
var leaderboardPathRe = regexp.MustCompile(`(?i)/leaderboards?(/|$|\?)`)
var leaderboardAnchorTextRe = regexp.MustCompile(`(?i)leaderboard`)

// StandardPaths are tried, in order, once no profile/anchor/SPA
// strategy has positioned the page.
var StandardPaths = []string{"/leaderboards", "/leaderboard", "/lb", "/rankings"}

const (
	keySelectorWait = 3 * time.Second
	renderGrace     = 500 * time.Millisecond
	networkIdleWait = 2 * time.Second
)

// keyLeaderboardSelector is probed after navigation to confirm the
// page rendered something leaderboard-shaped before declaring success.
const keyLeaderboardSelector = `table, [class*="leaderboard" i]`

// AlreadyPositioned reports whether a URL is already on a (non-
// historical) leaderboard section.
func AlreadyPositioned(currentURL string) bool {
	if !leaderboardPathRe.MatchString(currentURL) {
		return false
	}
	return !historicalMarkerRe.MatchString(currentURL)
}

// AnchorCandidate is one <a> found while scanning nav/header regions.
type AnchorCandidate struct {
	Text string
	Href string
}

// IsHistoricalAnchor reports whether an anchor's text or href carries
// a historical-leaderboard marker.
func IsHistoricalAnchor(a AnchorCandidate) bool {
	return historicalMarkerRe.MatchString(a.Text) || historicalMarkerRe.MatchString(a.Href)
}

// IsLeaderboardAnchor reports whether an anchor's text or href
// mentions "leaderboard".
func IsLeaderboardAnchor(a AnchorCandidate) bool {
	return leaderboardAnchorTextRe.MatchString(a.Text) || leaderboardAnchorTextRe.MatchString(a.Href)
}

// SelectBestAnchor picks the first leaderboard-shaped, non-historical
// anchor; if every leaderboard anchor is historical, it falls back to
// the first leaderboard anchor at all (a historical page still beats
// no anchor, since Discovery can still extract a "previous" result
// from it).
func SelectBestAnchor(anchors []AnchorCandidate) (AnchorCandidate, bool) {
	var fallback AnchorCandidate
	haveFallback := false
	for _, a := range anchors {
		if !IsLeaderboardAnchor(a) {
			continue
		}
		if !IsHistoricalAnchor(a) {
			return a, true
		}
		if !haveFallback {
			fallback, haveFallback = a, true
		}
	}
	return fallback, haveFallback
}

// ResolveURL joins a base URL and a path/href, handling both absolute
// hrefs and site-relative paths.
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// SameDomain reports whether two URLs share a hostname.
func SameDomain(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Hostname(), ub.Hostname())
}

// ChallengeHandler is the bypass collaborator's interface as consumed
// by the Navigator; internal/bypass.Bypass satisfies this structurally.
type ChallengeHandler interface {
	Detect(ctx context.Context, page *rod.Page) (present bool, err error)
	Handle(ctx context.Context, page *rod.Page) error
}

// Position drives a page onto the site's leaderboard section,
// returning *model.NavigationFailed only if every strategy failed.
//
// When mem is non-nil, the method that last succeeded for this domain
// is tried first; a repeat success re-stamps its TTL, and a failure
// forgets it before falling through to the full waterfall.
func Position(ctx context.Context, page *rod.Page, baseURL string, profile *model.SiteProfile, bypassHandler ChallengeHandler, mem *Memory) error {
	domain := hostOf(baseURL)

	current := currentURL(page)
	if current == "" || !SameDomain(current, baseURL) {
		if err := navigateWithBypass(ctx, page, baseURL, bypassHandler); err != nil {
			return &model.NavigationFailed{Reason: "initial navigation failed: " + err.Error()}
		}
		current = currentURL(page)
	}

	if AlreadyPositioned(current) {
		if mem != nil {
			mem.Set(domain, model.MethodURLNavigation, current)
		}
		return nil
	}

	if mem != nil {
		if method, target, ok := mem.Get(domain); ok {
			if method == model.MethodURLNavigation && target != "" {
				if err := navigateWithBypass(ctx, page, target, bypassHandler); err == nil {
					return nil
				}
			} else if method == model.MethodProfileKnown && clickSPALeaderboardElement(page) {
				return nil
			}
			mem.Forget(domain)
		}
	}

	if profile != nil && profile.KnownLeaderboardPath != "" {
		if target, err := ResolveURL(baseURL, profile.KnownLeaderboardPath); err == nil {
			if err := navigateWithBypass(ctx, page, target, bypassHandler); err == nil {
				rememberSuccess(mem, domain, model.MethodProfileKnown, target)
				return nil
			}
		}
	}

	if anchors, err := scanNavAnchors(page); err == nil {
		if best, ok := SelectBestAnchor(anchors); ok {
			target, resolveErr := ResolveURL(baseURL, best.Href)
			if resolveErr == nil {
				if err := navigateWithBypass(ctx, page, target, bypassHandler); err == nil {
					rememberSuccess(mem, domain, model.MethodDetectedName, target)
					return nil
				}
			}
		}
	}

	if clickSPALeaderboardElement(page) {
		rememberSuccess(mem, domain, model.MethodSwitcherClick, "")
		return nil
	}

	for _, path := range StandardPaths {
		target, err := ResolveURL(baseURL, path)
		if err != nil {
			continue
		}
		if err := navigateWithBypass(ctx, page, target, bypassHandler); err == nil {
			rememberSuccess(mem, domain, model.MethodURLNavigation, target)
			return nil
		}
	}

	return &model.NavigationFailed{Reason: "no navigation strategy positioned the page on a leaderboard section"}
}

func rememberSuccess(mem *Memory, domain string, method model.LeaderboardMethod, target string) {
	if mem != nil {
		mem.Set(domain, method, target)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

// navigateWithBypass navigates to url, waits for domcontentloaded and a
// key selector, delegates any detected challenge to bypassHandler, and
// waits for network idle plus a short render grace.
func navigateWithBypass(ctx context.Context, page *rod.Page, target string, bypassHandler ChallengeHandler) error {
	p := page.Context(ctx)
	if err := p.Navigate(target); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}

	_, _ = p.Timeout(keySelectorWait).Element(keyLeaderboardSelector)

	if bypassHandler != nil {
		if present, err := bypassHandler.Detect(ctx, page); err == nil && present {
			_ = bypassHandler.Handle(ctx, page)
		}
	}

	waitIdle := p.Timeout(networkIdleWait).WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	waitIdle()
	time.Sleep(renderGrace)
	return nil
}

func currentURL(page *rod.Page) string {
	res, err := page.Eval(`() => window.location.href`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// CurrentURL exposes currentURL to other packages that need to read a
// page's live location without re-implementing the eval.
func CurrentURL(page *rod.Page) string {
	return currentURL(page)
}

// scanNavAnchors collects every <a> found inside <nav>, <header>, or a
// role=navigation region.
func scanNavAnchors(page *rod.Page) ([]AnchorCandidate, error) {
	els, err := page.Timeout(keySelectorWait).Elements(`nav a, header a, [role="navigation"] a`)
	if err != nil {
		return nil, err
	}
	candidates := make([]AnchorCandidate, 0, len(els))
	for _, el := range els {
		text, _ := el.Text()
		href, _ := el.Attribute("href")
		hrefVal := ""
		if href != nil {
			hrefVal = *href
		}
		candidates = append(candidates, AnchorCandidate{Text: text, Href: hrefVal})
	}
	return candidates, nil
}

// clickSPALeaderboardElement looks for any clickable element whose
// text mentions "leaderboard" outside the nav scan (e.g. a dashboard
// sidebar tab) and clicks the first match.
func clickSPALeaderboardElement(page *rod.Page) bool {
	els, err := page.Timeout(keySelectorWait).Elements(`a, button, [role="tab"], [role="link"]`)
	if err != nil {
		return false
	}
	for _, el := range els {
		text, _ := el.Text()
		if !leaderboardAnchorTextRe.MatchString(text) {
			continue
		}
		if err := el.ScrollIntoView(); err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return true
		}
	}
	return false
}
