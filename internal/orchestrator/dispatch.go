package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/navigator"
	"github.com/use-agent/leaderboard-scout/internal/ui"
)

const navigateTimeout = 15 * time.Second

var (
	errSwitcherNotFound = errors.New("orchestrator: no clickable element matched the switcher keyword")
	errNoLeaderboardURL = errors.New("orchestrator: candidate carries no URL to navigate to")
	errLeaderboardGone  = errors.New("orchestrator: leaderboard URL resolved to a not-found page")
	errUnknownMethod    = errors.New("orchestrator: unrecognized leaderboard candidate method")
)

// dispatchLeaderboard is the TO_L stage: it reaches a candidate
// leaderboard by whichever method Discovery tagged it with, per
// spec.md §4.11's per-leaderboard state machine.
func dispatchLeaderboard(ctx context.Context, page *rod.Page, baseURL string, cand model.LeaderboardCandidate, prevURL string) error {
	switch cand.Method {
	case model.MethodSwitcherClick:
		keyword := cand.Name
		if cand.Switcher != nil && cand.Switcher.Keyword != "" {
			keyword = cand.Switcher.Keyword
		}
		return ui.WithUIRetry(func() error { return clickElementByText(page, keyword) }, 2, 400*time.Millisecond)

	case model.MethodDetectedName:
		clickErr := ui.WithUIRetry(func() error { return clickElementByText(page, cand.Name) }, 2, 400*time.Millisecond)
		if clickErr == nil {
			return nil
		}
		if cand.URL == "" {
			return clickErr
		}
		if err := navigateDirect(ctx, page, cand.URL); err != nil {
			return err
		}
		if pageNotFound(page) {
			_ = navigateDirect(ctx, page, prevURL)
			return errLeaderboardGone
		}
		return nil

	case model.MethodURLNavigation, model.MethodProfileKnown:
		if cand.URL == "" {
			return errNoLeaderboardURL
		}
		if navigator.CurrentURL(page) == cand.URL {
			return nil
		}
		return navigateDirect(ctx, page, cand.URL)

	default:
		return errUnknownMethod
	}
}

// navigateDirect is a plain URL navigation, bounded by ctx and a fixed
// per-navigation timeout, used once a leaderboard's destination URL is
// already known (unlike the Navigator's multi-strategy waterfall,
// which only runs once per site to find the section itself).
func navigateDirect(ctx context.Context, page *rod.Page, target string) error {
	p := page.Context(ctx).Timeout(navigateTimeout)
	if err := p.Navigate(target); err != nil {
		return err
	}
	return p.WaitLoad()
}

// pageNotFound sniffs the rendered title/body for a 404-shaped page,
// used to detect a stale learned URL pattern and restore the prior
// view rather than leave the page stranded off-site.
func pageNotFound(page *rod.Page) bool {
	res, err := page.Timeout(pageActionTimeout).Eval(
		`() => document.title + ' ' + (document.body ? document.body.innerText.slice(0,200) : '')`)
	if err != nil {
		return false
	}
	text := strings.ToLower(res.Value.Str())
	return strings.Contains(text, "404") || strings.Contains(text, "not found") || strings.Contains(text, "page not found")
}

// clickElementByText clicks the first clickable element whose visible
// text contains keyword, case-insensitively — the shared primitive
// behind switcher clicks, detected-name clicks, and Show-More.
func clickElementByText(page *rod.Page, keyword string) error {
	els, err := page.Timeout(pageActionTimeout).Elements(`a, button, [role="tab"], [role="button"]`)
	if err != nil {
		return err
	}
	lower := strings.ToLower(strings.TrimSpace(keyword))
	if lower == "" {
		return errSwitcherNotFound
	}
	for _, el := range els {
		text, _ := el.Text()
		if !strings.Contains(strings.ToLower(text), lower) {
			continue
		}
		if err := el.ScrollIntoView(); err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return nil
		}
	}
	return errSwitcherNotFound
}

const maxShowMoreClicks = 25

// clickShowMoreRepeatedly keeps clicking a "Show More" control until it
// disappears or the hard cap is hit, per spec.md §4.11's READY stage.
func clickShowMoreRepeatedly(page *rod.Page) {
	for i := 0; i < maxShowMoreClicks; i++ {
		if err := clickElementByText(page, "show more"); err != nil {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
