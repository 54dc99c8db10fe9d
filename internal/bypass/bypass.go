// Package bypass detects and waits out the interstitial
// bot-challenge pages (Cloudflare "Just a moment...", generic
// JS-redirect challenges) that can sit between a navigation and the
// page it targets. It structurally satisfies internal/navigator's
// ChallengeHandler so the Navigator never imports it directly.
package bypass

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// challengeTitleMarkers are substrings of document.title seen on known
// challenge interstitials.
var challengeTitleMarkers = []string{
	"just a moment",
	"attention required",
	"checking your browser",
	"ddos-guard",
	"one moment, please",
}

// pollInterval and maxWait bound how long Handle waits for a challenge
// to clear before giving up and letting the caller proceed anyway —
// the Navigator treats a Handle failure as non-fatal.
const (
	pollInterval = 500 * time.Millisecond
	maxWait      = 20 * time.Second
)

// Bypass waits out interstitial challenge pages via stealth's
// already-patched navigator/webdriver fingerprints; it does not solve
// CAPTCHAs, only outlasts JS-redirect and timer-based checks.
type Bypass struct{}

// New builds a Bypass.
func New() *Bypass {
	return &Bypass{}
}

// Detect reports whether page is currently showing a known
// challenge interstitial, by title.
func (b *Bypass) Detect(ctx context.Context, page *rod.Page) (bool, error) {
	info, err := page.Context(ctx).Info()
	if err != nil {
		return false, err
	}
	title := strings.ToLower(info.Title)
	for _, marker := range challengeTitleMarkers {
		if strings.Contains(title, marker) {
			return true, nil
		}
	}
	return false, nil
}

// Handle polls until the challenge title disappears, the context is
// canceled, or maxWait elapses — whichever comes first.
func (b *Bypass) Handle(ctx context.Context, page *rod.Page) error {
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		present, err := b.Detect(ctx, page)
		if err != nil {
			return err
		}
		if !present {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return nil
}
