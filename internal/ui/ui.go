// Package ui implements the UI Interactor (C2): it maximizes the
// visible row count (native select, custom dropdown, or Show-All
// button), detects leaderboard tabs and pagination controls, and polls
// for readiness before a collection pass begins.
//
// The click/scroll primitives are grounded on scraper/actions.go's
// execClick/execScroll (selector lookup, synthesized mouse events,
// per-action timeout); the retry wrapper is grounded on
// webhook.DeliverAsync's fixed-delay retry loop, generalized from "HTTP
// POST with backoff" to "any page action with backoff".
package ui

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

const (
	readyNetworkIdleTimeout = 2000 * time.Millisecond
	rowPollInterval         = 600 * time.Millisecond
	rowPollMaxAttempts      = 3
	actionTimeout           = 10 * time.Second
)

var (
	showAllRe = regexp.MustCompile(`(?i)show\s*all|view\s*all|^all$`)
	numberRe  = regexp.MustCompile(`\d+`)
)

// showAllScore outranks any numeric option count.
const showAllScore = 1 << 30

func scoreOptionText(text string) int {
	text = strings.TrimSpace(text)
	if showAllRe.MatchString(text) {
		return showAllScore
	}
	if m := numberRe.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return -1
}

// PickLargestOption returns the index of the option text that implies
// the most visible rows: numeric option counts compare directly, and
// any "All"/"Show All" phrasing always outranks a numeric option.
func PickLargestOption(optionTexts []string) (index int, ok bool) {
	best, bestScore := -1, -1
	for i, t := range optionTexts {
		if s := scoreOptionText(t); s > bestScore {
			bestScore, best = s, i
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// RowCountsStable reports whether a row count has converged per
// spec.md §4.2: unchanged for at least 2 of the (up to 3) polls taken.
func RowCountsStable(samples []int) bool {
	if len(samples) < 2 {
		return false
	}
	last := samples[len(samples)-1]
	matches := 0
	for _, s := range samples {
		if s == last {
			matches++
		}
	}
	return matches >= 2
}

// Selectors carries the CSS selectors the UI Interactor probes, with
// sensible cross-site defaults; a site profile can override any of
// them once Discovery has learned the real markup.
type Selectors struct {
	RowsPerPageSelect   string
	RowsPerPageDropdown string
	RowsPerPageOption   string
	ShowAllButton       string
	TabOrButton         string
	PaginationControl   string
	RowContainer        string
}

// DefaultSelectors returns the built-in selector guesses used when a
// site profile hasn't learned anything more specific yet.
func DefaultSelectors() Selectors {
	return Selectors{
		RowsPerPageSelect:   `select[name*="page" i], select[class*="per-page" i], select[id*="page-size" i]`,
		RowsPerPageDropdown: `[class*="page-size" i], [class*="per-page" i], [class*="rows-per-page" i]`,
		RowsPerPageOption:   `[role="option"], li, [class*="option" i]`,
		ShowAllButton:       `button, a`,
		TabOrButton:         `[role="tab"], button, a`,
		PaginationControl:   `[class*="pagination" i], [class*="pager" i], nav[aria-label*="page" i]`,
		RowContainer:        `[class*="entry" i], [class*="row" i], tr, li`,
	}
}

// SelectMaxRowsPerPage tries, in order, a native <select>, a custom
// dropdown, then a Show-All button. Returning nil when no control was
// found is intentional — most leaderboards render everything already.
func SelectMaxRowsPerPage(page *rod.Page, sel Selectors) error {
	if err := selectNativeDropdown(page, sel.RowsPerPageSelect); err == nil {
		return nil
	}
	if err := selectCustomDropdown(page, sel); err == nil {
		return nil
	}
	return clickShowAll(page, sel.ShowAllButton)
}

func selectNativeDropdown(page *rod.Page, selector string) error {
	p := page.Timeout(actionTimeout)
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	opts, err := el.Elements("option")
	if err != nil || len(opts) == 0 {
		return errNoOptions
	}
	texts := make([]string, len(opts))
	for i, o := range opts {
		texts[i], _ = o.Text()
	}
	idx, ok := PickLargestOption(texts)
	if !ok {
		return errNoOptions
	}
	return el.Select([]string{texts[idx]}, true, rod.SelectorTypeText)
}

// selectCustomDropdown opens a non-native dropdown (scroll into view,
// click to expand), waits briefly for the option list to render, then
// clicks the highest-scoring option. If the click-to-select path fails
// it falls back to arrow-key navigation plus Enter.
func selectCustomDropdown(page *rod.Page, sel Selectors) error {
	p := page.Timeout(actionTimeout)
	trigger, err := p.Element(sel.RowsPerPageDropdown)
	if err != nil {
		return err
	}
	if err := trigger.ScrollIntoView(); err != nil {
		return err
	}
	if err := trigger.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)

	opts, err := p.Elements(sel.RowsPerPageOption)
	if err != nil || len(opts) == 0 {
		return errNoOptions
	}
	texts := make([]string, len(opts))
	for i, o := range opts {
		texts[i], _ = o.Text()
	}
	idx, ok := PickLargestOption(texts)
	if !ok {
		return errNoOptions
	}

	if err := opts[idx].Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}

	// Fallback: keyboard navigation from the trigger down to the chosen
	// option, then confirm with Enter.
	for i := 0; i < idx; i++ {
		if err := page.Keyboard.Type(input.ArrowDown); err != nil {
			return err
		}
	}
	return page.Keyboard.Type(input.Enter)
}

func clickShowAll(page *rod.Page, selector string) error {
	p := page.Timeout(actionTimeout)
	candidates, err := p.Elements(selector)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		text, _ := c.Text()
		if showAllRe.MatchString(text) {
			if scrollErr := c.ScrollIntoView(); scrollErr != nil {
				continue
			}
			return c.Click(proto.InputMouseButtonLeft, 1)
		}
	}
	return errNoOptions
}

// DetectLeaderboardTabs finds clickable elements whose visible text
// matches one of the configured keywords — leaderboard section tabs or
// SPA navigation buttons.
func DetectLeaderboardTabs(page *rod.Page, sel Selectors, keywords []string) ([]*rod.Element, error) {
	p := page.Timeout(actionTimeout)
	candidates, err := p.Elements(sel.TabOrButton)
	if err != nil {
		return nil, err
	}
	var matched []*rod.Element
	for _, c := range candidates {
		text, _ := c.Text()
		lower := strings.ToLower(text)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched, nil
}

// DetectPaginationControls finds elements that look like pagination
// bars (next/prev buttons, numbered page links).
func DetectPaginationControls(page *rod.Page, sel Selectors) ([]*rod.Element, error) {
	p := page.Timeout(actionTimeout)
	return p.Elements(sel.PaginationControl)
}

// WaitForLeaderboardReady waits for network idle (bounded to 2s) then
// polls the row container's count until it stabilizes, per spec.md
// §4.2.
func WaitForLeaderboardReady(page *rod.Page, sel Selectors) error {
	waitIdle := page.Timeout(readyNetworkIdleTimeout).WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	waitIdle()

	var samples []int
	for i := 0; i < rowPollMaxAttempts; i++ {
		rows, err := page.Elements(sel.RowContainer)
		count := 0
		if err == nil {
			count = len(rows)
		}
		samples = append(samples, count)
		if RowCountsStable(samples) {
			return nil
		}
		time.Sleep(rowPollInterval)
	}
	return nil
}

// WithUIRetry retries a UI action fn up to attempts times, sleeping
// delay between attempts, returning the last error if every attempt
// fails.
func WithUIRetry(fn func() error, attempts int, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(delay)
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

var errNoOptions = &noOptionsError{}

type noOptionsError struct{}

func (e *noOptionsError) Error() string { return "ui: no matching control found" }
