// Package collector implements the Page Collector (C5): full HTML
// capture, a noise-stripped Markdown projection, an optional
// screenshot, and a by-reference snapshot of the page's network
// buffer.
//
// The Markdown conversion pipeline (base + commonmark + table plugins)
// is grounded on cleaner/markdown.go's newMarkdownConverter verbatim;
// the noise-stripping clone is grounded on cleaner/filter.go's
// selector-based removal, generalized from "apply caller-supplied
// include/exclude selectors" to "always strip this fixed noise list
// before conversion".
package collector

import (
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/ui"
)

// maxMarkdownBytes truncates the projected Markdown per spec.md §4.5.
const maxMarkdownBytes = 1 << 20

// noiseSelectors are always removed from the clone used for Markdown
// projection; tables are deliberately not in this list since the
// table plugin renders them as pipes, which is exactly what the
// strategies need.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "footer",
	`[class*="cookie" i]`, `[id*="cookie" i]`,
	`[class*="modal" i]`, `[id*="modal" i]`,
	`[class*="sidebar" i]`, `[id*="sidebar" i]`,
	"svg", "[hidden]",
	`[style*="display:none" i]`, `[style*="display: none" i]`,
}

// Config controls how one Collect call behaves.
type Config struct {
	ScrollUntilStable bool
	FixedScrollSteps  int
	CaptureScreenshot bool
}

// Output is one collection pass's result.
type Output struct {
	HTML             string
	Markdown         string
	RawJSONResponses []model.JSONResponse
	RawJSResponses   []model.JSONResponse
	TextResponses    []model.TextResponse
	Screenshot       []byte
}

const (
	scrollPollInterval = 400 * time.Millisecond
	scrollMaxPolls     = 10
	fixedScrollPause   = 200 * time.Millisecond
)

// Collector owns a reusable, goroutine-safe Markdown converter.
type Collector struct {
	conv *converter.Converter
}

// New builds a Collector with the standard base/commonmark/table
// converter pipeline.
func New() *Collector {
	return &Collector{conv: newMarkdownConverter()}
}

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Collect scrolls (if configured), captures HTML, projects Markdown,
// optionally screenshots, and snapshots the page's network buffer by
// reference (callers must not mutate buf concurrently with this call).
func (c *Collector) Collect(page *rod.Page, baseURL string, buf *model.NetworkBuffer, cfg Config) (Output, error) {
	if cfg.ScrollUntilStable {
		scrollUntilStable(page)
	} else if cfg.FixedScrollSteps > 0 {
		fixedScroll(page, cfg.FixedScrollSteps)
	}

	html, err := page.HTML()
	if err != nil {
		return Output{}, err
	}

	md, mdErr := ToMarkdown(c.conv, html, baseURL)
	if mdErr != nil {
		md = ""
	}

	out := Output{
		HTML:     html,
		Markdown: md,
	}
	if buf != nil {
		out.RawJSONResponses = append([]model.JSONResponse(nil), buf.JSONResponses...)
		out.RawJSResponses = append([]model.JSONResponse(nil), buf.JSResponses...)
		out.TextResponses = append([]model.TextResponse(nil), buf.TextResponses...)
	}

	if cfg.CaptureScreenshot {
		if shot, shotErr := page.Screenshot(true, nil); shotErr == nil {
			out.Screenshot = shot
		}
	}

	return out, nil
}

// ToMarkdown strips noise from html, converts the clone to Markdown
// relative to baseURL, and truncates to maxMarkdownBytes.
func ToMarkdown(conv *converter.Converter, html, baseURL string) (string, error) {
	cleaned := stripNoise(html)
	md, err := conv.ConvertString(cleaned, converter.WithDomain(baseURL))
	if err != nil {
		return "", err
	}
	if len(md) > maxMarkdownBytes {
		md = md[:maxMarkdownBytes]
	}
	return md, nil
}

// stripNoise removes the fixed noise-selector list from a parsed clone
// of html, falling back to the original string if parsing fails.
func stripNoise(htmlText string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return htmlText
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	out, err := doc.Html()
	if err != nil {
		return htmlText
	}
	return out
}

// scrollUntilStable repeatedly scrolls to the bottom of the page and
// polls document.body.scrollHeight until it stops growing (reusing
// the UI Interactor's stability rule: unchanged for 2 of up to 3
// readings), capped at scrollMaxPolls iterations as a hard backstop.
func scrollUntilStable(page *rod.Page) {
	var samples []int
	for i := 0; i < scrollMaxPolls; i++ {
		_, _ = page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		time.Sleep(scrollPollInterval)
		res, err := page.Eval(`() => document.body.scrollHeight`)
		h := 0
		if err == nil {
			h = res.Value.Int()
		}
		samples = append(samples, h)
		if len(samples) >= 2 && ui.RowCountsStable(lastThree(samples)) {
			return
		}
	}
}

func lastThree(samples []int) []int {
	if len(samples) <= 3 {
		return samples
	}
	return samples[len(samples)-3:]
}

// fixedScroll scrolls a fixed number of viewport-height steps.
func fixedScroll(page *rod.Page, steps int) {
	for i := 0; i < steps; i++ {
		_, _ = page.Eval(`() => window.scrollBy(0, window.innerHeight)`)
		time.Sleep(fixedScrollPause)
	}
}
