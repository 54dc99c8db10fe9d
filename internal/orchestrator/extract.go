package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/leaderboard-scout/internal/collector"
	"github.com/use-agent/leaderboard-scout/internal/fusion"
	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/normalize"
	"github.com/use-agent/leaderboard-scout/internal/sanitize"
	apistrategy "github.com/use-agent/leaderboard-scout/internal/strategy/api"
	domstrategy "github.com/use-agent/leaderboard-scout/internal/strategy/dom"
	geometricstrategy "github.com/use-agent/leaderboard-scout/internal/strategy/geometric"
	markdownstrategy "github.com/use-agent/leaderboard-scout/internal/strategy/markdown"
	"github.com/use-agent/leaderboard-scout/internal/validate"
)

// Evaluator is the optional vision-based fallback (teacher evaluator):
// invoked only when every extraction strategy came back empty (or
// under the 2-entry minimum) and the site profile still has retry
// budget left.
type Evaluator interface {
	Evaluate(ctx context.Context, screenshot []byte, leaderboardName string) ([]model.Entry, error)
}

// columnOrderHintRe flags a Markdown table header row where a
// prize/reward column precedes the wager column, the signal the
// Markdown list parser needs to disambiguate unlabeled amounts.
var columnOrderHintRe = regexp.MustCompile(`(?i)\|[^|\n]*\b(prize|reward)\b[^|\n]*\|[^|\n]*\bwager`)

func detectColumnOrderHint(markdownText string) bool {
	return columnOrderHintRe.MatchString(markdownText)
}

// runStrategies is the EXTR stage's fan-out: API always runs against
// the buffered JSON; Markdown/DOM (pure, string-based) and Geometric
// (the one strategy still touching the live page) run concurrently,
// per spec.md §5's "non-browser strategies may run in parallel tasks"
// allowance.
func runStrategies(page *rod.Page, out collector.Output) fusion.SourceEntries {
	sources := fusion.SourceEntries{}

	apiEntries := apistrategy.Extract(out.RawJSONResponses, pageFetcher{page: page})
	if len(apiEntries) > 0 {
		sources[model.SourceAPI] = apiEntries
	}

	hint := detectColumnOrderHint(out.Markdown)

	var mdEntries, domEntries, geoEntries []model.Entry
	var g errgroup.Group
	g.Go(func() error {
		mdEntries = markdownstrategy.Extract(out.Markdown, hint)
		return nil
	})
	g.Go(func() error {
		domEntries = domstrategy.Extract(out.HTML, "")
		return nil
	})
	g.Go(func() error {
		blocks, width := measureVisibleBlocks(page)
		geoEntries = geometricstrategy.Extract(blocks, width)
		return nil
	})
	_ = g.Wait()

	if len(mdEntries) > 0 {
		sources[model.SourceMarkdown] = mdEntries
	}
	if len(domEntries) > 0 {
		sources[model.SourceDOM] = domEntries
	}
	if len(geoEntries) > 0 {
		sources[model.SourceGeometric] = geoEntries
	}
	return sources
}

// buildResult runs Fusion, Sanitization, Normalization, and Validation
// over a set of candidate entries and assembles the canonical Result,
// per spec.md §4.11's EXTR stage.
func buildResult(cand model.LeaderboardCandidate, resultURL, extractionID string, entries []model.Entry, source model.Source, report fusion.Report, fusionRan bool, now time.Time, siteNames map[string]struct{}) model.Result {
	kept, _ := sanitize.Sanitize(entries, sanitize.Options{SiteNames: siteNames})
	normalized := normalize.Normalize(kept, now)

	result := model.Result{
		ExtractionID: extractionID,
		Name:         leaderboardName(cand),
		URL:          resultURL,
		Type:         leaderboardType(cand),
		Source:       source,
		Entries:      normalized,
		ScrapedAt:    now,
	}
	result.Totals()

	baseConfidence := 70 + report.ConfidenceAdjust
	if baseConfidence > 100 {
		baseConfidence = 100
	}
	if baseConfidence < 0 {
		baseConfidence = 0
	}
	result.Confidence = baseConfidence

	validation, adjusted := validate.Validate(result, validate.Options{
		MinRows:          2,
		OverallAgreement: report.OverallAgreement,
		FusionRan:        fusionRan,
	})
	result.Validation = validation
	result.Confidence = adjusted
	result.Warnings = validate.Warnings(normalized)

	result.ID = result.Name + ":" + extractionID
	return result
}

func leaderboardName(cand model.LeaderboardCandidate) string {
	if cand.Name != "" {
		return cand.Name
	}
	if cand.Switcher != nil && cand.Switcher.Keyword != "" {
		return cand.Switcher.Keyword
	}
	return "default"
}

// historicalMarkers lists the same vocabulary the Navigator and
// Discovery use to recognize a closed/previous leaderboard, applied
// here to a candidate's name/URL to set Result.Type.
var historicalMarkers = []string{"previous", "past", "history", "archive", "last", "old", "ended", "completed"}

func leaderboardType(cand model.LeaderboardCandidate) model.LeaderboardType {
	haystack := strings.ToLower(cand.URL + " " + cand.Name)
	for _, marker := range historicalMarkers {
		if strings.Contains(haystack, marker) {
			return model.LeaderboardPrevious
		}
	}
	return model.LeaderboardCurrent
}
