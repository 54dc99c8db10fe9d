// Package orchestrator implements the Orchestrator (C11): the
// per-site state machine that drives a positioned page through
// discovery, per-leaderboard navigation/readiness/collection/
// extraction, and circuit-breaker bookkeeping, per spec.md §4.11.
//
// The staged-escalation shape mirrors engine/dispatcher.go's
// domain-memory-first-then-race Dispatcher, generalized from "race N
// fetch strategies for one page" to "run N extraction strategies
// across the leaderboards a single positioned page holds, in a
// sequence respecting the single-active-page constraint".
package orchestrator

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/use-agent/leaderboard-scout/internal/breaker"
	"github.com/use-agent/leaderboard-scout/internal/collector"
	"github.com/use-agent/leaderboard-scout/internal/discovery"
	"github.com/use-agent/leaderboard-scout/internal/fusion"
	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/navigator"
	"github.com/use-agent/leaderboard-scout/internal/ui"
)

// DefaultSiteTimeout is SITE_TIMEOUT_MS from spec.md §4.11: the hard
// ceiling on one site's entire run, navigation through every
// leaderboard's extraction.
const DefaultSiteTimeout = 5 * time.Minute

// AcquirePageFunc obtains a browser page and its network buffer for
// one site visit, and returns a release function the Orchestrator
// calls unconditionally once the run ends. The browser driver (the
// go-rod/stealth adapter) owns hijacking responses into buf via the
// Network Tap before handing the page back.
type AcquirePageFunc func(ctx context.Context, domain string) (page *rod.Page, buf *model.NetworkBuffer, release func(), err error)

// Deps wires the Orchestrator to its collaborators. Every field has a
// workable zero value except AcquirePage, which the caller must
// supply — the Orchestrator never creates a browser session itself.
type Deps struct {
	Breaker          *breaker.Breaker
	Collector        *collector.Collector
	UISelectors      ui.Selectors
	ChallengeHandler navigator.ChallengeHandler
	Keywords         []string
	SiteNames        map[string]struct{}
	SiteTimeout      time.Duration
	Retry            RetryConfig
	Sleep            func(time.Duration)
	Now              func() time.Time
	GenerateID       func() string
	Teacher          Evaluator
	AcquirePage      AcquirePageFunc
	NavMemory        *navigator.Memory
}

func (d Deps) withDefaults() Deps {
	if d.Collector == nil {
		d.Collector = collector.New()
	}
	if d.UISelectors.RowContainer == "" {
		d.UISelectors = ui.DefaultSelectors()
	}
	if d.SiteTimeout <= 0 {
		d.SiteTimeout = DefaultSiteTimeout
	}
	if d.Retry == (RetryConfig{}) {
		d.Retry = DefaultRetryConfig()
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.GenerateID == nil {
		d.GenerateID = func() string { return uuid.NewString() }
	}
	return d
}

// Orchestrator runs the per-site extraction state machine.
type Orchestrator struct {
	deps Deps
}

// New builds an Orchestrator, filling in zero-valued Deps with the
// package defaults.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps.withDefaults()}
}

var errDiscoveryEmpty = errors.New("orchestrator: no leaderboard candidates discovered")

// RunSite executes the full INIT -> ... -> DONE state machine for one
// domain and returns its SiteRun, never panicking and never blocking
// past deps.SiteTimeout.
func (o *Orchestrator) RunSite(ctx context.Context, domain, baseURL string, profile *model.SiteProfile) model.SiteRun {
	d := o.deps
	run := model.SiteRun{Domain: domain, ExtractionID: d.GenerateID(), StartedAt: d.Now()}

	if d.Breaker != nil && !d.Breaker.Allow(domain) {
		run.Errors = append(run.Errors, model.ErrKindCircuitOpen+": breaker open for "+domain)
		run.CompletedAt = d.Now()
		return run
	}

	siteCtx, cancel := context.WithTimeout(ctx, d.SiteTimeout)
	defer cancel()

	resultCh := make(chan model.SiteRun, 1)
	go func() {
		resultCh <- o.runSiteBody(siteCtx, domain, baseURL, profile, run)
	}()

	select {
	case finished := <-resultCh:
		return finished
	case <-siteCtx.Done():
		run.TimedOut = true
		run.Errors = append(run.Errors, model.ErrKindTimeout+": site exceeded "+d.SiteTimeout.String())
		run.CompletedAt = d.Now()
		if d.Breaker != nil {
			d.Breaker.RecordFailure(domain)
		}
		return run
	}
}

// runSiteBody is INIT through the per-leaderboard loop: it acquires a
// page, positions it, discovers leaderboards, and runs each one in
// discovery order (default-view leaderboards precede switcher-
// navigated ones, per spec.md §5's ordering guarantee, since Discovery
// always appends LeaderboardURLs before Switchers).
func (o *Orchestrator) runSiteBody(ctx context.Context, domain, baseURL string, profile *model.SiteProfile, run model.SiteRun) model.SiteRun {
	d := o.deps

	page, buf, release, err := d.AcquirePage(ctx, domain)
	if err != nil {
		run.Errors = append(run.Errors, model.ErrKindInternal+": acquire page: "+err.Error())
		return o.finish(domain, run)
	}
	defer release()

	if err := navigator.Position(ctx, page, baseURL, profile, d.ChallengeHandler, d.NavMemory); err != nil {
		run.Errors = append(run.Errors, model.ErrKindNavigation+": "+err.Error())
		return o.finish(domain, run)
	}

	var disc discovery.Result
	discErr := withRetry(func() error {
		disc = o.discover(page, profile)
		if len(disc.LeaderboardURLs) == 0 && len(disc.Switchers) == 0 {
			return errDiscoveryEmpty
		}
		return nil
	}, d.Retry, d.Sleep)

	if discErr != nil {
		run.Errors = append(run.Errors, model.ErrKindDiscoveryEmpty+": no leaderboards discovered for "+domain)
		return o.finish(domain, run)
	}

	candidates := discovery.MergeProfileKnown(disc.ToCandidates(), profile)
	run.Metadata.LeaderboardsDiscovered = len(candidates)

	for i, cand := range candidates {
		result, err := o.runLeaderboard(ctx, page, buf, baseURL, cand, i, run.ExtractionID, profile, &run.Metadata)
		if err != nil {
			run.Errors = append(run.Errors, err.Error())
			continue
		}
		run.Results = append(run.Results, *result)
		run.Metadata.LeaderboardsScraped++
		run.Warnings = append(run.Warnings, result.Warnings...)
	}

	return o.finish(domain, run)
}

// discover runs the DISC stage against the page's currently-rendered
// HTML. Candidate-path fetching (spec.md §4.4's "/", "/leaderboard",
// "/leaderboards" scan) is simplified to the page the Navigator just
// positioned: re-navigating to the other candidate paths here would
// risk losing that position for a scan that, in practice, only needs
// the nav/header region already on screen.
func (o *Orchestrator) discover(page *rod.Page, profile *model.SiteProfile) discovery.Result {
	current := navigator.CurrentURL(page)
	html, err := page.HTML()
	if err != nil {
		html = ""
	}
	pages := map[string]string{pathOf(current): html}
	return discovery.Discover(current, pages, o.deps.Keywords, profile)
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// finish is the DONE stage: stamp completion time and record the
// circuit breaker outcome — success iff the run produced at least one
// result, per spec.md §4.11.
func (o *Orchestrator) finish(domain string, run model.SiteRun) model.SiteRun {
	run.CompletedAt = o.deps.Now()
	if o.deps.Breaker != nil {
		if len(run.Results) > 0 {
			o.deps.Breaker.RecordSuccess(domain)
		} else {
			o.deps.Breaker.RecordFailure(domain)
		}
	}
	return run
}

// runLeaderboard drives one candidate through TO_L, READY, COLL, and
// EXTR. index is the candidate's position in discovery order, used
// only to decide whether the network buffer carries over from the
// default view.
func (o *Orchestrator) runLeaderboard(ctx context.Context, page *rod.Page, buf *model.NetworkBuffer, baseURL string, cand model.LeaderboardCandidate, index int, extractionID string, profile *model.SiteProfile, meta *model.Metadata) (*model.Result, error) {
	d := o.deps

	if shouldClearBuffer(index, cand.Method) {
		buf.Clear()
	}

	prevURL := navigator.CurrentURL(page)
	if err := dispatchLeaderboard(ctx, page, baseURL, cand, prevURL); err != nil {
		return nil, model.NewPipelineError(model.ErrKindInteraction, "could not reach leaderboard "+leaderboardName(cand), err)
	}

	// READY
	_ = ui.SelectMaxRowsPerPage(page, d.UISelectors)
	_ = ui.WaitForLeaderboardReady(page, d.UISelectors)
	clickShowMoreRepeatedly(page)

	// COLL
	out, err := d.Collector.Collect(page, baseURL, buf, collector.Config{
		ScrollUntilStable: true,
		CaptureScreenshot: d.Teacher != nil,
	})
	if err != nil {
		return nil, model.NewPipelineError(model.ErrKindCollection, "collection failed for "+leaderboardName(cand), err)
	}

	// EXTR
	sources := runStrategies(page, out)
	for src := range sources {
		meta.AddStrategyUsed(string(src))
	}

	if len(sources) == 0 {
		return o.fallbackToTeacher(ctx, cand, profile, out, extractionID, pageResultURL(cand, page), d.Now())
	}

	report := fusion.Fuse(sources)
	entries := sources[report.RecommendedSource]
	source := report.RecommendedSource
	if len(sources) > 1 {
		source = model.SourceFused
	}

	if len(entries) < 2 {
		return o.fallbackToTeacher(ctx, cand, profile, out, extractionID, pageResultURL(cand, page), d.Now())
	}

	result := buildResult(cand, pageResultURL(cand, page), extractionID, entries, source, report, len(sources) > 1, d.Now(), d.SiteNames)
	return &result, nil
}

// fallbackToTeacher invokes the optional vision evaluator when every
// strategy came back empty or under the 2-entry minimum, consuming
// one unit of the site profile's teacher retry budget. With no
// evaluator configured, or the budget exhausted, or the evaluator
// itself failing to find enough rows, this reports EXTRACTION_EMPTY.
func (o *Orchestrator) fallbackToTeacher(ctx context.Context, cand model.LeaderboardCandidate, profile *model.SiteProfile, out collector.Output, extractionID, resultURL string, now time.Time) (*model.Result, error) {
	empty := model.NewPipelineError(model.ErrKindExtractionEmpty, "no strategy extracted enough entries for "+leaderboardName(cand), nil)

	if o.deps.Teacher == nil || profile == nil || !profile.RetryBudgetRemaining() {
		return nil, empty
	}

	profile.ConsumeTeacherRetry()
	entries, err := o.deps.Teacher.Evaluate(ctx, out.Screenshot, leaderboardName(cand))
	if err != nil || len(entries) < 2 {
		return nil, empty
	}

	result := buildResult(cand, resultURL, extractionID, entries, model.SourceTeacher, fusion.Report{OverallAgreement: 1}, false, now, o.deps.SiteNames)
	return &result, nil
}

// shouldClearBuffer decides whether the network buffer carries over
// from the previous leaderboard. The default view's pre-loaded API
// response is only worth keeping if this leaderboard is reached by
// clicking a switcher on the page Discovery already rendered (index
// 0, switcher-click) — any other method implies a fresh navigation,
// so stale buffered responses must not leak into the new leaderboard.
func shouldClearBuffer(index int, method model.LeaderboardMethod) bool {
	return !(index == 0 && method == model.MethodSwitcherClick)
}

func pageResultURL(cand model.LeaderboardCandidate, page *rod.Page) string {
	if cand.URL != "" {
		return cand.URL
	}
	return navigator.CurrentURL(page)
}
