// Package browserdrv is the go-rod + stealth adapter: it owns the
// browser process and page pool, and turns live CDP traffic into the
// driver-agnostic inputs the rest of the pipeline consumes (the
// Network Tap's RawResponse, the Orchestrator's AcquirePageFunc).
package browserdrv

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/leaderboard-scout/internal/config"
	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/tap"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// Driver manages the browser process and hands out stealth pages, each
// wired to its own Network Tap, to the Orchestrator.
type Driver struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	siteCfg     config.SiteConfig
	activePages atomic.Int32
}

// New launches a headless, stealth-patched browser and initializes the
// reusable page pool.
func New(browserCfg config.BrowserConfig, siteCfg config.SiteConfig) (*Driver, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	pool := rod.NewPagePool(browserCfg.MaxPages)
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)

	return &Driver{browser: browser, pagePool: pool, browserCfg: browserCfg, siteCfg: siteCfg}, nil
}

// Stats reports pool utilization for the monitoring API's health check.
type Stats struct {
	MaxPages    int
	ActivePages int
}

func (d *Driver) Stats() Stats {
	return Stats{MaxPages: d.browserCfg.MaxPages, ActivePages: int(d.activePages.Load())}
}

// Close drains the page pool and kills the browser process.
func (d *Driver) Close() {
	slog.Info("browser driver shutting down: draining page pool")
	d.pagePool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	slog.Info("browser driver shutting down: closing browser")
	d.browser.MustClose()
}

// AcquirePage implements orchestrator.AcquirePageFunc: it leases a
// stealth-patched page from the pool, wires a Network Tap to it via a
// hijack router that observes (and classifies) every response while
// optionally blocking configured resource types, and returns a release
// function that stops the router and returns the page to the pool.
func (d *Driver) AcquirePage(ctx context.Context, domain string) (*rod.Page, *model.NetworkBuffer, func(), error) {
	create := func() *rod.Page {
		page, err := stealth.Page(d.browser)
		if err != nil {
			return d.browser.MustPage()
		}
		return page
	}

	page, err := d.pagePool.Get(create)
	if err != nil {
		return nil, nil, func() {}, err
	}
	d.activePages.Add(1)

	buf := &model.NetworkBuffer{}
	router := setupTapRouter(page, buf, d.siteCfg.BlockedResourceTypes)

	release := func() {
		if router != nil {
			router.Stop()
		}
		d.activePages.Add(-1)
		d.pagePool.Put(page)
	}

	return page, buf, release, nil
}

// setupTapRouter installs a single hijack router that both blocks the
// configured noise resource types and feeds every other response
// through a Network Tap, generalizing scraper/hijack.go's
// block-only router into "block or observe".
func setupTapRouter(page *rod.Page, buf *model.NetworkBuffer, blockedTypes []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}

	t := tap.New(buf)
	router := page.HijackRequests()

	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		if err := ctx.LoadResponse(http.DefaultClient, true); err != nil {
			return
		}

		t.Observe(tap.RawResponse{
			URL:         ctx.Request.URL().String(),
			Method:      ctx.Request.Method(),
			ContentType: ctx.Response.Headers().Get("Content-Type"),
			Body:        []byte(ctx.Response.Body()),
		})
	})

	go router.Run()
	return router
}

// NavigationBudget returns the per-site time budget from siteCfg's
// SiteTimeout, or 5 minutes when it is unset.
func NavigationBudget(siteCfg config.SiteConfig) time.Duration {
	if siteCfg.SiteTimeout <= 0 {
		return 5 * time.Minute
	}
	return siteCfg.SiteTimeout
}
