package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/use-agent/leaderboard-scout/internal/breaker"
	"github.com/use-agent/leaderboard-scout/internal/browserdrv"
	"github.com/use-agent/leaderboard-scout/internal/bypass"
	"github.com/use-agent/leaderboard-scout/internal/collector"
	"github.com/use-agent/leaderboard-scout/internal/config"
	"github.com/use-agent/leaderboard-scout/internal/keywords"
	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/navigator"
	"github.com/use-agent/leaderboard-scout/internal/orchestrator"
	"github.com/use-agent/leaderboard-scout/internal/snapshot"
	"github.com/use-agent/leaderboard-scout/internal/store/postgres"
	"github.com/use-agent/leaderboard-scout/internal/teacher"
	"github.com/use-agent/leaderboard-scout/internal/ui"
	"github.com/use-agent/leaderboard-scout/internal/webhook"
)

// runtime bundles every long-lived collaborator a CLI invocation needs,
// torn down in reverse-acquisition order by Close.
type runtime struct {
	cfg        *config.Config
	driver     *browserdrv.Driver
	breaker    *breaker.Breaker
	navMemory  *navigator.Memory
	keywords   *keywords.Cache
	snapshots  *snapshot.Writer
	store      *postgres.Store
	orch       *orchestrator.Orchestrator
	siteNames  map[string]struct{}
}

// initLogger configures slog identically in shape to the teacher's own
// initLogger: JSON by default, text when configured, level from string.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newRuntime loads configuration, launches the browser, and wires every
// ambient collaborator the Orchestrator depends on.
func newRuntime(keywordsPath string, production bool) (*runtime, error) {
	cfg := config.Load()
	initLogger(cfg.Log)

	if production {
		cfg.Browser.Headless = true
	}

	kw, err := keywords.Load(keywordsPath)
	if err != nil {
		return nil, fatalError("load keyword cache: %v", err)
	}

	siteNames := make(map[string]struct{}, len(cfg.Site.SiteNames))
	for _, n := range cfg.Site.SiteNames {
		siteNames[n] = struct{}{}
	}

	driver, err := browserdrv.New(cfg.Browser, cfg.Site)
	if err != nil {
		return nil, fatalError("launch browser: %v", err)
	}

	br := breaker.New(cfg.Breaker.Threshold, cfg.Breaker.Window)
	navMemory := navigator.NewMemory(navigator.DefaultMemoryTTL)

	snaps, err := snapshot.New("results", 0)
	if err != nil {
		driver.Close()
		br.Stop()
		navMemory.Stop()
		return nil, fatalError("create snapshot writer: %v", err)
	}

	var store *postgres.Store
	if cfg.Postgres.DSN != "" {
		store, err = postgres.Connect(context.Background(), cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			slog.Warn("postgres unavailable, continuing with snapshot-only persistence", "error", err)
			store = nil
		} else if err := store.InitSchema(context.Background()); err != nil {
			slog.Warn("postgres schema init failed, continuing with snapshot-only persistence", "error", err)
			store.Close()
			store = nil
		}
	}

	var evaluator orchestrator.Evaluator
	if cfg.Teacher.Enabled {
		evaluator = teacher.New(http.DefaultClient, cfg.Teacher.APIKey, cfg.Teacher.Model, cfg.Teacher.Endpoint)
	}

	deps := orchestrator.Deps{
		Breaker:          br,
		Collector:        collector.New(),
		UISelectors:      ui.DefaultSelectors(),
		ChallengeHandler: bypass.New(),
		Keywords:         kw.List(),
		SiteNames:        siteNames,
		SiteTimeout:      cfg.Site.SiteTimeout,
		Retry: orchestrator.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
		},
		Teacher:     evaluator,
		AcquirePage: driver.AcquirePage,
		NavMemory:   navMemory,
	}

	return &runtime{
		cfg:       cfg,
		driver:    driver,
		breaker:   br,
		navMemory: navMemory,
		keywords:  kw,
		snapshots: snaps,
		store:     store,
		orch:      orchestrator.New(deps),
		siteNames: siteNames,
	}, nil
}

// persist writes a completed run to every configured sink: the
// current-snapshot file, Postgres (if reachable), and the webhook (if
// configured) — mirroring the teacher's webhook.DeliverAsync firing
// once a scrape result is ready.
func (rt *runtime) persist(run model.SiteRun) {
	if err := rt.snapshots.WriteCurrent(run); err != nil {
		slog.Error("snapshot write failed", "domain", run.Domain, "error", err)
	}

	if rt.store != nil {
		if err := rt.store.SaveSiteRun(context.Background(), run); err != nil {
			slog.Error("postgres save failed", "domain", run.Domain, "error", err)
		}
	}

	if rt.cfg.Webhook.URL != "" {
		event := webhook.EventForRun(run, run.CompletedAt.Unix())
		webhook.DeliverAsync(rt.cfg.Webhook.URL, rt.cfg.Webhook.Secret, event, rt.cfg.Webhook.MaxRetries)
	}
}

// Close tears down every long-lived collaborator. Safe to call once
// per runtime.
func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
	rt.snapshots.Close()
	rt.navMemory.Stop()
	rt.breaker.Stop()
	rt.driver.Close()
}
