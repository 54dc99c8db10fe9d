// Package httpapi wires gin handlers and middleware into a configured
// Engine for the monitoring/inspection API described by the spec: a
// read-only window onto pool health, circuit breaker state, and the
// latest run per domain.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/leaderboard-scout/internal/config"
	"github.com/use-agent/leaderboard-scout/internal/httpapi/handler"
	"github.com/use-agent/leaderboard-scout/internal/httpapi/middleware"
)

// NewRouter creates a configured Gin engine with all routes and
// middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// /health is intentionally outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, stats handler.StatsProvider, runs handler.RunStore, br handler.BreakerState, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(stats, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.GET("/runs/:domain", handler.LatestRun(runs))
	protected.GET("/breaker", handler.Breaker(br, cfg.Breaker.Threshold, cfg.Breaker.Window))

	return r
}
