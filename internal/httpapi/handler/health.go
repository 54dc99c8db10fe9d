package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Stats is the browser driver's pool utilization, reported verbatim in
// the health payload.
type Stats struct {
	MaxPages    int `json:"maxPages"`
	ActivePages int `json:"activePages"`
}

// StatsProvider is the browser driver's pool-stats collaborator,
// defined locally so this package never imports internal/browserdrv.
type StatsProvider interface {
	Stats() Stats
}

type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	PoolStats Stats  `json:"poolStats"`
	Version   string `json:"version"`
}

// Version is stamped at build time; "dev" otherwise.
var Version = "dev"

// Health returns a handler for GET /api/v1/health. It reports pool
// utilization and degrades status when more than 80% of pages are
// active.
func Health(stats StatsProvider, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := stats.Stats()

		status := "healthy"
		if s.MaxPages > 0 && s.ActivePages > int(float64(s.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, healthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: s,
			Version:   Version,
		})
	}
}
