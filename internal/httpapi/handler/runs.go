package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// RunStore is the snapshot writer's read-side collaborator, defined
// locally so this package never imports internal/snapshot directly.
type RunStore interface {
	ReadCurrent(domain string) (model.SiteRun, bool, error)
}

// LatestRun returns a handler for GET /api/v1/runs/:domain, the most
// recently completed SiteRun on file for that domain.
func LatestRun(store RunStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain := c.Param("domain")
		run, ok, err := store.ReadCurrent(domain)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, errorBody{Error: "no run on file for " + domain})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

type errorBody struct {
	Error string `json:"error"`
}
