package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// BreakerState is the circuit breaker's read-side collaborator, defined
// locally so this package never imports internal/breaker directly.
type BreakerState interface {
	Domains() []string
	State(domain string) (failureCount int, lastFailureAt time.Time)
}

type domainStatus struct {
	Domain        string    `json:"domain"`
	FailureCount  int       `json:"failureCount"`
	LastFailureAt time.Time `json:"lastFailureAt,omitempty"`
	Open          bool      `json:"open"`
}

// Breaker returns a handler for GET /api/v1/breaker, listing the
// circuit breaker's current state for every domain it has seen. A
// domain is reported open when its failure count has reached threshold
// and the window has not yet elapsed since its last failure, mirroring
// Breaker.Allow's own logic.
func Breaker(b BreakerState, threshold int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		domains := b.Domains()
		out := make([]domainStatus, 0, len(domains))
		for _, d := range domains {
			count, lastFailure := b.State(d)
			open := count >= threshold && time.Since(lastFailure) < window
			out = append(out, domainStatus{
				Domain:        d,
				FailureCount:  count,
				LastFailureAt: lastFailure,
				Open:          open,
			})
		}
		c.JSON(http.StatusOK, gin.H{"domains": out})
	}
}
