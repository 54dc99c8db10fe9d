package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeBreaker struct {
	domains []string
	states  map[string]struct {
		count int
		last  time.Time
	}
}

func (f fakeBreaker) Domains() []string { return f.domains }

func (f fakeBreaker) State(domain string) (int, time.Time) {
	s := f.states[domain]
	return s.count, s.last
}

func TestBreakerHandlerMarksDomainOpenWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	fb := fakeBreaker{
		domains: []string{"open.example", "closed.example"},
		states: map[string]struct {
			count int
			last  time.Time
		}{
			"open.example":   {count: 3, last: time.Now()},
			"closed.example": {count: 1, last: time.Now()},
		},
	}

	r := gin.New()
	r.GET("/breaker", Breaker(fb, 3, 5*time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/breaker", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body struct {
		Domains []domainStatus `json:"domains"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	byDomain := make(map[string]domainStatus)
	for _, d := range body.Domains {
		byDomain[d.Domain] = d
	}

	if !byDomain["open.example"].Open {
		t.Fatal("expected open.example to be reported open")
	}
	if byDomain["closed.example"].Open {
		t.Fatal("expected closed.example to be reported closed")
	}
}

func TestBreakerHandlerClosesAfterWindowElapses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	fb := fakeBreaker{
		domains: []string{"stale.example"},
		states: map[string]struct {
			count int
			last  time.Time
		}{
			"stale.example": {count: 5, last: time.Now().Add(-10 * time.Minute)},
		},
	}

	r := gin.New()
	r.GET("/breaker", Breaker(fb, 3, 5*time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/breaker", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body struct {
		Domains []domainStatus `json:"domains"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Domains) != 1 || body.Domains[0].Open {
		t.Fatalf("expected stale.example reported closed after window elapsed, got %+v", body.Domains)
	}
}
