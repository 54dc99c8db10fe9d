// Package model holds the canonical data types shared across the
// extraction pipeline: entries, results, site runs, and the small
// value types that flow between components.
package model

import "time"

// LeaderboardType distinguishes the live leaderboard from a closed,
// historical one.
type LeaderboardType string

const (
	LeaderboardCurrent  LeaderboardType = "current"
	LeaderboardPrevious LeaderboardType = "previous"
)

// HiddenUsername is the sentinel used when a row has rank/amounts but
// no visible name (e.g. avatar-only rows).
const HiddenUsername = "[hidden]"

// Entry is the canonical ranked-row record produced by normalization.
// Rank 0 is only valid transiently during parsing; it is forbidden on
// emitted results.
type Entry struct {
	Rank            int             `json:"rank"`
	Username        string          `json:"username"`
	Wager           float64         `json:"wager"`
	Prize           float64         `json:"prize"`
	ExtractedAt     time.Time       `json:"extractedAt"`
	LeaderboardType LeaderboardType `json:"leaderboard_type"`
}

// Source names the strategy or strategy-combination that produced a result.
type Source string

const (
	SourceAPI       Source = "api"
	SourceMarkdown  Source = "markdown"
	SourceDOM       Source = "dom"
	SourceGeometric Source = "geometric"
	SourceFused     Source = "fused"
	SourceTeacher   Source = "teacher"
)

// Validation summarizes the Dataset Validator's verdict for a result.
type Validation struct {
	Valid             bool     `json:"valid"`
	CompletenessOK    bool     `json:"completenessOk"`
	SanityOK          bool     `json:"sanityOk"`
	StrategyAgreeOK   bool     `json:"strategyAgreementOk"`
	ConfidencePenalty int      `json:"confidencePenalty"`
	FirstRankGap      int      `json:"firstRankGap,omitempty"`
	Reasons           []string `json:"reasons,omitempty"`
}

// Result is one leaderboard at one site, after the full pipeline has run.
type Result struct {
	ID             string          `json:"id"`
	ExtractionID   string          `json:"extractionId"`
	Name           string          `json:"name"`
	URL            string          `json:"url"`
	Type           LeaderboardType `json:"type"`
	Source         Source          `json:"source"`
	Entries        []Entry         `json:"entries"`
	Prizes         []float64       `json:"prizes,omitempty"`
	TotalPrizePool float64         `json:"totalPrizePool"`
	TotalWagered   float64         `json:"totalWagered"`
	Confidence     int             `json:"confidence"`
	ScrapedAt      time.Time       `json:"scrapedAt"`
	Validation     Validation      `json:"validation"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// Totals recomputes TotalWagered/TotalPrizePool from Entries/Prizes per
// the invariant in spec.md §3: TotalWagered is always Σ entries.wager;
// TotalPrizePool is Σ prizes if present, else Σ entries.prize.
func (r *Result) Totals() {
	var wagerSum, prizeSum float64
	for _, e := range r.Entries {
		wagerSum += e.Wager
		prizeSum += e.Prize
	}
	r.TotalWagered = wagerSum
	if len(r.Prizes) > 0 {
		var p float64
		for _, v := range r.Prizes {
			p += v
		}
		r.TotalPrizePool = p
	} else {
		r.TotalPrizePool = prizeSum
	}
}

// Metadata summarizes one site run's discovery/scrape counts.
type Metadata struct {
	LeaderboardsDiscovered int      `json:"leaderboardsDiscovered"`
	LeaderboardsScraped    int      `json:"leaderboardsScraped"`
	StrategiesUsed         []string `json:"strategiesUsed"`
}

// AddStrategyUsed appends a strategy name, preserving first-seen order
// and skipping duplicates (per spec.md §5 ordering guarantees).
func (m *Metadata) AddStrategyUsed(name string) {
	for _, s := range m.StrategiesUsed {
		if s == name {
			return
		}
	}
	m.StrategiesUsed = append(m.StrategiesUsed, name)
}

// SiteRun is one scraping pass of one domain, from start to finish.
type SiteRun struct {
	Domain       string     `json:"domain"`
	ExtractionID string     `json:"extractionId"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  time.Time  `json:"completedAt"`
	Results      []Result   `json:"results"`
	Errors       []string   `json:"errors"`
	Warnings     []string   `json:"warnings"`
	Metadata     Metadata   `json:"metadata"`
	TimedOut     bool       `json:"timedOut,omitempty"`
}

// Switcher is a discovered candidate leaderboard handle.
type Switcher struct {
	Keyword      string   `json:"keyword"`
	Coordinates  *Point   `json:"coordinates,omitempty"`
	Priority     int      `json:"priority"`
	FoundOnPath  string   `json:"foundOnPath"`
}

// Point is a 2D pointer position in page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LeaderboardMethod names how a leaderboard is reached once discovered.
type LeaderboardMethod string

const (
	MethodSwitcherClick  LeaderboardMethod = "switcher-click"
	MethodDetectedName   LeaderboardMethod = "detected-name"
	MethodURLNavigation  LeaderboardMethod = "url-navigation"
	MethodProfileKnown   LeaderboardMethod = "profile-known"
)

// LeaderboardCandidate is one leaderboard Discovery found (or inherited
// from a site profile) and the method the Orchestrator should use to
// reach it.
type LeaderboardCandidate struct {
	Name     string
	URL      string
	Method   LeaderboardMethod
	Switcher *Switcher
}
