package model

import "net/http"

// CapturedRequest retains a leaderboard-shaped request's method and
// headers for potential replay (paginated API fetch-ahead).
type CapturedRequest struct {
	URL     string
	Method  string
	Headers http.Header
}

// JSONResponse is one captured JSON payload and the probe verdict from
// the Network Tap's "does this look like leaderboard data" heuristic.
type JSONResponse struct {
	URL             string
	Body            string
	LooksLikeBoard  bool
	Type            LeaderboardType
}

// TextResponse is a captured HTML/text payload, retained so strategies
// can scan embedded <script>/JSON-LD blocks.
type TextResponse struct {
	URL  string
	Body string
	Type LeaderboardType
}

// NetworkBuffer is owned by one page session and collects every
// response the Network Tap classified as potentially leaderboard data.
// Scoped Clear() empties the response lists but keeps learned URL
// patterns, since those inform future navigation even after a reset.
type NetworkBuffer struct {
	JSONResponses     []JSONResponse
	JSResponses       []JSONResponse
	TextResponses     []TextResponse
	CapturedURLs      []string
	CapturedRequests  []CapturedRequest

	learnedURLPatterns []string
}

// NewNetworkBuffer returns an empty buffer.
func NewNetworkBuffer() *NetworkBuffer {
	return &NetworkBuffer{}
}

// Clear empties every response list but retains learned URL patterns,
// per spec.md §3's NetworkBuffer ownership rule.
func (b *NetworkBuffer) Clear() {
	b.JSONResponses = nil
	b.JSResponses = nil
	b.TextResponses = nil
	b.CapturedURLs = nil
	b.CapturedRequests = nil
}

// LearnURLPattern records a URL pattern that survives Clear().
func (b *NetworkBuffer) LearnURLPattern(pattern string) {
	for _, p := range b.learnedURLPatterns {
		if p == pattern {
			return
		}
	}
	b.learnedURLPatterns = append(b.learnedURLPatterns, pattern)
}

// LearnedURLPatterns returns the patterns learned so far.
func (b *NetworkBuffer) LearnedURLPatterns() []string {
	return b.learnedURLPatterns
}
