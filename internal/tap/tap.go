// Package tap implements the Network Tap (C1): it observes every
// response the browser driver hands it, categorizes the body as JSON,
// JS, or text/HTML, and buffers anything that might carry leaderboard
// data for the strategies to consume later.
//
// The interception plumbing is grounded on scraper/hijack.go's
// HijackRequests router, generalized from "block a request" to
// "observe and classify a response"; the <script>/JSON-LD scanning is
// grounded on engine/http_engine.go's extractTitle, which walks the
// same golang.org/x/net/html tokenizer for a single tag instead of a
// script body.
package tap

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// RawResponse is the browser-driver-agnostic shape the Network Tap
// consumes: one completed HTTP exchange's URL, method, headers,
// content type, and body.
type RawResponse struct {
	URL         string
	Method      string
	Headers     http.Header
	ContentType string
	Body        []byte
}

// maxExtractedPerResponse bounds how many embedded JSON candidates a
// single JS or HTML body can contribute, so a pathological page with
// hundreds of inline scripts can't blow up the buffer.
const maxExtractedPerResponse = 5

var (
	leaderboardURLRe = regexp.MustCompile(`(?i)leaderboard|ranking|leaders|api`)
	previousURLRe    = regexp.MustCompile(`(?i)previous|past|history|archive|last|old|ended|completed`)

	windowAssignRe = regexp.MustCompile(`(?s)window\.[A-Za-z0-9_$.]+\s*=\s*(\[.*?\]\s*);`)
	declAssignRe   = regexp.MustCompile(`(?s)(?:let|var|const)\s+[A-Za-z0-9_$]+\s*=\s*(\[.*?\]\s*);`)
	jsonParseRe    = regexp.MustCompile(`(?s)JSON\.parse\(\s*'((?:[^'\\]|\\.)*)'\s*\)`)
	inlineArrayRe  = regexp.MustCompile(`(?s)(\[\s*\{.*?\}\s*\])`)

	leaderboardUsernameKeys = []string{"username", "user", "name", "displayName", "display_name"}
	leaderboardNumberKeys   = []string{"wager", "wagered", "amount", "total", "points", "score", "prize", "reward"}
)

// Tap owns one page session's NetworkBuffer and classifies responses
// into it. It never returns an error and never panics on malformed
// input — a response that doesn't parse is simply dropped, per the
// tap's "never raise into the page session" contract.
type Tap struct {
	buf *model.NetworkBuffer
}

// New wraps a NetworkBuffer for one page session.
func New(buf *model.NetworkBuffer) *Tap {
	return &Tap{buf: buf}
}

// Observe classifies and buffers one response.
func (t *Tap) Observe(r RawResponse) {
	switch {
	case strings.Contains(strings.ToLower(r.ContentType), "json"):
		t.observeJSON(r)
	case strings.Contains(strings.ToLower(r.ContentType), "javascript") || strings.HasSuffix(strings.ToLower(r.URL), ".js"):
		t.observeJS(r)
	default:
		t.observeText(r)
	}
}

func (t *Tap) observeJSON(r RawResponse) {
	if isLeaderboardShapedURL(r.URL) {
		t.buf.CapturedURLs = append(t.buf.CapturedURLs, r.URL)
		t.buf.CapturedRequests = append(t.buf.CapturedRequests, model.CapturedRequest{
			URL:     r.URL,
			Method:  r.Method,
			Headers: r.Headers,
		})
	}

	looksLike := probeLeaderboardJSON(r.Body)
	t.buf.JSONResponses = append(t.buf.JSONResponses, model.JSONResponse{
		URL:            r.URL,
		Body:           string(r.Body),
		LooksLikeBoard: looksLike,
		Type:           classifyCurrentPrevious(r.URL, r.Body),
	})
}

func (t *Tap) observeJS(r RawResponse) {
	for _, candidate := range extractJSArrays(r.Body) {
		if !probeLeaderboardJSON(candidate) {
			continue
		}
		t.buf.JSResponses = append(t.buf.JSResponses, model.JSONResponse{
			URL:            r.URL,
			Body:           string(candidate),
			LooksLikeBoard: true,
			Type:           classifyCurrentPrevious(r.URL, r.Body),
		})
	}
}

func (t *Tap) observeText(r RawResponse) {
	t.buf.TextResponses = append(t.buf.TextResponses, model.TextResponse{
		URL:  r.URL,
		Body: string(r.Body),
		Type: classifyCurrentPrevious(r.URL, r.Body),
	})

	for _, candidate := range extractScriptJSON(r.Body) {
		if !probeLeaderboardJSON(candidate) {
			continue
		}
		t.buf.JSONResponses = append(t.buf.JSONResponses, model.JSONResponse{
			URL:            r.URL,
			Body:           string(candidate),
			LooksLikeBoard: true,
			Type:           classifyCurrentPrevious(r.URL, r.Body),
		})
	}
}

func isLeaderboardShapedURL(url string) bool {
	return leaderboardURLRe.MatchString(url)
}

// classifyCurrentPrevious marks a response current or previous by URL
// substring first, then by a light top-level flag check ("ended":true
// or "status":"completed") if the body parses as a JSON object.
func classifyCurrentPrevious(url string, body []byte) model.LeaderboardType {
	if previousURLRe.MatchString(url) {
		return model.LeaderboardPrevious
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if ended, ok := obj["ended"].(bool); ok && ended {
			return model.LeaderboardPrevious
		}
		if status, ok := obj["status"].(string); ok && strings.EqualFold(status, "completed") {
			return model.LeaderboardPrevious
		}
	}
	return model.LeaderboardCurrent
}

// probeLeaderboardJSON is the "does this look like leaderboard data"
// check from spec.md §4.1: somewhere in the document there must be an
// array of objects where at least one object carries a
// username-shaped key and a numeric field.
func probeLeaderboardJSON(body []byte) bool {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}
	return containsLeaderboardArray(data, 0)
}

const probeMaxDepth = 4

func containsLeaderboardArray(node any, depth int) bool {
	if depth > probeMaxDepth {
		return false
	}
	switch v := node.(type) {
	case []any:
		if arrayLooksLikeLeaderboard(v) {
			return true
		}
		for _, el := range v {
			if containsLeaderboardArray(el, depth+1) {
				return true
			}
		}
	case map[string]any:
		for _, val := range v {
			if containsLeaderboardArray(val, depth+1) {
				return true
			}
		}
	}
	return false
}

func arrayLooksLikeLeaderboard(arr []any) bool {
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if objectHasUsernameKey(obj) && objectHasNumericKey(obj) {
			return true
		}
	}
	return false
}

func objectHasUsernameKey(obj map[string]any) bool {
	for _, k := range leaderboardUsernameKeys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func objectHasNumericKey(obj map[string]any) bool {
	for _, k := range leaderboardNumberKeys {
		if v, ok := obj[k]; ok {
			if _, isNum := v.(float64); isNum {
				return true
			}
		}
	}
	for _, v := range obj {
		if _, isNum := v.(float64); isNum {
			return true
		}
	}
	return false
}

// extractJSArrays pulls candidate JSON array literals out of a JS
// source body via the patterns named in spec.md §4.1: global window
// assignment, let/var/const declaration, JSON.parse('...'), and a bare
// inline array-of-objects literal.
func extractJSArrays(body []byte) [][]byte {
	src := string(body)
	var out [][]byte

	collect := func(matches [][]string, group int) {
		for _, m := range matches {
			if len(out) >= maxExtractedPerResponse {
				return
			}
			if group >= len(m) {
				continue
			}
			out = append(out, []byte(m[group]))
		}
	}

	collect(windowAssignRe.FindAllStringSubmatch(src, -1), 1)
	collect(declAssignRe.FindAllStringSubmatch(src, -1), 1)

	for _, m := range jsonParseRe.FindAllStringSubmatch(src, -1) {
		if len(out) >= maxExtractedPerResponse {
			break
		}
		unescaped := strings.ReplaceAll(m[1], `\'`, `'`)
		out = append(out, []byte(unescaped))
	}

	if len(out) == 0 {
		collect(inlineArrayRe.FindAllStringSubmatch(src, -1), 1)
	}

	return out
}

// extractScriptJSON walks an HTML body's <script> elements (including
// application/ld+json blocks) and returns each one's text content as a
// JSON candidate.
func extractScriptJSON(body []byte) [][]byte {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	var out [][]byte
	inScript := false

	for {
		if len(out) >= maxExtractedPerResponse {
			return out
		}
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "script" {
				inScript = true
			}
		case html.TextToken:
			if inScript {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					out = append(out, []byte(text))
				}
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "script" {
				inScript = false
			}
		}
	}
}
