// Package api implements the API Strategy (C6a): it walks buffered
// JSON responses looking for the first array that looks like
// leaderboard data, and maps each element to the canonical entry
// schema using a fixed key-preference list, per spec.md §4.6.1.
//
// The "scan JSON for the first array whose elements carry expected
// keys" shape is grounded on cleaner/extract.go's OG-metadata scan:
// probe a document for a recognizable shape rather than assume a
// fixed structure, generalized here from HTML meta tags to arbitrary
// JSON payloads.
package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

var usernameKeys = []string{"username", "user", "name", "displayName", "display_name", "player", "nick"}
var wagerKeys = []string{"wager", "wagered", "amount", "total", "totalWager", "total_wager", "points", "score"}
var prizeKeys = []string{"prize", "reward", "payout", "winnings"}
var rankKeys = []string{"rank", "position", "place"}

// historicalURLRe matches URLs that point at a closed/historical
// leaderboard rather than the live one.
var historicalURLRe = []string{"previous", "past", "history", "archive", "last", "old", "ended", "completed"}

// Fetcher replays a request in the browser context for pagination,
// preserving credentials/cookies. Implemented by the caller (the
// Navigator/browser driver owns the page session); api.Extract never
// talks to the network directly.
type Fetcher interface {
	FetchJSON(url string) (json.RawMessage, error)
}

// Extract walks responses, finds the first JSON body whose shape
// looks like leaderboard data, maps its elements, and — for paginated
// APIs — fetches up to 5 additional pages through fetcher.
func Extract(responses []model.JSONResponse, fetcher Fetcher) []model.Entry {
	for _, resp := range responses {
		if isHistoricalURL(resp.URL) {
			continue
		}
		arr, ok := findLeaderboardArray([]byte(resp.Body))
		if !ok {
			continue
		}
		entries := mapArray(arr)
		if len(entries) == 0 {
			continue
		}

		if fetcher != nil {
			if page, limit, paginated := paginationParams(resp.URL); paginated && len(arr) == limit {
				entries = append(entries, fetchAdditionalPages(resp.URL, page, limit, fetcher)...)
			}
		}
		return entries
	}
	return nil
}

func isHistoricalURL(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range historicalURLRe {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// findLeaderboardArray searches a decoded JSON body for the first
// array whose elements carry at least one username-shaped key and one
// numeric field, per the probe described in spec.md §4.1.
func findLeaderboardArray(body []byte) ([]map[string]any, bool) {
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, false
	}
	found := searchNode(generic, 0)
	return found, found != nil
}

const maxSearchDepth = 6

func searchNode(node any, depth int) []map[string]any {
	if depth > maxSearchDepth {
		return nil
	}
	switch v := node.(type) {
	case []any:
		if arr, ok := asEntryArray(v); ok {
			return arr
		}
		for _, item := range v {
			if found := searchNode(item, depth+1); found != nil {
				return found
			}
		}
	case map[string]any:
		for _, val := range v {
			if found := searchNode(val, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

// asEntryArray reports whether arr looks like a leaderboard entry
// list: non-empty, every element is an object, and at least one
// element carries a username-shaped key plus a numeric field.
func asEntryArray(arr []any) ([]map[string]any, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	out := make([]map[string]any, 0, len(arr))
	looksRight := false
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, obj)
		if hasKey(obj, usernameKeys) && (hasKey(obj, wagerKeys) || hasKey(obj, prizeKeys) || hasNumericField(obj)) {
			looksRight = true
		}
	}
	if !looksRight {
		return nil, false
	}
	return out, true
}

func hasKey(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func hasNumericField(obj map[string]any) bool {
	for _, v := range obj {
		if _, ok := v.(float64); ok {
			return true
		}
	}
	return false
}

// mapArray converts raw JSON objects to canonical entries using the
// key-preference lists, falling back to sequence index for rank.
func mapArray(arr []map[string]any) []model.Entry {
	entries := make([]model.Entry, 0, len(arr))
	for i, obj := range arr {
		e := model.Entry{
			Username: firstString(obj, usernameKeys),
			Wager:    firstNumber(obj, wagerKeys),
			Prize:    firstNumber(obj, prizeKeys),
		}
		if rank, ok := firstInt(obj, rankKeys); ok {
			e.Rank = rank
		} else {
			e.Rank = i + 1
		}
		entries = append(entries, e)
	}
	return entries
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			switch s := v.(type) {
			case string:
				return s
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

func firstNumber(obj map[string]any, keys []string) float64 {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			switch n := v.(type) {
			case float64:
				return n
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
					return f
				}
			}
		}
	}
	return 0
}

func firstInt(obj map[string]any, keys []string) (int, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			switch n := v.(type) {
			case float64:
				return int(n), true
			case string:
				if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// paginationParams reports whether url carries page/limit query
// params, and their values.
func paginationParams(url string) (page, limit int, ok bool) {
	pageStr, hasPage := queryParam(url, "page")
	limitStr, hasLimit := queryParam(url, "limit")
	if !hasPage || !hasLimit {
		return 0, 0, false
	}
	p, err1 := strconv.Atoi(pageStr)
	l, err2 := strconv.Atoi(limitStr)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return p, l, true
}

func queryParam(url, key string) (string, bool) {
	idx := strings.Index(url, "?")
	if idx < 0 {
		return "", false
	}
	query := url[idx+1:]
	for _, pair := range strings.Split(query, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 && kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

const maxAdditionalPages = 5

// fetchAdditionalPages walks subsequent pages through fetcher until a
// short page is seen or the page cap is reached.
func fetchAdditionalPages(baseURL string, page, limit int, fetcher Fetcher) []model.Entry {
	var extra []model.Entry
	for i := 1; i <= maxAdditionalPages; i++ {
		nextURL := replacePageParam(baseURL, page+i)
		body, err := fetcher.FetchJSON(nextURL)
		if err != nil {
			break
		}
		arr, ok := findLeaderboardArray(body)
		if !ok {
			break
		}
		extra = append(extra, mapArray(arr)...)
		if len(arr) < limit {
			break
		}
	}
	return extra
}

func replacePageParam(url string, page int) string {
	idx := strings.Index(url, "?")
	if idx < 0 {
		return url
	}
	base, query := url[:idx], url[idx+1:]
	parts := strings.Split(query, "&")
	for i, pair := range parts {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 && kv[0] == "page" {
			parts[i] = "page=" + strconv.Itoa(page)
		}
	}
	return base + "?" + strings.Join(parts, "&")
}
