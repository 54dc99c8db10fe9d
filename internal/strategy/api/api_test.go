package api

import (
	"encoding/json"
	"testing"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestExtractMapsKeyPreferences(t *testing.T) {
	body := `[{"displayName":"alice","totalWager":1000,"reward":50},{"displayName":"bob","totalWager":500,"reward":20}]`
	responses := []model.JSONResponse{{URL: "https://x.example/api/leaderboard", Body: body}}

	entries := Extract(responses, nil)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].Wager != 1000 || entries[0].Prize != 50 {
		t.Fatalf("unexpected mapping: %+v", entries[0])
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Fatalf("expected sequence-index rank fallback, got %d, %d", entries[0].Rank, entries[1].Rank)
	}
}

func TestExtractSkipsHistoricalURLs(t *testing.T) {
	body := `[{"username":"a","wager":1}]`
	responses := []model.JSONResponse{
		{URL: "https://x.example/api/leaderboard/previous", Body: body},
	}
	entries := Extract(responses, nil)
	if entries != nil {
		t.Fatalf("expected no entries from historical URL, got %+v", entries)
	}
}

func TestExtractSkipsNonLeaderboardShape(t *testing.T) {
	body := `[{"id":1,"title":"not a leaderboard"}]`
	responses := []model.JSONResponse{{URL: "https://x.example/api/items", Body: body}}
	entries := Extract(responses, nil)
	if entries != nil {
		t.Fatalf("expected no entries from non-leaderboard array, got %+v", entries)
	}
}

func TestExtractFindsNestedArray(t *testing.T) {
	body := `{"data":{"results":[{"user":"alice","wager":10,"prize":1}]}}`
	responses := []model.JSONResponse{{URL: "https://x.example/api/board", Body: body}}
	entries := Extract(responses, nil)
	if len(entries) != 1 || entries[0].Username != "alice" {
		t.Fatalf("expected nested array to be found, got %+v", entries)
	}
}

type fakeFetcher struct {
	pages map[string]string
}

func (f fakeFetcher) FetchJSON(url string) (json.RawMessage, error) {
	return json.RawMessage(f.pages[url]), nil
}

func TestExtractPaginatesWhenFull(t *testing.T) {
	page1 := `[{"username":"a","wager":1},{"username":"b","wager":2}]`
	page2 := `[{"username":"c","wager":3}]`
	fetcher := fakeFetcher{pages: map[string]string{
		"https://x.example/api?page=2&limit=2": page2,
	}}
	responses := []model.JSONResponse{{URL: "https://x.example/api?page=1&limit=2", Body: page1}}
	entries := Extract(responses, fetcher)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries across pages, got %d: %+v", len(entries), entries)
	}
}
