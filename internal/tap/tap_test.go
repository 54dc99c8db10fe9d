package tap

import (
	"testing"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

func TestObserveJSONLeaderboardShapedURLCapturesRequest(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	tp.Observe(RawResponse{
		URL:         "https://example.com/api/leaderboard?page=1&limit=50",
		Method:      "GET",
		ContentType: "application/json",
		Body:        []byte(`[{"username":"alice","wager":1000}]`),
	})

	if len(buf.CapturedRequests) != 1 {
		t.Fatalf("expected 1 captured request, got %d", len(buf.CapturedRequests))
	}
	if len(buf.JSONResponses) != 1 || !buf.JSONResponses[0].LooksLikeBoard {
		t.Fatalf("expected JSON response flagged as looking like a leaderboard, got %+v", buf.JSONResponses)
	}
}

func TestObserveJSONNonLeaderboardShapeNotFlagged(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	tp.Observe(RawResponse{
		URL:         "https://example.com/api/config",
		ContentType: "application/json",
		Body:        []byte(`{"theme":"dark","locale":"en"}`),
	})

	if len(buf.JSONResponses) != 1 || buf.JSONResponses[0].LooksLikeBoard {
		t.Fatalf("expected config response not flagged, got %+v", buf.JSONResponses)
	}
}

func TestObservePreviousURLClassification(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	tp.Observe(RawResponse{
		URL:         "https://example.com/api/leaderboard/history",
		ContentType: "application/json",
		Body:        []byte(`[{"username":"bob","wager":500}]`),
	})

	if buf.JSONResponses[0].Type != model.LeaderboardPrevious {
		t.Fatalf("expected previous classification from URL substring, got %v", buf.JSONResponses[0].Type)
	}
}

func TestObservePreviousFlagClassification(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	tp.Observe(RawResponse{
		URL:         "https://example.com/api/board",
		ContentType: "application/json",
		Body:        []byte(`{"status":"completed","entries":[{"username":"carl","wager":10}]}`),
	})

	if buf.JSONResponses[0].Type != model.LeaderboardPrevious {
		t.Fatalf("expected previous classification from status flag, got %v", buf.JSONResponses[0].Type)
	}
}

func TestObserveJSWindowAssignmentExtracted(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	body := `console.log("init"); window.__LEADERBOARD__ = [{"username":"dave","wager":900}]; doStuff();`
	tp.Observe(RawResponse{
		URL:         "https://example.com/static/bundle.js",
		ContentType: "application/javascript",
		Body:        []byte(body),
	})

	if len(buf.JSResponses) != 1 {
		t.Fatalf("expected 1 extracted JS array, got %d: %+v", len(buf.JSResponses), buf.JSResponses)
	}
}

func TestObserveJSJSONParseExtracted(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	body := `const data = JSON.parse('[{"username":"erin","wager":42}]');`
	tp.Observe(RawResponse{
		URL:  "https://example.com/static/app.js",
		Body: []byte(body),
	})

	if len(buf.JSResponses) != 1 {
		t.Fatalf("expected JSON.parse payload extracted, got %d", len(buf.JSResponses))
	}
}

func TestObserveHTMLScriptJSONLDExtracted(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	body := `<html><body>
	<script type="application/ld+json">[{"username":"frank","wager":300}]</script>
	</body></html>`
	tp.Observe(RawResponse{
		URL:         "https://example.com/leaderboard",
		ContentType: "text/html",
		Body:        []byte(body),
	})

	if len(buf.TextResponses) != 1 {
		t.Fatalf("expected 1 text response buffered, got %d", len(buf.TextResponses))
	}
	if len(buf.JSONResponses) != 1 {
		t.Fatalf("expected JSON-LD script content extracted into JSONResponses, got %d", len(buf.JSONResponses))
	}
}

func TestObserveMalformedJSONNeverPanics(t *testing.T) {
	buf := model.NewNetworkBuffer()
	tp := New(buf)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Observe panicked on malformed input: %v", r)
		}
	}()

	tp.Observe(RawResponse{
		URL:         "https://example.com/api/leaderboard",
		ContentType: "application/json",
		Body:        []byte(`{not valid json`),
	})

	if len(buf.JSONResponses) != 1 || buf.JSONResponses[0].LooksLikeBoard {
		t.Fatalf("expected malformed JSON to be buffered but not flagged, got %+v", buf.JSONResponses)
	}
}
