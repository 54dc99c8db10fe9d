package teacher

import "testing"

func TestParsePayloadSkipsInvalidRows(t *testing.T) {
	raw := `{"rows": [
		{"rank": 1, "username": "alice", "wager": 1000, "prize": 100},
		{"rank": 0, "username": "bad-rank", "wager": 1, "prize": 1},
		{"rank": 2, "username": "", "wager": 1, "prize": 1},
		{"rank": 3, "username": "bob", "wager": 500, "prize": 50}
	]}`

	entries, err := parsePayload(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 valid entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Username != "alice" || entries[1].Username != "bob" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParsePayloadRejectsInvalidJSON(t *testing.T) {
	if _, err := parsePayload("not json"); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}
