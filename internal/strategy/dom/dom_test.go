package dom

import "testing"

func TestExtractRowsWithLabeledAmounts(t *testing.T) {
	html := `
	<table>
	  <tr class="row"><td>#1</td><td>alice</td><td>WAGERED $1,000</td><td>PRIZE $100</td></tr>
	  <tr class="row"><td>#2</td><td>bob</td><td>WAGERED $500</td><td>PRIZE $50</td></tr>
	</table>`
	entries := Extract(html, "")
	if len(entries) == 0 {
		t.Fatal("expected at least one entry extracted from labeled rows")
	}
	found := false
	for _, e := range entries {
		if e.Username == "alice" && e.Wager == 1000 && e.Prize == 100 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected alice row with wager=1000 prize=100, got %+v", entries)
	}
}

func TestExtractFallsBackToLargestWagerWhenUnlabeled(t *testing.T) {
	html := `<div class="entry">bob<br/>1000<br/>100</div>`
	entries := Extract(html, "")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(entries), entries)
	}
	if entries[0].Wager != 1000 || entries[0].Prize != 100 {
		t.Fatalf("expected largest amount assigned to wager, got %+v", entries[0])
	}
}

func TestParseRankLineRoman(t *testing.T) {
	rank, ok := parseRankLine("iii")
	if !ok || rank != 3 {
		t.Fatalf("expected roman numeral iii -> 3, got %d, %v", rank, ok)
	}
}

func TestParseRankLineMarker(t *testing.T) {
	rank, ok := parseRankLine("#7")
	if !ok || rank != 7 {
		t.Fatalf("expected #7 -> 7, got %d, %v", rank, ok)
	}
}

func TestTextFallbackUsedWhenDOMSparse(t *testing.T) {
	innerText := "alice\nWAGERED 1000\nPRIZE 100\n\nbob\nWAGERED 500\nPRIZE 50"
	entries := Extract("<div></div>", innerText)
	if len(entries) != 2 {
		t.Fatalf("expected 2 fallback entries, got %d: %+v", len(entries), entries)
	}
}
