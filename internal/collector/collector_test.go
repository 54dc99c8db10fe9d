package collector

import (
	"strings"
	"testing"
)

func TestStripNoiseRemovesScriptsAndNav(t *testing.T) {
	html := `<html><body>
	<nav>site nav</nav>
	<script>doEvil()</script>
	<div class="cookie-banner">accept cookies</div>
	<table><tr><td>rank</td><td>alice</td></tr></table>
	</body></html>`
	out := stripNoise(html)
	for _, banned := range []string{"doEvil", "site nav", "accept cookies"} {
		if strings.Contains(out, banned) {
			t.Fatalf("expected %q stripped, got: %s", banned, out)
		}
	}
	for _, kept := range []string{"rank", "alice"} {
		if !strings.Contains(out, kept) {
			t.Fatalf("expected %q preserved, got: %s", kept, out)
		}
	}
}

func TestToMarkdownTruncatesAtLimit(t *testing.T) {
	conv := newMarkdownConverter()
	big := make([]byte, maxMarkdownBytes*2)
	for i := range big {
		big[i] = 'a'
	}
	html := "<p>" + string(big) + "</p>"
	md, err := ToMarkdown(conv, html, "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(md) > maxMarkdownBytes {
		t.Fatalf("expected markdown truncated to %d bytes, got %d", maxMarkdownBytes, len(md))
	}
}

func TestToMarkdownPreservesTableStructure(t *testing.T) {
	conv := newMarkdownConverter()
	html := `<table><tr><th>Rank</th><th>User</th></tr><tr><td>1</td><td>alice</td></tr></table>`
	md, err := ToMarkdown(conv, html, "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "|") {
		t.Fatalf("expected pipe-table markdown, got: %s", md)
	}
}
