package snapshot

import "testing"

func TestDomainFilenameSanitizes(t *testing.T) {
	cases := map[string]string{
		"example.com":          "example.com",
		"sub.example.co.uk":    "sub.example.co.uk",
		"weird/../domain":      "weird___domain",
		"":                     "unknown",
		"Spaces And Slashes/x": "Spaces_And_Slashes_x",
	}
	for in, want := range cases {
		if got := domainFilename(in); got != want {
			t.Errorf("domainFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
