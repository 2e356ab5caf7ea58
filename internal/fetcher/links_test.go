package fetcher_test

import (
	"testing"

	"github.com/jonesrussell/siteaudit/internal/fetcher"
)

func TestNormalizeRawURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path", false},
		{"strip fragment", "https://example.com/page#section", "https://example.com/page", false},
		{"strip default https port", "https://example.com:443/page", "https://example.com/page", false},
		{"strip default http port", "http://example.com:80/page", "http://example.com/page", false},
		{"keep non-default port", "https://example.com:8443/page", "https://example.com:8443/page", false},
		{"empty path becomes root", "https://example.com", "https://example.com/", false},
		{"query preserved", "https://example.com/page?a=1&b=2", "https://example.com/page?a=1&b=2", false},
		{"path case preserved", "https://example.com/About/Team", "https://example.com/About/Team", false},
		{"unsupported scheme", "ftp://example.com/file", "", true},
		{"mailto", "mailto:user@example.com", "", true},
		{"no host", "https:///path", "", true},
		{"relative url", "/just/a/path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fetcher.NormalizeRawURL(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeRawURL(%q) expected error, got %q", tt.input, got)
				}
				return
			}

			if err != nil {
				t.Errorf("NormalizeRawURL(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeRawURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtract_SameSiteOnly(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><body>
		<a href="/about">About</a>
		<a href="https://example.com/contact">Contact</a>
		<a href="https://other.com/page">External</a>
		<a href="https://blog.example.com/post">Subdomain</a>
	</body></html>`)

	e, err := fetcher.NewLinkExtractor("https://example.com/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links, extractErr := e.Extract(html, "https://example.com/")
	if extractErr != nil {
		t.Fatalf("unexpected error: %v", extractErr)
	}

	want := []string{"https://example.com/about", "https://example.com/contact"}
	assertLinks(t, links, want)
}

func TestExtract_IncludeSubdomains(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><body>
		<a href="https://blog.example.com/post">Blog</a>
		<a href="https://example.com/home">Home</a>
		<a href="https://notexample.com/page">Lookalike</a>
	</body></html>`)

	e, err := fetcher.NewLinkExtractor("https://example.com/", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links, extractErr := e.Extract(html, "https://example.com/")
	if extractErr != nil {
		t.Fatalf("unexpected error: %v", extractErr)
	}

	want := []string{"https://blog.example.com/post", "https://example.com/home"}
	assertLinks(t, links, want)
}

func TestExtract_DeduplicatesInDocumentOrder(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><body>
		<a href="/b">B</a>
		<a href="/a">A</a>
		<a href="/b#comments">B again via fragment</a>
		<a href="/a">A again</a>
	</body></html>`)

	e, err := fetcher.NewLinkExtractor("https://example.com/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links, extractErr := e.Extract(html, "https://example.com/")
	if extractErr != nil {
		t.Fatalf("unexpected error: %v", extractErr)
	}

	want := []string{"https://example.com/b", "https://example.com/a"}
	assertLinks(t, links, want)
}

func TestExtract_SkipsNonHTTPAndFragments(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><body>
		<a href="#top">Top</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="tel:+15551234">Call</a>
		<a href="/real">Real</a>
		<a href="">Empty</a>
	</body></html>`)

	e, err := fetcher.NewLinkExtractor("https://example.com/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links, extractErr := e.Extract(html, "https://example.com/")
	if extractErr != nil {
		t.Fatalf("unexpected error: %v", extractErr)
	}

	assertLinks(t, links, []string{"https://example.com/real"})
}

func TestExtract_ResolvesRelativeAgainstPageURL(t *testing.T) {
	t.Parallel()

	html := []byte(`<a href="sibling">S</a><a href="../up">U</a>`)

	e, err := fetcher.NewLinkExtractor("https://example.com/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links, extractErr := e.Extract(html, "https://example.com/docs/guide/intro")
	if extractErr != nil {
		t.Fatalf("unexpected error: %v", extractErr)
	}

	want := []string{
		"https://example.com/docs/guide/sibling",
		"https://example.com/docs/up",
	}
	assertLinks(t, links, want)
}

func TestSameSite_ExactHostByDefault(t *testing.T) {
	t.Parallel()

	e, err := fetcher.NewLinkExtractor("https://www.example.com/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !e.SameSite("www.example.com") {
		t.Error("expected exact host to match")
	}
	if e.SameSite("example.com") {
		t.Error("expected bare domain not to match when subdomains excluded")
	}
	if e.SameSite("blog.example.com") {
		t.Error("expected sibling subdomain not to match")
	}
}

func TestNewLinkExtractor_InvalidSeed(t *testing.T) {
	t.Parallel()

	if _, err := fetcher.NewLinkExtractor("not a url at all ://", false); err == nil {
		t.Error("expected error for malformed seed")
	}
	if _, err := fetcher.NewLinkExtractor("/relative", false); err == nil {
		t.Error("expected error for seed without host")
	}
}

func assertLinks(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d links %v, want %d %v", len(got), got, len(want), want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
