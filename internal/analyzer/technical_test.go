package analyzer_test

import (
	"testing"

	"github.com/jonesrussell/siteaudit/internal/analyzer"
	"github.com/jonesrussell/siteaudit/internal/domain"
)

// techPage builds a Page with explicit status and final URL.
func techPage(t *testing.T, html string, status int, finalURL string) *analyzer.Page {
	t.Helper()

	page, err := analyzer.ParsePage(&domain.FetchedPage{
		URL:        finalURL,
		FinalURL:   finalURL,
		StatusCode: status,
		HTML:       []byte(html),
	})
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}

	return page
}

func TestTechnicalAnalyzer_HTTPError(t *testing.T) {
	t.Parallel()

	page := techPage(t, `<html><body></body></html>`, 404, "https://example.com/missing")

	res := analyzer.NewTechnicalAnalyzer().Analyze(page)

	if !hasIssue(res.Issues, domain.IssueHTTPError) {
		t.Error("404 page should flag http_error")
	}
	if res.Metrics.StatusCode != 404 {
		t.Errorf("StatusCode metric = %d, want 404", res.Metrics.StatusCode)
	}
}

func TestTechnicalAnalyzer_RedirectStatusIsNotError(t *testing.T) {
	t.Parallel()

	page := techPage(t, `<html><body></body></html>`, 200, "https://example.com/ok")

	res := analyzer.NewTechnicalAnalyzer().Analyze(page)

	if hasIssue(res.Issues, domain.IssueHTTPError) {
		t.Error("200 page should not flag http_error")
	}
}

func TestTechnicalAnalyzer_Canonical(t *testing.T) {
	t.Parallel()

	with := `<html><head><link rel="canonical" href="https://example.com/page"></head><body></body></html>`
	without := `<html><head></head><body></body></html>`

	res := analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, with, 200, "https://example.com/page"))
	if hasIssue(res.Issues, domain.IssueMissingCanonical) {
		t.Error("canonical present, should not flag")
	}

	res = analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, without, 200, "https://example.com/page"))
	if !hasIssue(res.Issues, domain.IssueMissingCanonical) {
		t.Error("canonical absent, expected missing_canonical")
	}
}

func TestTechnicalAnalyzer_Viewport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		head     string
		wantFlag bool
	}{
		{"device width viewport", `<meta name="viewport" content="width=device-width, initial-scale=1">`, false},
		{"fixed width viewport", `<meta name="viewport" content="width=1024">`, true},
		{"no viewport", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><head>` + tt.head + `</head><body></body></html>`

			res := analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, html, 200, "https://example.com/"))

			if got := hasIssue(res.Issues, domain.IssueMissingViewport); got != tt.wantFlag {
				t.Errorf("missing_viewport = %v, want %v", got, tt.wantFlag)
			}
		})
	}
}

func TestTechnicalAnalyzer_Noindex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		head     string
		wantFlag bool
	}{
		{"noindex", `<meta name="robots" content="noindex, nofollow">`, true},
		{"NOINDEX uppercase", `<meta name="robots" content="NOINDEX">`, true},
		{"index allowed", `<meta name="robots" content="index, follow">`, false},
		{"no robots meta", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><head>` + tt.head + `</head><body></body></html>`

			res := analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, html, 200, "https://example.com/"))

			if got := hasIssue(res.Issues, domain.IssueMetaNoindex); got != tt.wantFlag {
				t.Errorf("meta_noindex = %v, want %v", got, tt.wantFlag)
			}
		})
	}
}

func TestTechnicalAnalyzer_HTTPSCheck(t *testing.T) {
	t.Parallel()

	html := `<html><body></body></html>`

	res := analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, html, 200, "http://example.com/"))
	if !hasIssue(res.Issues, domain.IssueNotHTTPS) {
		t.Error("http page should flag not_https")
	}

	res = analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, html, 200, "https://example.com/"))
	if hasIssue(res.Issues, domain.IssueNotHTTPS) {
		t.Error("https page should not flag not_https")
	}
}

func TestTechnicalAnalyzer_LinkCounts(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="/internal-one">a</a>
		<a href="https://example.com/internal-two">b</a>
		<a href="https://other.com/external">c</a>
		<a href="#fragment">skip</a>
		<a href="mailto:x@example.com">skip</a>
	</body></html>`

	res := analyzer.NewTechnicalAnalyzer().Analyze(techPage(t, html, 200, "https://example.com/page"))

	if res.Metrics.InternalLinks != 2 {
		t.Errorf("InternalLinks = %d, want 2", res.Metrics.InternalLinks)
	}
	if res.Metrics.ExternalLinks != 1 {
		t.Errorf("ExternalLinks = %d, want 1", res.Metrics.ExternalLinks)
	}
}
