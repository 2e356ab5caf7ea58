package analyzer

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

// TechnicalAnalyzer checks technical SEO signals: canonical URL, viewport,
// robots directives, transport security, and link composition.
type TechnicalAnalyzer struct{}

// NewTechnicalAnalyzer creates a TechnicalAnalyzer.
func NewTechnicalAnalyzer() *TechnicalAnalyzer {
	return &TechnicalAnalyzer{}
}

// Category returns the issue category this analyzer emits.
func (a *TechnicalAnalyzer) Category() string {
	return CategoryTechnical
}

// Analyze inspects the page's technical signals.
func (a *TechnicalAnalyzer) Analyze(page *Page) Result {
	var res Result

	res.Metrics.StatusCode = page.StatusCode
	res.Metrics.Depth = page.Depth

	if page.StatusCode >= http.StatusBadRequest {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueHTTPError, domain.SeverityCritical, CategoryTechnical,
			"Fix or redirect this URL; it returns an HTTP error status."))
	}

	if href, exists := page.Doc.Find("link[rel='canonical']").Attr("href"); !exists || strings.TrimSpace(href) == "" {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMissingCanonical, domain.SeverityInfo, CategoryTechnical,
			"Add a rel=canonical link to guard against duplicate-content dilution."))
	}

	if !hasViewport(page.Doc) {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMissingViewport, domain.SeverityWarning, CategoryTechnical,
			"Add a responsive viewport meta tag; mobile rendering affects ranking."))
	}

	if hasNoindex(page.Doc) {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMetaNoindex, domain.SeverityCritical, CategoryTechnical,
			"Remove the noindex robots directive if this page should be indexed."))
	}

	if final, err := url.Parse(page.FinalURL); err == nil && final.Scheme == "http" {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueNotHTTPS, domain.SeverityWarning, CategoryTechnical,
			"Serve the page over HTTPS."))
	}

	res.Metrics.InternalLinks, res.Metrics.ExternalLinks = countLinks(page)

	res.Score = scoreFromIssues(res.Issues)
	return res
}

// hasViewport reports whether the page declares a device-width viewport.
func hasViewport(doc *goquery.Document) bool {
	content, exists := doc.Find("meta[name='viewport']").Attr("content")
	return exists && strings.Contains(strings.ToLower(content), "width=device-width")
}

// hasNoindex reports whether a meta robots directive blocks indexing.
func hasNoindex(doc *goquery.Document) bool {
	content, exists := doc.Find("meta[name='robots']").Attr("content")
	return exists && strings.Contains(strings.ToLower(content), "noindex")
}

// countLinks splits anchor hrefs into same-host and external counts.
// The split is informational only; no issue is emitted from it.
func countLinks(page *Page) (internal, external int) {
	base, err := url.Parse(page.FinalURL)
	if err != nil {
		return 0, 0
	}

	host := strings.ToLower(base.Hostname())

	page.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}

		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}

		if strings.ToLower(abs.Hostname()) == host {
			internal++
		} else {
			external++
		}
	})

	return internal, external
}
