// Package analyzer derives SEO findings from fetched pages. Three
// independent analyzers (meta, content, technical) each consume one page's
// parsed DOM and emit a sub-score with a typed set of issues.
//
// Scoring is deterministic: every analyzer starts at 100 and subtracts a
// fixed penalty per issue severity (critical 25, warning 10, info 5),
// floored at 0. Re-running on unchanged input yields identical results.
package analyzer

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

// Penalty points subtracted per issue severity.
const (
	maxScore        = 100
	penaltyCritical = 25
	penaltyWarning  = 10
	penaltyInfo     = 5
)

// Analyzer categories, used as the Category field on emitted issues.
const (
	CategoryMeta      = "meta"
	CategoryContent   = "content"
	CategoryTechnical = "technical"
)

// Page is one fetched page with its parsed DOM, shared read-only by all
// analyzers.
type Page struct {
	*domain.FetchedPage
	Doc *goquery.Document
}

// ParsePage parses a fetched page's HTML for analysis.
func ParsePage(fp *domain.FetchedPage) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fp.HTML))
	if err != nil {
		return nil, fmt.Errorf("analyzer: parse html: %w", err)
	}

	return &Page{FetchedPage: fp, Doc: doc}, nil
}

// Result is one analyzer's output for one page. Metrics carries only the
// fields the analyzer measures; the pipeline merges them.
type Result struct {
	Score   int
	Issues  []domain.Issue
	Metrics domain.PageMetrics
}

// Analyzer computes a sub-score and issues for one page. Implementations
// are pure over the parsed DOM: no I/O, no shared state.
type Analyzer interface {
	Category() string
	Analyze(page *Page) Result
}

// scoreFromIssues applies the penalty table to an issue set.
func scoreFromIssues(issues []domain.Issue) int {
	score := maxScore

	for _, issue := range issues {
		switch issue.Severity {
		case domain.SeverityCritical:
			score -= penaltyCritical
		case domain.SeverityWarning:
			score -= penaltyWarning
		case domain.SeverityInfo:
			score -= penaltyInfo
		}
	}

	if score < 0 {
		score = 0
	}

	return score
}

// issue constructs one finding against the page under analysis.
func issue(page *Page, t domain.IssueType, sev domain.Severity, category, recommendation string) domain.Issue {
	return domain.Issue{
		Type:           t,
		Severity:       sev,
		Category:       category,
		Recommendation: recommendation,
		AffectedURL:    page.URL,
	}
}
