package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

// minWordCount is the threshold below which a page is flagged as thin
// content.
const minWordCount = 300

// nonContentSelectors lists elements stripped before counting body text.
const nonContentSelectors = "script, style, nav, header, footer"

// ContentAnalyzer checks on-page content: headings, word count, and image
// alt text.
type ContentAnalyzer struct{}

// NewContentAnalyzer creates a ContentAnalyzer.
func NewContentAnalyzer() *ContentAnalyzer {
	return &ContentAnalyzer{}
}

// Category returns the issue category this analyzer emits.
func (a *ContentAnalyzer) Category() string {
	return CategoryContent
}

// Analyze inspects the page's content.
func (a *ContentAnalyzer) Analyze(page *Page) Result {
	var res Result

	res.Metrics.H1Count = page.Doc.Find("h1").Length()

	switch {
	case res.Metrics.H1Count == 0:
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMissingH1, domain.SeverityCritical, CategoryContent,
			"Add exactly one <h1> heading stating the page's main topic."))
	case res.Metrics.H1Count > 1:
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMultipleH1, domain.SeverityWarning, CategoryContent,
			"Keep a single <h1> per page; demote the others to <h2>."))
	}

	if res.Metrics.H1Count >= 1 && page.Doc.Find("h2").Length() == 0 {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueWeakHeadingStructure, domain.SeverityInfo, CategoryContent,
			"Break the content into sections with <h2> subheadings."))
	}

	res.Metrics.WordCount = countBodyWords(page.Doc)
	if res.Metrics.WordCount < minWordCount {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueLowWordCount, domain.SeverityWarning, CategoryContent,
			"Add substantive content; pages under 300 words rarely rank well."))
	}

	images := page.Doc.Find("img")
	res.Metrics.ImageCount = images.Length()

	images.Each(func(_ int, s *goquery.Selection) {
		if alt, exists := s.Attr("alt"); !exists || strings.TrimSpace(alt) == "" {
			res.Metrics.ImagesMissingAlt++
			res.Issues = append(res.Issues, issue(page,
				domain.IssueImageMissingAlt, domain.SeverityWarning, CategoryContent,
				"Add descriptive alt text to every image."))
		}
	})

	res.Score = scoreFromIssues(res.Issues)
	return res
}

// countBodyWords counts whitespace-separated words in the page body after
// stripping non-content elements.
func countBodyWords(doc *goquery.Document) int {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return 0
	}

	clone := body.Clone()
	clone.Find(nonContentSelectors).Remove()

	return len(strings.Fields(clone.Text()))
}
