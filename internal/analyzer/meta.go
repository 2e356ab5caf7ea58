package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

// Title and meta description length bounds, in characters.
const (
	titleMinLength           = 30
	titleMaxLength           = 60
	metaDescriptionMinLength = 50
	metaDescriptionMaxLength = 160
)

// MetaAnalyzer checks page metadata: title, meta description, and Open
// Graph tags.
type MetaAnalyzer struct{}

// NewMetaAnalyzer creates a MetaAnalyzer.
func NewMetaAnalyzer() *MetaAnalyzer {
	return &MetaAnalyzer{}
}

// Category returns the issue category this analyzer emits.
func (a *MetaAnalyzer) Category() string {
	return CategoryMeta
}

// Analyze inspects the page's metadata.
func (a *MetaAnalyzer) Analyze(page *Page) Result {
	var res Result

	title := strings.TrimSpace(page.Doc.Find("title").First().Text())
	res.Metrics.TitleLength = utf8.RuneCountInString(title)

	switch {
	case title == "":
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMissingTitle, domain.SeverityCritical, CategoryMeta,
			"Add a <title> tag describing the page in 30-60 characters."))
	case res.Metrics.TitleLength < titleMinLength:
		res.Issues = append(res.Issues, issue(page,
			domain.IssueTitleTooShort, domain.SeverityWarning, CategoryMeta,
			"Expand the title to at least 30 characters so search results show meaningful context."))
	case res.Metrics.TitleLength > titleMaxLength:
		res.Issues = append(res.Issues, issue(page,
			domain.IssueTitleTooLong, domain.SeverityInfo, CategoryMeta,
			"Shorten the title to 60 characters or fewer; search engines truncate longer titles."))
	}

	description, hasDescription := page.Doc.Find("meta[name='description']").Attr("content")
	description = strings.TrimSpace(description)
	res.Metrics.MetaDescriptionLength = utf8.RuneCountInString(description)

	switch {
	case !hasDescription || description == "":
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMissingMetaDescription, domain.SeverityCritical, CategoryMeta,
			"Add a meta description of 50-160 characters summarizing the page."))
	case res.Metrics.MetaDescriptionLength < metaDescriptionMinLength:
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMetaDescriptionTooShort, domain.SeverityWarning, CategoryMeta,
			"Expand the meta description to at least 50 characters."))
	case res.Metrics.MetaDescriptionLength > metaDescriptionMaxLength:
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMetaDescriptionTooLong, domain.SeverityInfo, CategoryMeta,
			"Trim the meta description to 160 characters or fewer."))
	}

	if !hasOpenGraphBasics(page) {
		res.Issues = append(res.Issues, issue(page,
			domain.IssueMissingOpenGraph, domain.SeverityInfo, CategoryMeta,
			"Add og:title and og:description meta tags for richer link previews."))
	}

	res.Score = scoreFromIssues(res.Issues)
	return res
}

// hasOpenGraphBasics reports whether the page carries both og:title and
// og:description.
func hasOpenGraphBasics(page *Page) bool {
	_, hasTitle := page.Doc.Find("meta[property='og:title']").Attr("content")
	_, hasDescription := page.Doc.Find("meta[property='og:description']").Attr("content")
	return hasTitle && hasDescription
}
