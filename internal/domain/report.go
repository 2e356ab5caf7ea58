package domain

import "time"

// Severity classifies how much an issue hurts a page's SEO standing.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for sorting; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// IssueType identifies a single analyzer rule.
type IssueType string

const (
	IssueMissingTitle            IssueType = "missing_title"
	IssueTitleTooShort           IssueType = "title_too_short"
	IssueTitleTooLong            IssueType = "title_too_long"
	IssueMissingMetaDescription  IssueType = "missing_meta_description"
	IssueMetaDescriptionTooShort IssueType = "meta_description_too_short"
	IssueMetaDescriptionTooLong  IssueType = "meta_description_too_long"
	IssueMissingH1               IssueType = "missing_h1"
	IssueMultipleH1              IssueType = "multiple_h1"
	IssueLowWordCount            IssueType = "low_word_count"
	IssueImageMissingAlt         IssueType = "images_missing_alt"
	IssueWeakHeadingStructure    IssueType = "weak_heading_structure"
	IssueMissingOpenGraph        IssueType = "missing_open_graph"
	IssueMissingCanonical        IssueType = "missing_canonical"
	IssueMissingViewport         IssueType = "missing_viewport"
	IssueMetaNoindex             IssueType = "meta_noindex"
	IssueNotHTTPS                IssueType = "not_https"
	IssueHTTPError               IssueType = "http_error"
	IssueAnalysisFailed          IssueType = "analysis_failed"
)

// Issue is a single finding on a single page.
type Issue struct {
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Category       string    `json:"category"`
	Recommendation string    `json:"recommendation"`
	AffectedURL    string    `json:"affected_url"`
}

// PageMetrics holds the raw measurements analyzers derived from one page.
type PageMetrics struct {
	StatusCode            int `json:"status_code"`
	Depth                 int `json:"depth"`
	TitleLength           int `json:"title_length"`
	MetaDescriptionLength int `json:"meta_description_length"`
	H1Count               int `json:"h1_count"`
	WordCount             int `json:"word_count"`
	ImageCount            int `json:"image_count"`
	ImagesMissingAlt      int `json:"images_missing_alt"`
	InternalLinks         int `json:"internal_links"`
	ExternalLinks         int `json:"external_links"`
}

// PageAnalysis is the merged analyzer output for one fetched page.
type PageAnalysis struct {
	URL            string      `json:"url"`
	MetaScore      int         `json:"meta_score"`
	ContentScore   int         `json:"content_score"`
	TechnicalScore int         `json:"technical_score"`
	Issues         []Issue     `json:"issues"`
	Metrics        PageMetrics `json:"metrics"`
}

// analyzerCount is the number of sub-scores combined into a page score.
const analyzerCount = 3

// Score returns the page score as the equal-weight mean of the three
// analyzer sub-scores, rounded to the nearest integer.
func (p *PageAnalysis) Score() int {
	sum := p.MetaScore + p.ContentScore + p.TechnicalScore
	return (sum + analyzerCount/2) / analyzerCount
}

// CommonIssue is an issue type aggregated across the pages of one site.
type CommonIssue struct {
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Frequency      int       `json:"frequency"`
	AffectedURLs   []string  `json:"affected_urls"`
	Recommendation string    `json:"recommendation"`
}

// SiteReport is the final artifact of one crawl. Immutable once written.
type SiteReport struct {
	BaseURL      string         `json:"base_url"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Pages        []PageAnalysis `json:"pages"`
	Score        int            `json:"score"`
	CommonIssues []CommonIssue  `json:"common_issues"`
	CrawlStats   CrawlStats     `json:"crawl_stats"`
}
