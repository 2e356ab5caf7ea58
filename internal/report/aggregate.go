// Package report rolls per-page analyses into a site-level report.
package report

import (
	"sort"
	"time"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

// commonIssueThreshold is the minimum number of affected pages for an issue
// type to be reported as a common issue. When only one page was analyzed,
// every issue type qualifies.
const commonIssueThreshold = 2

// Aggregate combines page analyses into the final SiteReport. The site
// score is the mean of the page scores; common issues are issue types
// grouped across pages, ranked by frequency, then severity, then type for
// deterministic output.
func Aggregate(baseURL string, pages []domain.PageAnalysis, stats domain.CrawlStats) *domain.SiteReport {
	return &domain.SiteReport{
		BaseURL:      baseURL,
		GeneratedAt:  time.Now(),
		Pages:        pages,
		Score:        siteScore(pages),
		CommonIssues: commonIssues(pages),
		CrawlStats:   stats,
	}
}

// siteScore returns the rounded mean of the page scores, or 0 when no
// pages were analyzed.
func siteScore(pages []domain.PageAnalysis) int {
	if len(pages) == 0 {
		return 0
	}

	sum := 0
	for i := range pages {
		sum += pages[i].Score()
	}

	return (sum + len(pages)/2) / len(pages)
}

// issueGroup accumulates one issue type across pages.
type issueGroup struct {
	severity       domain.Severity
	recommendation string
	pages          map[string]struct{}
	order          []string // page URLs in first-seen order
}

// commonIssues groups page issues by type and keeps the groups affecting
// enough pages. Frequency counts pages, not occurrences: a page with five
// images missing alt text still counts once.
func commonIssues(pages []domain.PageAnalysis) []domain.CommonIssue {
	threshold := commonIssueThreshold
	if len(pages) <= 1 {
		threshold = 1
	}

	groups := make(map[domain.IssueType]*issueGroup)

	for i := range pages {
		for _, iss := range pages[i].Issues {
			g, ok := groups[iss.Type]
			if !ok {
				g = &issueGroup{
					severity:       iss.Severity,
					recommendation: iss.Recommendation,
					pages:          make(map[string]struct{}),
				}
				groups[iss.Type] = g
			}

			if _, seen := g.pages[pages[i].URL]; !seen {
				g.pages[pages[i].URL] = struct{}{}
				g.order = append(g.order, pages[i].URL)
			}
		}
	}

	common := make([]domain.CommonIssue, 0, len(groups))
	for t, g := range groups {
		if len(g.pages) < threshold {
			continue
		}

		common = append(common, domain.CommonIssue{
			Type:           t,
			Severity:       g.severity,
			Frequency:      len(g.pages),
			AffectedURLs:   g.order,
			Recommendation: g.recommendation,
		})
	}

	sort.Slice(common, func(i, j int) bool {
		if common[i].Frequency != common[j].Frequency {
			return common[i].Frequency > common[j].Frequency
		}
		if common[i].Severity.Rank() != common[j].Severity.Rank() {
			return common[i].Severity.Rank() > common[j].Severity.Rank()
		}
		return common[i].Type < common[j].Type
	})

	return common
}
