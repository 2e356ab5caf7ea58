package analyzer

import (
	"fmt"

	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// Pipeline runs the fixed set of analyzers over fetched pages and merges
// their results into one PageAnalysis per page.
type Pipeline struct {
	meta      *MetaAnalyzer
	content   *ContentAnalyzer
	technical *TechnicalAnalyzer
	logger    logger.Interface
}

// NewPipeline creates the standard meta/content/technical pipeline.
func NewPipeline(log logger.Interface) *Pipeline {
	return &Pipeline{
		meta:      NewMetaAnalyzer(),
		content:   NewContentAnalyzer(),
		technical: NewTechnicalAnalyzer(),
		logger:    log.WithComponent("analyzer"),
	}
}

// Analyze parses the page and runs all three analyzers. A panic inside one
// analyzer aborts only that analyzer: its sub-score drops to 0 and the page
// carries an analysis_failed issue, but the other sub-scores stand.
func (p *Pipeline) Analyze(fp *domain.FetchedPage) (*domain.PageAnalysis, error) {
	page, err := ParsePage(fp)
	if err != nil {
		return nil, err
	}

	metaRes := p.run(p.meta, page)
	contentRes := p.run(p.content, page)
	technicalRes := p.run(p.technical, page)

	analysis := &domain.PageAnalysis{
		URL:            fp.URL,
		MetaScore:      metaRes.Score,
		ContentScore:   contentRes.Score,
		TechnicalScore: technicalRes.Score,
	}

	analysis.Issues = append(analysis.Issues, metaRes.Issues...)
	analysis.Issues = append(analysis.Issues, contentRes.Issues...)
	analysis.Issues = append(analysis.Issues, technicalRes.Issues...)

	analysis.Metrics = mergeMetrics(metaRes.Metrics, contentRes.Metrics, technicalRes.Metrics)

	return analysis, nil
}

// run executes one analyzer, containing panics from defective rules.
func (p *Pipeline) run(a Analyzer, page *Page) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("analyzer panicked",
				"category", a.Category(),
				"url", page.URL,
				"panic", fmt.Sprintf("%v", r),
			)

			res = Result{
				Score: 0,
				Issues: []domain.Issue{issue(page,
					domain.IssueAnalysisFailed, domain.SeverityWarning, a.Category(),
					"Analysis of this page failed; results for this category are incomplete.")},
			}
		}
	}()

	return a.Analyze(page)
}

// mergeMetrics combines the disjoint metric fields each analyzer measures.
func mergeMetrics(meta, content, technical domain.PageMetrics) domain.PageMetrics {
	return domain.PageMetrics{
		StatusCode:            technical.StatusCode,
		Depth:                 technical.Depth,
		TitleLength:           meta.TitleLength,
		MetaDescriptionLength: meta.MetaDescriptionLength,
		H1Count:               content.H1Count,
		WordCount:             content.WordCount,
		ImageCount:            content.ImageCount,
		ImagesMissingAlt:      content.ImagesMissingAlt,
		InternalLinks:         technical.InternalLinks,
		ExternalLinks:         technical.ExternalLinks,
	}
}
