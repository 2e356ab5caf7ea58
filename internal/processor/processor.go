// Package processor drives queued audit jobs through the crawl and
// analysis pipeline, writing progress and results back to the job store.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/siteaudit/internal/analyzer"
	"github.com/jonesrussell/siteaudit/internal/crawler"
	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/fetcher"
	"github.com/jonesrussell/siteaudit/internal/logger"
	"github.com/jonesrussell/siteaudit/internal/metrics"
	"github.com/jonesrussell/siteaudit/internal/report"
)

// Store is the processor's view of the job store.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Job, error)
	MarkProcessing(ctx context.Context, id string) error
	Requeue(ctx context.Context, id string) error
	SetProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, results *domain.SiteReport) error
	Fail(ctx context.Context, id, errMsg string, partial *domain.SiteReport) error
}

// Config holds per-job pipeline defaults. Submitted job params override the
// crawl bounds; the transport settings are fixed per deployment.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	DefaultMaxPages int
	DefaultMaxDepth int
	DefaultDelay    time.Duration
}

// progressCap keeps in-flight progress below 100 until completion.
const progressCap = 99

// Processor runs one audit job end to end.
type Processor struct {
	store    Store
	pipeline *analyzer.Pipeline
	metrics  *metrics.Metrics
	logger   logger.Interface
	cfg      Config
}

// New creates a Processor.
func New(store Store, pipeline *analyzer.Pipeline, m *metrics.Metrics, log logger.Interface, cfg Config) *Processor {
	return &Processor{
		store:    store,
		pipeline: pipeline,
		metrics:  m,
		logger:   log.WithComponent("processor"),
		cfg:      cfg,
	}
}

// Process runs the job with the given id: queued -> processing ->
// completed or failed. Page-level errors never fail the job; crawl aborts
// and store failures do, with any partial results attached.
func (p *Processor) Process(ctx context.Context, jobID string) {
	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		p.logger.Error("load job failed", "job_id", jobID, "error", err)
		return
	}
	if job == nil {
		p.logger.Warn("dequeued job no longer exists", "job_id", jobID)
		return
	}
	if job.Status != domain.JobStatusQueued {
		p.logger.Warn("dequeued job not in queued state", "job_id", jobID, "status", job.Status)
		return
	}

	if markErr := p.store.MarkProcessing(ctx, jobID); markErr != nil {
		p.logger.Error("mark processing failed", "job_id", jobID, "error", markErr)
		// The id was already popped from the pending list; put it back
		// so the job is not stranded in the queued state.
		if requeueErr := p.store.Requeue(ctx, jobID); requeueErr != nil {
			p.logger.Error("requeue failed", "job_id", jobID, "error", requeueErr)
		}
		return
	}

	p.metrics.JobsRunning.Inc()
	start := time.Now()

	outcome := p.runJob(ctx, job)

	p.metrics.JobsRunning.Dec()
	p.metrics.JobDurationSeconds.Observe(time.Since(start).Seconds())
	p.metrics.JobsTotal.WithLabelValues(outcome).Inc()

	p.logger.Info("job finished",
		"job_id", jobID,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Job outcomes recorded in metrics.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeCanceled  = "canceled"
)

// runJob executes the crawl+analysis pipeline and persists the terminal
// state. Returns the outcome label.
func (p *Processor) runJob(ctx context.Context, job *domain.Job) string {
	params := job.EffectiveParams()
	p.applyDefaults(&params, job.Type)

	eng, err := p.buildCrawler(params)
	if err != nil {
		p.fail(ctx, job.ID, err.Error(), nil)
		return outcomeFailed
	}

	crawlCtx, cancelCrawl := context.WithCancel(ctx)
	defer cancelCrawl()

	canceled := false

	opts := crawler.Options{
		MaxPages: params.MaxPages,
		MaxDepth: params.MaxDepth,
		Delay:    time.Duration(params.DelayMs) * time.Millisecond,
		OnPageFetched: func(fetched int) {
			p.metrics.PagesFetchedTotal.Inc()
			p.reportProgress(ctx, job.ID, fetched, params.MaxPages)

			if p.cancelRequested(ctx, job.ID) {
				canceled = true
				cancelCrawl()
			}
		},
	}

	res, crawlErr := eng.Crawl(crawlCtx, params.URL, opts)
	if res != nil {
		p.metrics.PageFetchErrors.Add(float64(res.Stats.PagesFailed))
	}

	switch {
	case crawlErr == nil:
		p.complete(ctx, job, res)
		return outcomeCompleted

	case canceled:
		partial := p.buildReport(job, res)
		p.fail(ctx, job.ID, "canceled by request", partial)
		return outcomeCanceled

	case errors.Is(crawlErr, crawler.ErrCrawlAborted):
		partial := p.buildReport(job, res)
		p.fail(ctx, job.ID, crawlErr.Error(), partial)
		return outcomeFailed

	default:
		var partial *domain.SiteReport
		if res != nil && len(res.Pages) > 0 {
			partial = p.buildReport(job, res)
		}
		p.fail(ctx, job.ID, crawlErr.Error(), partial)
		return outcomeFailed
	}
}

// applyDefaults fills unset crawl bounds from the deployment defaults.
// A zero or negative bound counts as unset; a page audit keeps the zero
// depth its type dictates.
func (p *Processor) applyDefaults(params *domain.JobParams, jobType domain.JobType) {
	if params.MaxPages <= 0 {
		params.MaxPages = p.cfg.DefaultMaxPages
	}
	if params.MaxDepth <= 0 && jobType != domain.JobTypePageAudit {
		params.MaxDepth = p.cfg.DefaultMaxDepth
	}
	if params.DelayMs <= 0 {
		params.DelayMs = int(p.cfg.DefaultDelay.Milliseconds())
	}
}

// buildCrawler assembles the per-job crawl engine. Each job gets its own
// fetcher, robots checker, and link extractor; workers share no mutable
// state except the job store.
func (p *Processor) buildCrawler(params domain.JobParams) (*crawler.Crawler, error) {
	if err := crawler.ValidateSeed(params.URL); err != nil {
		return nil, fmt.Errorf("invalid seed url: %w", err)
	}

	pageFetcher := fetcher.New(
		fetcher.WithUserAgent(p.cfg.UserAgent),
		fetcher.WithTimeout(p.cfg.RequestTimeout),
	)

	links, err := fetcher.NewLinkExtractor(params.URL, params.IncludeSubdomains)
	if err != nil {
		return nil, err
	}

	var robots crawler.RobotsPolicy
	if params.RespectRobots {
		robots = fetcher.NewRobotsChecker(pageFetcher.Client(), pageFetcher.UserAgent())
	}

	return crawler.New(pageFetcher, robots, links, p.logger), nil
}

// reportProgress persists crawl progress proportional to pages fetched.
func (p *Processor) reportProgress(ctx context.Context, jobID string, fetched, maxPages int) {
	progress := fetched * 100 / maxPages
	if progress > progressCap {
		progress = progressCap
	}

	if err := p.store.SetProgress(ctx, jobID, progress); err != nil {
		p.logger.Warn("progress update failed", "job_id", jobID, "error", err)
	}
}

// cancelRequested checks the job's cooperative cancellation flag.
func (p *Processor) cancelRequested(ctx context.Context, jobID string) bool {
	job, err := p.store.Get(ctx, jobID)
	if err != nil || job == nil {
		return false
	}
	return job.CancelRequested
}

// buildReport analyzes the crawl's pages and aggregates the site report.
// Transport-failed pages carry no DOM and are excluded from analysis; they
// remain visible through the crawl stats. A page whose HTML cannot be
// parsed or analyzed is still included, with zero scores and a flagged
// issue.
func (p *Processor) buildReport(job *domain.Job, res *crawler.Result) *domain.SiteReport {
	analyses := make([]domain.PageAnalysis, 0, len(res.Pages))

	for _, page := range res.Pages {
		if page.Failed() {
			continue
		}

		analysis, err := p.pipeline.Analyze(page)
		if err != nil {
			p.logger.Warn("page analysis failed", "url", page.URL, "error", err)
			analyses = append(analyses, failedAnalysis(page))
			continue
		}

		analyses = append(analyses, *analysis)
	}

	return report.Aggregate(job.Params.URL, analyses, res.Stats)
}

// failedAnalysis records a page whose analysis could not run at all.
func failedAnalysis(page *domain.FetchedPage) domain.PageAnalysis {
	return domain.PageAnalysis{
		URL: page.URL,
		Issues: []domain.Issue{{
			Type:           domain.IssueAnalysisFailed,
			Severity:       domain.SeverityWarning,
			Category:       "analysis",
			Recommendation: "Analysis of this page failed; its scores are not available.",
			AffectedURL:    page.URL,
		}},
		Metrics: domain.PageMetrics{StatusCode: page.StatusCode, Depth: page.Depth},
	}
}

// complete aggregates the final report and stores it.
func (p *Processor) complete(ctx context.Context, job *domain.Job, res *crawler.Result) {
	results := p.buildReport(job, res)

	if err := p.store.Complete(ctx, job.ID, results); err != nil {
		p.logger.Error("store results failed", "job_id", job.ID, "error", err)
	}
}

// fail records a terminal failure, attaching partial results when any
// pages were fetched.
func (p *Processor) fail(ctx context.Context, jobID, msg string, partial *domain.SiteReport) {
	if err := p.store.Fail(ctx, jobID, msg, partial); err != nil {
		p.logger.Error("store failure state failed", "job_id", jobID, "error", err)
	}
}
