package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/siteaudit/internal/analyzer"
	"github.com/jonesrussell/siteaudit/internal/config"
	"github.com/jonesrussell/siteaudit/internal/crawler"
	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/fetcher"
	"github.com/jonesrussell/siteaudit/internal/logger"
	"github.com/jonesrussell/siteaudit/internal/report"
)

// auditCommand returns the audit command: a one-shot synchronous crawl
// that prints the site report as a table. No Redis required.
func auditCommand() *cobra.Command {
	var (
		maxPages          int
		maxDepth          int
		respectRobots     bool
		includeSubdomains bool
		delayMs           int
	)

	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Crawl a site and print its SEO report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), args[0], domain.JobParams{
				MaxPages:          maxPages,
				MaxDepth:          maxDepth,
				RespectRobots:     respectRobots,
				IncludeSubdomains: includeSubdomains,
				DelayMs:           delayMs,
			})
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages to crawl (default from config)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum link depth from the seed (default from config)")
	cmd.Flags().BoolVar(&respectRobots, "respect-robots", true, "honor the site's robots.txt")
	cmd.Flags().BoolVar(&includeSubdomains, "include-subdomains", false, "crawl subdomains of the seed's domain")
	cmd.Flags().IntVar(&delayMs, "delay", 0, "delay between fetches in milliseconds")

	return cmd
}

// runAudit runs the crawl+analysis pipeline synchronously and renders the
// report.
func runAudit(ctx context.Context, seedURL string, params domain.JobParams) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logErr := logger.New(cfg.Logging)
	if logErr != nil {
		return fmt.Errorf("failed to create logger: %w", logErr)
	}

	if seedErr := crawler.ValidateSeed(seedURL); seedErr != nil {
		return fmt.Errorf("invalid url: %w", seedErr)
	}

	if params.MaxPages <= 0 {
		params.MaxPages = cfg.Crawler.MaxPages
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = cfg.Crawler.MaxDepth
	}
	if params.DelayMs <= 0 {
		params.DelayMs = int(cfg.Crawler.RequestDelay.Milliseconds())
	}

	pageFetcher := fetcher.New(
		fetcher.WithUserAgent(cfg.Crawler.UserAgent),
		fetcher.WithTimeout(cfg.Crawler.RequestTimeout),
	)

	links, linksErr := fetcher.NewLinkExtractor(seedURL, params.IncludeSubdomains)
	if linksErr != nil {
		return linksErr
	}

	var robots crawler.RobotsPolicy
	if params.RespectRobots {
		robots = fetcher.NewRobotsChecker(pageFetcher.Client(), pageFetcher.UserAgent())
	}

	eng := crawler.New(pageFetcher, robots, links, log)

	res, crawlErr := eng.Crawl(ctx, seedURL, crawler.Options{
		MaxPages: params.MaxPages,
		MaxDepth: params.MaxDepth,
		Delay:    time.Duration(params.DelayMs) * time.Millisecond,
	})
	if crawlErr != nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}

	pipeline := analyzer.NewPipeline(log)
	analyses := make([]domain.PageAnalysis, 0, len(res.Pages))

	for _, page := range res.Pages {
		if page.Failed() {
			continue
		}

		analysis, analyzeErr := pipeline.Analyze(page)
		if analyzeErr != nil {
			log.Warn("page analysis failed", "url", page.URL, "error", analyzeErr)
			continue
		}

		analyses = append(analyses, *analysis)
	}

	siteReport := report.Aggregate(seedURL, analyses, res.Stats)
	renderReport(siteReport)

	return nil
}

// renderReport prints the site report as tables.
func renderReport(r *domain.SiteReport) {
	fmt.Printf("\nSite: %s\nScore: %d/100  Pages: %d  Failed: %d  Duration: %dms\n\n",
		r.BaseURL, r.Score, r.CrawlStats.PagesCrawled, r.CrawlStats.PagesFailed, r.CrawlStats.DurationMs)

	pages := table.NewWriter()
	pages.SetOutputMirror(os.Stdout)
	pages.SetStyle(table.StyleLight)
	pages.AppendHeader(table.Row{"URL", "Score", "Meta", "Content", "Technical", "Issues"})

	for i := range r.Pages {
		p := &r.Pages[i]
		pages.AppendRow(table.Row{
			p.URL, p.Score(), p.MetaScore, p.ContentScore, p.TechnicalScore, len(p.Issues),
		})
	}
	pages.Render()

	if len(r.CommonIssues) == 0 {
		return
	}

	fmt.Println()

	common := table.NewWriter()
	common.SetOutputMirror(os.Stdout)
	common.SetStyle(table.StyleLight)
	common.AppendHeader(table.Row{"Issue", "Severity", "Pages Affected", "Recommendation"})

	for _, ci := range r.CommonIssues {
		common.AppendRow(table.Row{ci.Type, ci.Severity, ci.Frequency, ci.Recommendation})
	}
	common.Render()
}
