// Package crawler implements bounded breadth-first traversal of a site's
// link graph.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/fetcher"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// maxConsecutiveFailures is the number of back-to-back transport failures
// tolerated before a crawl is aborted to avoid hammering a dead host.
const maxConsecutiveFailures = 5

// ErrCrawlAborted is returned when too many consecutive fetches failed at
// the transport level. Pages fetched before the abort are still returned.
var ErrCrawlAborted = errors.New("crawl aborted: too many consecutive fetch failures")

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Result, error)
}

// RobotsPolicy answers whether a URL may be fetched.
type RobotsPolicy interface {
	IsAllowed(ctx context.Context, rawURL string) (bool, error)
}

// LinkSource extracts same-site links from fetched HTML.
type LinkSource interface {
	Extract(html []byte, pageURL string) ([]string, error)
}

// Options bound one crawl run. Robots enforcement is decided by whether a
// RobotsPolicy was injected into the Crawler.
type Options struct {
	MaxPages int
	MaxDepth int
	Delay    time.Duration

	// OnPageFetched, when set, is called after every recorded page.
	// Fetched counts both successes and transport failures.
	OnPageFetched func(fetched int)
}

// Result holds the pages recorded by one crawl and its run statistics.
type Result struct {
	Pages []*domain.FetchedPage
	Stats domain.CrawlStats
}

// Crawler walks a site breadth-first from a seed URL, bounded by page and
// depth limits, with an enforced delay between consecutive fetches.
// Fetches are sequential per crawl; politeness over throughput.
type Crawler struct {
	fetcher Fetcher
	robots  RobotsPolicy
	links   LinkSource
	logger  logger.Interface
}

// New creates a Crawler.
func New(f Fetcher, robots RobotsPolicy, links LinkSource, log logger.Interface) *Crawler {
	return &Crawler{
		fetcher: f,
		robots:  robots,
		links:   links,
		logger:  log.WithComponent("crawler"),
	}
}

// Crawl traverses the site starting at seedURL. A single page failure is
// recorded and does not abort the crawl. The partial Result is returned
// alongside ErrCrawlAborted or a context error so callers can persist what
// was fetched.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, opts Options) (*Result, error) {
	seed, err := fetcher.NormalizeRawURL(seedURL)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}

	start := time.Now()
	res := &Result{}

	visited := map[string]struct{}{seed: {}}
	frontier := []domain.CrawlTarget{{URL: seed, Depth: 0}}
	consecutiveFailures := 0
	fetches := 0

	for len(frontier) > 0 && len(res.Pages) < opts.MaxPages {
		target := frontier[0]
		frontier = frontier[1:]

		if target.Depth > opts.MaxDepth {
			continue
		}

		if c.disallowed(ctx, target.URL) {
			c.logger.Debug("robots disallowed", "url", target.URL)
			continue
		}

		if fetches > 0 && opts.Delay > 0 {
			if waitErr := sleepCtx(ctx, opts.Delay); waitErr != nil {
				c.abort(res, start, "canceled")
				return res, waitErr
			}
		}
		fetches++

		page := c.fetchPage(ctx, target)
		res.Pages = append(res.Pages, page)

		if page.Depth > res.Stats.DepthReached {
			res.Stats.DepthReached = page.Depth
		}

		if opts.OnPageFetched != nil {
			opts.OnPageFetched(len(res.Pages))
		}

		if page.Failed() {
			res.Stats.PagesFailed++
			consecutiveFailures++

			if ctx.Err() != nil {
				c.abort(res, start, "canceled")
				return res, ctx.Err()
			}

			if consecutiveFailures >= maxConsecutiveFailures {
				c.abort(res, start, "too many consecutive fetch failures")
				return res, ErrCrawlAborted
			}
			continue
		}
		consecutiveFailures = 0

		frontier = c.enqueueLinks(frontier, visited, page, target.Depth, opts)
	}

	c.finish(res, start)
	return res, nil
}

// fetchPage fetches one target, converting transport failures into a
// recorded page with Error set.
func (c *Crawler) fetchPage(ctx context.Context, target domain.CrawlTarget) *domain.FetchedPage {
	result, err := c.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		c.logger.Warn("page fetch failed", "url", target.URL, "error", err)

		return &domain.FetchedPage{
			URL:       target.URL,
			FinalURL:  target.URL,
			Depth:     target.Depth,
			FetchedAt: time.Now(),
			Error:     err.Error(),
		}
	}

	return &domain.FetchedPage{
		URL:        target.URL,
		FinalURL:   result.FinalURL,
		StatusCode: result.StatusCode,
		HTML:       result.Body,
		Depth:      target.Depth,
		FetchedAt:  result.FetchedAt,
	}
}

// enqueueLinks extracts links from a fetched page and appends
// newly-discovered targets at depth+1.
func (c *Crawler) enqueueLinks(
	frontier []domain.CrawlTarget,
	visited map[string]struct{},
	page *domain.FetchedPage,
	depth int,
	opts Options,
) []domain.CrawlTarget {
	if !page.OK() || depth+1 > opts.MaxDepth {
		return frontier
	}

	links, err := c.links.Extract(page.HTML, page.FinalURL)
	if err != nil {
		c.logger.Warn("link extraction failed", "url", page.URL, "error", err)
		return frontier
	}

	for _, link := range links {
		if _, seen := visited[link]; seen {
			continue
		}

		visited[link] = struct{}{}
		frontier = append(frontier, domain.CrawlTarget{URL: link, Depth: depth + 1})
	}

	return frontier
}

// disallowed consults the robots policy when one is configured. Policy
// errors degrade to allow; a missing robots.txt never reaches here, the
// checker already degrades it to allow-all.
func (c *Crawler) disallowed(ctx context.Context, rawURL string) bool {
	if c.robots == nil {
		return false
	}

	allowed, err := c.robots.IsAllowed(ctx, rawURL)
	if err != nil {
		c.logger.Warn("robots check failed, allowing", "url", rawURL, "error", err)
		return false
	}

	return !allowed
}

// abort finalizes stats for an early termination.
func (c *Crawler) abort(res *Result, start time.Time, reason string) {
	c.finish(res, start)
	res.Stats.Aborted = true
	res.Stats.AbortReason = reason
}

// finish finalizes crawl statistics.
func (c *Crawler) finish(res *Result, start time.Time) {
	res.Stats.PagesCrawled = len(res.Pages)
	res.Stats.DurationMs = time.Since(start).Milliseconds()
}

// sleepCtx sleeps for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ValidateSeed reports whether a seed URL is crawlable.
func ValidateSeed(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Hostname() == "" {
		return errors.New("url has no host")
	}

	return nil
}
