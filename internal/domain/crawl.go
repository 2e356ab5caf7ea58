package domain

import "time"

// CrawlTarget is a URL queued for fetch at a given link-distance from the seed.
type CrawlTarget struct {
	URL   string
	Depth int
}

// FetchedPage is the fetcher's output for one URL. Non-2xx statuses are
// successful fetches; Error is set only for transport-level failures.
// Immutable once produced.
type FetchedPage struct {
	URL        string    `json:"url"`
	FinalURL   string    `json:"final_url"`
	StatusCode int       `json:"status_code"`
	HTML       []byte    `json:"-"`
	Depth      int       `json:"depth"`
	FetchedAt  time.Time `json:"fetched_at"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the fetch failed at the transport level.
func (p *FetchedPage) Failed() bool {
	return p.Error != ""
}

// OK reports whether the page was fetched with a 2xx status.
func (p *FetchedPage) OK() bool {
	return !p.Failed() && p.StatusCode >= 200 && p.StatusCode < 300
}

// CrawlStats summarizes one crawl run.
type CrawlStats struct {
	PagesCrawled int    `json:"pages_crawled"`
	PagesFailed  int    `json:"pages_failed"`
	DepthReached int    `json:"depth_reached"`
	DurationMs   int64  `json:"duration_ms"`
	Aborted      bool   `json:"aborted,omitempty"`
	AbortReason  string `json:"abort_reason,omitempty"`
}
