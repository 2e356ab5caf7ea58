// Package fetcher provides HTTP page fetching for the audit pipeline,
// including robots.txt compliance checking and same-site link extraction.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies the auditor to target sites.
const DefaultUserAgent = "SiteAuditBot/1.0 (+https://github.com/jonesrussell/siteaudit)"

// defaultRequestTimeout bounds a single page fetch.
const defaultRequestTimeout = 15 * time.Second

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// maxRedirectHops limits redirect chains per fetch.
const maxRedirectHops = 10

// TransportError reports a fetch that failed below the HTTP layer
// (DNS failure, connection refused, timeout). HTTP error statuses are
// not transport errors; they are successful fetches with a non-2xx code.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a single fetch: the final URL after redirects,
// the HTTP status, and the response body.
type Result struct {
	FinalURL   string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// PageFetcher retrieves single pages over HTTP with a bounded timeout
// and an identifiable user agent.
type PageFetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a PageFetcher.
type Option func(*PageFetcher)

// WithUserAgent overrides the default user agent.
func WithUserAgent(ua string) Option {
	return func(f *PageFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *PageFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// New creates a PageFetcher.
func New(opts ...Option) *PageFetcher {
	f := &PageFetcher{
		client: &http.Client{
			Timeout:       defaultRequestTimeout,
			CheckRedirect: RedirectPolicy(maxRedirectHops),
		},
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// UserAgent returns the user agent the fetcher sends.
func (f *PageFetcher) UserAgent() string {
	return f.userAgent
}

// Client returns the underlying HTTP client, shared with the robots checker
// so both honor the same timeout.
func (f *PageFetcher) Client() *http.Client {
	return f.client
}

// Fetch retrieves one URL. Non-2xx statuses are returned as successful
// results; only transport-level failures produce a *TransportError.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return nil, &TransportError{URL: rawURL, Err: reqErr}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, &TransportError{URL: rawURL, Err: doErr}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", readErr)}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Body:       body,
		FetchedAt:  time.Now(),
	}, nil
}
