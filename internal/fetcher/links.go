package fetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// LinkExtractor parses fetched HTML into a normalized, de-duplicated list
// of same-site links. Which hosts count as same-site is fixed when the
// extractor is created from the crawl's seed URL.
type LinkExtractor struct {
	seedHost          string
	seedDomain        string // registrable domain (eTLD+1) of the seed
	includeSubdomains bool
}

// NewLinkExtractor creates a LinkExtractor scoped to the seed URL's site.
// When includeSubdomains is set, links on any subdomain of the seed's
// registrable domain are retained; otherwise only the seed's exact host.
func NewLinkExtractor(seedURL string, includeSubdomains bool) (*LinkExtractor, error) {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("links: parse seed url: %w", err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return nil, fmt.Errorf("links: seed url %q has no host", seedURL)
	}

	domain, psErr := publicsuffix.EffectiveTLDPlusOne(host)
	if psErr != nil {
		// Hosts without a public suffix (localhost, IPs) compare by exact host.
		domain = host
	}

	return &LinkExtractor{
		seedHost:          host,
		seedDomain:        domain,
		includeSubdomains: includeSubdomains,
	}, nil
}

// Extract parses the HTML and returns the normalized same-site links found
// in anchor tags, de-duplicated, in document order. Malformed href values
// are skipped.
func (e *LinkExtractor) Extract(html []byte, pageURL string) ([]string, error) {
	base, baseErr := url.Parse(pageURL)
	if baseErr != nil {
		return nil, fmt.Errorf("links: parse page url: %w", baseErr)
	}

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if docErr != nil {
		return nil, fmt.Errorf("links: parse html: %w", docErr)
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		normalized, ok := e.resolve(base, href)
		if !ok {
			return
		}

		if _, dup := seen[normalized]; dup {
			return
		}

		seen[normalized] = struct{}{}
		links = append(links, normalized)
	})

	return links, nil
}

// SameSite reports whether the host belongs to the crawl's site.
func (e *LinkExtractor) SameSite(host string) bool {
	host = strings.ToLower(host)

	if e.includeSubdomains {
		return host == e.seedDomain || strings.HasSuffix(host, "."+e.seedDomain)
	}

	return host == e.seedHost
}

// resolve turns one href into a normalized absolute same-site URL.
func (e *LinkExtractor) resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	if !e.SameSite(abs.Hostname()) {
		return "", false
	}

	return NormalizeURL(abs), true
}

// NormalizeURL produces the canonical form used for frontier de-duplication:
// lowercase scheme and host, default port stripped, fragment stripped,
// empty path normalized to "/".
func NormalizeURL(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)

	if (n.Scheme == "http" && strings.HasSuffix(n.Host, ":80")) ||
		(n.Scheme == "https" && strings.HasSuffix(n.Host, ":443")) {
		n.Host = n.Hostname()
	}

	if n.Path == "" {
		n.Path = "/"
	}

	return n.String()
}

// NormalizeRawURL parses and normalizes a URL string.
func NormalizeRawURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("links: parse url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("links: unsupported scheme %q", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("links: url %q has no host", raw)
	}

	return NormalizeURL(u), nil
}
