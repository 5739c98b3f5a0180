package crawl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// seedPaths are probed in addition to the homepage regardless of what the
// site links to. Ordered roughly by how often small-business sites use them.
var seedPaths = []string{
	"/about", "/about-us", "/aboutus", "/company",
	"/contact", "/contact-us", "/contactus",
	"/services", "/our-services", "/solutions",
	"/products", "/pricing",
	"/team", "/our-team", "/people", "/leadership",
	"/blog", "/news",
}

// commonSitemapPaths are tried when robots.txt declares no sitemap.
var commonSitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap.txt"}

const (
	maxBodyBytes    = 512 * 1024
	maxSitemapBytes = 2 * 1024 * 1024
	maxSitemapSeeds = 50
)

// Discoverer performs a bounded breadth-first crawl of one site and produces
// a deduplicated, categorized, priority-ordered page list. A URL counts as
// discovered only after a live fetch confirms 2xx and text/html; error and
// non-HTML responses are mined for further links but never consume the
// discovery quota.
type Discoverer struct {
	http   *http.Client
	cfg    config.CrawlConfig
	scheme string
}

// NewDiscoverer creates a Discoverer from crawl config.
func NewDiscoverer(cfg config.CrawlConfig) *Discoverer {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Discoverer{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		cfg:    cfg,
		scheme: "https",
	}
}

func (d *Discoverer) base(normalizedDomain string) string {
	return d.scheme + "://" + normalizedDomain
}

// Probe checks that the domain serves something over HTTP. Used by the
// engine's validate stage before any crawling happens.
func (d *Discoverer) Probe(ctx context.Context, normalizedDomain string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base(normalizedDomain), nil)
	if err != nil {
		return eris.Wrap(err, "crawl: create probe request")
	}
	req.Header.Set("User-Agent", scrape.NextUserAgent())

	resp, err := d.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "crawl: domain %s unreachable", normalizedDomain)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return eris.Errorf("crawl: domain %s returned status %d", normalizedDomain, resp.StatusCode)
	}
	return nil
}

// Discover runs the bounded BFS and returns the priority-ordered page list
// plus the number of URLs seeded from sitemaps.
func (d *Discoverer) Discover(ctx context.Context, normalizedDomain string) ([]model.PageRecord, int, error) {
	base, err := url.Parse(d.base(normalizedDomain))
	if err != nil {
		return nil, 0, eris.Wrap(err, "crawl: parse base url")
	}

	seen := make(map[string]bool)
	var frontier []string

	enqueue := func(raw string) {
		norm, ok := d.normalizePageURL(raw, base)
		if !ok || seen[norm] {
			return
		}
		seen[norm] = true
		frontier = append(frontier, norm)
	}

	// Seed: homepage, fixed paths, sitemap-declared URLs.
	enqueue(base.String())
	for _, p := range seedPaths {
		enqueue(base.String() + p)
	}
	sitemapURLs := d.sitemapSeeds(ctx, base)
	for _, su := range sitemapURLs {
		enqueue(su)
	}
	if len(sitemapURLs) > 0 {
		zap.L().Debug("crawl: seeded urls from sitemaps",
			zap.String("domain", normalizedDomain),
			zap.Int("count", len(sitemapURLs)),
		)
	}

	var discovered []model.PageRecord
	for len(frontier) > 0 && len(discovered) < d.cfg.MaxPages {
		pageURL := frontier[0]
		frontier = frontier[1:]

		isHTML, body := d.fetch(ctx, pageURL)
		if isHTML {
			discovered = append(discovered, model.PageRecord{
				URL:      pageURL,
				Category: CategorizeURL(pageURL),
				Status:   model.PageStatusPending,
			})
			monitoring.PagesDiscovered.Inc()
		}

		// Link extraction happens on anything we fetched, HTML or not, but
		// only HTML 2xx responses count toward the quota.
		for _, link := range parseLinks(string(body), base) {
			enqueue(link)
		}
	}

	return PrioritizePages(discovered, d.cfg.MaxPages), len(sitemapURLs), nil
}

// fetch GETs one URL. Returns whether the response was a 2xx HTML page, and
// whatever body was read (possibly nil on transport errors).
func (d *Discoverer) fetch(ctx context.Context, pageURL string) (bool, []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return false, nil
	}
	req.Header.Set("User-Agent", scrape.NextUserAgent())

	resp, err := d.http.Do(req)
	if err != nil {
		zap.L().Debug("crawl: fetch failed", zap.String("url", pageURL), zap.Error(err))
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	contentType := resp.Header.Get("Content-Type")
	isHTML := resp.StatusCode >= 200 && resp.StatusCode < 300 &&
		strings.Contains(strings.ToLower(contentType), "text/html")
	return isHTML, body
}

// sitemapSeeds collects same-host URLs from robots.txt-declared sitemaps,
// falling back to common sitemap paths. Capped at maxSitemapSeeds.
func (d *Discoverer) sitemapSeeds(ctx context.Context, base *url.URL) []string {
	sitemaps := d.robotsSitemaps(ctx, base)
	if len(sitemaps) == 0 {
		for _, p := range commonSitemapPaths {
			sitemaps = append(sitemaps, base.String()+p)
		}
	}

	var seeds []string
	for _, sm := range sitemaps {
		for _, u := range d.fetchSitemapURLs(ctx, sm, base) {
			seeds = append(seeds, u)
			if len(seeds) >= maxSitemapSeeds {
				return seeds
			}
		}
	}
	return seeds
}

// robotsSitemaps parses Sitemap: lines out of robots.txt.
func (d *Discoverer) robotsSitemaps(ctx context.Context, base *url.URL) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String()+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", scrape.NextUserAgent())

	resp, err := d.http.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var sitemaps []string
	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxBodyBytes))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 8 || !strings.EqualFold(line[:8], "sitemap:") {
			continue
		}
		loc := strings.TrimSpace(line[8:])
		if loc != "" {
			sitemaps = append(sitemaps, loc)
		}
	}
	return sitemaps
}

// sitemapURLSet represents a basic sitemap.xml <urlset> document.
type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

// sitemapLoc represents a single <url><loc> entry.
type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// fetchSitemapURLs fetches and parses one sitemap, returning same-host URLs.
// Handles XML <urlset> and plain-text sitemaps; does NOT recurse into
// sitemap index files (<sitemapindex>).
func (d *Discoverer) fetchSitemapURLs(ctx context.Context, sitemapURL string, base *url.URL) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", scrape.NextUserAgent())

	resp, err := d.http.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return nil
	}

	var locs []string
	var urlSet sitemapURLSet
	if xml.Unmarshal(body, &urlSet) == nil && len(urlSet.URLs) > 0 {
		for _, entry := range urlSet.URLs {
			locs = append(locs, strings.TrimSpace(entry.Loc))
		}
	} else {
		// Plain-text sitemap: one URL per line.
		scanner := bufio.NewScanner(bytes.NewReader(body))
		for scanner.Scan() {
			locs = append(locs, strings.TrimSpace(scanner.Text()))
		}
	}

	var urls []string
	for _, loc := range locs {
		if loc == "" {
			continue
		}
		u, err := url.Parse(loc)
		if err != nil || !SameHost(u.Host, base.Host) {
			continue
		}
		urls = append(urls, loc)
	}
	return urls
}

// normalizePageURL resolves a link against the base, applies the same-host
// filter (www-insensitive), strips fragments, and trims trailing slashes so
// the seen-set dedupes consistently.
func (d *Discoverer) normalizePageURL(raw string, base *url.URL) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(u)

	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !SameHost(abs.Host, base.Host) {
		return "", false
	}

	abs.Fragment = ""
	abs.Host = strings.ToLower(abs.Host)
	// The root path collapses to the bare origin so "/" self-links dedupe
	// against the seeded homepage.
	abs.Path = strings.TrimSuffix(abs.Path, "/")
	return abs.String(), true
}

// parseLinks does a simple extraction of href attributes from HTML.
func parseLinks(html string, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)

	idx := 0
	for {
		pos := strings.Index(html[idx:], `href="`)
		if pos == -1 {
			break
		}
		idx += pos + 6

		end := strings.Index(html[idx:], `"`)
		if end == -1 {
			break
		}

		href := html[idx : idx+end]
		idx += end + 1

		// Skip anchors, javascript, mailto, tel.
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			continue
		}

		resolved, err := url.Parse(href)
		if err != nil {
			continue
		}
		absolute := base.ResolveReference(resolved)
		if !SameHost(absolute.Host, base.Host) {
			continue
		}

		absolute.Fragment = ""
		normalized := absolute.String()
		if !seen[normalized] {
			seen[normalized] = true
			links = append(links, normalized)
		}
	}

	return links
}
