package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const maxFetchBytes = 1024 * 1024

// Fetcher fetches one URL and returns its raw HTML. Two implementations
// exist: a static net/http fetch and a headless chromedp render. The scraper
// selects between them with an SPA-detection predicate.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Name() string
}

// StaticFetcher fetches HTML via net/http with a rotated user-agent. Free,
// no browser involved. Falls through to the headless fetcher when the page
// looks like a client-rendered shell.
type StaticFetcher struct {
	client *http.Client
}

// NewStaticFetcher creates a StaticFetcher with the given request timeout.
func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StaticFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (f *StaticFetcher) Name() string { return "static" }

// Fetch GETs the URL and returns the body as a string.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "static: create request")
	}
	req.Header.Set("User-Agent", NextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "static: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("static: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", eris.Wrap(err, "static: read body")
	}
	return string(body), nil
}
