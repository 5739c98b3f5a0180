package scrape

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// HeadlessFetcher renders a page in headless Chrome and returns the
// post-hydration HTML. Used only when the SPA detector flags a static fetch
// as a client-rendered shell.
type HeadlessFetcher struct {
	timeout time.Duration
}

// NewHeadlessFetcher creates a HeadlessFetcher with the given render timeout.
func NewHeadlessFetcher(timeout time.Duration) *HeadlessFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HeadlessFetcher{timeout: timeout}
}

func (f *HeadlessFetcher) Name() string { return "headless" }

// Fetch navigates to the URL in a fresh browser context and returns the
// rendered document HTML.
func (f *HeadlessFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(NextUserAgent()),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(targetURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "headless: render %s", targetURL)
	}
	return html, nil
}
