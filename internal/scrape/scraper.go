package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
)

// Scraper fetches and parses single pages. A static fetch runs first; when
// the SPA detector flags the result as a client-rendered shell and a
// headless fetcher is configured, the same URL is re-fetched through
// headless Chrome before parsing.
type Scraper struct {
	static      Fetcher
	headless    Fetcher
	detector    SPADetector
	concurrency int
}

// NewScraper creates a Scraper from config. headless may be nil to disable
// the render fallback entirely.
func NewScraper(cfg config.ScrapeConfig) *Scraper {
	var headless Fetcher
	if cfg.HeadlessEnabled {
		headless = NewHeadlessFetcher(time.Duration(cfg.HeadlessTimeoutSecs) * time.Second)
	}
	return NewScraperWith(
		NewStaticFetcher(time.Duration(cfg.TimeoutSecs)*time.Second),
		headless,
		DefaultSPADetector,
		cfg.Concurrency,
	)
}

// NewScraperWith creates a Scraper with explicit fetchers and detector.
func NewScraperWith(static, headless Fetcher, detector SPADetector, concurrency int) *Scraper {
	if detector == nil {
		detector = DefaultSPADetector
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Scraper{
		static:      static,
		headless:    headless,
		detector:    detector,
		concurrency: concurrency,
	}
}

// Scrape fetches and parses one page.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*model.PageSignals, error) {
	html, err := s.static.Fetch(ctx, pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: fetch %s", pageURL)
	}

	rendered := false
	if s.headless != nil && s.detector(html) {
		renderedHTML, renderErr := s.headless.Fetch(ctx, pageURL)
		if renderErr != nil {
			// Parse the static shell rather than losing the page.
			zap.L().Warn("scrape: headless fallback failed",
				zap.String("url", pageURL),
				zap.Error(renderErr),
			)
		} else {
			html = renderedHTML
			rendered = true
		}
	}

	signals := ParseSignals(html, pageURL)
	signals.Rendered = rendered
	return signals, nil
}

// ScrapeAll fans page scraping out concurrently with independent failure
// containment: one page's failure or timeout never aborts sibling fetches.
// Records are updated in place with per-page status.
func (s *Scraper) ScrapeAll(ctx context.Context, pages []model.PageRecord) []model.PageRecord {
	out := make([]model.PageRecord, len(pages))
	copy(out, pages)

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range out {
		g.Go(func() error {
			signals, err := s.Scrape(gCtx, out[i].URL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out[i].Status = model.PageStatusFailed
				out[i].Error = err.Error()
				monitoring.PagesScraped.WithLabelValues("failed").Inc()
				zap.L().Warn("scrape: page failed", zap.String("url", out[i].URL), zap.Error(err))
				return nil
			}
			out[i].Status = model.PageStatusScraped
			out[i].Extracted = signals
			monitoring.PagesScraped.WithLabelValues("scraped").Inc()
			return nil
		})
	}

	_ = g.Wait()
	return out
}
