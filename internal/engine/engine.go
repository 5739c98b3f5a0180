package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/consolidate"
	"github.com/sells-group/enrich-cli/internal/crawl"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
	"github.com/sells-group/enrich-cli/internal/oracle"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/internal/trace"
	"github.com/sells-group/enrich-cli/internal/validate"
	"github.com/sells-group/enrich-cli/internal/verify"
	"github.com/sells-group/enrich-cli/pkg/anthropic"
)

// Crawler validates a domain and discovers its pages.
type Crawler interface {
	Probe(ctx context.Context, normalizedDomain string) error
	Discover(ctx context.Context, normalizedDomain string) ([]model.PageRecord, int, error)
}

// PageScraper fetches and parses discovered pages.
type PageScraper interface {
	ScrapeAll(ctx context.Context, pages []model.PageRecord) []model.PageRecord
}

// SearchEnricher runs the external search stage.
type SearchEnricher interface {
	Enrich(ctx context.Context, companyName string) *model.SearchSignals
}

// OracleExtractor runs the structured-extraction call.
type OracleExtractor interface {
	Extract(ctx context.Context, input oracle.ExtractionInput) (*model.OracleExtraction, anthropic.TokenUsage, error)
}

// Progress checkpoints reached after each pipeline stage completes.
var stageCheckpoints = []int{15, 30, 45, 60, 75, 90, 100}

// Engine runs the enrichment pipeline for one domain at a time. Stages run
// sequentially; a stage-fatal error fails the whole job, while the search and
// oracle stages degrade to empty results instead of failing.
type Engine struct {
	store    store.Store
	crawler  Crawler
	scraper  PageScraper
	search   SearchEnricher
	oracle   OracleExtractor
	verifier verify.EmailVerifier
	cfg      *config.Config
}

// New creates an Engine. search, oracle, and verifier may be nil; the
// corresponding stages then degrade.
func New(st store.Store, crawler Crawler, scraper PageScraper, search SearchEnricher, orc OracleExtractor, verifier verify.EmailVerifier, cfg *config.Config) *Engine {
	return &Engine{
		store:    st,
		crawler:  crawler,
		scraper:  scraper,
		search:   search,
		oracle:   orc,
		verifier: verifier,
		cfg:      cfg,
	}
}

// EnrichCompany runs the full pipeline for one request and always returns a
// terminal result: completed with data, or failed with the error message.
func (e *Engine) EnrichCompany(ctx context.Context, req model.EnrichmentRequest) *model.EnrichmentResult {
	start := time.Now()
	normalized := crawl.NormalizeDomain(req.Domain)

	now := time.Now().UTC()
	job := &model.EnrichmentJob{
		ID:               uuid.New().String(),
		Domain:           req.Domain,
		NormalizedDomain: normalized,
		Status:           model.JobStatusPending,
		MaxRetries:       e.cfg.Engine.MaxRetries,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.store.CreateJob(ctx, job); err != nil {
		return e.failedResult(job, start, eris.Wrap(err, "engine: create job"))
	}

	tracer, err := trace.New(e.cfg.Trace.Dir, job.ID, normalized)
	if err != nil {
		return e.failedResult(job, start, eris.Wrap(err, "engine: create tracer"))
	}

	started := time.Now().UTC()
	job.Status = model.JobStatusInProgress
	job.StartedAt = &started
	e.persistJob(ctx, job)

	zap.L().Info("engine: job started",
		zap.String("job_id", job.ID),
		zap.String("domain", normalized),
	)

	data, md, dbResult, runErr := e.run(ctx, job, tracer, req)

	completed := time.Now().UTC()
	job.CompletedAt = &completed
	duration := time.Since(start)
	monitoring.JobDuration.Observe(duration.Seconds())

	if runErr != nil {
		job.Status = model.JobStatusFailed
		job.Error = runErr.Error()
		e.persistJob(ctx, job)
		monitoring.JobsTotal.WithLabelValues(string(model.JobStatusFailed)).Inc()

		if err := tracer.WriteSummary(string(model.JobStatusFailed), map[string]any{"error": runErr.Error()}); err != nil {
			zap.L().Warn("engine: write failure summary", zap.Error(err))
		}
		zap.L().Error("engine: job failed",
			zap.String("job_id", job.ID),
			zap.String("domain", normalized),
			zap.Int("progress", job.Progress),
			zap.Error(runErr),
		)
		return e.failedResult(job, start, runErr)
	}

	job.Status = model.JobStatusCompleted
	job.Progress = 100
	e.persistJob(ctx, job)
	monitoring.JobsTotal.WithLabelValues(string(model.JobStatusCompleted)).Inc()

	if err := tracer.WriteSummary(string(model.JobStatusCompleted), nil); err != nil {
		zap.L().Warn("engine: write summary", zap.Error(err))
	}
	zap.L().Info("engine: job completed",
		zap.String("job_id", job.ID),
		zap.String("domain", normalized),
		zap.Duration("duration", duration),
	)

	return &model.EnrichmentResult{
		JobID:            job.ID,
		Domain:           req.Domain,
		NormalizedDomain: normalized,
		Status:           model.JobStatusCompleted,
		Progress:         100,
		Data:             data,
		MarketingData:    md,
		DatabaseResult:   dbResult,
		Duration:         duration.Milliseconds(),
	}
}

// run executes the seven stages. It returns on the first stage-fatal error;
// job.Progress always reflects the last completed checkpoint.
func (e *Engine) run(ctx context.Context, job *model.EnrichmentJob, tracer *trace.Tracer, req model.EnrichmentRequest) (*model.ConsolidatedCompanyRecord, *model.MarketingData, *model.DatabaseResult, error) {
	normalized := job.NormalizedDomain

	// Stage 1: reachability.
	err := e.stage(ctx, job, tracer, trace.StepValidateDomain, 0, map[string]string{"domain": normalized}, func() (any, error) {
		if err := e.crawler.Probe(ctx, normalized); err != nil {
			return nil, err
		}
		return map[string]bool{"reachable": true}, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	e.writeEvent(tracer, trace.EventValidateDomain, map[string]any{"domain": normalized, "reachable": true})

	// Stage 2: page discovery and scraping.
	var crawlResult *model.CrawlResult
	err = e.stage(ctx, job, tracer, trace.StepPageDiscovery, 1, map[string]any{"force_refresh": req.ForceRefresh}, func() (any, error) {
		cr, err := e.discoverAndScrape(ctx, normalized, req.ForceRefresh, tracer)
		if err != nil {
			return nil, err
		}
		// Zero scrapable pages is stage-fatal: with nothing to consolidate
		// the remaining stages would only produce an empty record.
		if len(cr.Pages) == 0 {
			return nil, eris.Errorf("no pages discovered for %s", normalized)
		}
		if cr.PagesScraped == 0 {
			return nil, eris.Errorf("all %d discovered pages failed to scrape", len(cr.Pages))
		}
		crawlResult = cr
		return map[string]any{
			"pages":          len(cr.Pages),
			"scraped":        cr.PagesScraped,
			"failed":         cr.PagesFailed,
			"sitemap_seeded": cr.SitemapSeeded,
			"from_cache":     cr.FromCache,
		}, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	emails, phones := collectContacts(crawlResult.Pages)
	e.writeEvent(tracer, trace.EventContactExtraction, map[string]any{
		"emails": emails,
		"phones": phones,
	})

	// Stage 3: external search. Degrades to empty signals without a client.
	companyName := consolidate.CompanyNameFromPages(crawlResult.Pages)
	if companyName == "" {
		companyName = normalized
	}
	var signals *model.SearchSignals
	err = e.stage(ctx, job, tracer, trace.StepSearchEnrichment, 2, map[string]string{"company": companyName}, func() (any, error) {
		if e.search == nil {
			tracer.AddWarning(trace.StepSearchEnrichment, "search client not configured")
			return map[string]any{"degraded": true}, nil
		}
		signals = e.search.Enrich(ctx, companyName)
		return map[string]any{
			"findings":       len(signals.Findings),
			"queries_run":    signals.QueriesRun,
			"queries_failed": signals.QueriesFailed,
		}, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	e.writeEvent(tracer, trace.EventSearchEnrichment, signals)

	// Stage 4: SMTP gate, then the oracle. Unverified addresses never reach
	// the oracle. Oracle failures degrade the job, they do not fail it.
	var verifiedEmails []string
	var extraction *model.OracleExtraction
	err = e.stage(ctx, job, tracer, trace.StepStructuredExtraction, 3, map[string]any{"email_candidates": len(emails)}, func() (any, error) {
		if e.cfg.Verify.Enabled {
			verifiedEmails = verify.FilterVerified(ctx, e.verifier, emails)
		} else {
			verifiedEmails = emails
		}

		if e.oracle == nil {
			tracer.AddWarning(trace.StepStructuredExtraction, "oracle not configured")
			return map[string]any{"degraded": true}, nil
		}
		ex, usage, oerr := e.oracle.Extract(ctx, oracle.ExtractionInput{
			Domain:         normalized,
			Pages:          crawlResult.Pages,
			VerifiedEmails: verifiedEmails,
			Phones:         phoneStrings(phones),
			Search:         signals,
		})
		if oerr != nil {
			zap.L().Warn("engine: oracle degraded", zap.String("job_id", job.ID), zap.Error(oerr))
			tracer.AddWarning(trace.StepStructuredExtraction, oerr.Error())
			return map[string]any{"degraded": true}, nil
		}
		extraction = ex
		return map[string]any{
			"tokens": usage.InputTokens + usage.OutputTokens,
		}, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	e.writeEvent(tracer, trace.EventStructuredExtraction, extraction)

	// Stage 5: consolidation and validation.
	var record *model.ConsolidatedCompanyRecord
	var report *model.QualityReport
	err = e.stage(ctx, job, tracer, trace.StepConsolidation, 4, nil, func() (any, error) {
		record = consolidate.MergeFields(consolidate.Sources{
			Domain:           job.Domain,
			NormalizedDomain: normalized,
			Pages:            crawlResult.Pages,
			VerifiedEmails:   verifiedEmails,
			Phones:           phones,
			Search:           signals,
			Oracle:           extraction,
		})
		report = validate.CheckAll(crawlResult, extraction, record)
		return map[string]any{
			"score":      report.Score,
			"confidence": report.Confidence,
			"conflicts":  len(record.Conflicts),
		}, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	e.writeEvent(tracer, trace.EventConsolidation, record)
	e.writeEvent(tracer, trace.EventValidation, report)

	// Stage 6: persistence.
	var dbResult *model.DatabaseResult
	err = e.stage(ctx, job, tracer, trace.StepPersistence, 5, map[string]string{"domain": record.Company.Domain}, func() (any, error) {
		res, serr := e.store.UpsertCompany(ctx, record, report)
		if serr != nil {
			return nil, serr
		}
		dbResult = res
		return res, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	e.writeEvent(tracer, trace.EventPersistence, dbResult)

	// Stage 7: marketing preparation.
	var md *model.MarketingData
	err = e.stage(ctx, job, tracer, trace.StepMarketingPrep, 6, nil, func() (any, error) {
		md = consolidate.BuildMarketingData(record)
		return md, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	e.writeEvent(tracer, trace.EventMarketingPrep, md)

	return record, md, dbResult, nil
}

// stage wraps one pipeline stage: trace bookkeeping, the checkpoint bump, and
// job persistence.
func (e *Engine) stage(ctx context.Context, job *model.EnrichmentJob, tracer *trace.Tracer, step string, idx int, input any, fn func() (any, error)) error {
	if err := tracer.StartStep(step, input); err != nil {
		return err
	}
	output, err := fn()
	if err != nil {
		if terr := tracer.FailStep(step, err); terr != nil {
			zap.L().Warn("engine: fail step", zap.String("step", step), zap.Error(terr))
		}
		return eris.Wrapf(err, "engine: %s", step)
	}
	if terr := tracer.CompleteStep(step, output); terr != nil {
		return terr
	}

	job.Progress = stageCheckpoints[idx]
	e.persistJob(ctx, job)
	return nil
}

// discoverAndScrape serves crawl results from the cache when fresh, otherwise
// runs discovery plus the scrape fan-out and caches the outcome.
func (e *Engine) discoverAndScrape(ctx context.Context, normalized string, forceRefresh bool, tracer *trace.Tracer) (*model.CrawlResult, error) {
	if !forceRefresh {
		cached, err := e.store.GetCachedCrawl(ctx, normalized)
		if err != nil {
			zap.L().Warn("engine: crawl cache read", zap.String("domain", normalized), zap.Error(err))
		} else if cached != nil {
			zap.L().Info("engine: crawl cache hit", zap.String("domain", normalized))
			e.writeEvent(tracer, trace.EventPageDiscovery, map[string]any{"from_cache": true, "pages": len(cached.Pages)})
			return cached, nil
		}
	}

	pages, sitemapSeeded, err := e.crawler.Discover(ctx, normalized)
	if err != nil {
		return nil, err
	}
	pages = crawl.PrioritizePages(pages, e.cfg.Crawl.MaxPages)
	e.writeEvent(tracer, trace.EventPageDiscovery, map[string]any{
		"pages":          pageURLs(pages),
		"sitemap_seeded": sitemapSeeded,
	})

	pages = e.scraper.ScrapeAll(ctx, pages)

	result := &model.CrawlResult{Pages: pages, SitemapSeeded: sitemapSeeded}
	for _, p := range pages {
		switch p.Status {
		case model.PageStatusScraped:
			result.PagesScraped++
		case model.PageStatusFailed:
			result.PagesFailed++
		}
	}
	e.writeEvent(tracer, trace.EventPageScraping, map[string]any{
		"scraped": result.PagesScraped,
		"failed":  result.PagesFailed,
	})

	// Results with nothing scraped are not worth caching; a later run should
	// crawl again rather than replay the failure for the whole TTL.
	ttl := time.Duration(e.cfg.Crawl.CacheTTLHours) * time.Hour
	if ttl > 0 && result.PagesScraped > 0 {
		if err := e.store.SetCachedCrawl(ctx, normalized, result, ttl); err != nil {
			zap.L().Warn("engine: crawl cache write", zap.String("domain", normalized), zap.Error(err))
		}
	}
	return result, nil
}

func (e *Engine) persistJob(ctx context.Context, job *model.EnrichmentJob) {
	if err := e.store.UpdateJob(ctx, job); err != nil {
		zap.L().Warn("engine: persist job", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (e *Engine) writeEvent(tracer *trace.Tracer, name string, payload any) {
	if err := tracer.WriteEvent(name, payload); err != nil {
		zap.L().Warn("engine: write trace event", zap.String("event", name), zap.Error(err))
	}
}

func (e *Engine) failedResult(job *model.EnrichmentJob, start time.Time, err error) *model.EnrichmentResult {
	return &model.EnrichmentResult{
		JobID:            job.ID,
		Domain:           job.Domain,
		NormalizedDomain: job.NormalizedDomain,
		Status:           model.JobStatusFailed,
		Progress:         job.Progress,
		Error:            err.Error(),
		Duration:         time.Since(start).Milliseconds(),
	}
}

// collectContacts aggregates emails and phone candidates across pages in
// priority order, deduplicated.
func collectContacts(pages []model.PageRecord) ([]string, []model.ContactCandidate) {
	var emails []string
	seenEmail := map[string]bool{}
	var phones []model.ContactCandidate
	seenPhone := map[string]bool{}

	for _, p := range pages {
		if p.Extracted == nil {
			continue
		}
		for _, e := range p.Extracted.Emails {
			if !seenEmail[e] {
				seenEmail[e] = true
				emails = append(emails, e)
			}
		}
		for _, c := range p.Extracted.Phones {
			if !seenPhone[c.Normalized] {
				seenPhone[c.Normalized] = true
				phones = append(phones, c)
			}
		}
	}
	return emails, phones
}

func phoneStrings(phones []model.ContactCandidate) []string {
	out := make([]string, len(phones))
	for i, p := range phones {
		out[i] = p.Normalized
	}
	return out
}

func pageURLs(pages []model.PageRecord) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	return out
}
