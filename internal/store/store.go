package store

import (
	"context"
	"time"

	"github.com/sells-group/enrich-cli/internal/model"
)

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Domain string          `json:"domain,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines persistence for the enrichment pipeline: job lifecycle,
// consolidated company records with their relationship rows, and the crawl
// cache.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, job *model.EnrichmentJob) error
	UpdateJob(ctx context.Context, job *model.EnrichmentJob) error
	GetJob(ctx context.Context, jobID string) (*model.EnrichmentJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.EnrichmentJob, error)

	// Companies
	UpsertCompany(ctx context.Context, rec *model.ConsolidatedCompanyRecord, report *model.QualityReport) (*model.DatabaseResult, error)

	// Crawl cache
	GetCachedCrawl(ctx context.Context, domain string) (*model.CrawlResult, error)
	SetCachedCrawl(ctx context.Context, domain string, result *model.CrawlResult, ttl time.Duration) error
	DeleteExpiredCrawls(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// relationshipRows flattens a record into (kind, value) pairs persisted
// alongside the company. Industry first, then service categories.
func relationshipRows(rec *model.ConsolidatedCompanyRecord) [][2]string {
	var rows [][2]string
	if rec.Business.Industry != "" {
		rows = append(rows, [2]string{"industry", rec.Business.Industry})
	}
	for _, s := range rec.Business.Services {
		rows = append(rows, [2]string{"service", s})
	}
	for _, p := range rec.Technology.Platforms {
		rows = append(rows, [2]string{"platform", p})
	}
	return rows
}
