package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// MemoryStore is an in-memory Store for tests and dry runs. Nothing survives
// process exit.
type MemoryStore struct {
	mu sync.Mutex

	jobs      map[string]model.EnrichmentJob
	jobOrder  []string
	companies map[string]memCompany // keyed by domain
	crawls    map[string]memCrawl
}

type memCompany struct {
	id            string
	record        model.ConsolidatedCompanyRecord
	relationships map[[2]string]bool
}

type memCrawl struct {
	result    model.CrawlResult
	expiresAt time.Time
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		jobs:      map[string]model.EnrichmentJob{},
		companies: map[string]memCompany{},
		crawls:    map[string]memCrawl{},
	}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) CreateJob(_ context.Context, job *model.EnrichmentJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return eris.Errorf("job already exists: %s", job.ID)
	}
	s.jobs[job.ID] = *job
	s.jobOrder = append(s.jobOrder, job.ID)
	return nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, job *model.EnrichmentJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		return eris.Errorf("job not found: %s", job.ID)
	}
	updated := *job
	updated.UpdatedAt = time.Now().UTC()
	s.jobs[job.ID] = updated
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*model.EnrichmentJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, eris.Errorf("job not found: %s", jobID)
	}
	return &job, nil
}

func (s *MemoryStore) ListJobs(_ context.Context, filter JobFilter) ([]model.EnrichmentJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []model.EnrichmentJob
	// Newest first.
	for i := len(s.jobOrder) - 1; i >= 0; i-- {
		job := s.jobs[s.jobOrder[i]]
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Domain != "" && job.NormalizedDomain != filter.Domain {
			continue
		}
		jobs = append(jobs, job)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *MemoryStore) UpsertCompany(_ context.Context, rec *model.ConsolidatedCompanyRecord, _ *model.QualityReport) (*model.DatabaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := false
	company, ok := s.companies[rec.Company.Domain]
	if !ok {
		created = true
		company = memCompany{
			id:            uuid.New().String(),
			relationships: map[[2]string]bool{},
		}
	}
	company.record = *rec

	relationships := 0
	for _, row := range relationshipRows(rec) {
		company.relationships[row] = true
		relationships++
	}
	s.companies[rec.Company.Domain] = company

	return &model.DatabaseResult{
		CompanyID:     company.id,
		Created:       created,
		Relationships: relationships,
	}, nil
}

func (s *MemoryStore) GetCachedCrawl(_ context.Context, domain string) (*model.CrawlResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.crawls[domain]
	if !ok || time.Now().After(cached.expiresAt) {
		return nil, nil
	}
	result := cached.result
	result.FromCache = true
	return &result, nil
}

func (s *MemoryStore) SetCachedCrawl(_ context.Context, domain string, result *model.CrawlResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crawls[domain] = memCrawl{result: *result, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) DeleteExpiredCrawls(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	now := time.Now()
	for domain, cached := range s.crawls {
		if now.After(cached.expiresAt) {
			delete(s.crawls, domain)
			deleted++
		}
	}
	return deleted, nil
}

var _ Store = (*MemoryStore)(nil)
