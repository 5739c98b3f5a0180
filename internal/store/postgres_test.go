package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func testJob() *model.EnrichmentJob {
	now := time.Now().UTC()
	return &model.EnrichmentJob{
		ID:               "job-1",
		Domain:           "https://www.acme.com",
		NormalizedDomain: "acme.com",
		Status:           model.JobStatusPending,
		MaxRetries:       3,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestPostgres_CreateJob(t *testing.T) {
	s, mock := newMockStore(t)
	job := testJob()

	mock.ExpectExec("INSERT INTO enrichment_jobs").
		WithArgs(job.ID, job.Domain, job.NormalizedDomain, "pending", 0, 0, 3, "",
			job.CreatedAt, job.UpdatedAt, job.StartedAt, job.CompletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.CreateJob(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateJob_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	job := testJob()

	mock.ExpectExec("UPDATE enrichment_jobs").
		WithArgs("pending", 0, 0, "", pgxmock.AnyArg(), job.StartedAt, job.CompletedAt, job.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateJob(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job not found")
}

func TestPostgres_GetJob(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	errText := "boom"

	mock.ExpectQuery("SELECT (.+) FROM enrichment_jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "domain", "normalized_domain", "status", "progress",
			"retry_count", "max_retries", "error", "created_at", "updated_at",
			"started_at", "completed_at",
		}).AddRow("job-1", "acme.com", "acme.com", "failed", 45, 0, 3, &errText, now, now, &now, &now))

	job, err := s.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 45, job.Progress)
	assert.Equal(t, "boom", job.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertCompany_Insert(t *testing.T) {
	s, mock := newMockStore(t)

	rec := &model.ConsolidatedCompanyRecord{}
	rec.Company.Domain = "acme.com"
	rec.Company.Name = "Acme Inc."
	rec.Company.Website = "https://acme.com"
	rec.Business.Industry = "Manufacturing"
	rec.Business.Services = []string{"Widgets"}

	mock.ExpectQuery("SELECT id FROM companies WHERE domain").
		WithArgs("acme.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO companies").
		WithArgs(pgxmock.AnyArg(), "acme.com", "Acme Inc.", "https://acme.com",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// industry + one service
	mock.ExpectExec("INSERT INTO company_relationships").
		WithArgs(pgxmock.AnyArg(), "industry", "Manufacturing", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO company_relationships").
		WithArgs(pgxmock.AnyArg(), "service", "Widgets", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	result, err := s.UpsertCompany(context.Background(), rec, nil)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, 2, result.Relationships)
	assert.NotEmpty(t, result.CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertCompany_Update(t *testing.T) {
	s, mock := newMockStore(t)

	rec := &model.ConsolidatedCompanyRecord{}
	rec.Company.Domain = "acme.com"
	rec.Company.Name = "Acme Inc."
	rec.Company.Website = "https://acme.com"

	mock.ExpectQuery("SELECT id FROM companies WHERE domain").
		WithArgs("acme.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))
	mock.ExpectExec("UPDATE companies SET").
		WithArgs("Acme Inc.", "https://acme.com", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "existing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	result, err := s.UpsertCompany(context.Background(), rec, nil)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "existing-id", result.CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetCachedCrawl_Miss(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT pages FROM crawl_cache").
		WithArgs("acme.com").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetCachedCrawl(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPostgres_GetCachedCrawl_Hit(t *testing.T) {
	s, mock := newMockStore(t)

	pages := []byte(`{"pages":[{"url":"https://acme.com/","category":"home","status":"scraped"}],"pages_scraped":1}`)
	mock.ExpectQuery("SELECT pages FROM crawl_cache").
		WithArgs("acme.com").
		WillReturnRows(pgxmock.NewRows([]string{"pages"}).AddRow(pages))

	result, err := s.GetCachedCrawl(context.Background(), "acme.com")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, result.PagesScraped)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, model.PageCategoryHome, result.Pages[0].Category)
}
