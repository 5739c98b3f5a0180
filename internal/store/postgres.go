package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_job":       `INSERT INTO enrichment_jobs (id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"update_job":       `UPDATE enrichment_jobs SET status = $1, progress = $2, retry_count = $3, error = $4, updated_at = $5, started_at = $6, completed_at = $7 WHERE id = $8`,
	"get_job":          `SELECT id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at FROM enrichment_jobs WHERE id = $1`,
	"get_cached_crawl": `SELECT pages FROM crawl_cache WHERE domain = $1 AND expires_at > now() ORDER BY crawled_at DESC LIMIT 1`,
	"set_cached_crawl": `INSERT INTO crawl_cache (id, domain, pages, crawled_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (domain) DO UPDATE SET pages = $3, crawled_at = $4, expires_at = $5`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id            TEXT PRIMARY KEY,
	domain        TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	website       TEXT NOT NULL,
	record        JSONB NOT NULL,
	quality_score INTEGER,
	confidence    TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS company_relationships (
	company_id TEXT NOT NULL REFERENCES companies(id),
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company_id, kind, value)
);

CREATE TABLE IF NOT EXISTS enrichment_jobs (
	id                TEXT PRIMARY KEY,
	domain            TEXT NOT NULL,
	normalized_domain TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	progress          INTEGER NOT NULL DEFAULT 0,
	retry_count       INTEGER NOT NULL DEFAULT 0,
	max_retries       INTEGER NOT NULL DEFAULT 3,
	error             TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at        TIMESTAMPTZ,
	completed_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS crawl_cache (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL UNIQUE,
	pages      JSONB NOT NULL,
	crawled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON enrichment_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_domain ON enrichment_jobs(normalized_domain);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_domain ON crawl_cache(domain);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.EnrichmentJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_jobs (id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.Domain, job.NormalizedDomain, string(job.Status), job.Progress,
		job.RetryCount, job.MaxRetries, job.Error, job.CreatedAt, job.UpdatedAt,
		job.StartedAt, job.CompletedAt,
	)
	return eris.Wrapf(err, "postgres: insert job %s", job.ID)
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *model.EnrichmentJob) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_jobs SET status = $1, progress = $2, retry_count = $3, error = $4, updated_at = $5, started_at = $6, completed_at = $7 WHERE id = $8`,
		string(job.Status), job.Progress, job.RetryCount, job.Error,
		time.Now().UTC(), job.StartedAt, job.CompletedAt, job.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job %s", job.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", job.ID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.EnrichmentJob, error) {
	var j model.EnrichmentJob
	var errText *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at
		 FROM enrichment_jobs WHERE id = $1`,
		jobID,
	).Scan(&j.ID, &j.Domain, &j.NormalizedDomain, &j.Status, &j.Progress,
		&j.RetryCount, &j.MaxRetries, &errText, &j.CreatedAt, &j.UpdatedAt,
		&j.StartedAt, &j.CompletedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	if errText != nil {
		j.Error = *errText
	}
	return &j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.EnrichmentJob, error) {
	query := `SELECT id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at FROM enrichment_jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND normalized_domain = $%d`, argIdx)
		args = append(args, filter.Domain)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.EnrichmentJob
	for rows.Next() {
		var j model.EnrichmentJob
		var errText *string
		if err := rows.Scan(&j.ID, &j.Domain, &j.NormalizedDomain, &j.Status, &j.Progress,
			&j.RetryCount, &j.MaxRetries, &errText, &j.CreatedAt, &j.UpdatedAt,
			&j.StartedAt, &j.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		if errText != nil {
			j.Error = *errText
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, rec *model.ConsolidatedCompanyRecord, report *model.QualityReport) (*model.DatabaseResult, error) {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal record")
	}

	var score *int
	var confidence *string
	if report != nil {
		score = &report.Score
		c := string(report.Confidence)
		confidence = &c
	}

	now := time.Now().UTC()
	created := false
	var companyID string

	err = s.pool.QueryRow(ctx,
		`SELECT id FROM companies WHERE domain = $1`, rec.Company.Domain,
	).Scan(&companyID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		companyID = uuid.New().String()
		created = true
		_, err = s.pool.Exec(ctx,
			`INSERT INTO companies (id, domain, name, website, record, quality_score, confidence, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			companyID, rec.Company.Domain, rec.Company.Name, rec.Company.Website,
			recordJSON, score, confidence, now, now,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert company")
		}
	case err != nil:
		return nil, eris.Wrap(err, "postgres: lookup company")
	default:
		_, err = s.pool.Exec(ctx,
			`UPDATE companies SET name = $1, website = $2, record = $3, quality_score = $4, confidence = $5, updated_at = $6 WHERE id = $7`,
			rec.Company.Name, rec.Company.Website, recordJSON, score, confidence, now, companyID,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: update company")
		}
	}

	relationships := 0
	for _, row := range relationshipRows(rec) {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO company_relationships (company_id, kind, value, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (company_id, kind, value) DO NOTHING`,
			companyID, row[0], row[1], now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: upsert relationship %s=%s", row[0], row[1])
		}
		relationships++
	}

	return &model.DatabaseResult{
		CompanyID:     companyID,
		Created:       created,
		Relationships: relationships,
	}, nil
}

func (s *PostgresStore) GetCachedCrawl(ctx context.Context, domain string) (*model.CrawlResult, error) {
	var pagesJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT pages FROM crawl_cache
		 WHERE domain = $1 AND expires_at > now()
		 ORDER BY crawled_at DESC LIMIT 1`,
		domain,
	).Scan(&pagesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached crawl")
	}

	var result model.CrawlResult
	if err := json.Unmarshal(pagesJSON, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached crawl")
	}
	result.FromCache = true
	return &result, nil
}

func (s *PostgresStore) SetCachedCrawl(ctx context.Context, domain string, result *model.CrawlResult, ttl time.Duration) error {
	pagesJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal crawl result")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawl_cache (id, domain, pages, crawled_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (domain) DO UPDATE SET pages = $3, crawled_at = $4, expires_at = $5`,
		uuid.New().String(), domain, pagesJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached crawl")
}

func (s *PostgresStore) DeleteExpiredCrawls(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM crawl_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired crawls")
	}
	return int(tag.RowsAffected()), nil
}
