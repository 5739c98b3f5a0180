package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore implements Store on a local SQLite file. It is the default
// backend for single-machine use; Postgres is for shared deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) a SQLite database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: pragmas")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id            TEXT PRIMARY KEY,
	domain        TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	website       TEXT NOT NULL,
	record        TEXT NOT NULL,
	quality_score INTEGER,
	confidence    TEXT,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS company_relationships (
	company_id TEXT NOT NULL REFERENCES companies(id),
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
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
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL,
	started_at        TIMESTAMP,
	completed_at      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS crawl_cache (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL UNIQUE,
	pages      TEXT NOT NULL,
	crawled_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON enrichment_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_domain ON enrichment_jobs(normalized_domain);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *model.EnrichmentJob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_jobs (id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Domain, job.NormalizedDomain, string(job.Status), job.Progress,
		job.RetryCount, job.MaxRetries, nullString(job.Error), job.CreatedAt, job.UpdatedAt,
		job.StartedAt, job.CompletedAt,
	)
	return eris.Wrapf(err, "sqlite: insert job %s", job.ID)
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, job *model.EnrichmentJob) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_jobs SET status = ?, progress = ?, retry_count = ?, error = ?, updated_at = ?, started_at = ?, completed_at = ? WHERE id = ?`,
		string(job.Status), job.Progress, job.RetryCount, nullString(job.Error),
		time.Now().UTC(), job.StartedAt, job.CompletedAt, job.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job %s", job.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("job not found: %s", job.ID)
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.EnrichmentJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at
		 FROM enrichment_jobs WHERE id = ?`,
		jobID,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	return job, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.EnrichmentJob, error) {
	query := `SELECT id, domain, normalized_domain, status, progress, retry_count, max_retries, error, created_at, updated_at, started_at, completed_at FROM enrichment_jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Domain != "" {
		query += ` AND normalized_domain = ?`
		args = append(args, filter.Domain)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.EnrichmentJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.EnrichmentJob, error) {
	var j model.EnrichmentJob
	var errText sql.NullString
	if err := row.Scan(&j.ID, &j.Domain, &j.NormalizedDomain, &j.Status, &j.Progress,
		&j.RetryCount, &j.MaxRetries, &errText, &j.CreatedAt, &j.UpdatedAt,
		&j.StartedAt, &j.CompletedAt); err != nil {
		return nil, err
	}
	j.Error = errText.String
	return &j, nil
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, rec *model.ConsolidatedCompanyRecord, report *model.QualityReport) (*model.DatabaseResult, error) {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal record")
	}

	var score any
	var confidence any
	if report != nil {
		score = report.Score
		confidence = string(report.Confidence)
	}

	now := time.Now().UTC()
	created := false
	var companyID string

	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM companies WHERE domain = ?`, rec.Company.Domain,
	).Scan(&companyID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		companyID = uuid.New().String()
		created = true
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO companies (id, domain, name, website, record, quality_score, confidence, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			companyID, rec.Company.Domain, rec.Company.Name, rec.Company.Website,
			string(recordJSON), score, confidence, now, now,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert company")
		}
	case err != nil:
		return nil, eris.Wrap(err, "sqlite: lookup company")
	default:
		_, err = s.db.ExecContext(ctx,
			`UPDATE companies SET name = ?, website = ?, record = ?, quality_score = ?, confidence = ?, updated_at = ? WHERE id = ?`,
			rec.Company.Name, rec.Company.Website, string(recordJSON), score, confidence, now, companyID,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: update company")
		}
	}

	relationships := 0
	for _, row := range relationshipRows(rec) {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO company_relationships (company_id, kind, value, created_at) VALUES (?, ?, ?, ?)`,
			companyID, row[0], row[1], now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert relationship %s=%s", row[0], row[1])
		}
		relationships++
	}

	return &model.DatabaseResult{
		CompanyID:     companyID,
		Created:       created,
		Relationships: relationships,
	}, nil
}

func (s *SQLiteStore) GetCachedCrawl(ctx context.Context, domain string) (*model.CrawlResult, error) {
	var pagesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT pages FROM crawl_cache WHERE domain = ? AND expires_at > ? ORDER BY crawled_at DESC LIMIT 1`,
		domain, time.Now().UTC(),
	).Scan(&pagesJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get cached crawl")
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(pagesJSON), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached crawl")
	}
	result.FromCache = true
	return &result, nil
}

func (s *SQLiteStore) SetCachedCrawl(ctx context.Context, domain string, result *model.CrawlResult, ttl time.Duration) error {
	pagesJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal crawl result")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crawl_cache (id, domain, pages, crawled_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (domain) DO UPDATE SET pages = excluded.pages, crawled_at = excluded.crawled_at, expires_at = excluded.expires_at`,
		uuid.New().String(), domain, string(pagesJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached crawl")
}

func (s *SQLiteStore) DeleteExpiredCrawls(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM crawl_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired crawls")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*PostgresStore)(nil)

// Open creates the configured backend.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	case "sqlite", "":
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
