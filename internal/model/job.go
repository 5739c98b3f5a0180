package model

import "time"

// JobStatus represents the current state of an enrichment job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Priority indicates requested processing priority. Informational only:
// jobs run synchronously, one domain at a time.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// EnrichmentRequest is the inbound request to enrich a single domain.
type EnrichmentRequest struct {
	Domain       string   `json:"domain"`
	Priority     Priority `json:"priority,omitempty"`
	ForceRefresh bool     `json:"force_refresh,omitempty"`
}

// EnrichmentJob tracks one enrichment run for one domain. A job is owned by
// the engine instance that created it and is terminal once completed or
// failed. RetryCount/MaxRetries are recorded but no retry loop consumes
// them; a stage-fatal error fails the job outright.
type EnrichmentJob struct {
	ID               string     `json:"id"`
	Domain           string     `json:"domain"`
	NormalizedDomain string     `json:"normalized_domain"`
	Status           JobStatus  `json:"status"`
	Progress         int        `json:"progress"`
	RetryCount       int        `json:"retry_count"`
	MaxRetries       int        `json:"max_retries"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// EnrichmentResult is the final outcome handed back to the caller. Status is
// always completed or failed; on failure Error carries a human-readable
// message and Progress reflects the last completed stage checkpoint.
type EnrichmentResult struct {
	JobID            string                     `json:"job_id"`
	Domain           string                     `json:"domain"`
	NormalizedDomain string                     `json:"normalized_domain"`
	Status           JobStatus                  `json:"status"`
	Progress         int                        `json:"progress"`
	Data             *ConsolidatedCompanyRecord `json:"data,omitempty"`
	MarketingData    *MarketingData             `json:"marketing_data,omitempty"`
	DatabaseResult   *DatabaseResult            `json:"database_result,omitempty"`
	Error            string                     `json:"error,omitempty"`
	Duration         int64                      `json:"duration_ms"`
}

// DatabaseResult reports the persistence outcome of a completed job.
type DatabaseResult struct {
	CompanyID     string `json:"company_id"`
	Created       bool   `json:"created"`
	Relationships int    `json:"relationships"`
}
