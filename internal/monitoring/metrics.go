package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts enrichment jobs by terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_jobs_total",
			Help: "Total number of enrichment jobs by terminal status.",
		},
		[]string{"status"},
	)

	// JobDuration observes end-to-end job durations.
	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrich_job_duration_seconds",
			Help:    "Duration of enrichment jobs.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	// PagesDiscovered counts URLs confirmed as live HTML pages during crawls.
	PagesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_pages_discovered_total",
			Help: "Total pages confirmed live during crawls.",
		},
	)

	// PagesScraped counts page scrape attempts by outcome.
	PagesScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_pages_scraped_total",
			Help: "Total page scrape attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// SearchQueries counts external search queries by outcome.
	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_search_queries_total",
			Help: "Total external search queries by outcome.",
		},
		[]string{"outcome"},
	)

	// OracleTokens counts tokens consumed by the extraction oracle.
	OracleTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_oracle_tokens_total",
			Help: "Tokens consumed by structured extraction calls.",
		},
		[]string{"direction"},
	)

	// EmailProbes counts SMTP verification probes by result.
	EmailProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_email_probes_total",
			Help: "SMTP email verification probes by result.",
		},
		[]string{"result"},
	)
)
