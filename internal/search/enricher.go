package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
	"github.com/sells-group/enrich-cli/pkg/googlesearch"
)

// queryTemplates is the bounded query set issued per company. %s is the
// company name.
var queryTemplates = []string{
	`"%s" site:linkedin.com`,
	`"%s" site:crunchbase.com`,
	`"%s" news press release`,
	`"%s" funding investment`,
	`"%s" reviews ratings`,
	`"%s" tech stack`,
	`"%s" careers jobs`,
}

// sourceWeights is the fixed per-category base score.
var sourceWeights = map[model.SearchCategory]float64{
	model.SearchCategoryLinkedIn:      1.0,
	model.SearchCategoryCrunchbase:    0.9,
	model.SearchCategoryGlassdoor:     0.7,
	model.SearchCategoryNews:          0.6,
	model.SearchCategoryCareers:       0.5,
	model.SearchCategoryGitHub:        0.5,
	model.SearchCategoryStackOverflow: 0.4,
	model.SearchCategoryBlog:          0.4,
	model.SearchCategoryOther:         0.3,
}

// Enricher issues the templated query set against the search API and
// extracts weak signals from the results. Queries run strictly sequentially
// with a fixed inter-query delay; a failed query is logged and skipped, it
// never fails the stage.
type Enricher struct {
	client googlesearch.Client
	delay  time.Duration
}

// NewEnricher creates an Enricher. delay defaults to 1s when config leaves
// it unset.
func NewEnricher(client googlesearch.Client, cfg config.SearchConfig) *Enricher {
	delay := time.Duration(cfg.DelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = time.Second
	}
	return &Enricher{client: client, delay: delay}
}

// Enrich runs the query set for a company name and returns categorized,
// scored, deduplicated findings plus regex-extracted weak signals.
func (e *Enricher) Enrich(ctx context.Context, companyName string) *model.SearchSignals {
	signals := &model.SearchSignals{}

	var all []model.SearchFinding
	for i, tmpl := range queryTemplates {
		if i > 0 {
			// Deliberately simple rate limiting: a fixed sleep between
			// queries, interruptible by context cancellation.
			select {
			case <-ctx.Done():
				return signals
			case <-time.After(e.delay):
			}
		}

		query := fmt.Sprintf(tmpl, companyName)
		signals.QueriesRun++

		resp, err := e.client.Search(ctx, query)
		if err != nil {
			signals.QueriesFailed++
			monitoring.SearchQueries.WithLabelValues("failed").Inc()
			zap.L().Warn("search: query failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		monitoring.SearchQueries.WithLabelValues("ok").Inc()

		for _, item := range resp.Items {
			category := CategorizeResult(item.Link)
			all = append(all, model.SearchFinding{
				Title:    item.Title,
				Link:     item.Link,
				Snippet:  item.Snippet,
				Query:    query,
				Category: category,
				Score:    scoreFinding(category, item.Title, item.Snippet),
			})
		}
	}

	signals.Findings = dedupeAndSort(all)
	extractWeakSignals(signals)

	zap.L().Info("search: enrichment complete",
		zap.String("company", companyName),
		zap.Int("queries", signals.QueriesRun),
		zap.Int("failed", signals.QueriesFailed),
		zap.Int("findings", len(signals.Findings)),
	)
	return signals
}

// CategorizeResult infers a source category from a result URL.
func CategorizeResult(link string) model.SearchCategory {
	u, err := url.Parse(link)
	if err != nil {
		return model.SearchCategoryOther
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.Path)

	switch {
	case strings.Contains(host, "linkedin.com"):
		return model.SearchCategoryLinkedIn
	case strings.Contains(host, "crunchbase.com"):
		return model.SearchCategoryCrunchbase
	case strings.Contains(host, "glassdoor."):
		return model.SearchCategoryGlassdoor
	case strings.Contains(host, "github.com"):
		return model.SearchCategoryGitHub
	case strings.Contains(host, "stackoverflow.com"):
		return model.SearchCategoryStackOverflow
	case strings.Contains(path, "/careers") || strings.Contains(path, "/jobs") ||
		strings.Contains(host, "indeed.") || strings.Contains(host, "lever.co") ||
		strings.Contains(host, "greenhouse.io"):
		return model.SearchCategoryCareers
	case strings.Contains(host, "news") || strings.Contains(host, "prnewswire") ||
		strings.Contains(host, "businesswire") || strings.Contains(host, "techcrunch") ||
		strings.Contains(host, "reuters") || strings.Contains(host, "bloomberg"):
		return model.SearchCategoryNews
	case strings.Contains(path, "/blog"):
		return model.SearchCategoryBlog
	}
	return model.SearchCategoryOther
}

// scoreFinding combines the fixed source weight with recency and
// snippet-length bonuses.
func scoreFinding(category model.SearchCategory, title, snippet string) float64 {
	score := sourceWeights[category]

	text := title + " " + snippet
	year := time.Now().Year()
	for _, y := range []int{year, year - 1} {
		if strings.Contains(text, fmt.Sprintf("%d", y)) {
			score += 0.1
			break
		}
	}
	if len(snippet) > 100 {
		score += 0.05
	}
	return score
}

// dedupeAndSort removes duplicate URLs (keeping the higher score) and sorts
// descending by score.
func dedupeAndSort(findings []model.SearchFinding) []model.SearchFinding {
	best := make(map[string]model.SearchFinding)
	var order []string
	for _, f := range findings {
		existing, ok := best[f.Link]
		if !ok {
			best[f.Link] = f
			order = append(order, f.Link)
			continue
		}
		if f.Score > existing.Score {
			best[f.Link] = f
		}
	}

	out := make([]model.SearchFinding, 0, len(best))
	for _, link := range order {
		out = append(out, best[link])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
