package search

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/googlesearch"
)

type fakeSearchClient struct {
	queries   []string
	responses map[string]*googlesearch.SearchResponse
	failOn    string
}

func (f *fakeSearchClient) Search(_ context.Context, query string) (*googlesearch.SearchResponse, error) {
	f.queries = append(f.queries, query)
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, eris.New("quota exceeded")
	}
	for key, resp := range f.responses {
		if strings.Contains(query, key) {
			return resp, nil
		}
	}
	return &googlesearch.SearchResponse{}, nil
}

func fastEnricher(client googlesearch.Client) *Enricher {
	return NewEnricher(client, config.SearchConfig{DelayMillis: 1})
}

func TestEnrich_RunsAllQueries(t *testing.T) {
	client := &fakeSearchClient{}
	signals := fastEnricher(client).Enrich(context.Background(), "Acme Inc.")

	require.Len(t, client.queries, 7)
	assert.Equal(t, `"Acme Inc." site:linkedin.com`, client.queries[0])
	assert.Equal(t, `"Acme Inc." site:crunchbase.com`, client.queries[1])
	assert.Equal(t, 7, signals.QueriesRun)
	assert.Zero(t, signals.QueriesFailed)
}

func TestEnrich_FailedQueryContinues(t *testing.T) {
	client := &fakeSearchClient{
		failOn: "crunchbase",
		responses: map[string]*googlesearch.SearchResponse{
			"linkedin": {Items: []googlesearch.Item{{
				Title:   "Acme Inc. | LinkedIn",
				Link:    "https://www.linkedin.com/company/acme",
				Snippet: "Acme Inc. has 51-200 employees in Saskatoon.",
			}}},
		},
	}

	signals := fastEnricher(client).Enrich(context.Background(), "Acme Inc.")
	assert.Equal(t, 7, signals.QueriesRun)
	assert.Equal(t, 1, signals.QueriesFailed)
	require.Len(t, signals.Findings, 1)
	assert.Equal(t, model.SearchCategoryLinkedIn, signals.Findings[0].Category)
	assert.Equal(t, "51-200", strings.TrimSpace(signals.EmployeeCount))
}

func TestEnrich_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeSearchClient{}
	e := NewEnricher(client, config.SearchConfig{DelayMillis: int((time.Hour).Milliseconds())})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	signals := e.Enrich(ctx, "Acme")

	// Only the first query runs before the inter-query wait is interrupted.
	assert.Equal(t, 1, signals.QueriesRun)
}

func TestCategorizeResult(t *testing.T) {
	cases := map[string]model.SearchCategory{
		"https://www.linkedin.com/company/acme":     model.SearchCategoryLinkedIn,
		"https://www.crunchbase.com/organization/a": model.SearchCategoryCrunchbase,
		"https://www.glassdoor.ca/Reviews/acme":     model.SearchCategoryGlassdoor,
		"https://github.com/acme-corp":              model.SearchCategoryGitHub,
		"https://stackoverflow.com/questions/1":     model.SearchCategoryStackOverflow,
		"https://acme.com/careers/openings":         model.SearchCategoryCareers,
		"https://jobs.lever.co/acme":                model.SearchCategoryCareers,
		"https://www.prnewswire.com/releases/acme":  model.SearchCategoryNews,
		"https://acme.com/blog/launch":              model.SearchCategoryBlog,
		"https://acme.com/pricing":                  model.SearchCategoryOther,
		"://bad":                                    model.SearchCategoryOther,
	}
	for link, want := range cases {
		assert.Equal(t, want, CategorizeResult(link), link)
	}
}

func TestScoreFinding(t *testing.T) {
	base := scoreFinding(model.SearchCategoryLinkedIn, "Acme", "short")
	assert.InDelta(t, 1.0, base, 0.001)

	recent := scoreFinding(model.SearchCategoryLinkedIn,
		fmt.Sprintf("Acme raises round in %d", time.Now().Year()), "short")
	assert.InDelta(t, 1.1, recent, 0.001)

	rich := scoreFinding(model.SearchCategoryOther, "Acme", strings.Repeat("x", 150))
	assert.InDelta(t, 0.35, rich, 0.001)
}

func TestDedupeAndSort(t *testing.T) {
	findings := []model.SearchFinding{
		{Link: "https://a.com", Score: 0.3},
		{Link: "https://b.com", Score: 0.9},
		{Link: "https://a.com", Score: 0.6, Title: "better"},
	}

	out := dedupeAndSort(findings)
	require.Len(t, out, 2)
	assert.Equal(t, "https://b.com", out[0].Link)
	assert.Equal(t, "https://a.com", out[1].Link)
	assert.Equal(t, "better", out[1].Title, "higher-scoring duplicate wins")
}

func TestExtractWeakSignals(t *testing.T) {
	signals := &model.SearchSignals{Findings: []model.SearchFinding{
		{Title: "Acme | LinkedIn", Snippet: "Acme has 1,200+ employees worldwide.", Score: 1.0},
		{Title: "Acme raises $4.5 million", Snippet: "Series A led by...", Score: 0.6},
		{Title: "Other", Snippet: "500 employees and $9 billion", Score: 0.3},
	}}

	extractWeakSignals(signals)
	assert.Equal(t, "1,200+", strings.TrimSpace(signals.EmployeeCount))
	assert.Equal(t, "$4.5 million", signals.FundingAmount)
}

func TestExtractWeakSignals_NoMatches(t *testing.T) {
	signals := &model.SearchSignals{Findings: []model.SearchFinding{
		{Title: "Acme", Snippet: "nothing useful"},
	}}
	extractWeakSignals(signals)
	assert.Empty(t, signals.EmployeeCount)
	assert.Empty(t, signals.FundingAmount)
}
