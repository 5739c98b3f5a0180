package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

const cleanResponse = `{
	"company": {"legal_name": "Acme Inc.", "founded": "1987", "headquarters": "Saskatoon, SK", "description": "Industrial widgets."},
	"business": {"industry": "Manufacturing", "business_model": "B2B", "services": ["widgets"], "target_customers": ["heavy industry"]},
	"people": {"employee_count": "51-200", "key_people": ["Pat Doe (CEO)"], "emails": ["info@acme.com"]},
	"technology": {"platforms": ["wordpress"], "analytics": ["gtag"]},
	"market": {"competitors": ["Globex"], "differentiators": ["local supply chain"], "funding_stage": "bootstrapped"}
}`

func TestParseResponse_CleanJSON(t *testing.T) {
	extraction, err := ParseResponse(cleanResponse)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc.", extraction.Company.LegalName)
	assert.Equal(t, "Manufacturing", extraction.Business.Industry)
	assert.Equal(t, []string{"info@acme.com"}, extraction.People.Emails)
	assert.Equal(t, "bootstrapped", extraction.Market.FundingStage)
}

func TestParseResponse_SurroundingProse(t *testing.T) {
	raw := "Here is the extraction you asked for:\n\n```json\n" + cleanResponse + "\n```\n\nLet me know if you need more."
	extraction, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc.", extraction.Company.LegalName)
}

func TestParseResponse_RepairsMalformedJSON(t *testing.T) {
	// Trailing comma and single-quoted string, both common LLM defects.
	raw := `{"company": {"legal_name": 'Acme Inc.',}, "business": {"industry": "Tech",},}`
	extraction, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc.", extraction.Company.LegalName)
	assert.Equal(t, "Tech", extraction.Business.Industry)
}

func TestParseResponse_BracesInsideStrings(t *testing.T) {
	raw := `{"company": {"legal_name": "Acme {Group}", "description": "uses } and { freely"}}`
	extraction, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Acme {Group}", extraction.Company.LegalName)
}

func TestParseResponse_NoJSON(t *testing.T) {
	_, err := ParseResponse("I could not find any information about this company.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}

func TestParseResponse_FillsDefaults(t *testing.T) {
	extraction, err := ParseResponse(`{"company": {"legal_name": "Acme"}}`)
	require.NoError(t, err)
	assert.NotNil(t, extraction.Business.Services)
	assert.NotNil(t, extraction.People.Emails)
	assert.NotNil(t, extraction.Technology.Platforms)
	assert.NotNil(t, extraction.Market.Competitors)
	assert.Empty(t, extraction.Business.Services)
}

func TestFirstJSONObject(t *testing.T) {
	block, ok := firstJSONObject(`noise {"a": 1} {"b": 2}`)
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, block)

	_, ok = firstJSONObject("no braces here")
	assert.False(t, ok)

	// Unbalanced block never returns.
	_, ok = firstJSONObject(`{"a": 1`)
	assert.False(t, ok)
}

func TestBuildPrompt(t *testing.T) {
	input := ExtractionInput{
		Domain: "acme.com",
		Pages: []model.PageRecord{{
			URL:      "https://acme.com",
			Category: model.PageCategoryHome,
			Status:   model.PageStatusScraped,
			Extracted: &model.PageSignals{
				Title:       "Acme",
				Description: "Industrial widgets.",
				Markdown:    "# Acme\nWidgets for heavy industry.",
			},
		}},
		VerifiedEmails: []string{"info@acme.com"},
		Phones:         []string{"+13065551234"},
		Search: &model.SearchSignals{Findings: []model.SearchFinding{{
			Title:    "Acme | LinkedIn",
			Link:     "https://linkedin.com/company/acme",
			Snippet:  "51-200 employees",
			Category: model.SearchCategoryLinkedIn,
		}}},
	}

	prompt := buildPrompt(input)
	assert.Contains(t, prompt, "acme.com")
	assert.Contains(t, prompt, "Widgets for heavy industry.")
	assert.Contains(t, prompt, "info@acme.com")
	assert.Contains(t, prompt, "+13065551234")
	assert.Contains(t, prompt, "51-200 employees")
	assert.Contains(t, prompt, `"legal_name"`)
}

func TestBuildPrompt_RespectsContextBudget(t *testing.T) {
	big := strings.Repeat("lorem ipsum ", 10000)
	var pages []model.PageRecord
	for i := 0; i < 5; i++ {
		pages = append(pages, model.PageRecord{
			URL:       "https://acme.com/p",
			Category:  model.PageCategoryOther,
			Extracted: &model.PageSignals{Markdown: big},
		})
	}

	prompt := buildPrompt(ExtractionInput{Domain: "acme.com", Pages: pages})
	assert.Less(t, len(prompt), maxContextBytes+5000)
}
