package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func issueOf(sev model.IssueSeverity) model.ValidationIssue {
	return model.ValidationIssue{Field: "f", Issue: "i", Severity: sev}
}

func TestBuildReport_Penalties(t *testing.T) {
	report := BuildReport([]model.ValidationIssue{
		issueOf(model.SeverityError),
		issueOf(model.SeverityWarning),
		issueOf(model.SeverityInfo),
	})

	assert.Equal(t, 100-15-10-5, report.Score)
	assert.Equal(t, model.ConfidenceMedium, report.Confidence)
	assert.Equal(t, 1, report.Breakdown["error"])
	assert.Equal(t, 1, report.Breakdown["warning"])
	assert.Equal(t, 1, report.Breakdown["info"])
}

func TestBuildReport_FloorsAtZero(t *testing.T) {
	var issues []model.ValidationIssue
	for i := 0; i < 10; i++ {
		issues = append(issues, issueOf(model.SeverityError))
	}
	report := BuildReport(issues)

	assert.Equal(t, 0, report.Score)
	assert.Equal(t, model.ConfidenceLow, report.Confidence)
}

func TestBuildReport_NoIssuesIsHighConfidence(t *testing.T) {
	report := BuildReport(nil)
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, model.ConfidenceHigh, report.Confidence)
	assert.Empty(t, report.Issues)
}

func TestBuildReport_MoreIssuesNeverRaiseScore(t *testing.T) {
	issues := []model.ValidationIssue{issueOf(model.SeverityInfo)}
	prev := BuildReport(issues).Score
	for i := 0; i < 25; i++ {
		issues = append(issues, issueOf(model.SeverityInfo))
		cur := BuildReport(issues).Score
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestBuildReport_SortsBySeverity(t *testing.T) {
	report := BuildReport([]model.ValidationIssue{
		issueOf(model.SeverityInfo),
		issueOf(model.SeverityError),
		issueOf(model.SeverityWarning),
	})

	require.Len(t, report.Issues, 3)
	assert.Equal(t, model.SeverityError, report.Issues[0].Severity)
	assert.Equal(t, model.SeverityWarning, report.Issues[1].Severity)
	assert.Equal(t, model.SeverityInfo, report.Issues[2].Severity)
}

func TestBuildReport_GroupsSuggestionsByTopLevelField(t *testing.T) {
	report := BuildReport([]model.ValidationIssue{
		{Field: "contact.email", Issue: "i", Severity: model.SeverityWarning, Suggestion: "add a contact page"},
		{Field: "contact.phone", Issue: "i", Severity: model.SeverityInfo, Suggestion: "add a tel: link"},
	})

	require.Contains(t, report.Suggestions, "contact")
	assert.Len(t, report.Suggestions["contact"], 2)
}

func TestCheckScrape(t *testing.T) {
	issues := CheckScrape(nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityError, issues[0].Severity)

	ok := &model.CrawlResult{
		Pages: []model.PageRecord{
			{URL: "https://acme.com/", Category: model.PageCategoryHome, Status: model.PageStatusScraped},
		},
		PagesScraped: 1,
	}
	assert.Empty(t, CheckScrape(ok))

	noHome := &model.CrawlResult{
		Pages: []model.PageRecord{
			{URL: "https://acme.com/about", Category: model.PageCategoryAbout, Status: model.PageStatusScraped},
		},
		PagesScraped: 1,
	}
	issues = CheckScrape(noHome)
	require.Len(t, issues, 1)
	assert.Equal(t, "pages.home", issues[0].Field)
}

func TestCheckOracle(t *testing.T) {
	issues := CheckOracle(nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityError, issues[0].Severity)

	ex := &model.OracleExtraction{}
	ex.Company.LegalName = "Acme Inc."
	ex.Company.Founded = "circa 2010"
	ex.Business.Industry = "Manufacturing"
	ex.Business.Services = []string{"Widgets"}

	issues = CheckOracle(ex)
	require.Len(t, issues, 1)
	assert.Equal(t, "oracle.company.founded", issues[0].Field)
	assert.Equal(t, model.SeverityInfo, issues[0].Severity)
}

func TestCheckRecord(t *testing.T) {
	rec := &model.ConsolidatedCompanyRecord{}
	rec.Company.Name = "Acme Inc."
	rec.Company.Description = "Widgets."
	rec.Business.Industry = "Manufacturing"
	rec.Contact.Email = "info@acme.com"
	rec.Contact.Phone = "+13065551234"
	assert.Empty(t, CheckRecord(rec))

	rec.Contact.Email = "not-an-email"
	issues := CheckRecord(rec)
	require.Len(t, issues, 1)
	assert.Equal(t, "contact.email", issues[0].Field)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
}

func TestCheckRecord_DefaultIndustryWarns(t *testing.T) {
	rec := &model.ConsolidatedCompanyRecord{}
	rec.Company.Name = "Acme"
	rec.Company.Description = "Widgets."
	rec.Business.Industry = model.DefaultIndustry
	rec.Contact.Email = "info@acme.com"
	rec.Contact.Phone = "+13065551234"

	issues := CheckRecord(rec)
	require.Len(t, issues, 1)
	assert.Equal(t, "business.industry", issues[0].Field)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)
}
