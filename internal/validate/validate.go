package validate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

var (
	emailShapeRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneShapeRe = regexp.MustCompile(`^\+?\d{7,15}$`)
	yearRe       = regexp.MustCompile(`^\d{4}$`)
)

// CheckScrape inspects what page discovery and scraping produced.
func CheckScrape(crawl *model.CrawlResult) []model.ValidationIssue {
	var issues []model.ValidationIssue
	if crawl == nil || len(crawl.Pages) == 0 {
		return append(issues, model.ValidationIssue{
			Field:      "pages",
			Issue:      "no pages discovered",
			Severity:   model.SeverityError,
			Suggestion: "check the domain resolves and serves HTML",
		})
	}

	if crawl.PagesScraped == 0 {
		issues = append(issues, model.ValidationIssue{
			Field:      "pages",
			Issue:      "no pages scraped successfully",
			Severity:   model.SeverityError,
			Suggestion: "inspect per-page errors in the trace",
		})
	} else if crawl.PagesFailed > crawl.PagesScraped {
		issues = append(issues, model.ValidationIssue{
			Field:    "pages",
			Issue:    "more pages failed than succeeded",
			Severity: model.SeverityWarning,
		})
	}

	hasHome := false
	for _, p := range crawl.Pages {
		if p.Category == model.PageCategoryHome && p.Status == model.PageStatusScraped {
			hasHome = true
			break
		}
	}
	if !hasHome {
		issues = append(issues, model.ValidationIssue{
			Field:    "pages.home",
			Issue:    "home page missing or unscraped",
			Severity: model.SeverityWarning,
		})
	}
	return issues
}

// CheckOracle inspects the structured extraction for empty or malformed
// fields. A nil extraction means the stage was skipped, which is an error for
// quality purposes.
func CheckOracle(ex *model.OracleExtraction) []model.ValidationIssue {
	var issues []model.ValidationIssue
	if ex == nil {
		return append(issues, model.ValidationIssue{
			Field:    "oracle",
			Issue:    "structured extraction unavailable",
			Severity: model.SeverityError,
		})
	}

	if strings.TrimSpace(ex.Company.LegalName) == "" {
		issues = append(issues, model.ValidationIssue{
			Field:    "oracle.company.legal_name",
			Issue:    "legal name not extracted",
			Severity: model.SeverityWarning,
		})
	}
	if strings.TrimSpace(ex.Business.Industry) == "" {
		issues = append(issues, model.ValidationIssue{
			Field:    "oracle.business.industry",
			Issue:    "industry not extracted",
			Severity: model.SeverityWarning,
		})
	}
	if f := strings.TrimSpace(ex.Company.Founded); f != "" && !yearRe.MatchString(f) {
		issues = append(issues, model.ValidationIssue{
			Field:      "oracle.company.founded",
			Issue:      "founded is not a four-digit year",
			Severity:   model.SeverityInfo,
			Data:       f,
			Suggestion: "normalize to YYYY",
		})
	}
	if len(ex.Business.Services) == 0 {
		issues = append(issues, model.ValidationIssue{
			Field:    "oracle.business.services",
			Issue:    "no services extracted",
			Severity: model.SeverityInfo,
		})
	}
	return issues
}

// CheckRecord inspects the consolidated record for completeness and shape.
func CheckRecord(rec *model.ConsolidatedCompanyRecord) []model.ValidationIssue {
	var issues []model.ValidationIssue
	if rec == nil {
		return append(issues, model.ValidationIssue{
			Field:    "record",
			Issue:    "no consolidated record",
			Severity: model.SeverityError,
		})
	}

	if strings.TrimSpace(rec.Company.Name) == "" {
		issues = append(issues, model.ValidationIssue{
			Field:    "company.name",
			Issue:    "company name is empty",
			Severity: model.SeverityError,
		})
	}
	if rec.Business.Industry == model.DefaultIndustry {
		issues = append(issues, model.ValidationIssue{
			Field:      "business.industry",
			Issue:      "industry fell back to the default",
			Severity:   model.SeverityWarning,
			Suggestion: "rerun with search enrichment enabled",
		})
	}

	switch {
	case rec.Contact.Email == "":
		issues = append(issues, model.ValidationIssue{
			Field:    "contact.email",
			Issue:    "no verified contact email",
			Severity: model.SeverityWarning,
		})
	case !emailShapeRe.MatchString(rec.Contact.Email):
		issues = append(issues, model.ValidationIssue{
			Field:    "contact.email",
			Issue:    "email is malformed",
			Severity: model.SeverityError,
			Data:     rec.Contact.Email,
		})
	}

	if rec.Contact.Phone == "" {
		issues = append(issues, model.ValidationIssue{
			Field:    "contact.phone",
			Issue:    "no contact phone",
			Severity: model.SeverityInfo,
		})
	} else if !phoneShapeRe.MatchString(rec.Contact.Phone) {
		issues = append(issues, model.ValidationIssue{
			Field:    "contact.phone",
			Issue:    "phone is malformed",
			Severity: model.SeverityWarning,
			Data:     rec.Contact.Phone,
		})
	}

	if strings.TrimSpace(rec.Company.Description) == "" {
		issues = append(issues, model.ValidationIssue{
			Field:    "company.description",
			Issue:    "description is empty",
			Severity: model.SeverityInfo,
		})
	}
	for _, c := range rec.Conflicts {
		issues = append(issues, model.ValidationIssue{
			Field:    "conflicts",
			Issue:    c,
			Severity: model.SeverityInfo,
		})
	}
	return issues
}

// BuildReport scores a set of issues. The score starts at 100 and each issue
// subtracts its severity penalty, clamped to [0, 100].
func BuildReport(issues []model.ValidationIssue) *model.QualityReport {
	score := 100
	breakdown := map[string]int{}
	suggestions := map[string][]string{}

	for _, issue := range issues {
		score -= issue.Severity.Penalty()
		breakdown[string(issue.Severity)]++
		if issue.Suggestion != "" {
			field := topLevelField(issue.Field)
			suggestions[field] = append(suggestions[field], issue.Suggestion)
		}
	}
	if score < 0 {
		score = 0
	}

	sorted := make([]model.ValidationIssue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Penalty() > sorted[j].Severity.Penalty()
	})

	return &model.QualityReport{
		Score:       score,
		Confidence:  bandFor(score),
		Issues:      sorted,
		Suggestions: suggestions,
		Breakdown:   breakdown,
	}
}

// CheckAll runs every validator and folds the issues into one report.
func CheckAll(crawl *model.CrawlResult, ex *model.OracleExtraction, rec *model.ConsolidatedCompanyRecord) *model.QualityReport {
	var issues []model.ValidationIssue
	issues = append(issues, CheckScrape(crawl)...)
	issues = append(issues, CheckOracle(ex)...)
	issues = append(issues, CheckRecord(rec)...)
	return BuildReport(issues)
}

func bandFor(score int) model.ConfidenceBand {
	switch {
	case score >= 80:
		return model.ConfidenceHigh
	case score >= 60:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func topLevelField(field string) string {
	if idx := strings.IndexByte(field, '.'); idx > 0 {
		return field[:idx]
	}
	return field
}
