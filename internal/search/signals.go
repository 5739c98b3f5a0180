package search

import (
	"regexp"

	"github.com/sells-group/enrich-cli/internal/model"
)

var (
	// employeeRe matches "250 employees", "1,200+ employees", and range
	// forms like "51-200 employees" common in LinkedIn snippets.
	employeeRe = regexp.MustCompile(`(?i)(\d[\d,]*(?:\s*[-–]\s*\d[\d,]*)?\s*\+?)\s*employees`)

	// fundingRe matches dollar amounts with a magnitude suffix, e.g.
	// "$4.5 million", "$12M", "$1.2 billion".
	fundingRe = regexp.MustCompile(`(?i)\$\s?\d+(?:[.,]\d+)?\s?(?:million|billion|[mb]\b)`)
)

// extractWeakSignals pulls employee count and funding amount out of finding
// title+snippet text. First match wins per field; findings are already
// score-ordered so higher-trust sources are scanned first.
func extractWeakSignals(signals *model.SearchSignals) {
	for _, f := range signals.Findings {
		text := f.Title + " " + f.Snippet

		if signals.EmployeeCount == "" {
			if m := employeeRe.FindStringSubmatch(text); len(m) > 1 {
				signals.EmployeeCount = m[1]
			}
		}
		if signals.FundingAmount == "" {
			if m := fundingRe.FindString(text); m != "" {
				signals.FundingAmount = m
			}
		}
		if signals.EmployeeCount != "" && signals.FundingAmount != "" {
			return
		}
	}
}
