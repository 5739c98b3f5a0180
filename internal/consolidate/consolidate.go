package consolidate

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Sources carries everything the earlier stages produced. Oracle may be nil
// when extraction was skipped or degraded; VerifiedEmails holds only the
// addresses that survived the SMTP gate.
type Sources struct {
	Domain           string
	NormalizedDomain string
	Pages            []model.PageRecord
	VerifiedEmails   []string
	Phones           []model.ContactCandidate
	Search           *model.SearchSignals
	Oracle           *model.OracleExtraction
}

// MergeFields builds the final company record from all sources. Precedence is
// oracle over scraped over defaults, field by field. Divergent values are not
// auto-resolved: the oracle wins and a conflict string records what the
// scrape said.
func MergeFields(src Sources) *model.ConsolidatedCompanyRecord {
	rec := &model.ConsolidatedCompanyRecord{}
	var conflicts []string

	scrapedName := CompanyNameFromPages(src.Pages)
	scrapedDesc := scrapedDescription(src.Pages)

	// Company block.
	rec.Company.Website = "https://" + src.NormalizedDomain
	rec.Company.Domain = src.NormalizedDomain
	rec.Company.Name = scrapedName
	rec.Company.Description = scrapedDesc
	if src.Oracle != nil {
		if v := strings.TrimSpace(src.Oracle.Company.LegalName); v != "" {
			if scrapedName != "" && !namesAgree(scrapedName, v) {
				conflicts = append(conflicts, fmt.Sprintf("company.name: scraped %q, oracle %q", scrapedName, v))
			}
			rec.Company.Name = v
		}
		if v := strings.TrimSpace(src.Oracle.Company.Description); v != "" {
			rec.Company.Description = v
		}
		rec.Company.Founded = strings.TrimSpace(src.Oracle.Company.Founded)
		rec.Company.Headquarters = strings.TrimSpace(src.Oracle.Company.Headquarters)
	}
	if rec.Company.Name == "" {
		rec.Company.Name = src.NormalizedDomain
	}

	// Business block. Industry always has a value: oracle first, then the
	// catch-all default.
	rec.Business.Industry = model.DefaultIndustry
	if src.Oracle != nil {
		if v := strings.TrimSpace(src.Oracle.Business.Industry); v != "" {
			rec.Business.Industry = v
		}
		rec.Business.BusinessModel = strings.TrimSpace(src.Oracle.Business.BusinessModel)
		rec.Business.Services = dedupeStrings(src.Oracle.Business.Services)
		rec.Business.TargetCustomers = dedupeStrings(src.Oracle.Business.TargetCustomers)
	}
	rec.Business.EmployeeCount = mergeEmployeeCount(src)
	if src.Search != nil {
		rec.Business.FundingAmount = src.Search.FundingAmount
	}

	// Contact block. Emails already passed the SMTP gate, so the first one is
	// both the primary and verified.
	if len(src.VerifiedEmails) > 0 {
		rec.Contact.Email = src.VerifiedEmails[0]
		rec.Contact.EmailVerified = true
	}
	if src.Oracle != nil && rec.Contact.Email != "" {
		if c := emailConflict(rec.Contact.Email, src.Oracle.People.Emails); c != "" {
			conflicts = append(conflicts, c)
		}
	}
	if len(src.Phones) > 0 {
		rec.Contact.Phone = src.Phones[0].Normalized
	}
	rec.Contact.SocialLinks = mergeSocialLinks(src.Pages)

	// Technology block: union of oracle platforms and scraped detections.
	var platforms []string
	if src.Oracle != nil {
		platforms = append(platforms, src.Oracle.Technology.Platforms...)
		rec.Technology.Analytics = dedupeStrings(src.Oracle.Technology.Analytics)
	}
	for _, p := range src.Pages {
		if p.Extracted != nil {
			platforms = append(platforms, p.Extracted.Technologies...)
		}
	}
	rec.Technology.Platforms = dedupeStrings(platforms)

	// Market block is oracle-only.
	if src.Oracle != nil {
		rec.Market.Competitors = dedupeStrings(src.Oracle.Market.Competitors)
		rec.Market.Differentiators = dedupeStrings(src.Oracle.Market.Differentiators)
		rec.Market.FundingStage = strings.TrimSpace(src.Oracle.Market.FundingStage)
	}

	rec.Conflicts = conflicts
	rec.Sources = model.RecordSources{
		PagesScraped: countScraped(src.Pages),
		SearchUsed:   src.Search != nil && len(src.Search.Findings) > 0,
		OracleUsed:   src.Oracle != nil,
	}

	for _, c := range conflicts {
		zap.L().Warn("consolidate: source conflict", zap.String("domain", src.NormalizedDomain), zap.String("conflict", c))
	}
	return rec
}

// CompanyNameFromPages takes the title of the highest-priority scraped page
// and trims the usual "| tagline" suffix.
func CompanyNameFromPages(pages []model.PageRecord) string {
	for _, cat := range model.CategoryPriority() {
		for _, p := range pages {
			if p.Category != cat || p.Extracted == nil || p.Extracted.Title == "" {
				continue
			}
			title := p.Extracted.Title
			for _, sep := range []string{" | ", " - ", " – ", " :: "} {
				if idx := strings.Index(title, sep); idx > 0 {
					title = title[:idx]
				}
			}
			return strings.TrimSpace(title)
		}
	}
	return ""
}

func scrapedDescription(pages []model.PageRecord) string {
	for _, cat := range model.CategoryPriority() {
		for _, p := range pages {
			if p.Category == cat && p.Extracted != nil && p.Extracted.Description != "" {
				return p.Extracted.Description
			}
		}
	}
	return ""
}

// namesAgree treats one name containing the other as agreement, so
// "Acme" vs "Acme Inc." is not flagged.
func namesAgree(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func emailConflict(chosen string, oracleEmails []string) string {
	if len(oracleEmails) == 0 {
		return ""
	}
	for _, e := range oracleEmails {
		if strings.EqualFold(e, chosen) {
			return ""
		}
	}
	return fmt.Sprintf("contact.email: verified %q, oracle suggested %q", chosen, oracleEmails[0])
}

// mergeEmployeeCount prefers the oracle's figure and falls back to the weak
// search signal.
func mergeEmployeeCount(src Sources) string {
	if src.Oracle != nil {
		if v := strings.TrimSpace(src.Oracle.People.EmployeeCount); v != "" {
			return v
		}
	}
	if src.Search != nil {
		return src.Search.EmployeeCount
	}
	return ""
}

func mergeSocialLinks(pages []model.PageRecord) map[string]string {
	out := map[string]string{}
	for _, p := range pages {
		if p.Extracted == nil {
			continue
		}
		for platform, link := range p.Extracted.SocialLinks {
			if _, seen := out[platform]; !seen {
				out[platform] = link
			}
		}
	}
	return out
}

func countScraped(pages []model.PageRecord) int {
	n := 0
	for _, p := range pages {
		if p.Status == model.PageStatusScraped {
			n++
		}
	}
	return n
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
