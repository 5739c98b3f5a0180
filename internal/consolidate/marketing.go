package consolidate

import (
	"fmt"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// BuildMarketingData derives an outreach-ready summary from the consolidated
// record. It is purely a reshaping of already-merged fields.
func BuildMarketingData(rec *model.ConsolidatedCompanyRecord) *model.MarketingData {
	md := &model.MarketingData{
		CompanyName:  rec.Company.Name,
		Industry:     rec.Business.Industry,
		Pitch:        buildPitch(rec),
		ContactEmail: rec.Contact.Email,
		ContactPhone: rec.Contact.Phone,
		Segments:     rec.Business.TargetCustomers,
	}

	var points []string
	if len(rec.Business.Services) > 0 {
		points = append(points, "Services: "+strings.Join(topN(rec.Business.Services, 5), ", "))
	}
	if len(rec.Technology.Platforms) > 0 {
		points = append(points, "Tech stack: "+strings.Join(topN(rec.Technology.Platforms, 5), ", "))
	}
	if rec.Business.EmployeeCount != "" {
		points = append(points, "Team size: "+rec.Business.EmployeeCount)
	}
	if len(rec.Market.Differentiators) > 0 {
		points = append(points, "Differentiators: "+strings.Join(topN(rec.Market.Differentiators, 3), ", "))
	}
	md.TalkingPoints = points

	if md.Segments == nil {
		md.Segments = []string{}
	}
	return md
}

func buildPitch(rec *model.ConsolidatedCompanyRecord) string {
	name := rec.Company.Name
	if rec.Company.Description != "" {
		return fmt.Sprintf("%s: %s", name, rec.Company.Description)
	}
	return fmt.Sprintf("%s operates in %s.", name, rec.Business.Industry)
}

func topN(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	return in[:n]
}
