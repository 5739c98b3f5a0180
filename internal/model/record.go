package model

// DefaultIndustry is the constant fallback when neither the oracle nor the
// scrape yields an industry.
const DefaultIndustry = "Professional Services"

// ConsolidatedCompanyRecord is the fused company entity merging scrape,
// search, and oracle data under explicit per-field precedence
// (oracle > scrape > default). Owned by the engine during a job and handed
// to the store as a value.
type ConsolidatedCompanyRecord struct {
	Company    RecordCompany    `json:"company"`
	Business   RecordBusiness   `json:"business"`
	Contact    RecordContact    `json:"contact"`
	Technology RecordTechnology `json:"technology"`
	Market     RecordMarket     `json:"market"`
	Conflicts  []string         `json:"conflicts,omitempty"`
	Sources    RecordSources    `json:"sources"`
}

// RecordCompany is the identity section of the consolidated record.
type RecordCompany struct {
	Name         string `json:"name"`
	Website      string `json:"website"`
	Domain       string `json:"domain"`
	Description  string `json:"description"`
	Founded      string `json:"founded"`
	Headquarters string `json:"headquarters"`
}

// RecordBusiness is the commercial section of the consolidated record.
type RecordBusiness struct {
	Industry        string   `json:"industry"`
	BusinessModel   string   `json:"business_model,omitempty"`
	Services        []string `json:"services,omitempty"`
	TargetCustomers []string `json:"target_customers,omitempty"`
	EmployeeCount   string   `json:"employee_count,omitempty"`
	FundingAmount   string   `json:"funding_amount,omitempty"`
}

// RecordContact is the contact section of the consolidated record. Email is
// only ever a verified address; unverified candidates are stripped before
// consolidation.
type RecordContact struct {
	Email         string            `json:"email,omitempty"`
	EmailVerified bool              `json:"email_verified"`
	Phone         string            `json:"phone,omitempty"`
	SocialLinks   map[string]string `json:"social_links,omitempty"`
}

// RecordTechnology is the technology section of the consolidated record.
type RecordTechnology struct {
	Platforms []string `json:"platforms,omitempty"`
	Analytics []string `json:"analytics,omitempty"`
}

// RecordMarket is the market section of the consolidated record.
type RecordMarket struct {
	Competitors     []string `json:"competitors,omitempty"`
	Differentiators []string `json:"differentiators,omitempty"`
	FundingStage    string   `json:"funding_stage,omitempty"`
}

// RecordSources notes which upstream sources contributed to the record.
type RecordSources struct {
	PagesScraped int  `json:"pages_scraped"`
	SearchUsed   bool `json:"search_used"`
	OracleUsed   bool `json:"oracle_used"`
}

// MarketingData is the outreach-ready summary prepared in the final stage.
type MarketingData struct {
	CompanyName   string   `json:"company_name"`
	Industry      string   `json:"industry"`
	Pitch         string   `json:"pitch"`
	ContactEmail  string   `json:"contact_email,omitempty"`
	ContactPhone  string   `json:"contact_phone,omitempty"`
	TalkingPoints []string `json:"talking_points,omitempty"`
	Segments      []string `json:"segments,omitempty"`
}
