package model

// SearchCategory classifies a search result by its URL.
type SearchCategory string

const (
	SearchCategoryLinkedIn      SearchCategory = "linkedin"
	SearchCategoryCrunchbase    SearchCategory = "crunchbase"
	SearchCategoryGlassdoor     SearchCategory = "glassdoor"
	SearchCategoryNews          SearchCategory = "news"
	SearchCategoryCareers       SearchCategory = "careers"
	SearchCategoryBlog          SearchCategory = "blog"
	SearchCategoryGitHub        SearchCategory = "github"
	SearchCategoryStackOverflow SearchCategory = "stackoverflow"
	SearchCategoryOther         SearchCategory = "other"
)

// SearchFinding is one scored, categorized search result.
type SearchFinding struct {
	Title    string         `json:"title"`
	Link     string         `json:"link"`
	Snippet  string         `json:"snippet"`
	Query    string         `json:"query"`
	Category SearchCategory `json:"category"`
	Score    float64        `json:"score"`
}

// SearchSignals holds the weak signals pulled from search result text plus
// the deduplicated, score-ordered findings themselves.
type SearchSignals struct {
	EmployeeCount string          `json:"employee_count,omitempty"`
	FundingAmount string          `json:"funding_amount,omitempty"`
	Findings      []SearchFinding `json:"findings"`
	QueriesRun    int             `json:"queries_run"`
	QueriesFailed int             `json:"queries_failed"`
}
