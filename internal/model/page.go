package model

// PageCategory is the bucket a discovered URL is filed under, assigned by
// path-keyword matching.
type PageCategory string

const (
	PageCategoryHome     PageCategory = "home"
	PageCategoryAbout    PageCategory = "about"
	PageCategoryContact  PageCategory = "contact"
	PageCategoryServices PageCategory = "services"
	PageCategoryProducts PageCategory = "products"
	PageCategoryTeam     PageCategory = "team"
	PageCategoryBlog     PageCategory = "blog"
	PageCategoryOther    PageCategory = "other"
)

// CategoryPriority returns page categories in scrape-priority order.
// Home pages are scraped first, uncategorized pages last.
func CategoryPriority() []PageCategory {
	return []PageCategory{
		PageCategoryHome,
		PageCategoryAbout,
		PageCategoryContact,
		PageCategoryServices,
		PageCategoryProducts,
		PageCategoryTeam,
		PageCategoryBlog,
		PageCategoryOther,
	}
}

// PageStatus reports whether a discovered page was scraped successfully.
type PageStatus string

const (
	PageStatusPending PageStatus = "pending"
	PageStatusScraped PageStatus = "scraped"
	PageStatusFailed  PageStatus = "failed"
)

// PageRecord is one discovered page. Within a single crawl no two records
// share a normalized URL.
type PageRecord struct {
	URL       string       `json:"url"`
	Category  PageCategory `json:"category"`
	Status    PageStatus   `json:"status"`
	Error     string       `json:"error,omitempty"`
	Extracted *PageSignals `json:"extracted,omitempty"`
}

// PageSignals holds the structured signals parsed from one page.
type PageSignals struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Emails       []string           `json:"emails,omitempty"`
	Phones       []ContactCandidate `json:"phones,omitempty"`
	Technologies []string           `json:"technologies,omitempty"`
	SocialLinks  map[string]string  `json:"social_links,omitempty"`
	Keywords     []string           `json:"keywords,omitempty"`
	Markdown     string             `json:"markdown,omitempty"`
	Rendered     bool               `json:"rendered,omitempty"` // true when the headless fallback produced the HTML
}

// CrawlResult is the combined outcome of the discover+scrape stage.
type CrawlResult struct {
	Pages         []PageRecord `json:"pages"`
	PagesScraped  int          `json:"pages_scraped"`
	PagesFailed   int          `json:"pages_failed"`
	SitemapSeeded int          `json:"sitemap_seeded"`
	FromCache     bool         `json:"from_cache"`
}
