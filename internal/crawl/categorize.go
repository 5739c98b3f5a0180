package crawl

import (
	"net/url"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// categoryKeywords maps path keywords to page categories. Checked in
// CategoryPriority order so "about-our-services" files under about.
var categoryKeywords = map[model.PageCategory][]string{
	model.PageCategoryAbout:    {"about", "company", "who-we-are", "our-story", "mission"},
	model.PageCategoryContact:  {"contact", "get-in-touch", "reach-us", "locations"},
	model.PageCategoryServices: {"service", "solutions", "what-we-do", "capabilities", "offerings"},
	model.PageCategoryProducts: {"product", "platform", "features", "pricing", "shop"},
	model.PageCategoryTeam:     {"team", "people", "leadership", "staff", "founders", "careers"},
	model.PageCategoryBlog:     {"blog", "news", "insights", "articles", "press", "resources"},
}

// CategorizeURL buckets a URL by path-keyword matching. Root paths are home;
// anything unmatched is other.
func CategorizeURL(rawURL string) model.PageCategory {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.PageCategoryOther
	}

	p := strings.ToLower(strings.Trim(u.Path, "/"))
	if p == "" || p == "index.html" || p == "index.php" || p == "home" {
		return model.PageCategoryHome
	}

	for _, cat := range model.CategoryPriority() {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(p, kw) {
				return cat
			}
		}
	}
	return model.PageCategoryOther
}

// PrioritizePages flattens categorized pages into a scrape list ordered by
// fixed category precedence (home > about > contact > services > products >
// team > blog > other), deduplicated by URL and truncated to maxPages.
func PrioritizePages(pages []model.PageRecord, maxPages int) []model.PageRecord {
	byCategory := make(map[model.PageCategory][]model.PageRecord)
	for _, p := range pages {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	seen := make(map[string]bool)
	var ordered []model.PageRecord
	for _, cat := range model.CategoryPriority() {
		for _, p := range byCategory[cat] {
			if seen[p.URL] {
				continue
			}
			seen[p.URL] = true
			ordered = append(ordered, p)
			if len(ordered) >= maxPages {
				return ordered
			}
		}
	}
	return ordered
}
