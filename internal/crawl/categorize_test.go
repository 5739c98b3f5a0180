package crawl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestCategorizeURL(t *testing.T) {
	cases := map[string]model.PageCategory{
		"https://acme.com/":                 model.PageCategoryHome,
		"https://acme.com/index.html":       model.PageCategoryHome,
		"https://acme.com/about-us":         model.PageCategoryAbout,
		"https://acme.com/company/history":  model.PageCategoryAbout,
		"https://acme.com/contact":          model.PageCategoryContact,
		"https://acme.com/our-services":     model.PageCategoryServices,
		"https://acme.com/products/widgets": model.PageCategoryProducts,
		"https://acme.com/leadership":       model.PageCategoryTeam,
		"https://acme.com/blog/2026/post":   model.PageCategoryBlog,
		"https://acme.com/terms":            model.PageCategoryOther,
	}
	for rawURL, want := range cases {
		assert.Equal(t, want, CategorizeURL(rawURL), rawURL)
	}
}

func TestCategorizeURL_PriorityOrderBreaksTies(t *testing.T) {
	// Matches both about and services keywords; about wins by priority.
	assert.Equal(t, model.PageCategoryAbout, CategorizeURL("https://acme.com/about-our-services"))
}

func TestPrioritizePages(t *testing.T) {
	pages := []model.PageRecord{
		{URL: "https://acme.com/blog", Category: model.PageCategoryBlog},
		{URL: "https://acme.com/", Category: model.PageCategoryHome},
		{URL: "https://acme.com/contact", Category: model.PageCategoryContact},
		{URL: "https://acme.com/about", Category: model.PageCategoryAbout},
		{URL: "https://acme.com/about", Category: model.PageCategoryAbout}, // duplicate
	}

	ordered := PrioritizePages(pages, 10)
	require.Len(t, ordered, 4)
	assert.Equal(t, "https://acme.com/", ordered[0].URL)
	assert.Equal(t, "https://acme.com/about", ordered[1].URL)
	assert.Equal(t, "https://acme.com/contact", ordered[2].URL)
	assert.Equal(t, "https://acme.com/blog", ordered[3].URL)
}

func TestPrioritizePages_TruncatesToMax(t *testing.T) {
	var pages []model.PageRecord
	for i := 0; i < 20; i++ {
		pages = append(pages, model.PageRecord{
			URL:      fmt.Sprintf("https://acme.com/p%d", i),
			Category: model.PageCategoryOther,
		})
	}
	assert.Len(t, PrioritizePages(pages, 10), 10)
}
