package scrape

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/sells-group/enrich-cli/internal/model"
)

// knownTechnologies is the fixed fingerprint list matched as substrings
// against raw page HTML. Lowercase.
var knownTechnologies = []string{
	"wordpress", "shopify", "wix", "squarespace", "webflow", "drupal",
	"joomla", "magento", "woocommerce", "bigcommerce",
	"react", "vue", "angular", "next.js", "nuxt", "gatsby", "svelte",
	"jquery", "bootstrap", "tailwind",
	"google analytics", "gtag", "googletagmanager", "hotjar", "segment",
	"hubspot", "salesforce", "intercom", "zendesk", "mailchimp", "klaviyo",
	"stripe", "paypal", "cloudflare",
}

// socialPlatforms maps platform names to URL-matching regexes.
var socialPlatforms = map[string]*regexp.Regexp{
	"linkedin":  regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/(?:company|in)/[A-Za-z0-9_%.-]+`),
	"facebook":  regexp.MustCompile(`https?://(?:www\.)?facebook\.com/[A-Za-z0-9_.-]+`),
	"twitter":   regexp.MustCompile(`https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+`),
	"instagram": regexp.MustCompile(`https?://(?:www\.)?instagram\.com/[A-Za-z0-9_.-]+`),
	"youtube":   regexp.MustCompile(`https?://(?:www\.)?youtube\.com/(?:channel|c|user|@)[A-Za-z0-9_@/-]+`),
	"tiktok":    regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[A-Za-z0-9_.-]+`),
	"github":    regexp.MustCompile(`https?://(?:www\.)?github\.com/[A-Za-z0-9_-]+`),
}

var (
	titleRe        = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Re           = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	headingRe      = regexp.MustCompile(`(?is)<h[123][^>]*>(.*?)</h[123]>`)
	paragraphRe    = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	metaDescRe     = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]+content=["']([^"']+)["']`)
	metaDescRevRe  = regexp.MustCompile(`(?is)<meta[^>]+content=["']([^"']+)["'][^>]+name=["']description["']`)
	ogDescRe       = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:description["'][^>]+content=["']([^"']+)["']`)
	metaKeywordsRe = regexp.MustCompile(`(?is)<meta[^>]+name=["']keywords["'][^>]+content=["']([^"']+)["']`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
)

// noiseTags are removed wholesale before text extraction.
var noiseTags = []string{"script", "style", "noscript", "svg", "nav", "footer", "iframe"}

var noiseRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(noiseTags))
	for _, tag := range noiseTags {
		res = append(res, regexp.MustCompile(`(?is)<`+tag+`[^>]*>.*?</`+tag+`>`))
	}
	return res
}()

// StripNoise removes script/style/nav/footer and similar blocks from HTML.
func StripNoise(html string) string {
	for _, re := range noiseRes {
		html = re.ReplaceAllString(html, "")
	}
	return html
}

// ParseSignals extracts all structured signals from raw page HTML. Contact
// extraction runs on the raw HTML (mailto:/tel: hrefs live in markup the
// noise strip could touch); everything else on the cleaned document.
func ParseSignals(rawHTML, pageURL string) *model.PageSignals {
	clean := StripNoise(rawHTML)

	signals := &model.PageSignals{
		Title:        extractTitle(clean),
		Description:  extractDescription(clean),
		Technologies: extractTechnologies(rawHTML),
		SocialLinks:  extractSocialLinks(rawHTML),
		Keywords:     extractKeywords(clean),
	}

	signals.Emails = ExtractEmails(rawHTML)
	signals.Phones = ExtractPhones(rawHTML, pageURL)

	if md, err := htmltomarkdown.ConvertString(clean); err == nil {
		signals.Markdown = truncate(md, 20000)
	}

	return signals
}

// extractTitle pulls <title>, falling back to the first <h1>.
func extractTitle(html string) string {
	if m := titleRe.FindStringSubmatch(html); len(m) > 1 {
		if t := cleanText(m[1]); t != "" {
			return t
		}
	}
	if m := h1Re.FindStringSubmatch(html); len(m) > 1 {
		return cleanText(m[1])
	}
	return ""
}

// extractDescription prefers meta description, then OG description, then the
// first non-trivial paragraph.
func extractDescription(html string) string {
	for _, re := range []*regexp.Regexp{metaDescRe, metaDescRevRe, ogDescRe} {
		if m := re.FindStringSubmatch(html); len(m) > 1 {
			if d := cleanText(m[1]); d != "" {
				return d
			}
		}
	}
	for _, m := range paragraphRe.FindAllStringSubmatch(html, 10) {
		if p := cleanText(m[1]); len(p) >= 40 {
			return truncate(p, 500)
		}
	}
	return ""
}

// extractTechnologies substring-matches the known-technology list.
func extractTechnologies(html string) []string {
	lower := strings.ToLower(html)
	var found []string
	for _, tech := range knownTechnologies {
		if strings.Contains(lower, tech) {
			found = append(found, tech)
		}
	}
	return found
}

// extractSocialLinks finds the first profile link per platform.
func extractSocialLinks(html string) map[string]string {
	links := make(map[string]string)
	for platform, re := range socialPlatforms {
		if m := re.FindString(html); m != "" {
			links[platform] = m
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// extractKeywords merges meta keywords with heading text, deduplicated
// case-insensitively.
func extractKeywords(html string) []string {
	seen := make(map[string]bool)
	var keywords []string

	add := func(kw string) {
		kw = cleanText(kw)
		key := strings.ToLower(kw)
		if kw == "" || len(kw) > 80 || seen[key] {
			return
		}
		seen[key] = true
		keywords = append(keywords, kw)
	}

	if m := metaKeywordsRe.FindStringSubmatch(html); len(m) > 1 {
		for _, kw := range strings.Split(m[1], ",") {
			add(kw)
		}
	}
	for _, m := range headingRe.FindAllStringSubmatch(html, 30) {
		add(m[1])
	}

	if len(keywords) > 25 {
		keywords = keywords[:25]
	}
	return keywords
}

// cleanText strips tags, decodes common entities, and collapses whitespace.
func cleanText(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	s = r.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
