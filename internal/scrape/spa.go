package scrape

import "strings"

// hydrationMarkers are substrings that indicate a client-rendered SPA shell:
// framework mount points and serialized-state globals that only appear in
// pages whose real content arrives via JavaScript.
var hydrationMarkers = []string{
	`id="root"`,
	`id="app"`,
	`id="__next"`,
	"data-reactroot",
	"__NEXT_DATA__",
	"__NUXT__",
	"ng-version=",
	"data-server-rendered",
}

// minStaticAnchors is the anchor count below which a page is presumed to be
// a shell awaiting hydration.
const minStaticAnchors = 3

// SPADetector decides whether static HTML needs a headless re-fetch.
type SPADetector func(html string) bool

// DefaultSPADetector flags pages carrying framework hydration markers or
// fewer than three anchor tags.
func DefaultSPADetector(html string) bool {
	for _, marker := range hydrationMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return strings.Count(strings.ToLower(html), "<a ") < minStaticAnchors
}
