package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

func testDiscoverer(maxPages int) *Discoverer {
	d := NewDiscoverer(config.CrawlConfig{MaxPages: maxPages, TimeoutSecs: 5})
	d.scheme = "http"
	return d
}

func serveHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, "<html></html>")
	}))
	defer srv.Close()

	d := testDiscoverer(10)
	host := hostOf(t, srv.URL)
	assert.NoError(t, d.Probe(context.Background(), host))
}

func TestProbe_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := testDiscoverer(10)
	err := d.Probe(context.Background(), hostOf(t, srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestProbe_Unreachable(t *testing.T) {
	d := testDiscoverer(10)
	assert.Error(t, d.Probe(context.Background(), "127.0.0.1:1"))
}

func TestDiscover_BFS(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		serveHTML(w, `<html><body>
			<a href="/">Home</a>
			<a href="/about">About</a>
			<a href="/about">About again</a>
			<a href="/contact/">Contact</a>
			<a href="https://elsewhere.example/x">External</a>
			<a href="mailto:info@acme.com">Mail</a>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, `<html><body><a href="/leadership">Team</a></body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, `<html><body>call us</body></html>`)
	})
	mux.HandleFunc("/leadership", func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, `<html><body>people</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := testDiscoverer(10)
	pages, sitemapSeeded, err := d.Discover(context.Background(), hostOf(t, srv.URL))
	require.NoError(t, err)
	assert.Zero(t, sitemapSeeded)

	urls := make(map[string]model.PageCategory)
	for _, p := range pages {
		urls[p.URL] = p.Category
		assert.Equal(t, model.PageStatusPending, p.Status)
	}

	base := srv.URL
	assert.Equal(t, model.PageCategoryHome, urls[base])
	assert.Equal(t, model.PageCategoryAbout, urls[base+"/about"])
	assert.Equal(t, model.PageCategoryContact, urls[base+"/contact"])
	assert.Equal(t, model.PageCategoryTeam, urls[base+"/leadership"])
	// External host never enters the page list.
	for u := range urls {
		assert.NotContains(t, u, "elsewhere.example")
	}
	// The "/" self-link dedupes against the seeded homepage; exactly one
	// home record exists and no quota is spent visiting it twice.
	homes := 0
	for _, p := range pages {
		if p.Category == model.PageCategoryHome {
			homes++
		}
	}
	assert.Equal(t, 1, homes)
	// Priority order puts home first.
	assert.Equal(t, base, pages[0].URL)
}

func TestDiscover_RespectsMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var links string
		for i := 0; i < 30; i++ {
			links += fmt.Sprintf(`<a href="/page-%d">p</a>`, i)
		}
		serveHTML(w, "<html><body>"+links+"</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := testDiscoverer(5)
	pages, _, err := d.Discover(context.Background(), hostOf(t, srv.URL))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pages), 5)
}

func TestDiscover_SitemapSeeding(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nSitemap: %s/sitemap.xml\n", base)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/hidden-products</loc></url>
  <url><loc>https://elsewhere.example/skip</loc></url>
</urlset>`, base)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		serveHTML(w, "<html><body>home</body></html>")
	})
	mux.HandleFunc("/hidden-products", func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, "<html><body>catalog</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	d := testDiscoverer(10)
	pages, sitemapSeeded, err := d.Discover(context.Background(), hostOf(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, sitemapSeeded, "only the same-host sitemap entry is seeded")

	found := false
	for _, p := range pages {
		if p.URL == base+"/hidden-products" {
			found = true
			assert.Equal(t, model.PageCategoryProducts, p.Category)
		}
	}
	assert.True(t, found, "sitemap-only page should be discovered")
}

func TestParseLinks(t *testing.T) {
	base, err := url.Parse("https://acme.com")
	require.NoError(t, err)

	links := parseLinks(`<a href="/a">A</a><a href="#top">skip</a><a href="javascript:void(0)">skip</a><a href="/a">dup</a><a href="https://other.com/b">skip</a>`, base)
	assert.Equal(t, []string{"https://acme.com/a"}, links)
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Host
}
