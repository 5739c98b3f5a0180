package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSPADetector_HydrationMarkers(t *testing.T) {
	anchors := strings.Repeat(`<a href="/x">link</a>`, 5)

	cases := []string{
		`<div id="root"></div>` + anchors,
		`<div id="__next"></div>` + anchors,
		`<script>window.__NUXT__={}</script>` + anchors,
		`<div data-reactroot>` + anchors + `</div>`,
		`<app-root ng-version="17.0.1"></app-root>` + anchors,
	}
	for _, html := range cases {
		assert.True(t, DefaultSPADetector(html), html[:40])
	}
}

func TestDefaultSPADetector_SparseAnchors(t *testing.T) {
	assert.True(t, DefaultSPADetector(`<html><body><div>loading...</div></body></html>`))
	assert.True(t, DefaultSPADetector(`<a href="/one">1</a><a href="/two">2</a>`))
}

func TestDefaultSPADetector_StaticContent(t *testing.T) {
	html := `<html><body>
		<a href="/about">About</a>
		<a href="/contact">Contact</a>
		<a href="/services">Services</a>
		<p>Plenty of server-rendered content.</p>
	</body></html>`
	assert.False(t, DefaultSPADetector(html))
}
