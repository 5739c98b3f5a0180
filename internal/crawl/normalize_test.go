package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"https://WWW.Example.com/path/":   "example.com",
		"http://example.com":              "example.com",
		"example.com":                     "example.com",
		"www.example.com":                 "example.com",
		"example.com:8080/about?q=1#frag": "example.com",
		"  HTTPS://Example.COM/  ":        "example.com",
		"sub.example.co.uk/deep/path":     "sub.example.co.uk",
		"":                                "",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeDomain(input), "input %q", input)
	}
}

func TestNormalizeDomain_Idempotent(t *testing.T) {
	for _, input := range []string{"https://www.acme.com/x", "acme.com", "WWW.ACME.COM"} {
		once := NormalizeDomain(input)
		assert.Equal(t, once, NormalizeDomain(once))
	}
}

func TestSameHost(t *testing.T) {
	assert.True(t, SameHost("www.example.com", "example.com"))
	assert.True(t, SameHost("Example.com", "example.com"))
	assert.False(t, SameHost("other.com", "example.com"))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://example.com", BaseURL("example.com"))
}
