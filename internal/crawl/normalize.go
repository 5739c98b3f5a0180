package crawl

import (
	"net/url"
	"strings"
)

// NormalizeDomain canonicalizes a raw domain or URL string to a lowercase
// hostname with the scheme, leading "www.", port, path, query, and fragment
// removed. It never fails: malformed input degrades to best-effort string
// trimming. Idempotent.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}

	// Give the parser a scheme so bare domains parse with a Host.
	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		// Best-effort fallback: strip scheme, path, and www. by hand.
		s = strings.TrimPrefix(s, "http://")
		s = strings.TrimPrefix(s, "https://")
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
		if i := strings.IndexByte(s, ':'); i >= 0 {
			s = s[:i]
		}
		return strings.TrimPrefix(s, "www.")
	}

	host := u.Hostname()
	return strings.TrimPrefix(host, "www.")
}

// BaseURL returns the https base URL for a normalized domain.
func BaseURL(normalizedDomain string) string {
	return "https://" + normalizedDomain
}

// SameHost compares two hostnames ignoring case and a leading "www.".
func SameHost(a, b string) bool {
	return canonicalHost(a) == canonicalHost(b)
}

func canonicalHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}
