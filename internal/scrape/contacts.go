package scrape

import (
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

const maxEmailLength = 254

var (
	mailtoRe    = regexp.MustCompile(`(?i)href=["']mailto:([^"'?]+)`)
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	telHrefRe   = regexp.MustCompile(`(?i)href=["']tel:([^"']+)["']`)
	phoneTextRe = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{5,18}\d`)
	ldJSONRe    = regexp.MustCompile(`(?is)<script[^>]+type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
	digitsRe    = regexp.MustCompile(`\d`)
)

// snippetRadius is the context window captured around free-text phone matches.
const snippetRadius = 80

// ExtractEmails returns the union of mailto: targets and free-text regex
// matches, case-folded and deduplicated. Addresses longer than 254
// characters are rejected.
func ExtractEmails(html string) []string {
	seen := make(map[string]bool)
	var emails []string

	add := func(raw string) {
		e := strings.ToLower(strings.TrimSpace(raw))
		if e == "" || len(e) > maxEmailLength || seen[e] {
			return
		}
		seen[e] = true
		emails = append(emails, e)
	}

	for _, m := range mailtoRe.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	for _, m := range emailRe.FindAllString(html, -1) {
		add(m)
	}
	return emails
}

// ExtractPhones extracts ranked phone candidates from three sources: tel:
// links (highest trust), free-text regex matches with a context snippet, and
// schema.org ld+json telephone fields. Candidates pass a plausibility filter
// before ranking; if the strict pass yields nothing the extractor relaxes in
// two tiers (tel-only, then text-only) rather than returning an empty set.
func ExtractPhones(html, pageURL string) []model.ContactCandidate {
	nanp := hasNANPSignals(html, pageURL)

	tel := telCandidates(html)
	text := textCandidates(html)
	schema := schemaCandidates(html)

	all := make([]model.ContactCandidate, 0, len(tel)+len(text)+len(schema))
	all = append(all, tel...)
	all = append(all, schema...)
	all = append(all, text...)

	strict := filterCandidates(all, nanp, false)
	if len(strict) > 0 {
		return rankCandidates(strict)
	}

	// Fallback tier 1: tel: links with the NANP prefix rule waived.
	if relaxed := filterCandidates(tel, nanp, true); len(relaxed) > 0 {
		return rankCandidates(relaxed)
	}

	// Fallback tier 2: free-text matches, equally relaxed.
	if relaxed := filterCandidates(text, nanp, true); len(relaxed) > 0 {
		return rankCandidates(relaxed)
	}

	return nil
}

func telCandidates(html string) []model.ContactCandidate {
	var out []model.ContactCandidate
	for _, m := range telHrefRe.FindAllStringSubmatch(html, -1) {
		raw := strings.TrimSpace(m[1])
		out = append(out, model.ContactCandidate{
			Raw:        raw,
			Normalized: normalizePhone(raw),
			Source:     model.ContactSourceTel,
		})
	}
	return out
}

func textCandidates(html string) []model.ContactCandidate {
	// Match against tag-stripped text so markup digits (widths, ids) don't
	// produce candidates.
	text := cleanText(StripNoise(html))
	var out []model.ContactCandidate
	for _, loc := range phoneTextRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		start := loc[0] - snippetRadius
		if start < 0 {
			start = 0
		}
		end := loc[1] + snippetRadius
		if end > len(text) {
			end = len(text)
		}
		out = append(out, model.ContactCandidate{
			Raw:        raw,
			Normalized: normalizePhone(raw),
			Source:     model.ContactSourceText,
			Snippet:    text[start:end],
		})
	}
	return out
}

// schemaCandidates walks application/ld+json blocks for schema.org
// "telephone" values at any nesting depth.
func schemaCandidates(html string) []model.ContactCandidate {
	var out []model.ContactCandidate
	for _, m := range ldJSONRe.FindAllStringSubmatch(html, -1) {
		var doc any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &doc); err != nil {
			continue
		}
		for _, tel := range collectTelephones(doc) {
			out = append(out, model.ContactCandidate{
				Raw:        tel,
				Normalized: normalizePhone(tel),
				Source:     model.ContactSourceSchema,
			})
		}
	}
	return out
}

func collectTelephones(node any) []string {
	var found []string
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if strings.EqualFold(key, "telephone") {
				if s, ok := val.(string); ok && s != "" {
					found = append(found, s)
				}
				continue
			}
			found = append(found, collectTelephones(val)...)
		}
	case []any:
		for _, item := range v {
			found = append(found, collectTelephones(item)...)
		}
	}
	return found
}

// normalizePhone reduces a raw value to digits plus an optional leading "+".
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 && b.Len() == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	// A '+' may be preceded by whitespace in the raw value.
	s := b.String()
	if !strings.HasPrefix(s, "+") && strings.HasPrefix(strings.TrimSpace(raw), "+") {
		s = "+" + s
	}
	return s
}

// filterCandidates applies the plausibility rules. The digit-count bound and
// the repeated-digit rejection always apply; relaxed mode waives only the
// NANP prefix rule.
func filterCandidates(candidates []model.ContactCandidate, nanp, relaxed bool) []model.ContactCandidate {
	var out []model.ContactCandidate
	for _, c := range candidates {
		digits := strings.TrimPrefix(c.Normalized, "+")
		if len(digits) < 7 || len(digits) > 15 {
			continue
		}
		if isRepeatedDigit(digits) {
			continue
		}
		if !relaxed && nanp && implausibleNANPPrefix(digits) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// isRepeatedDigit reports whether every digit in s is the same.
func isRepeatedDigit(s string) bool {
	if s == "" {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// implausibleNANPPrefix rejects area-code-like prefixes starting with 0 or 1
// under North American numbering. The area code digit is the first digit
// after an optional leading country code 1.
func implausibleNANPPrefix(digits string) bool {
	area := digits
	if len(digits) == 11 && digits[0] == '1' {
		area = digits[1:]
	}
	if len(area) != 10 {
		// Not shaped like a NANP number; the prefix rule doesn't apply.
		return false
	}
	return area[0] == '0' || area[0] == '1'
}

// hasNANPSignals checks for regional hints: a .ca/.us TLD, a visible "+1",
// or North American country names in the page text.
func hasNANPSignals(html, pageURL string) bool {
	if u, err := url.Parse(pageURL); err == nil {
		host := strings.ToLower(u.Hostname())
		if strings.HasSuffix(host, ".ca") || strings.HasSuffix(host, ".us") {
			return true
		}
	}
	if strings.Contains(html, "+1 ") || strings.Contains(html, "+1-") || strings.Contains(html, "+1(") || strings.Contains(html, "+1.") {
		return true
	}
	lower := strings.ToLower(html)
	return strings.Contains(lower, "united states") || strings.Contains(lower, "canada")
}

// rankCandidates orders candidates by source trust (tel/schema over text),
// then by digit-string length, deduplicating by normalized digits.
func rankCandidates(candidates []model.ContactCandidate) []model.ContactCandidate {
	rank := func(s model.ContactSource) int {
		switch s {
		case model.ContactSourceTel:
			return 0
		case model.ContactSourceSchema:
			return 1
		default:
			return 2
		}
	}

	sorted := make([]model.ContactCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i].Source), rank(sorted[j].Source)
		if ri != rj {
			return ri < rj
		}
		di := len(digitsRe.FindAllString(sorted[i].Normalized, -1))
		dj := len(digitsRe.FindAllString(sorted[j].Normalized, -1))
		return di > dj
	})

	seen := make(map[string]bool)
	var out []model.ContactCandidate
	for _, c := range sorted {
		key := strings.TrimPrefix(c.Normalized, "+")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
