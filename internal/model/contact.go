package model

// ContactSource identifies where a contact candidate was found. Candidates
// from tel: links and schema.org markup outrank free-text matches.
type ContactSource string

const (
	ContactSourceTel    ContactSource = "tel"
	ContactSourceText   ContactSource = "text"
	ContactSourceSchema ContactSource = "schema"
)

// ContactCandidate is one phone (or email) candidate extracted from a page.
// Only candidates that pass the plausibility filter survive into a
// PageRecord's contact list.
type ContactCandidate struct {
	Raw        string        `json:"raw"`
	Normalized string        `json:"normalized"`
	Source     ContactSource `json:"source"`
	Snippet    string        `json:"snippet,omitempty"`
}
