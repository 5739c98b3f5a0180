package model

// IssueSeverity ranks validation issues. Each severity carries a fixed
// score penalty: error 15, warning 10, info 5.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// Penalty returns the score deduction for this severity.
func (s IssueSeverity) Penalty() int {
	switch s {
	case SeverityError:
		return 15
	case SeverityWarning:
		return 10
	case SeverityInfo:
		return 5
	}
	return 0
}

// ConfidenceBand buckets a quality score: high >= 80, medium >= 60, else low.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// ValidationIssue is one rule violation found during validation. Issues are
// produced fresh per validation call and never mutated afterwards.
type ValidationIssue struct {
	Field      string        `json:"field"`
	Issue      string        `json:"issue"`
	Severity   IssueSeverity `json:"severity"`
	Suggestion string        `json:"suggestion,omitempty"`
	Data       any           `json:"data,omitempty"`
}

// QualityReport aggregates a validation pass: overall score, confidence
// band, sorted issues, and suggestions grouped by top-level field. Derived;
// never persisted independently of the job result.
type QualityReport struct {
	Score       int                 `json:"score"`
	Confidence  ConfidenceBand      `json:"confidence"`
	Issues      []ValidationIssue   `json:"issues"`
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	Breakdown   map[string]int      `json:"breakdown,omitempty"` // issue count per severity
}
