package trace

import (
	"time"

	"github.com/rotisserie/eris"
)

// StepStatus is the lifecycle state of one pipeline step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// validTransitions is the only allowed movement between step states. Terminal
// states have no outgoing edges, so a step can never be restarted or
// reopened.
var validTransitions = map[StepStatus][]StepStatus{
	StepPending:    {StepInProgress},
	StepInProgress: {StepCompleted, StepFailed},
}

func canTransition(from, to StepStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Canonical pipeline step names in execution order.
const (
	StepValidateDomain       = "validate_domain"
	StepPageDiscovery        = "page_discovery"
	StepSearchEnrichment     = "search_enrichment"
	StepStructuredExtraction = "structured_extraction"
	StepConsolidation        = "consolidation"
	StepPersistence          = "persistence"
	StepMarketingPrep        = "marketing_prep"
)

// PipelineSteps lists the canonical steps in order.
func PipelineSteps() []string {
	return []string{
		StepValidateDomain,
		StepPageDiscovery,
		StepSearchEnrichment,
		StepStructuredExtraction,
		StepConsolidation,
		StepPersistence,
		StepMarketingPrep,
	}
}

// StepTrace records one step's execution. Input and Output are
// step-specific JSON-friendly payloads.
type StepTrace struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
	Input       any        `json:"input,omitempty"`
	Output      any        `json:"output,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}

func (s *StepTrace) transition(to StepStatus) error {
	if !canTransition(s.Status, to) {
		return eris.Errorf("trace: invalid step transition %s: %s -> %s", s.Name, s.Status, to)
	}
	s.Status = to
	return nil
}
