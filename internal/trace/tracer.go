package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Event file names written over a job's lifetime. The numeric prefix keeps a
// directory listing in pipeline order.
const (
	EventJobInfo              = "00_job_info"
	EventValidateDomain       = "01_validate_domain"
	EventPageDiscovery        = "02_page_discovery"
	EventPageScraping         = "03_page_scraping"
	EventContactExtraction    = "04_contact_extraction"
	EventSearchEnrichment     = "05_search_enrichment"
	EventStructuredExtraction = "06_structured_extraction"
	EventConsolidation        = "07_consolidation"
	EventValidation           = "08_validation"
	EventPersistence          = "09_persistence"
	EventMarketingPrep        = "10_marketing_prep"
	EventFinalSummary         = "11_final_summary"
)

// dirTimestampLayout names trace directories sortably, with colons replaced
// so the name is safe on every filesystem.
const dirTimestampLayout = "2006-01-02T15-04-05Z"

// Tracer records one enrichment job: a fixed ordered set of steps plus
// numbered JSON event files under a per-job directory. Safe for concurrent
// use.
type Tracer struct {
	mu sync.Mutex

	jobID  string
	domain string
	dir    string

	order []string
	steps map[string]*StepTrace
}

// New creates a Tracer for one job and writes the initial job info event.
// The job directory is <baseDir>/<normalizedDomain>_<timestamp>.
func New(baseDir, jobID, normalizedDomain string) (*Tracer, error) {
	dir := filepath.Join(baseDir, normalizedDomain+"_"+time.Now().UTC().Format(dirTimestampLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "trace: create job directory")
	}

	t := &Tracer{
		jobID:  jobID,
		domain: normalizedDomain,
		dir:    dir,
		order:  PipelineSteps(),
		steps:  map[string]*StepTrace{},
	}
	for _, name := range t.order {
		t.steps[name] = &StepTrace{Name: name, Status: StepPending}
	}

	err := t.WriteEvent(EventJobInfo, map[string]any{
		"job_id":     jobID,
		"domain":     normalizedDomain,
		"steps":      t.order,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Dir returns the job's trace directory.
func (t *Tracer) Dir() string { return t.dir }

// StartStep moves a step from pending to in progress.
func (t *Tracer) StartStep(name string, input any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	step, ok := t.steps[name]
	if !ok {
		return eris.Errorf("trace: unknown step %q", name)
	}
	if err := step.transition(StepInProgress); err != nil {
		return err
	}
	now := time.Now().UTC()
	step.StartedAt = &now
	step.Input = input
	return nil
}

// CompleteStep moves a step from in progress to completed and records its
// output.
func (t *Tracer) CompleteStep(name string, output any) error {
	return t.finishStep(name, StepCompleted, output, nil)
}

// FailStep moves a step from in progress to failed.
func (t *Tracer) FailStep(name string, stepErr error) error {
	var msgs []string
	if stepErr != nil {
		msgs = append(msgs, stepErr.Error())
	}
	return t.finishStep(name, StepFailed, nil, msgs)
}

// AddWarning attaches a warning to a step without changing its state.
func (t *Tracer) AddWarning(name, warning string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if step, ok := t.steps[name]; ok {
		step.Warnings = append(step.Warnings, warning)
	}
}

func (t *Tracer) finishStep(name string, to StepStatus, output any, errs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	step, ok := t.steps[name]
	if !ok {
		return eris.Errorf("trace: unknown step %q", name)
	}
	if err := step.transition(to); err != nil {
		return err
	}
	now := time.Now().UTC()
	step.CompletedAt = &now
	if step.StartedAt != nil {
		step.DurationMS = now.Sub(*step.StartedAt).Milliseconds()
	}
	step.Output = output
	step.Errors = append(step.Errors, errs...)
	return nil
}

// Step returns a copy of one step's trace.
func (t *Tracer) Step(name string) (StepTrace, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	step, ok := t.steps[name]
	if !ok {
		return StepTrace{}, false
	}
	return *step, true
}

// Progress reports completed steps over total steps as a percentage.
func (t *Tracer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	completed := 0
	for _, step := range t.steps {
		if step.Status == StepCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(t.order)) * 100
}

// ETA estimates time remaining as the average duration of completed steps
// multiplied by the steps not yet terminal. Zero until a first step
// completes.
func (t *Tracer) ETA() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	var totalMS int64
	completed := 0
	remaining := 0
	for _, step := range t.steps {
		switch step.Status {
		case StepCompleted:
			totalMS += step.DurationMS
			completed++
		case StepPending, StepInProgress:
			remaining++
		}
	}
	if completed == 0 {
		return 0
	}
	avg := totalMS / int64(completed)
	return time.Duration(avg*int64(remaining)) * time.Millisecond
}

// WriteEvent writes one named event payload as indented JSON under the job
// directory.
func (t *Tracer) WriteEvent(name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "trace: marshal event %s", name)
	}
	path := filepath.Join(t.dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "trace: write event %s", name)
	}
	zap.L().Debug("trace: event written", zap.String("job_id", t.jobID), zap.String("event", name))
	return nil
}

// WriteSummary writes the final summary event: every step trace plus overall
// progress. Called once when the job reaches a terminal state.
func (t *Tracer) WriteSummary(status string, extra map[string]any) error {
	t.mu.Lock()
	steps := make([]StepTrace, 0, len(t.order))
	for _, name := range t.order {
		steps = append(steps, *t.steps[name])
	}
	t.mu.Unlock()

	payload := map[string]any{
		"job_id":      t.jobID,
		"domain":      t.domain,
		"status":      status,
		"progress":    t.Progress(),
		"steps":       steps,
		"finished_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return t.WriteEvent(EventFinalSummary, payload)
}
