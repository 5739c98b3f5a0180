package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracer(t *testing.T) *Tracer {
	t.Helper()
	tracer, err := New(t.TempDir(), "job-1", "acme.com")
	require.NoError(t, err)
	return tracer
}

func TestNew_CreatesDirAndJobInfo(t *testing.T) {
	base := t.TempDir()
	tracer, err := New(base, "job-1", "acme.com")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(tracer.Dir()), "acme.com_"))

	data, err := os.ReadFile(filepath.Join(tracer.Dir(), "00_job_info.json"))
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "job-1", info["job_id"])
	assert.Equal(t, "acme.com", info["domain"])
}

func TestStepTransitions(t *testing.T) {
	tracer := newTestTracer(t)

	// Completing before starting is rejected.
	err := tracer.CompleteStep(StepValidateDomain, nil)
	require.Error(t, err)

	require.NoError(t, tracer.StartStep(StepValidateDomain, map[string]string{"domain": "acme.com"}))

	// Starting twice is rejected.
	err = tracer.StartStep(StepValidateDomain, nil)
	require.Error(t, err)

	require.NoError(t, tracer.CompleteStep(StepValidateDomain, map[string]bool{"reachable": true}))

	// Terminal states are final.
	err = tracer.FailStep(StepValidateDomain, assert.AnError)
	require.Error(t, err)

	step, ok := tracer.Step(StepValidateDomain)
	require.True(t, ok)
	assert.Equal(t, StepCompleted, step.Status)
	assert.NotNil(t, step.StartedAt)
	assert.NotNil(t, step.CompletedAt)
}

func TestFailStep_RecordsError(t *testing.T) {
	tracer := newTestTracer(t)
	require.NoError(t, tracer.StartStep(StepPageDiscovery, nil))
	require.NoError(t, tracer.FailStep(StepPageDiscovery, assert.AnError))

	step, ok := tracer.Step(StepPageDiscovery)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)
	require.Len(t, step.Errors, 1)
}

func TestUnknownStepRejected(t *testing.T) {
	tracer := newTestTracer(t)
	assert.Error(t, tracer.StartStep("no_such_step", nil))
	assert.Error(t, tracer.CompleteStep("no_such_step", nil))
}

func TestProgress(t *testing.T) {
	tracer := newTestTracer(t)
	assert.Zero(t, tracer.Progress())

	require.NoError(t, tracer.StartStep(StepValidateDomain, nil))
	require.NoError(t, tracer.CompleteStep(StepValidateDomain, nil))
	assert.InDelta(t, 100.0/7, tracer.Progress(), 1e-9)

	for _, name := range PipelineSteps()[1:] {
		require.NoError(t, tracer.StartStep(name, nil))
		require.NoError(t, tracer.CompleteStep(name, nil))
	}
	assert.InDelta(t, 100, tracer.Progress(), 1e-9)
}

func TestETA(t *testing.T) {
	tracer := newTestTracer(t)
	assert.Zero(t, tracer.ETA())

	require.NoError(t, tracer.StartStep(StepValidateDomain, nil))
	require.NoError(t, tracer.CompleteStep(StepValidateDomain, nil))

	// Fake a known duration for a deterministic estimate.
	tracer.mu.Lock()
	tracer.steps[StepValidateDomain].DurationMS = 200
	tracer.mu.Unlock()

	// 6 steps remain at an average of 200ms each.
	assert.Equal(t, 1200*time.Millisecond, tracer.ETA())
}

func TestWriteEventAndSummary(t *testing.T) {
	tracer := newTestTracer(t)

	require.NoError(t, tracer.WriteEvent(EventPageDiscovery, map[string]int{"pages": 10}))
	require.NoError(t, tracer.StartStep(StepValidateDomain, nil))
	require.NoError(t, tracer.CompleteStep(StepValidateDomain, nil))
	require.NoError(t, tracer.WriteSummary("completed", map[string]any{"score": 85}))

	data, err := os.ReadFile(filepath.Join(tracer.Dir(), "11_final_summary.json"))
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "completed", summary["status"])
	assert.Equal(t, float64(85), summary["score"])

	steps, ok := summary["steps"].([]any)
	require.True(t, ok)
	assert.Len(t, steps, 7)
}
