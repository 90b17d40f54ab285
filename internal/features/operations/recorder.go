package operations

import (
	"time"

	"github.com/google/uuid"
)

// Recorder accumulates step results while a workflow runs and produces the
// final OperationResult. The workflow that created the recorder is its only
// writer, so no locking is needed.
type Recorder struct {
	id                uuid.UUID
	kind              OperationKind
	startedAt         time.Time
	summary           string
	steps             []StepResult
	affectedResources []string
}

func NewRecorder(kind OperationKind) *Recorder {
	return &Recorder{
		id:        uuid.New(),
		kind:      kind,
		startedAt: time.Now().UTC(),
	}
}

func (r *Recorder) ID() uuid.UUID {
	return r.id
}

func (r *Recorder) AddStep(step StepResult) {
	r.steps = append(r.steps, step)
}

func (r *Recorder) AddAffectedResource(name string) {
	r.affectedResources = append(r.affectedResources, name)
}

func (r *Recorder) SetSummary(summary string) {
	r.summary = summary
}

func (r *Recorder) HasFailedSteps() bool {
	for _, step := range r.steps {
		if step.Outcome == StepOutcomeFailed {
			return true
		}
	}
	return false
}

func (r *Recorder) HasOkSteps() bool {
	for _, step := range r.steps {
		if step.Outcome == StepOutcomeOk {
			return true
		}
	}
	return false
}

// Finalize closes the recorder with an explicit status.
func (r *Recorder) Finalize(status OperationStatus) *OperationResult {
	return &OperationResult{
		ID:                r.id,
		Kind:              r.kind,
		Status:            status,
		Summary:           r.summary,
		Steps:             r.steps,
		AffectedResources: r.affectedResources,
		StartedAt:         r.startedAt,
		FinishedAt:        time.Now().UTC(),
	}
}

// FinalizeAuto derives the status from the recorded steps: failure when no
// step succeeded, partial success when successes and failures mix, success
// otherwise. Skipped steps do not count against success.
func (r *Recorder) FinalizeAuto() *OperationResult {
	status := OperationStatusSuccess
	if r.HasFailedSteps() {
		status = OperationStatusPartialSuccess
		if !r.HasOkSteps() {
			status = OperationStatusFailure
		}
	}
	return r.Finalize(status)
}
