package operations

import (
	"time"

	"github.com/google/uuid"
)

// StepResult records the outcome of a single step inside an operation. Steps
// are appended in execution order and never mutated afterwards.
type StepResult struct {
	Name       string      `json:"name"`
	Outcome    StepOutcome `json:"outcome"`
	ExitCode   int         `json:"exitCode"`
	DurationMs int64       `json:"durationMs"`
	Detail     string      `json:"detail,omitempty"`
}

type OperationResult struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Kind              OperationKind   `json:"kind" gorm:"not null"`
	Status            OperationStatus `json:"status" gorm:"not null"`
	Summary           string          `json:"summary"`
	Steps             []StepResult    `json:"steps" gorm:"serializer:json"`
	AffectedResources []string        `json:"affectedResources" gorm:"serializer:json"`
	StartedAt         time.Time       `json:"startedAt" gorm:"not null"`
	FinishedAt        time.Time       `json:"finishedAt" gorm:"not null"`
}

func (OperationResult) TableName() string {
	return "operation_results"
}

func (r *OperationResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func StepOk(name string, exitCode int, duration time.Duration) StepResult {
	return StepResult{
		Name:       name,
		Outcome:    StepOutcomeOk,
		ExitCode:   exitCode,
		DurationMs: duration.Milliseconds(),
	}
}

func StepFailed(name string, exitCode int, duration time.Duration, detail string) StepResult {
	return StepResult{
		Name:       name,
		Outcome:    StepOutcomeFailed,
		ExitCode:   exitCode,
		DurationMs: duration.Milliseconds(),
		Detail:     detail,
	}
}

func StepSkipped(name, reason string) StepResult {
	return StepResult{
		Name:    name,
		Outcome: StepOutcomeSkipped,
		Detail:  reason,
	}
}
