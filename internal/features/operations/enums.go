package operations

type OperationKind string

const (
	OperationKindBackup  OperationKind = "BACKUP"
	OperationKindRestore OperationKind = "RESTORE"
	OperationKindCleanup OperationKind = "CLEANUP"
)

type OperationStatus string

const (
	OperationStatusSuccess        OperationStatus = "SUCCESS"
	OperationStatusPartialSuccess OperationStatus = "PARTIAL_SUCCESS"
	OperationStatusFailure        OperationStatus = "FAILURE"
	OperationStatusCanceled       OperationStatus = "CANCELED"
)

type StepOutcome string

const (
	StepOutcomeOk      StepOutcome = "OK"
	StepOutcomeFailed  StepOutcome = "FAILED"
	StepOutcomeSkipped StepOutcome = "SKIPPED"
)
