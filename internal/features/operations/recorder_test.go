package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_FinalizeAuto_AllStepsOk_ReturnsSuccess(t *testing.T) {
	recorder := NewRecorder(OperationKindBackup)
	recorder.AddStep(StepOk("shrink RmsCashierSrv", 0, time.Second))
	recorder.AddStep(StepOk("backup RmsCashierSrv", 0, 2*time.Second))

	result := recorder.FinalizeAuto()

	assert.Equal(t, OperationStatusSuccess, result.Status)
	assert.Len(t, result.Steps, 2)
}

func Test_FinalizeAuto_MixedOutcomes_ReturnsPartialSuccess(t *testing.T) {
	recorder := NewRecorder(OperationKindBackup)
	recorder.AddStep(StepOk("backup RmsCashierSrv", 0, time.Second))
	recorder.AddStep(StepFailed("backup RmsBranchSrv", 1, time.Second, "login failed"))

	result := recorder.FinalizeAuto()

	assert.Equal(t, OperationStatusPartialSuccess, result.Status)
}

func Test_FinalizeAuto_NoStepSucceeded_ReturnsFailure(t *testing.T) {
	recorder := NewRecorder(OperationKindBackup)
	recorder.AddStep(StepFailed("backup RmsCashierSrv", 1, time.Second, "login failed"))
	recorder.AddStep(StepSkipped("archive", "nothing to archive"))

	result := recorder.FinalizeAuto()

	assert.Equal(t, OperationStatusFailure, result.Status)
}

func Test_FinalizeAuto_OnlySkippedSteps_ReturnsSuccess(t *testing.T) {
	recorder := NewRecorder(OperationKindCleanup)
	recorder.AddStep(StepSkipped("delete folder", "folder does not exist"))

	result := recorder.FinalizeAuto()

	assert.Equal(t, OperationStatusSuccess, result.Status)
}

func Test_Finalize_ExplicitStatus_OverridesSteps(t *testing.T) {
	recorder := NewRecorder(OperationKindRestore)
	recorder.AddStep(StepOk("stop service", 0, time.Second))

	result := recorder.Finalize(OperationStatusCanceled)

	assert.Equal(t, OperationStatusCanceled, result.Status)
}

func Test_Finalize_AffectedResources_ArePreserved(t *testing.T) {
	recorder := NewRecorder(OperationKindBackup)
	recorder.AddAffectedResource("RmsCashierSrv")
	recorder.AddAffectedResource("backup_2026-01-15.zip")

	result := recorder.FinalizeAuto()

	assert.Equal(t, []string{"RmsCashierSrv", "backup_2026-01-15.zip"}, result.AffectedResources)
}
