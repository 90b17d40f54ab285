package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

func newTestControl(executor cmd_utils.Executor) *ServiceControl {
	checker := &ServiceStatusChecker{executor, logger.GetLogger()}
	return &ServiceControl{checker, executor, logger.GetLogger()}
}

func Test_Stop_ServiceRunning_StopsSuccessfully(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"stop", "RMS.CashierService"}, cmd_utils.Result{ExitCode: 0})
	control := newTestControl(executor)

	_, err := control.Stop(context.Background(), "RMS.CashierService")

	require.NoError(t, err)
	assert.Len(t, executor.CallsTo("net"), 1)
}

func Test_Stop_ServiceAlreadyStopped_IsSuccess(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"stop"}, cmd_utils.Result{
		ExitCode: 2,
		Stderr:   "The RMS.CashierService service is not started.",
	})
	control := newTestControl(executor)

	_, err := control.Stop(context.Background(), "RMS.CashierService")

	assert.NoError(t, err)
}

func Test_Start_ServiceFailsToStart_ReturnsProcessFailure(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"start"}, cmd_utils.Result{
		ExitCode: 5,
		Stderr:   "Access is denied.",
	})
	control := newTestControl(executor)

	_, err := control.Start(context.Background(), "RMS.BranchService")

	assert.ErrorIs(t, err, operations.ErrProcessFailure)
}

func Test_Stop_CommandTimesOut_ReturnsProcessTimeout(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"stop"}, cmd_utils.Result{ExitCode: -1, TimedOut: true})
	control := newTestControl(executor)

	_, err := control.Stop(context.Background(), "RMSServiceManager")

	assert.ErrorIs(t, err, operations.ErrProcessTimeout)
}

func Test_Restart_StoppedService_StopsWaitsAndStarts(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"stop"}, cmd_utils.Result{ExitCode: 2})
	executor.Script("net", []string{"start"}, cmd_utils.Result{ExitCode: 0})
	executor.Script("sc", []string{"query"}, cmd_utils.Result{
		ExitCode: 0,
		Stdout:   "        STATE              : 1  STOPPED",
	})
	control := newTestControl(executor)

	_, err := control.Restart(context.Background(), "RMS.CashierService")

	require.NoError(t, err)
	require.Len(t, executor.CallsTo("net"), 2)
	assert.Equal(t, []string{"stop", "RMS.CashierService"}, executor.CallsTo("net")[0].Args)
	assert.Equal(t, []string{"start", "RMS.CashierService"}, executor.CallsTo("net")[1].Args)
}

func Test_Restart_StopFails_DoesNotStart(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"stop"}, cmd_utils.Result{
		ExitCode: 5,
		Stderr:   "Access is denied.",
	})
	control := newTestControl(executor)

	_, err := control.Restart(context.Background(), "RMS.BranchService")

	assert.ErrorIs(t, err, operations.ErrProcessFailure)
	assert.Len(t, executor.CallsTo("net"), 1)
}

func Test_Delete_ServiceNotInstalled_IsSuccess(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("sc", []string{"delete"}, cmd_utils.Result{ExitCode: 1060})
	control := newTestControl(executor)

	_, err := control.Delete(context.Background(), "RMSServiceManager")

	assert.NoError(t, err)
}

func Test_Delete_InstalledService_DeletesSuccessfully(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script(
		"sc",
		[]string{"delete", "RMS.CashierService"},
		cmd_utils.Result{ExitCode: 0, Stdout: "[SC] DeleteService SUCCESS"},
	)
	control := newTestControl(executor)

	_, err := control.Delete(context.Background(), "RMS.CashierService")

	require.NoError(t, err)
}
