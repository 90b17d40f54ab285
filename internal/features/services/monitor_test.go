package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

func newTestMonitor(executor cmd_utils.Executor, names ...string) *ServiceMonitor {
	monitor := &ServiceMonitor{
		statusChecker: &ServiceStatusChecker{executor, logger.GetLogger()},
		logger:        logger.GetLogger(),
	}
	monitor.SetServiceNamesProvider(func() []string { return names })
	return monitor
}

func Test_Refresh_PopulatesSnapshot(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("sc", []string{"query", "RMS.CashierService"}, cmd_utils.Result{
		Stdout: "        STATE              : 4  RUNNING",
	})
	executor.Script("sc", []string{"query", "RMS.BranchService"}, cmd_utils.Result{
		Stdout: "        STATE              : 1  STOPPED",
	})
	monitor := newTestMonitor(executor, "RMS.CashierService", "RMS.BranchService")

	monitor.refresh(context.Background())

	snapshot := monitor.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "RMS.BranchService", snapshot[0].Name)
	assert.Equal(t, ServiceStateStopped, snapshot[0].State)
	assert.Equal(t, "RMS.CashierService", snapshot[1].Name)
	assert.Equal(t, ServiceStateRunning, snapshot[1].State)
}

func Test_CurrentState_BeforeFirstRefresh_ReturnsUnknown(t *testing.T) {
	monitor := newTestMonitor(cmd_utils.NewFakeExecutor(), "RMS.CashierService")

	state, known := monitor.CurrentState("RMS.CashierService")

	assert.False(t, known)
	assert.Equal(t, ServiceStateUnknown, state)
}

func Test_Refresh_StateChange_UpdatesSnapshot(t *testing.T) {
	executor := cmd_utils.NewFakeExecutor()
	executor.Script("sc", []string{"query"}, cmd_utils.Result{
		Stdout: "        STATE              : 4  RUNNING",
	})
	monitor := newTestMonitor(executor, "RMSServiceManager")

	monitor.refresh(context.Background())

	state, known := monitor.CurrentState("RMSServiceManager")
	require.True(t, known)
	require.Equal(t, ServiceStateRunning, state)

	executor.Script("sc", []string{"query"}, cmd_utils.Result{
		Stdout: "        STATE              : 1  STOPPED",
	})

	monitor.refresh(context.Background())

	state, _ = monitor.CurrentState("RMSServiceManager")
	assert.Equal(t, ServiceStateStopped, state)
}
