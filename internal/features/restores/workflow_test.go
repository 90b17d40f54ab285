package restores

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/encryption"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

const (
	runningState = "        STATE              : 4  RUNNING"
	stoppedState = "        STATE              : 1  STOPPED"
)

type capturingSaver struct {
	mu      sync.Mutex
	results []*operations.OperationResult
	saved   chan struct{}
}

func newCapturingSaver() *capturingSaver {
	return &capturingSaver{saved: make(chan struct{}, 8)}
}

func (s *capturingSaver) SaveResult(result *operations.OperationResult) error {
	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()

	s.saved <- struct{}{}
	return nil
}

func (s *capturingSaver) waitForResult(t *testing.T) *operations.OperationResult {
	t.Helper()

	select {
	case <-s.saved:
	case <-time.After(10 * time.Second):
		t.Fatal("workflow did not finish in time")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[len(s.results)-1]
}

type fakeInstanceProbe struct {
	count    int
	countErr error
	attached []string
}

func (f *fakeInstanceProbe) ActiveConnections(
	_ context.Context,
	_ databases.SqlCredentials,
	_ string,
) (int, error) {
	return f.count, f.countErr
}

func (f *fakeInstanceProbe) AttachedFiles(
	_ context.Context,
	_ databases.SqlCredentials,
	_ string,
	candidates []string,
) ([]string, error) {
	var locked []string
	for _, candidate := range candidates {
		for _, path := range f.attached {
			if strings.EqualFold(candidate, path) {
				locked = append(locked, candidate)
			}
		}
	}
	return locked, nil
}

// scriptServiceLifecycle wires `net start`/`net stop` so that subsequent
// `sc query` calls report the new state.
func scriptServiceLifecycle(executor *cmd_utils.FakeExecutor, name string) {
	executor.Script("sc", []string{"query", name}, cmd_utils.Result{Stdout: runningState})
	executor.ScriptWithEffect(
		"net", []string{"stop", name},
		cmd_utils.Result{ExitCode: 0},
		func(cmd_utils.Spec) {
			executor.Script("sc", []string{"query", name}, cmd_utils.Result{Stdout: stoppedState})
		},
	)
	executor.ScriptWithEffect(
		"net", []string{"start", name},
		cmd_utils.Result{ExitCode: 0},
		func(cmd_utils.Spec) {
			executor.Script("sc", []string{"query", name}, cmd_utils.Result{Stdout: runningState})
		},
	)
}

type restoreFixture struct {
	workflow *RestoreWorkflow
	saver    *capturingSaver
	executor *cmd_utils.FakeExecutor
	probe    *fakeInstanceProbe
	backup   string
}

func newRestoreFixture(t *testing.T) *restoreFixture {
	t.Helper()

	vault, err := encryption.NewVault("restore-test-machine")
	require.NoError(t, err)

	manager := settings.NewSettingsManager(t.TempDir(), vault)
	_, err = manager.Load()
	require.NoError(t, err)

	configured := &settings.Settings{
		SqlInstance: `.\SQLEXPRESS`,
		SqlUser:     "sa",
		Databases: []databases.DatabaseTarget{
			{Name: "RmsCashierSrv", Role: databases.DatabaseRoleCashier},
		},
		Services:     []string{"RMS.CashierService"},
		BackupFolder: t.TempDir(),
	}
	_, err = manager.Update(configured, "test-password")
	require.NoError(t, err)

	executor := cmd_utils.NewFakeExecutor()
	scriptServiceLifecycle(executor, "RMS.CashierService")

	backupFile := filepath.Join(t.TempDir(), "RmsCashierSrv.bak")
	require.NoError(t, os.WriteFile(backupFile, []byte("backup"), 0o600))

	saver := newCapturingSaver()
	probe := &fakeInstanceProbe{}

	workflow := NewRestoreWorkflow(
		manager,
		databases.NewSqlClient(executor),
		services.NewServiceControl(executor),
		probe,
		operations.NewRunRegistry(
			operations.NewOperationCancelManager(logger.GetLogger()),
			logger.GetLogger(),
		),
		saver,
		logger.GetLogger(),
	)

	return &restoreFixture{
		workflow: workflow,
		saver:    saver,
		executor: executor,
		probe:    probe,
		backup:   backupFile,
	}
}

func (f *restoreFixture) scriptSqlSuccess() {
	f.executor.ScriptContains("sqlcmd", "RESTORE FILELISTONLY", cmd_utils.Result{
		ExitCode: 0,
		Stdout: `RmsCashierSrv|C:\Data\RmsCashierSrv.mdf|D|PRIMARY|1|1` + "\n" +
			`RmsCashierSrv_log|C:\Data\RmsCashierSrv_log.ldf|L|NULL|1|1`,
	})
	f.executor.ScriptContains("sqlcmd", "SERVERPROPERTY", cmd_utils.Result{
		ExitCode: 0,
		Stdout:   `C:\SQL\Data\|C:\SQL\Logs\`,
	})
	f.executor.ScriptContains("sqlcmd", "RESTORE DATABASE", cmd_utils.Result{ExitCode: 0})
}

func Test_Start_MissingBackupFile_ReturnsValidationError(t *testing.T) {
	fixture := newRestoreFixture(t)

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: filepath.Join(t.TempDir(), "missing.bak"),
		Database:       "RmsCashierSrv",
	})

	assert.ErrorIs(t, err, operations.ErrValidation)
}

func Test_Start_ActiveConnectionsWithoutOverwrite_ReturnsResourceLocked(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()
	fixture.probe.count = 3

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: fixture.backup,
		Database:       "RmsCashierSrv",
	})

	assert.ErrorIs(t, err, operations.ErrResourceLocked)
}

func Test_Start_ActiveConnectionsWithOverwrite_Proceeds(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.probe.count = 3
	fixture.scriptSqlSuccess()

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath:     fixture.backup,
		Database:           "RmsCashierSrv",
		OverwriteConfirmed: true,
	})

	require.NoError(t, err)
	result := fixture.saver.waitForResult(t)
	assert.Equal(t, operations.OperationStatusSuccess, result.Status)
}

func Test_Start_FullRestore_StopsRestoresAndRestarts(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()

	operationID, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: fixture.backup,
		Database:       "RmsCashierSrv",
	})
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	assert.Equal(t, operationID, result.ID)
	assert.Equal(t, operations.OperationStatusSuccess, result.Status)
	assert.Contains(t, result.AffectedResources, "RmsCashierSrv")

	var names []string
	for _, step := range result.Steps {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{
		"stop RMS.CashierService",
		"restore RmsCashierSrv",
		"start RMS.CashierService",
	}, names)
}

func Test_Start_RestoreFails_ServicesAreStillRestarted(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()
	fixture.executor.ScriptContains("sqlcmd", "RESTORE DATABASE", cmd_utils.Result{
		ExitCode: 1,
		Stderr:   "The backup set holds a backup of a database other than the existing one.",
	})

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: fixture.backup,
		Database:       "RmsCashierSrv",
	})
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	assert.Equal(t, operations.OperationStatusPartialSuccess, result.Status)

	var restarted bool
	for _, step := range result.Steps {
		if step.Name == "start RMS.CashierService" && step.Outcome == operations.StepOutcomeOk {
			restarted = true
		}
	}
	assert.True(t, restarted)
	assert.NotContains(t, result.AffectedResources, "RmsCashierSrv")
}

func Test_Start_StopServiceFails_RestoreNeverRuns(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()
	fixture.executor.Script("net", []string{"stop", "RMS.CashierService"}, cmd_utils.Result{
		ExitCode: 5,
		Stderr:   "Access is denied.",
	})

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: fixture.backup,
		Database:       "RmsCashierSrv",
	})
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	assert.Equal(t, operations.OperationStatusFailure, result.Status)
	for _, call := range fixture.executor.CallsTo("sqlcmd") {
		for _, arg := range call.Args {
			if strings.Contains(arg, "RESTORE DATABASE") {
				t.Errorf("unexpected restore invocation: %v", call.Args)
			}
		}
	}
}

func Test_Start_DestinationAttachedWithoutOverwrite_ReturnsResourceLocked(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()
	fixture.probe.attached = []string{`C:\SQL\Data\RmsCashierSrv.mdf`}

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: fixture.backup,
		Database:       "RmsCashierSrv",
	})

	assert.ErrorIs(t, err, operations.ErrResourceLocked)
	assert.Empty(t, fixture.executor.CallsTo("net"))
}

func Test_Start_DestinationAttachedWithOverwrite_Proceeds(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()
	fixture.probe.attached = []string{`C:\SQL\Data\RmsCashierSrv.mdf`}

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath:     fixture.backup,
		Database:           "RmsCashierSrv",
		OverwriteConfirmed: true,
	})

	require.NoError(t, err)
	result := fixture.saver.waitForResult(t)
	assert.Equal(t, operations.OperationStatusSuccess, result.Status)
}

func Test_Start_ReadingFileListFails_ServicesAreNotStopped(t *testing.T) {
	fixture := newRestoreFixture(t)
	fixture.scriptSqlSuccess()
	fixture.executor.ScriptContains("sqlcmd", "RESTORE FILELISTONLY", cmd_utils.Result{
		ExitCode: 1,
		Stderr:   "Cannot open backup device.",
	})

	_, err := fixture.workflow.Start(context.Background(), RestoreRequest{
		BackupFilePath: fixture.backup,
		Database:       "RmsCashierSrv",
	})

	require.Error(t, err)
	assert.Empty(t, fixture.executor.CallsTo("net"))
}

func Test_ComputeMappings_DataAndLog_GetStandardDestinations(t *testing.T) {
	mappings, err := ComputeMappings(
		"RmsCashierSrv",
		[]databases.LogicalFile{
			{LogicalName: "RmsCashierSrv", Type: databases.LogicalFileTypeData},
			{LogicalName: "RmsCashierSrv_log", Type: databases.LogicalFileTypeLog},
		},
		databases.DefaultPaths{DataPath: `C:\SQL\Data\`, LogPath: `C:\SQL\Logs\`},
	)

	require.NoError(t, err)
	assert.Equal(t, []databases.LogicalFileMapping{
		{LogicalName: "RmsCashierSrv", Destination: `C:\SQL\Data\RmsCashierSrv.mdf`},
		{LogicalName: "RmsCashierSrv_log", Destination: `C:\SQL\Logs\RmsCashierSrv.ldf`},
	}, mappings)
}

func Test_ComputeMappings_MultipleDataFiles_AreNumbered(t *testing.T) {
	mappings, err := ComputeMappings(
		"Db",
		[]databases.LogicalFile{
			{LogicalName: "Db", Type: databases.LogicalFileTypeData},
			{LogicalName: "Db_2", Type: databases.LogicalFileTypeData},
			{LogicalName: "Db_log", Type: databases.LogicalFileTypeLog},
		},
		databases.DefaultPaths{DataPath: `C:\Data`, LogPath: `C:\Logs`},
	)

	require.NoError(t, err)
	assert.Equal(t, `C:\Data\Db.mdf`, mappings[0].Destination)
	assert.Equal(t, `C:\Data\Db_1.mdf`, mappings[1].Destination)
	assert.Equal(t, `C:\Logs\Db.ldf`, mappings[2].Destination)
}

func Test_MappingsForDestinations_ExplicitPaths_AreUsed(t *testing.T) {
	mappings, err := MappingsForDestinations(
		[]databases.LogicalFile{
			{LogicalName: "Db", Type: databases.LogicalFileTypeData},
			{LogicalName: "Db_log", Type: databases.LogicalFileTypeLog},
		},
		`D:\Custom\db.mdf`,
		`E:\Logs\db.ldf`,
	)

	require.NoError(t, err)
	assert.Equal(t, `D:\Custom\db.mdf`, mappings[0].Destination)
	assert.Equal(t, `E:\Logs\db.ldf`, mappings[1].Destination)
}

func Test_MappingsForDestinations_MissingLdfForLogFile_IsRejected(t *testing.T) {
	_, err := MappingsForDestinations(
		[]databases.LogicalFile{
			{LogicalName: "Db", Type: databases.LogicalFileTypeData},
			{LogicalName: "Db_log", Type: databases.LogicalFileTypeLog},
		},
		`D:\Custom\db.mdf`,
		"",
	)

	assert.ErrorIs(t, err, operations.ErrValidation)
}

func Test_ValidateMappings_DuplicateDestination_ReturnsResourceLocked(t *testing.T) {
	err := validateMappings([]databases.LogicalFileMapping{
		{LogicalName: "Db", Destination: `C:\Data\Db.mdf`},
		{LogicalName: "Db_2", Destination: `c:\data\db.mdf`},
	})

	assert.ErrorIs(t, err, operations.ErrResourceLocked)
}

func Test_ComputeMappings_UnknownFileType_ReturnsValidationError(t *testing.T) {
	_, err := ComputeMappings(
		"Db",
		[]databases.LogicalFile{{LogicalName: "Db_ft", Type: "F"}},
		databases.DefaultPaths{DataPath: `C:\Data`, LogPath: `C:\Logs`},
	)

	assert.ErrorIs(t, err, operations.ErrValidation)
}
