package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
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

type cleanupFixture struct {
	workflow     *CleanupWorkflow
	gate         *ConfirmationGate
	saver        *capturingSaver
	executor     *cmd_utils.FakeExecutor
	folderToKill string
}

func newCleanupFixture(t *testing.T) *cleanupFixture {
	t.Helper()

	vault, err := encryption.NewVault("cleanup-test-machine")
	require.NoError(t, err)

	manager := settings.NewSettingsManager(t.TempDir(), vault)
	_, err = manager.Load()
	require.NoError(t, err)

	folder := filepath.Join(t.TempDir(), "pos-data")
	require.NoError(t, os.MkdirAll(folder, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "x.txt"), []byte("x"), 0o600))

	configured := &settings.Settings{
		SqlInstance: `.\SQLEXPRESS`,
		SqlUser:     "sa",
		Databases: []databases.DatabaseTarget{
			{Name: "RmsCashierSrv", Role: databases.DatabaseRoleCashier},
		},
		Services:        []string{"RMS.CashierService"},
		BackupFolder:    t.TempDir(),
		FoldersToDelete: []string{folder, filepath.Join(t.TempDir(), "never-existed")},
		RegistryPattern: "RMS",
	}
	_, err = manager.Update(configured, "test-password")
	require.NoError(t, err)

	executor := cmd_utils.NewFakeExecutor()
	executor.Script("net", []string{"stop"}, cmd_utils.Result{ExitCode: 0})
	executor.Script("sc", []string{"query"}, cmd_utils.Result{
		Stdout: "        STATE              : 1  STOPPED",
	})
	executor.Script("sc", []string{"delete"}, cmd_utils.Result{ExitCode: 0})
	executor.Script("sqlcmd", nil, cmd_utils.Result{ExitCode: 0})
	executor.Script("powershell", nil, cmd_utils.Result{ExitCode: 0})

	gate := NewConfirmationGate(logger.GetLogger())
	saver := newCapturingSaver()

	workflow := NewCleanupWorkflow(
		manager,
		services.NewServiceControl(executor),
		databases.NewSqlClient(executor),
		NewStoreApiClient(logger.GetLogger()),
		gate,
		operations.NewRunRegistry(
			operations.NewOperationCancelManager(logger.GetLogger()),
			logger.GetLogger(),
		),
		saver,
		executor,
		logger.GetLogger(),
	)

	return &cleanupFixture{
		workflow:     workflow,
		gate:         gate,
		saver:        saver,
		executor:     executor,
		folderToKill: folder,
	}
}

func (f *cleanupFixture) confirmedToken(t *testing.T) uuid.UUID {
	t.Helper()

	token, err := f.gate.Issue(ConfirmationPhrase)
	require.NoError(t, err)
	return token
}

func Test_Start_InvalidToken_FailsWithZeroSteps(t *testing.T) {
	fixture := newCleanupFixture(t)

	operationID, err := fixture.workflow.Start(context.Background(), uuid.New())
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	assert.Equal(t, operationID, result.ID)
	assert.Equal(t, operations.OperationStatusFailure, result.Status)
	assert.Empty(t, result.Steps)
	assert.Empty(t, fixture.executor.Calls)
}

func Test_Start_ConsumedToken_CannotStartSecondCleanup(t *testing.T) {
	fixture := newCleanupFixture(t)
	token := fixture.confirmedToken(t)

	_, err := fixture.workflow.Start(context.Background(), token)
	require.NoError(t, err)
	fixture.saver.waitForResult(t)

	_, err = fixture.workflow.Start(context.Background(), token)
	require.NoError(t, err)

	second := fixture.saver.waitForResult(t)
	assert.Equal(t, operations.OperationStatusFailure, second.Status)
	assert.Empty(t, second.Steps)
}

func Test_Start_RegistryBusy_TokenSurvivesForRetry(t *testing.T) {
	fixture := newCleanupFixture(t)
	token := fixture.confirmedToken(t)

	blocker, err := fixture.workflow.runRegistry.Begin(
		context.Background(),
		operations.NewRecorder(operations.OperationKindBackup).ID(),
		operations.OperationKindBackup,
	)
	require.NoError(t, err)

	_, err = fixture.workflow.Start(context.Background(), token)
	assert.ErrorIs(t, err, operations.ErrBusy)

	blocker.End()

	_, err = fixture.workflow.Start(context.Background(), token)
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)
	assert.Equal(t, operations.OperationStatusSuccess, result.Status)
}

func Test_Start_QuoteInRegistryPattern_IsEscaped(t *testing.T) {
	fixture := newCleanupFixture(t)

	snapshot, err := fixture.workflow.settingsManager.Snapshot()
	require.NoError(t, err)
	snapshot.RegistryPattern = "O'Brien POS"
	_, err = fixture.workflow.settingsManager.Update(snapshot, "")
	require.NoError(t, err)

	_, err = fixture.workflow.Start(context.Background(), fixture.confirmedToken(t))
	require.NoError(t, err)
	fixture.saver.waitForResult(t)

	calls := fixture.executor.CallsTo("powershell")
	require.Len(t, calls, 1)

	script := calls[0].Args[len(calls[0].Args)-1]
	assert.Contains(t, script, `-like 'O''Brien POS*'`)
}

func Test_Start_FullCleanup_RunsEveryGroup(t *testing.T) {
	fixture := newCleanupFixture(t)

	_, err := fixture.workflow.Start(context.Background(), fixture.confirmedToken(t))
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	assert.Equal(t, operations.OperationStatusSuccess, result.Status)

	outcomes := map[string]operations.StepOutcome{}
	for _, step := range result.Steps {
		outcomes[step.Name] = step.Outcome
	}

	assert.Equal(t, operations.StepOutcomeOk, outcomes["stop RMS.CashierService"])
	assert.Equal(t, operations.StepOutcomeOk, outcomes["delete service RMS.CashierService"])
	assert.Equal(t, operations.StepOutcomeOk, outcomes["drop RmsCashierSrv"])
	assert.Equal(t, operations.StepOutcomeOk, outcomes["delete folder "+fixture.folderToKill])
	assert.Equal(t, operations.StepOutcomeOk, outcomes["clean registry"])
	assert.Equal(t, operations.StepOutcomeSkipped, outcomes["unregister from store API"])

	assert.NoDirExists(t, fixture.folderToKill)
}

func Test_Start_MissingFolder_CountsAsDone(t *testing.T) {
	fixture := newCleanupFixture(t)

	_, err := fixture.workflow.Start(context.Background(), fixture.confirmedToken(t))
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	var missingFolderStep *operations.StepResult
	for i, step := range result.Steps {
		if step.Outcome == operations.StepOutcomeOk && step.Detail == "folder was already absent" {
			missingFolderStep = &result.Steps[i]
		}
	}
	require.NotNil(t, missingFolderStep)
}

func Test_Start_DropFails_OtherGroupsStillRun(t *testing.T) {
	fixture := newCleanupFixture(t)
	fixture.executor.ScriptContains("sqlcmd", "DROP DATABASE", cmd_utils.Result{
		ExitCode: 1,
		Stderr:   "Cannot drop database because it is currently in use.",
	})

	_, err := fixture.workflow.Start(context.Background(), fixture.confirmedToken(t))
	require.NoError(t, err)

	result := fixture.saver.waitForResult(t)

	assert.Equal(t, operations.OperationStatusPartialSuccess, result.Status)
	assert.NotContains(t, result.AffectedResources, "RmsCashierSrv")
	assert.NoDirExists(t, fixture.folderToKill)
}
