package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
)

type resultSaver interface {
	SaveResult(result *operations.OperationResult) error
}

// CleanupWorkflow tears the POS installation down: services, databases,
// folders, registry entries and the head-office registration. Every step is
// failure-isolated; one locked resource never blocks the rest.
type CleanupWorkflow struct {
	settingsManager  *settings.SettingsManager
	serviceControl   *services.ServiceControl
	sqlClient        *databases.SqlClient
	storeApiClient   *StoreApiClient
	confirmationGate *ConfirmationGate
	runRegistry      *operations.RunRegistry
	resultSaver      resultSaver
	executor         cmd_utils.Executor
	logger           *slog.Logger
}

func NewCleanupWorkflow(
	settingsManager *settings.SettingsManager,
	serviceControl *services.ServiceControl,
	sqlClient *databases.SqlClient,
	storeApiClient *StoreApiClient,
	confirmationGate *ConfirmationGate,
	runRegistry *operations.RunRegistry,
	resultSaver resultSaver,
	executor cmd_utils.Executor,
	logger *slog.Logger,
) *CleanupWorkflow {
	return &CleanupWorkflow{
		settingsManager:  settingsManager,
		serviceControl:   serviceControl,
		sqlClient:        sqlClient,
		storeApiClient:   storeApiClient,
		confirmationGate: confirmationGate,
		runRegistry:      runRegistry,
		resultSaver:      resultSaver,
		executor:         executor,
		logger:           logger,
	}
}

// Start claims the run slot, redeems the confirmation token and launches
// the cleanup. An invalid or already used token produces a Failure result
// with zero steps; no destructive call is even attempted. A busy rejection
// happens before the token is redeemed, so the token survives for a retry.
func (w *CleanupWorkflow) Start(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	snapshot, err := w.settingsManager.Snapshot()
	if err != nil {
		return uuid.Nil, err
	}

	credentials, err := w.settingsManager.Credentials(snapshot)
	if err != nil {
		return uuid.Nil, err
	}

	recorder := operations.NewRecorder(operations.OperationKindCleanup)

	run, err := w.runRegistry.Begin(context.Background(), recorder.ID(), operations.OperationKindCleanup)
	if err != nil {
		return uuid.Nil, err
	}

	if !w.confirmationGate.Consume(token) {
		run.End()
		w.logger.Warn("Cleanup rejected, confirmation token invalid or already used")

		recorder.SetSummary("confirmation token invalid or already used, nothing was executed")
		result := recorder.Finalize(operations.OperationStatusFailure)
		if err := w.resultSaver.SaveResult(result); err != nil {
			w.logger.Error("Failed to persist cleanup rejection", "error", err)
		}
		return recorder.ID(), nil
	}

	go w.execute(run, recorder, snapshot, credentials)

	return recorder.ID(), nil
}

func (w *CleanupWorkflow) execute(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	credentials databases.SqlCredentials,
) {
	defer run.End()

	groups := []func(*operations.Run, *operations.Recorder, *settings.Settings, databases.SqlCredentials){
		w.removeServices,
		w.dropDatabases,
		w.deleteFolders,
		w.cleanRegistry,
		w.unregisterFromStore,
	}

	for _, group := range groups {
		if run.Canceled() {
			recorder.SetSummary("cleanup was canceled")
			w.finish(recorder.Finalize(operations.OperationStatusCanceled))
			return
		}
		group(run, recorder, snapshot, credentials)
	}

	recorder.SetSummary("environment cleanup finished")
	w.finish(recorder.FinalizeAuto())
}

func (w *CleanupWorkflow) removeServices(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	_ databases.SqlCredentials,
) {
	for _, name := range snapshot.Services {
		start := time.Now()
		result, err := w.serviceControl.Stop(run.Context(), name)
		if err != nil {
			recorder.AddStep(operations.StepFailed(
				"stop "+name, result.ExitCode, result.Duration, failureDetail(result, err),
			))
		} else {
			recorder.AddStep(operations.StepOk("stop "+name, 0, time.Since(start)))
		}

		result, err = w.serviceControl.Delete(run.Context(), name)
		if err != nil {
			recorder.AddStep(operations.StepFailed(
				"delete service "+name, result.ExitCode, result.Duration, failureDetail(result, err),
			))
			continue
		}

		recorder.AddStep(operations.StepOk("delete service "+name, 0, result.Duration))
		recorder.AddAffectedResource(name)
	}
}

func (w *CleanupWorkflow) dropDatabases(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	credentials databases.SqlCredentials,
) {
	for _, target := range snapshot.Databases {
		result, err := w.sqlClient.Drop(run.Context(), credentials, target.Name)
		if err != nil {
			recorder.AddStep(operations.StepFailed(
				"drop "+target.Name, result.ExitCode, result.Duration, failureDetail(result, err),
			))
			continue
		}

		recorder.AddStep(operations.StepOk("drop "+target.Name, 0, result.Duration))
		recorder.AddAffectedResource(target.Name)
	}
}

// deleteFolders removes the configured folders. A folder that is already
// gone counts as done; a locked one is reported and skipped.
func (w *CleanupWorkflow) deleteFolders(
	_ *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	_ databases.SqlCredentials,
) {
	for _, folder := range snapshot.FoldersToDelete {
		stepName := "delete folder " + folder

		if _, err := os.Stat(folder); os.IsNotExist(err) {
			recorder.AddStep(operations.StepResult{
				Name:    stepName,
				Outcome: operations.StepOutcomeOk,
				Detail:  "folder was already absent",
			})
			continue
		}

		start := time.Now()
		if err := os.RemoveAll(folder); err != nil {
			recorder.AddStep(operations.StepFailed(
				stepName, -1, time.Since(start), err.Error(),
			))
			continue
		}

		recorder.AddStep(operations.StepOk(stepName, 0, time.Since(start)))
		recorder.AddAffectedResource(folder)
	}
}

// cleanRegistry removes uninstall entries whose display name matches the
// configured pattern.
func (w *CleanupWorkflow) cleanRegistry(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	_ databases.SqlCredentials,
) {
	pattern := strings.TrimSpace(snapshot.RegistryPattern)
	if pattern == "" {
		recorder.AddStep(operations.StepSkipped("clean registry", "no registry pattern configured"))
		return
	}

	// Single quotes double inside a PowerShell single-quoted literal.
	script := fmt.Sprintf(
		`Get-ChildItem `+
			`'HKLM:\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall',`+
			`'HKLM:\SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall' `+
			`-ErrorAction SilentlyContinue | `+
			`Where-Object { $_.GetValue('DisplayName') -like '%s*' } | `+
			`Remove-Item -Recurse -Force`,
		strings.ReplaceAll(pattern, "'", "''"),
	)

	result := w.executor.Run(run.Context(), cmd_utils.Spec{
		Path: "powershell",
		Args: []string{
			"-NoProfile",
			"-NonInteractive",
			"-ExecutionPolicy", "Bypass",
			"-Command", script,
		},
		Timeout: config.GetEnv().CommandTimeout,
	})

	if result.TimedOut || result.ExitCode != 0 {
		recorder.AddStep(operations.StepFailed(
			"clean registry", result.ExitCode, result.Duration, strings.TrimSpace(result.Stderr),
		))
		return
	}

	recorder.AddStep(operations.StepOk("clean registry", 0, result.Duration))
}

// unregisterFromStore tells the head-office API that this POS and branch
// are gone, then double-checks the branch is no longer listed as installed.
func (w *CleanupWorkflow) unregisterFromStore(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	_ databases.SqlCredentials,
) {
	if strings.TrimSpace(snapshot.ApiBaseUrl) == "" || strings.TrimSpace(snapshot.BranchCode) == "" {
		recorder.AddStep(operations.StepSkipped(
			"unregister from store API", "no store API base URL or branch code configured",
		))
		return
	}

	ctx := run.Context()

	if strings.TrimSpace(snapshot.PosNumber) != "" {
		start := time.Now()
		err := w.storeApiClient.UninstallPos(ctx, snapshot.ApiBaseUrl, snapshot.BranchCode, snapshot.PosNumber)
		if err != nil {
			recorder.AddStep(operations.StepFailed("unregister POS", -1, time.Since(start), err.Error()))
		} else {
			recorder.AddStep(operations.StepOk("unregister POS", 0, time.Since(start)))
		}
	}

	start := time.Now()
	if err := w.storeApiClient.UninstallBranch(ctx, snapshot.ApiBaseUrl, snapshot.BranchCode); err != nil {
		recorder.AddStep(operations.StepFailed("unregister branch", -1, time.Since(start), err.Error()))
		return
	}
	recorder.AddStep(operations.StepOk("unregister branch", 0, time.Since(start)))

	installed, err := w.storeApiClient.IsBranchInstalled(ctx, snapshot.ApiBaseUrl, snapshot.BranchCode)
	switch {
	case err != nil:
		recorder.AddStep(operations.StepFailed("verify branch uninstalled", -1, 0, err.Error()))
	case installed:
		recorder.AddStep(operations.StepFailed(
			"verify branch uninstalled", -1, 0, "store API still lists the branch as installed",
		))
	default:
		recorder.AddStep(operations.StepOk("verify branch uninstalled", 0, 0))
	}
}

func (w *CleanupWorkflow) finish(result *operations.OperationResult) {
	if err := w.resultSaver.SaveResult(result); err != nil {
		w.logger.Error("Failed to persist cleanup result", "operationID", result.ID, "error", err)
	}
}

func failureDetail(result cmd_utils.Result, err error) string {
	if detail := strings.TrimSpace(result.Stderr); detail != "" {
		return detail
	}
	if detail := strings.TrimSpace(result.Stdout); detail != "" {
		return detail
	}
	return err.Error()
}
