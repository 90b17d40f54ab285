package restores

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
)

// RestoreRequest describes one restore: which backup file to load into
// which database. Explicit mappings win over MdfDestination/LdfDestination,
// which in turn win over the instance default paths.
type RestoreRequest struct {
	BackupFilePath     string                         `json:"backupFilePath" binding:"required"`
	Database           string                         `json:"database"       binding:"required"`
	MdfDestination     string                         `json:"mdfDestination"`
	LdfDestination     string                         `json:"ldfDestination"`
	OverwriteConfirmed bool                           `json:"overwriteConfirmed"`
	Mappings           []databases.LogicalFileMapping `json:"mappings"`
}

type resultSaver interface {
	SaveResult(result *operations.OperationResult) error
}

type instanceProbe interface {
	ActiveConnections(
		ctx context.Context,
		credentials databases.SqlCredentials,
		database string,
	) (int, error)
	AttachedFiles(
		ctx context.Context,
		credentials databases.SqlCredentials,
		database string,
		candidates []string,
	) ([]string, error)
}

// RestoreWorkflow stops the POS services, replaces the database from a
// backup file and brings the services back up. Unlike backup, a failed
// step aborts the rest, only the service restart still runs as recovery.
type RestoreWorkflow struct {
	settingsManager *settings.SettingsManager
	sqlClient       *databases.SqlClient
	serviceControl  *services.ServiceControl
	instanceProbe   instanceProbe
	runRegistry     *operations.RunRegistry
	resultSaver     resultSaver
	logger          *slog.Logger
}

func NewRestoreWorkflow(
	settingsManager *settings.SettingsManager,
	sqlClient *databases.SqlClient,
	serviceControl *services.ServiceControl,
	instanceProbe instanceProbe,
	runRegistry *operations.RunRegistry,
	resultSaver resultSaver,
	logger *slog.Logger,
) *RestoreWorkflow {
	return &RestoreWorkflow{
		settingsManager: settingsManager,
		sqlClient:       sqlClient,
		serviceControl:  serviceControl,
		instanceProbe:   instanceProbe,
		runRegistry:     runRegistry,
		resultSaver:     resultSaver,
		logger:          logger,
	}
}

// Start validates the request, resolves the file mappings, claims the run
// slot and launches the restore in the background. Mapping problems and
// locked destinations surface here, before any service is touched.
func (w *RestoreWorkflow) Start(ctx context.Context, request RestoreRequest) (uuid.UUID, error) {
	snapshot, err := w.settingsManager.Snapshot()
	if err != nil {
		return uuid.Nil, err
	}

	credentials, err := w.settingsManager.Credentials(snapshot)
	if err != nil {
		return uuid.Nil, err
	}

	if _, err := os.Stat(request.BackupFilePath); err != nil {
		return uuid.Nil, operations.ValidationError(
			"backup file %s does not exist", request.BackupFilePath,
		)
	}

	mappings, err := w.resolveMappings(ctx, credentials, request)
	if err != nil {
		return uuid.Nil, err
	}

	if !request.OverwriteConfirmed {
		count, err := w.instanceProbe.ActiveConnections(ctx, credentials, request.Database)
		if err != nil {
			w.logger.Warn(
				"Could not count active connections, proceeding",
				"database", request.Database,
				"error", err,
			)
		} else if count > 0 {
			return uuid.Nil, operations.ResourceLockedError(
				"database %s has %d active connections, confirm overwrite to proceed",
				request.Database, count,
			)
		}

		locked, err := w.instanceProbe.AttachedFiles(ctx, credentials, request.Database, destinations(mappings))
		if err != nil {
			w.logger.Warn(
				"Could not check destination files, proceeding",
				"database", request.Database,
				"error", err,
			)
		} else if len(locked) > 0 {
			return uuid.Nil, operations.ResourceLockedError(
				"destination %s is attached to another database, confirm overwrite to proceed",
				locked[0],
			)
		}
	}

	recorder := operations.NewRecorder(operations.OperationKindRestore)

	run, err := w.runRegistry.Begin(context.Background(), recorder.ID(), operations.OperationKindRestore)
	if err != nil {
		return uuid.Nil, err
	}

	go w.execute(run, recorder, snapshot, credentials, request, mappings)

	return recorder.ID(), nil
}

// resolveMappings turns the request into concrete logical file mappings:
// explicit mappings win, then MdfDestination/LdfDestination, then the
// instance default paths.
func (w *RestoreWorkflow) resolveMappings(
	ctx context.Context,
	credentials databases.SqlCredentials,
	request RestoreRequest,
) ([]databases.LogicalFileMapping, error) {
	if len(request.Mappings) > 0 {
		return request.Mappings, validateMappings(request.Mappings)
	}

	files, err := w.sqlClient.ListLogicalFiles(ctx, credentials, request.BackupFilePath)
	if err != nil {
		return nil, err
	}

	if request.MdfDestination != "" || request.LdfDestination != "" {
		return MappingsForDestinations(files, request.MdfDestination, request.LdfDestination)
	}

	paths, err := w.sqlClient.DefaultPaths(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return ComputeMappings(request.Database, files, paths)
}

func destinations(mappings []databases.LogicalFileMapping) []string {
	paths := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		paths = append(paths, mapping.Destination)
	}
	return paths
}

func (w *RestoreWorkflow) execute(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	credentials databases.SqlCredentials,
	request RestoreRequest,
	mappings []databases.LogicalFileMapping,
) {
	defer run.End()

	stopped, ok := w.stopServices(run, recorder, snapshot)
	if !ok {
		recorder.SetSummary("restore aborted, services could not be stopped")
		w.finish(recorder, run, stopped, snapshot)
		return
	}

	if run.Canceled() {
		recorder.SetSummary("restore was canceled")
		w.finish(recorder, run, stopped, snapshot)
		return
	}

	if !w.restoreDatabase(run.Context(), recorder, credentials, request, mappings) {
		recorder.SetSummary(fmt.Sprintf("restore of %s failed", request.Database))
		w.finish(recorder, run, stopped, snapshot)
		return
	}

	recorder.AddAffectedResource(request.Database)
	recorder.SetSummary(fmt.Sprintf(
		"restored %s from %s", request.Database, filepath.Base(request.BackupFilePath),
	))
	w.finish(recorder, run, stopped, snapshot)
}

// stopServices stops every configured service and waits until it reports
// stopped. Returns the services that were stopped so they can be restarted.
func (w *RestoreWorkflow) stopServices(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
) ([]string, bool) {
	var stopped []string

	for _, name := range snapshot.Services {
		if run.Canceled() {
			return stopped, false
		}

		start := time.Now()
		result, err := w.serviceControl.Stop(run.Context(), name)
		if err != nil {
			recorder.AddStep(operations.StepFailed(
				"stop "+name, result.ExitCode, result.Duration, failureDetail(result, err),
			))
			return stopped, false
		}

		if err := w.serviceControl.WaitForState(run.Context(), name, services.ServiceStateStopped); err != nil {
			recorder.AddStep(operations.StepFailed(
				"stop "+name, result.ExitCode, time.Since(start), err.Error(),
			))
			return stopped, false
		}

		recorder.AddStep(operations.StepOk("stop "+name, 0, time.Since(start)))
		stopped = append(stopped, name)
	}

	return stopped, true
}

func (w *RestoreWorkflow) restoreDatabase(
	ctx context.Context,
	recorder *operations.Recorder,
	credentials databases.SqlCredentials,
	request RestoreRequest,
	mappings []databases.LogicalFileMapping,
) bool {
	result, err := w.sqlClient.Restore(
		ctx,
		credentials,
		request.Database,
		request.BackupFilePath,
		mappings,
		request.OverwriteConfirmed,
	)
	if err != nil {
		recorder.AddStep(operations.StepFailed(
			"restore "+request.Database,
			result.ExitCode,
			result.Duration,
			failureDetail(result, err),
		))
		return false
	}

	recorder.AddStep(operations.StepOk("restore "+request.Database, 0, result.Duration))
	return true
}

// finish restarts the stopped services, persists the result and releases
// the run. Restart runs even after a failed restore so the machine is not
// left with everything down.
func (w *RestoreWorkflow) finish(
	recorder *operations.Recorder,
	run *operations.Run,
	stopped []string,
	snapshot *settings.Settings,
) {
	for _, name := range stopped {
		start := time.Now()

		// The run context may already be canceled; restarting still must
		// happen, so this uses a fresh context.
		result, err := w.serviceControl.Start(context.Background(), name)
		if err != nil {
			recorder.AddStep(operations.StepFailed(
				"start "+name, result.ExitCode, result.Duration, failureDetail(result, err),
			))
			continue
		}

		if err := w.serviceControl.WaitForState(context.Background(), name, services.ServiceStateRunning); err != nil {
			recorder.AddStep(operations.StepFailed(
				"start "+name, result.ExitCode, time.Since(start), err.Error(),
			))
			continue
		}

		recorder.AddStep(operations.StepOk("start "+name, 0, time.Since(start)))
	}

	result := recorder.FinalizeAuto()
	if run.Canceled() && result.Status != operations.OperationStatusFailure {
		result.Status = operations.OperationStatusCanceled
	}

	if err := w.resultSaver.SaveResult(result); err != nil {
		w.logger.Error("Failed to persist restore result", "operationID", result.ID, "error", err)
	}
}

// ComputeMappings assigns destinations for the logical files in a backup:
// the data file becomes <database>.mdf and the log file <database>.ldf in
// the instance default locations.
func ComputeMappings(
	database string,
	files []databases.LogicalFile,
	paths databases.DefaultPaths,
) ([]databases.LogicalFileMapping, error) {
	var mappings []databases.LogicalFileMapping
	dataCount := 0
	logCount := 0

	for _, file := range files {
		var destination string

		switch file.Type {
		case databases.LogicalFileTypeData:
			destination = joinSqlPath(paths.DataPath, database+suffixForIndex(".mdf", dataCount))
			dataCount++
		case databases.LogicalFileTypeLog:
			destination = joinSqlPath(paths.LogPath, database+suffixForIndex(".ldf", logCount))
			logCount++
		default:
			return nil, operations.ValidationError(
				"unsupported logical file type %q for %s", file.Type, file.LogicalName,
			)
		}

		mappings = append(mappings, databases.LogicalFileMapping{
			LogicalName: file.LogicalName,
			Destination: destination,
		})
	}

	return mappings, validateMappings(mappings)
}

// MappingsForDestinations relocates the logical files to explicit target
// paths. Secondary files of the same type get numbered variants of the
// given path.
func MappingsForDestinations(
	files []databases.LogicalFile,
	mdfDestination string,
	ldfDestination string,
) ([]databases.LogicalFileMapping, error) {
	var mappings []databases.LogicalFileMapping
	dataCount := 0
	logCount := 0

	for _, file := range files {
		var destination string

		switch file.Type {
		case databases.LogicalFileTypeData:
			if mdfDestination == "" {
				return nil, operations.ValidationError(
					"backup contains data file %s but no mdf destination was given", file.LogicalName,
				)
			}
			destination = numberedPath(mdfDestination, dataCount)
			dataCount++
		case databases.LogicalFileTypeLog:
			if ldfDestination == "" {
				return nil, operations.ValidationError(
					"backup contains log file %s but no ldf destination was given", file.LogicalName,
				)
			}
			destination = numberedPath(ldfDestination, logCount)
			logCount++
		default:
			return nil, operations.ValidationError(
				"unsupported logical file type %q for %s", file.Type, file.LogicalName,
			)
		}

		mappings = append(mappings, databases.LogicalFileMapping{
			LogicalName: file.LogicalName,
			Destination: destination,
		})
	}

	return mappings, validateMappings(mappings)
}

// numberedPath derives variants of a full path: index 0 keeps it, later
// ones insert _<index> before the extension.
func numberedPath(path string, index int) string {
	if index == 0 {
		return path
	}

	extension := filepath.Ext(path)
	return strings.TrimSuffix(path, extension) + fmt.Sprintf("_%d%s", index, extension)
}

func validateMappings(mappings []databases.LogicalFileMapping) error {
	seen := make(map[string]string, len(mappings))

	for _, mapping := range mappings {
		key := strings.ToLower(mapping.Destination)
		if other, exists := seen[key]; exists {
			return operations.ResourceLockedError(
				"logical files %s and %s map to the same destination %s",
				other, mapping.LogicalName, mapping.Destination,
			)
		}
		seen[key] = mapping.LogicalName
	}
	return nil
}

// suffixForIndex numbers secondary files: .mdf, _1.mdf, _2.mdf.
func suffixForIndex(extension string, index int) string {
	if index == 0 {
		return extension
	}
	return fmt.Sprintf("_%d%s", index, extension)
}

// joinSqlPath joins with the separator style of the base path, which
// refers to a folder on the SQL Server host, not the local filesystem.
func joinSqlPath(base, name string) string {
	if base == "" {
		return name
	}
	if strings.HasSuffix(base, `\`) || strings.HasSuffix(base, "/") {
		return base + name
	}
	if strings.Contains(base, `\`) {
		return base + `\` + name
	}
	return base + "/" + name
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
