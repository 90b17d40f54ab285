package backups

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
)

const archiveTimestampLayout = "2006-01-02_15-04-05"

type resultSaver interface {
	SaveResult(result *operations.OperationResult) error
}

type connectionTester interface {
	TestConnection(ctx context.Context, credentials databases.SqlCredentials) error
}

// BackupWorkflow shrinks and backs up every configured database, bundles
// the backup files together with the application settings files into one
// archive and drops it into the backup folder. A database that fails to
// back up is reported and skipped, the rest still make it into the archive.
type BackupWorkflow struct {
	settingsManager  *settings.SettingsManager
	sqlClient        *databases.SqlClient
	connectionTester connectionTester
	runRegistry      *operations.RunRegistry
	resultSaver      resultSaver
	logger           *slog.Logger
	now              func() time.Time
}

func NewBackupWorkflow(
	settingsManager *settings.SettingsManager,
	sqlClient *databases.SqlClient,
	connectionTester connectionTester,
	runRegistry *operations.RunRegistry,
	resultSaver resultSaver,
	logger *slog.Logger,
) *BackupWorkflow {
	return &BackupWorkflow{
		settingsManager:  settingsManager,
		sqlClient:        sqlClient,
		connectionTester: connectionTester,
		runRegistry:      runRegistry,
		resultSaver:      resultSaver,
		logger:           logger,
		now:              time.Now,
	}
}

// Start validates the configuration, claims the run slot and launches the
// backup in the background. The returned ID identifies the operation for
// polling and cancellation.
func (w *BackupWorkflow) Start(ctx context.Context) (uuid.UUID, error) {
	snapshot, err := w.settingsManager.Snapshot()
	if err != nil {
		return uuid.Nil, err
	}

	credentials, err := w.settingsManager.Credentials(snapshot)
	if err != nil {
		return uuid.Nil, err
	}

	if len(snapshot.Databases) == 0 {
		return uuid.Nil, operations.ValidationError("no databases are configured")
	}

	recorder := operations.NewRecorder(operations.OperationKindBackup)

	// The run outlives the HTTP request that started it.
	run, err := w.runRegistry.Begin(context.Background(), recorder.ID(), operations.OperationKindBackup)
	if err != nil {
		return uuid.Nil, err
	}

	go w.execute(run, recorder, snapshot, credentials)

	return recorder.ID(), nil
}

func (w *BackupWorkflow) execute(
	run *operations.Run,
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	credentials databases.SqlCredentials,
) {
	defer run.End()

	// Probe the login before touching any database. The probe itself is not
	// a step of the backup, only its failure is recorded.
	start := w.now()
	if err := w.connectionTester.TestConnection(run.Context(), credentials); err != nil {
		recorder.AddStep(operations.StepFailed("verify sql connection", -1, w.now().Sub(start), err.Error()))
		recorder.SetSummary("sql server connection failed, nothing was backed up")
		w.finish(recorder.FinalizeAuto())
		return
	}

	timestamp := w.now().Format(archiveTimestampLayout)
	stagingDir := filepath.Join(snapshot.BackupFolder, "staging_"+timestamp)

	if err := os.MkdirAll(stagingDir, 0o700); err != nil {
		recorder.AddStep(operations.StepFailed("prepare staging folder", -1, 0, err.Error()))
		recorder.SetSummary("could not prepare the staging folder")
		w.finish(recorder.FinalizeAuto())
		return
	}
	defer os.RemoveAll(stagingDir)

	var entries []ArchiveEntry
	backedUp := 0

	for _, target := range snapshot.Databases {
		if run.Canceled() {
			w.finishCanceled(recorder)
			return
		}

		entry, ok := w.backupDatabase(run.Context(), recorder, credentials, target.Name, stagingDir)
		if ok {
			entries = append(entries, entry)
			recorder.AddAffectedResource(target.Name)
			backedUp++
		}
	}

	entries = append(entries, w.copySettingsFiles(recorder, snapshot, stagingDir, timestamp)...)

	summary := fmt.Sprintf("backed up %d of %d databases", backedUp, len(snapshot.Databases))

	if backedUp == 0 {
		recorder.SetSummary(summary + ", no archive was created")
		w.finish(recorder.FinalizeAuto())
		return
	}

	if run.Canceled() {
		w.finishCanceled(recorder)
		return
	}

	archiveName := w.archiveName(snapshot, timestamp)
	archivePath := filepath.Join(snapshot.BackupFolder, archiveName)

	start = w.now()
	if err := CreateArchive(archivePath, entries); err != nil {
		recorder.AddStep(operations.StepFailed("create archive", -1, w.now().Sub(start), err.Error()))
		recorder.SetSummary(summary + ", archiving failed")
		w.finish(recorder.FinalizeAuto())
		return
	}

	recorder.AddStep(operations.StepOk("create archive", 0, w.now().Sub(start)))
	recorder.AddAffectedResource(archiveName)
	recorder.SetSummary(summary + " into " + archiveName)
	w.finish(recorder.FinalizeAuto())
}

// backupDatabase shrinks and then backs up one database. A failed shrink
// skips the backup for that database; the other databases still continue.
func (w *BackupWorkflow) backupDatabase(
	ctx context.Context,
	recorder *operations.Recorder,
	credentials databases.SqlCredentials,
	database string,
	stagingDir string,
) (ArchiveEntry, bool) {
	shrinkResult, err := w.sqlClient.Shrink(ctx, credentials, database)
	if err != nil {
		recorder.AddStep(operations.StepFailed(
			"shrink "+database,
			shrinkResult.ExitCode,
			shrinkResult.Duration,
			failureDetail(shrinkResult, err),
		))
		recorder.AddStep(operations.StepSkipped("backup "+database, "shrink failed"))
		return ArchiveEntry{}, false
	}
	recorder.AddStep(operations.StepOk("shrink "+database, 0, shrinkResult.Duration))

	backupPath := filepath.Join(stagingDir, database+".bak")

	backupResult, err := w.sqlClient.Backup(ctx, credentials, database, backupPath)
	if err != nil {
		recorder.AddStep(operations.StepFailed(
			"backup "+database,
			backupResult.ExitCode,
			backupResult.Duration,
			failureDetail(backupResult, err),
		))
		return ArchiveEntry{}, false
	}

	recorder.AddStep(operations.StepOk("backup "+database, 0, backupResult.Duration))
	return ArchiveEntry{
		SourcePath:  backupPath,
		ArchivePath: database + ".bak",
	}, true
}

func (w *BackupWorkflow) copySettingsFiles(
	recorder *operations.Recorder,
	snapshot *settings.Settings,
	stagingDir string,
	timestamp string,
) []ArchiveEntry {
	var entries []ArchiveEntry

	for _, sourcePath := range snapshot.AppSettingsFiles {
		stepName := "copy " + filepath.Base(sourcePath)

		if _, err := os.Stat(sourcePath); err != nil {
			recorder.AddStep(operations.StepSkipped(stepName, "file does not exist"))
			continue
		}

		copyName := timestampedName(filepath.Base(sourcePath), timestamp)
		copyPath := filepath.Join(stagingDir, copyName)

		start := w.now()
		if err := copyFile(sourcePath, copyPath); err != nil {
			recorder.AddStep(operations.StepFailed(stepName, -1, w.now().Sub(start), err.Error()))
			continue
		}

		recorder.AddStep(operations.StepOk(stepName, 0, w.now().Sub(start)))
		entries = append(entries, ArchiveEntry{
			SourcePath:  copyPath,
			ArchivePath: "appsettings/" + copyName,
		})
	}

	return entries
}

// archiveName builds <client>_<branch>_<pos>_backup_<timestamp>.zip,
// dropping the identity parts that are not configured.
func (w *BackupWorkflow) archiveName(snapshot *settings.Settings, timestamp string) string {
	var parts []string
	for _, part := range []string{snapshot.ClientName, snapshot.BranchCode, snapshot.PosNumber} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	parts = append(parts, "backup", timestamp)

	return strings.Join(parts, "_") + ".zip"
}

func (w *BackupWorkflow) finishCanceled(recorder *operations.Recorder) {
	recorder.SetSummary("backup was canceled")
	w.finish(recorder.Finalize(operations.OperationStatusCanceled))
}

func (w *BackupWorkflow) finish(result *operations.OperationResult) {
	if err := w.resultSaver.SaveResult(result); err != nil {
		w.logger.Error("Failed to persist backup result", "operationID", result.ID, "error", err)
	}
}

func timestampedName(fileName, timestamp string) string {
	extension := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, extension)
	return base + "_" + timestamp + extension
}

func copyFile(sourcePath, destinationPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(destinationPath)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return err
	}
	return destination.Sync()
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
