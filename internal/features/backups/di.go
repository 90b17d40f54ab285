package backups

import (
	"sync"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var (
	backupWorkflowOnce sync.Once
	backupWorkflow     *BackupWorkflow

	backupControllerOnce sync.Once
	backupController     *BackupController
)

func GetBackupWorkflow() *BackupWorkflow {
	backupWorkflowOnce.Do(func() {
		backupWorkflow = NewBackupWorkflow(
			settings.GetSettingsManager(),
			databases.GetSqlClient(),
			databases.GetConnectionChecker(),
			operations.GetRunRegistry(),
			operations.GetOperationService(),
			logger.GetLogger(),
		)
	})

	return backupWorkflow
}

func GetBackupController() *BackupController {
	backupControllerOnce.Do(func() {
		backupController = &BackupController{GetBackupWorkflow()}
	})

	return backupController
}
