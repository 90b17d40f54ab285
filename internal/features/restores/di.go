package restores

import (
	"sync"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var (
	restoreWorkflowOnce sync.Once
	restoreWorkflow     *RestoreWorkflow

	restoreControllerOnce sync.Once
	restoreController     *RestoreController
)

func GetRestoreWorkflow() *RestoreWorkflow {
	restoreWorkflowOnce.Do(func() {
		restoreWorkflow = NewRestoreWorkflow(
			settings.GetSettingsManager(),
			databases.GetSqlClient(),
			services.GetServiceControl(),
			databases.GetConnectionChecker(),
			operations.GetRunRegistry(),
			operations.GetOperationService(),
			logger.GetLogger(),
		)
	})

	return restoreWorkflow
}

func GetRestoreController() *RestoreController {
	restoreControllerOnce.Do(func() {
		restoreController = &RestoreController{GetRestoreWorkflow()}
	})

	return restoreController
}
