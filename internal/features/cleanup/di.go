package cleanup

import (
	"sync"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var confirmationGate = NewConfirmationGate(logger.GetLogger())

var (
	cleanupWorkflowOnce sync.Once
	cleanupWorkflow     *CleanupWorkflow

	cleanupControllerOnce sync.Once
	cleanupController     *CleanupController
)

func GetConfirmationGate() *ConfirmationGate {
	return confirmationGate
}

func GetCleanupWorkflow() *CleanupWorkflow {
	cleanupWorkflowOnce.Do(func() {
		cleanupWorkflow = NewCleanupWorkflow(
			settings.GetSettingsManager(),
			services.GetServiceControl(),
			databases.GetSqlClient(),
			NewStoreApiClient(logger.GetLogger()),
			confirmationGate,
			operations.GetRunRegistry(),
			operations.GetOperationService(),
			cmd_utils.GetExecutor(),
			logger.GetLogger(),
		)
	})

	return cleanupWorkflow
}

func GetCleanupController() *CleanupController {
	cleanupControllerOnce.Do(func() {
		cleanupController = &CleanupController{GetCleanupWorkflow(), confirmationGate}
	})

	return cleanupController
}
