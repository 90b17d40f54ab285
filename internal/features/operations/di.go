package operations

import (
	"sync"
	"sync/atomic"

	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var operationRepository = &OperationRepository{}
var operationService = &OperationService{
	operationRepository,
	logger.GetLogger(),
}
var operationCancelManager = NewOperationCancelManager(logger.GetLogger())
var runRegistry = NewRunRegistry(operationCancelManager, logger.GetLogger())
var operationController = &OperationController{
	operationService,
	runRegistry,
}
var operationHistoryBackgroundService = &OperationHistoryBackgroundService{
	operationService: operationService,
	logger:           logger.GetLogger(),
	runOnce:          sync.Once{},
	hasRun:           atomic.Bool{},
}

func GetOperationService() *OperationService {
	return operationService
}

func GetRunRegistry() *RunRegistry {
	return runRegistry
}

func GetOperationController() *OperationController {
	return operationController
}

func GetOperationHistoryBackgroundService() *OperationHistoryBackgroundService {
	return operationHistoryBackgroundService
}
