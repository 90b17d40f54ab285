package services

import (
	"sync"
	"sync/atomic"

	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var serviceStatusChecker = &ServiceStatusChecker{
	cmd_utils.GetExecutor(),
	logger.GetLogger(),
}
var serviceControl = &ServiceControl{
	serviceStatusChecker,
	cmd_utils.GetExecutor(),
	logger.GetLogger(),
}
var serviceMonitor = &ServiceMonitor{
	statusChecker: serviceStatusChecker,
	logger:        logger.GetLogger(),
	runOnce:       sync.Once{},
	hasRun:        atomic.Bool{},
}
var serviceController = &ServiceController{
	serviceMonitor,
	serviceControl,
	serviceStatusChecker,
}

func GetServiceStatusChecker() *ServiceStatusChecker {
	return serviceStatusChecker
}

func GetServiceControl() *ServiceControl {
	return serviceControl
}

func GetServiceMonitor() *ServiceMonitor {
	return serviceMonitor
}

func GetServiceController() *ServiceController {
	return serviceController
}
