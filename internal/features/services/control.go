package services

import (
	"context"
	"log/slog"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

// `net start`/`net stop` exit with 2 when the service is already in the
// requested state. Both directions treat that as success.
const alreadyInStateExitCode = 2

// ServiceControl starts, stops and removes Windows services through the
// `net` and `sc` command line tools.
type ServiceControl struct {
	statusChecker *ServiceStatusChecker
	executor      cmd_utils.Executor
	logger        *slog.Logger
}

func NewServiceControl(executor cmd_utils.Executor) *ServiceControl {
	return &ServiceControl{
		NewServiceStatusChecker(executor),
		executor,
		logger.GetLogger(),
	}
}

func (c *ServiceControl) Start(ctx context.Context, serviceName string) (cmd_utils.Result, error) {
	result := c.executor.Run(ctx, cmd_utils.Spec{
		Path:    "net",
		Args:    []string{"start", serviceName},
		Timeout: config.GetEnv().ServiceTimeout,
	})

	return result, c.classify("net start", serviceName, result)
}

func (c *ServiceControl) Stop(ctx context.Context, serviceName string) (cmd_utils.Result, error) {
	result := c.executor.Run(ctx, cmd_utils.Spec{
		Path:    "net",
		Args:    []string{"stop", serviceName},
		Timeout: config.GetEnv().ServiceTimeout,
	})

	return result, c.classify("net stop", serviceName, result)
}

// Restart stops the service, waits until it reports Stopped and starts it
// again. Stopping an already stopped service is fine, so Restart doubles as
// a robust start.
func (c *ServiceControl) Restart(ctx context.Context, serviceName string) (cmd_utils.Result, error) {
	result, err := c.Stop(ctx, serviceName)
	if err != nil {
		return result, err
	}

	if err := c.WaitForState(ctx, serviceName, ServiceStateStopped); err != nil {
		return result, err
	}

	return c.Start(ctx, serviceName)
}

// Delete removes the service registration. A service that is not installed
// counts as already deleted.
func (c *ServiceControl) Delete(ctx context.Context, serviceName string) (cmd_utils.Result, error) {
	result := c.executor.Run(ctx, cmd_utils.Spec{
		Path:    "sc",
		Args:    []string{"delete", serviceName},
		Timeout: config.GetEnv().ServiceTimeout,
	})

	if result.ExitCode == serviceDoesNotExistCode {
		c.logger.Info("Service already removed", "service", serviceName)
		return result, nil
	}

	return result, c.classify("sc delete", serviceName, result)
}

func (c *ServiceControl) WaitForState(
	ctx context.Context,
	serviceName string,
	desired ServiceState,
) error {
	return c.statusChecker.WaitForState(
		ctx,
		serviceName,
		desired,
		config.GetEnv().ServiceTimeout,
	)
}

func (c *ServiceControl) classify(
	command string,
	serviceName string,
	result cmd_utils.Result,
) error {
	switch {
	case result.TimedOut:
		return operations.ErrProcessTimeout
	case result.ExitCode == 0:
		return nil
	case result.ExitCode == alreadyInStateExitCode:
		c.logger.Info("Service already in requested state", "service", serviceName)
		return nil
	default:
		return operations.ProcessFailureError(command+" "+serviceName, result.ExitCode)
	}
}
