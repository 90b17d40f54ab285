package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

// ServiceStatusChecker queries the Windows service control manager through
// `sc query` and interprets the textual output.
type ServiceStatusChecker struct {
	executor cmd_utils.Executor
	logger   *slog.Logger
}

func NewServiceStatusChecker(executor cmd_utils.Executor) *ServiceStatusChecker {
	return &ServiceStatusChecker{executor, logger.GetLogger()}
}

func (c *ServiceStatusChecker) Check(ctx context.Context, serviceName string) ServiceStatus {
	result := c.executor.Run(ctx, cmd_utils.Spec{
		Path:    "sc",
		Args:    []string{"query", serviceName},
		Timeout: config.GetEnv().ServiceTimeout,
	})

	state := ParseQueryOutput(result.ExitCode, result.Stdout+"\n"+result.Stderr)

	return ServiceStatus{
		Name:      serviceName,
		State:     state,
		CheckedAt: time.Now().UTC(),
	}
}

// WaitForState polls until the service reaches the desired state or the
// timeout elapses.
func (c *ServiceStatusChecker) WaitForState(
	ctx context.Context,
	serviceName string,
	desired ServiceState,
	timeout time.Duration,
) error {
	deadline := time.Now().Add(timeout)

	for {
		status := c.Check(ctx, serviceName)
		if status.State == desired {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf(
				"service %s did not reach state %s within %s, last state %s",
				serviceName, desired, timeout, status.State,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
}
