package cmd_utils

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

// Spec is a fully resolved command: executable path plus argument list.
// Arguments are always passed as a list, never concatenated into a shell
// string, so untrusted values cannot inject commands.
type Spec struct {
	Path    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Result is the outcome of one invocation. A timeout is a normal result
// variant (TimedOut=true, child force-terminated), not an error path.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

type Executor interface {
	Run(ctx context.Context, spec Spec) Result
}

// SystemExecutor spawns one OS process per call. It captures output, kills
// the child and its descendants on deadline, and masks credentials before
// anything reaches the logger. No retries happen here; retry policy, if
// any, belongs to the caller.
type SystemExecutor struct {
	secrets *logger.SecretRegistry
	logger  *slog.Logger
}

var (
	executorOnce   sync.Once
	systemExecutor *SystemExecutor
)

func GetExecutor() *SystemExecutor {
	executorOnce.Do(func() {
		systemExecutor = &SystemExecutor{
			secrets: logger.GetSecretRegistry(),
			logger:  logger.GetLogger(),
		}
	})

	return systemExecutor
}

func (e *SystemExecutor) Run(ctx context.Context, spec Spec) Result {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
	}
	defer cancel()

	command := exec.CommandContext(runCtx, spec.Path, spec.Args...)
	command.Dir = spec.Dir
	setupProcessGroup(command)
	command.Cancel = func() error {
		return killProcessTree(command)
	}
	// Give the child a moment to flush pipes after the kill signal.
	command.WaitDelay = 3 * time.Second

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	e.logger.Info("Executing command",
		"path", spec.Path,
		"args", e.secrets.Mask(strings.Join(spec.Args, " ")),
	)

	start := time.Now()
	err := command.Run()
	duration := time.Since(start)

	result := Result{
		Stdout:   sanitizeOutput(stdout.Bytes()),
		Stderr:   sanitizeOutput(stderr.Bytes()),
		Duration: duration,
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.ExitCode = -1
		e.logger.Error("Command timed out",
			"path", spec.Path,
			"timeout", spec.Timeout,
		)
	case err == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The process never started (missing binary, permissions).
			result.ExitCode = -1
			result.Stderr = e.secrets.Mask(err.Error())
		}
	}

	e.logger.Info("Command completed",
		"path", spec.Path,
		"exitCode", result.ExitCode,
		"timedOut", result.TimedOut,
		"durationMs", duration.Milliseconds(),
	)

	if result.Stdout != "" {
		e.logger.Debug("Command stdout", "output", e.secrets.Mask(result.Stdout))
	}
	if result.Stderr != "" {
		e.logger.Debug("Command stderr", "output", e.secrets.Mask(result.Stderr))
	}

	return result
}

// sanitizeOutput replaces invalid UTF-8 so tool output in legacy codepages
// cannot corrupt log records or JSON payloads.
func sanitizeOutput(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
