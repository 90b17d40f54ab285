package operations

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all workflows. Callers classify failures with
// errors.Is, controllers map them to HTTP status codes.
var (
	ErrValidation     = errors.New("validation failed")
	ErrBusy           = errors.New("another operation is already running")
	ErrProcessTimeout = errors.New("external process timed out")
	ErrProcessFailure = errors.New("external process failed")
	ErrResourceLocked = errors.New("resource is locked")
)

func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func ProcessFailureError(command string, exitCode int) error {
	return fmt.Errorf("%w: %s exited with code %d", ErrProcessFailure, command, exitCode)
}

func ResourceLockedError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResourceLocked, fmt.Sprintf(format, args...))
}
