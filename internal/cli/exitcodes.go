package cli

import (
	"errors"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Database errors, blob store errors, partial failures,
	// or any error that doesn't fit the specific categories below.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing required flags, no owner configured.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: Task, project, category or attachment not found for the owner.
	ExitNotFound = 3

	// ExitDataErr indicates invalid or malformed data.
	// Use for: Unreadable files, bad dates.
	ExitDataErr = 4

	// ExitValidation indicates a validation error.
	// Use for: Invalid status or priority, empty titles, oversized uploads.
	ExitValidation = 5
)

// ExitCodeError carries the process exit code of a failed command. The message
// has already been printed when it is returned.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string { return e.Err.Error() }

func (e *ExitCodeError) Unwrap() error { return e.Err }

// ExitCodeFor maps an error to the exit code a command should end with
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return ExitValidation
	case apperr.KindNotFound:
		return ExitNotFound
	default:
		return ExitError
	}
}

// errorCode is the machine-readable code printed in JSON errors
func errorCode(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "VALIDATION_ERROR"
	case apperr.KindNotFound:
		return "NOT_FOUND"
	case apperr.KindAccess:
		return "ACCESS_ERROR"
	case apperr.KindPartial:
		return "PARTIAL_FAILURE"
	default:
		return "ERROR"
	}
}
