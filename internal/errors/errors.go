package errors

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/scheduler"
	"github.com/julianstephens/daylit-planner/internal/validation"
)

// Exit codes returned by the CLI
const (
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitInternal     = 3
	ExitInterrupted  = 130
)

// Format formats an error message with a consistent "Error: " prefix.
// Validation errors name the offending item and the rule it broke.
func Format(err error) string {
	if err == nil {
		return ""
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return fmt.Sprintf("Error: invalid input: %v [%s]", verr, verr.Code)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, validation.ErrInvalidInput):
		return ExitInvalidInput
	case errors.Is(err, scheduler.ErrInvariant):
		return ExitInternal
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// Fatal logs an error and exits the program with the code matching the error
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(ExitFailure)
}
