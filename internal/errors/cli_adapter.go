package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the sitegen CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if be, ok := err.(*BuildError); ok {
		return a.exitCodeFromBuild(be)
	}

	return 1
}

// exitCodeFromBuild maps BuildError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBuild(err *BuildError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryMetadata, CategoryFileSystem, CategoryDate:
		return 11 // Content loading error
	case CategoryStructure, CategoryRender:
		return 12 // Build error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if be, ok := err.(*BuildError); ok {
		if a.verbose {
			return be.Error()
		}
		switch be.Category {
		case CategoryConfig, CategoryValidation:
			return be.Message
		default:
			return fmt.Sprintf("%s: %s", be.Category, be.Message)
		}
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if be, ok := err.(*BuildError); ok && a.verbose {
		args := make([]any, 0, len(be.Context)*2)
		for k, v := range be.Context {
			args = append(args, k, v)
		}
		a.logger.Error(message, args...)
	} else {
		fmt.Fprintln(os.Stderr, message)
	}

	os.Exit(exitCode)
}
