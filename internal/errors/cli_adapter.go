package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if e, ok := As(err); ok {
		return a.exitCodeFromError(e)
	}
	if stderrors.Is(err, context.Canceled) {
		return 130 // Interrupted
	}

	return 1
}

// exitCodeFromError maps an Error category to exit codes.
func (a *CLIErrorAdapter) exitCodeFromError(err *Error) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategorySource:
		return 3 // Missing input
	case CategoryParse, CategoryCompile:
		return 4 // Bad input
	case CategoryBuild, CategoryTransform, CategoryFileSystem:
		return 11 // Build error
	case CategoryRuntime:
		return 12 // Runtime error
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

	if a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}

	if e, ok := As(err); ok {
		return a.formatError(e)
	}

	return fmt.Sprintf("Error: %v", err)
}

func (a *CLIErrorAdapter) formatError(err *Error) string {
	msg := err.Message
	if p, ok := err.Context["path"]; ok {
		msg = fmt.Sprintf("%s: %v", msg, p)
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return msg
	default:
		return fmt.Sprintf("%s: %s", err.Category, msg)
	}
}

// HandleError reports an error and returns the exit code the process should use.
func (a *CLIErrorAdapter) HandleError(err error) int {
	if err == nil {
		return 0
	}

	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if e, ok := As(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(e.Category)),
		}
		for k, v := range e.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if e.Cause != nil {
			attrs = append(attrs, slog.String("cause", e.Cause.Error()))
		}
		a.logger.LogAttrs(context.Background(), a.levelFor(e.Severity), e.Message, attrs...)
		return
	}

	if stderrors.Is(err, context.Canceled) {
		a.logger.Warn("Interrupted", "error", err)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func (a *CLIErrorAdapter) levelFor(severity ErrorSeverity) slog.Level {
	if severity == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}
