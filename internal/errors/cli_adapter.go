package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Exit codes used by the docmacro CLI.
const (
	// ExitOK means the command completed successfully.
	ExitOK = 0

	// ExitInternal covers runtime failures with no more specific mapping.
	ExitInternal = 1

	// ExitSetup covers configuration, resource, and module-loading failures
	// detected before any page is processed.
	ExitSetup = 2

	// ExitMacroError is the distinguished status for a macro rendering
	// failure under fail-fast mode.
	ExitMacroError = 100
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
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
		return ExitOK
	}

	var dme *DocMacroError
	if errors.As(err, &dme) {
		return a.exitCodeFromDocMacro(dme)
	}

	return ExitInternal
}

// exitCodeFromDocMacro maps DocMacroError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromDocMacro(err *DocMacroError) int {
	switch err.Category {
	case CategoryConfig, CategoryResource, CategoryModuleLoad, CategoryRegistration:
		return ExitSetup
	case CategoryRender:
		return ExitMacroError
	case CategoryAccessTooEarly, CategoryHook, CategoryFileSystem, CategoryInternal:
		return ExitInternal
	default:
		return ExitInternal
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var dme *DocMacroError
	if errors.As(err, &dme) {
		return a.formatDocMacro(dme)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatDocMacro formats a DocMacroError for display.
func (a *CLIErrorAdapter) formatDocMacro(err *DocMacroError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryResource:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	var dme *DocMacroError
	if errors.As(err, &dme) {
		return dme.Category == CategoryInternal ||
			dme.Category == CategoryAccessTooEarly ||
			dme.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	var dme *DocMacroError
	if errors.As(err, &dme) {
		level := a.slogLevelFromSeverity(dme.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(dme.Category)),
		}
		if dme.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, dme.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts DocMacroError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
