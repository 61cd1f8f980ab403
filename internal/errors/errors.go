// Package errors provides a lightweight structured error type (DocMacroError)
// for category-based classification in the build pipeline and CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a DocMacro error for classification
type ErrorCategory string

const (
	// Setup-time errors: configuration and required resources
	CategoryConfig   ErrorCategory = "config"
	CategoryResource ErrorCategory = "resource"

	// Extension loading errors
	CategoryModuleLoad   ErrorCategory = "module_load"
	CategoryRegistration ErrorCategory = "registration"

	// Lifecycle misuse: a value was read before its owning phase completed
	CategoryAccessTooEarly ErrorCategory = "access_too_early"

	// Rendering and hook execution errors
	CategoryRender ErrorCategory = "render"
	CategoryHook   ErrorCategory = "hook"

	// Runtime and infrastructure errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// DocMacroError is a structured error with category, retryability, and context
type DocMacroError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocMacroError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocMacroError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DocMacroError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocMacroError) WithContext(key string, value any) *DocMacroError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocMacroError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocMacroError {
	return &DocMacroError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new DocMacroError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocMacroError {
	return &DocMacroError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable DocMacroError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocMacroError {
	return &DocMacroError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category, unwrapping as needed
func IsCategory(err error, category ErrorCategory) bool {
	var dme *DocMacroError
	if errors.As(err, &dme) {
		return dme.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var dme *DocMacroError
	if errors.As(err, &dme) {
		return dme.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocMacroError
func GetCategory(err error) ErrorCategory {
	var dme *DocMacroError
	if errors.As(err, &dme) {
		return dme.Category
	}
	return CategoryInternal
}
