// Package errors provides a lightweight structured error type (PubctlError)
// for category-based classification in the CLI and lifecycle controller.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a pubctl error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Hook discovery, registration and execution errors
	CategoryHooks ErrorCategory = "hooks"

	// Build and publication errors
	CategoryBuild      ErrorCategory = "build"
	CategoryHugo       ErrorCategory = "hugo"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryUpdate   ErrorCategory = "update"
	CategoryState    ErrorCategory = "state"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// PubctlError is a structured error with category, severity, and context
type PubctlError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PubctlError
type ContextFields map[string]any

// Error implements the error interface
func (e *PubctlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PubctlError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PubctlError) WithContext(key string, value any) *PubctlError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new PubctlError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PubctlError {
	return &PubctlError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PubctlError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PubctlError {
	return &PubctlError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pe, ok := err.(*PubctlError); ok {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PubctlError
func GetCategory(err error) ErrorCategory {
	if pe, ok := err.(*PubctlError); ok {
		return pe.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error
func ValidationError(message string) *PubctlError {
	return &PubctlError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}

// HookError wraps a hook execution failure. Hook failures are fatal to the
// current lifecycle step.
func HookError(err error, message string) *PubctlError {
	return &PubctlError{
		Category: CategoryHooks,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    err,
	}
}
