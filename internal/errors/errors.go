// Package errors defines the structured error types used across mason.
//
// Three categories exist: configuration errors (a malformed or incomplete
// project.yaml, always reported before any external process is spawned),
// tool errors (the external compiler or linker exited non-zero), and IO
// errors (filesystem access failed during resolution, staleness checks,
// or output writing).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes an error for exit-code selection and reporting.
type ErrorType string

const (
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeTool   ErrorType = "tool"
	ErrorTypeIO     ErrorType = "io"
)

// Error codes used across the codebase.
const (
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeInvalidValue    = "INVALID_VALUE"
	ErrCodeUnknownGroup    = "UNKNOWN_GROUP"
	ErrCodeDuplicateGroup  = "DUPLICATE_GROUP"
	ErrCodeUnknownMode     = "UNKNOWN_MODE"
	ErrCodeMissingDir      = "MISSING_DIR"
	ErrCodeCompileFailed   = "COMPILE_FAILED"
	ErrCodeLinkFailed      = "LINK_FAILED"
	ErrCodeReadFailed      = "READ_FAILED"
	ErrCodeWriteFailed     = "WRITE_FAILED"
)

// MasonError is a structured error with enough context to name the
// offending config path or the failing tool invocation.
type MasonError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	// Path is the dotted config path for config errors,
	// e.g. "build.modes.release.source_groups".
	Path string
	// File is the source file a tool or IO error refers to, when known.
	File string
	// Argv is the full command line of a failed tool invocation.
	Argv []string
	// Stderr is the captured stderr of a failed tool invocation, verbatim.
	Stderr []byte
}

// Error implements the error interface.
func (e *MasonError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path+":")
	}
	if e.File != "" {
		parts = append(parts, e.File+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *MasonError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel comparisons work with errors.Is.
func (e *MasonError) Is(target error) bool {
	var t *MasonError
	if errors.As(target, &t) {
		return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
	}

	return false
}

// WithFile attaches the source file the error refers to.
func (e *MasonError) WithFile(file string) *MasonError {
	e.File = file

	return e
}

// NewConfigError creates a configuration error naming the offending
// dotted config path.
func NewConfigError(code, path, message string) *MasonError {
	return &MasonError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Path:    path,
	}
}

// ConfigErrorf is NewConfigError with a formatted message.
func ConfigErrorf(code, path, format string, args ...interface{}) *MasonError {
	return NewConfigError(code, path, fmt.Sprintf(format, args...))
}

// NewToolError creates an error for an external compiler/linker that
// exited non-zero, capturing the command line and stderr verbatim.
func NewToolError(code string, argv []string, stderr []byte, cause error) *MasonError {
	return &MasonError{
		Type:    ErrorTypeTool,
		Code:    code,
		Message: fmt.Sprintf("command failed: %s", strings.Join(argv, " ")),
		Cause:   cause,
		Argv:    argv,
		Stderr:  stderr,
	}
}

// WrapIO wraps a filesystem failure.
func WrapIO(err error, code, message string) *MasonError {
	return &MasonError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var e *MasonError

	return errors.As(err, &e) && e.Type == ErrorTypeConfig
}

// IsToolError reports whether err is (or wraps) a tool invocation error.
func IsToolError(err error) bool {
	var e *MasonError

	return errors.As(err, &e) && e.Type == ErrorTypeTool
}
