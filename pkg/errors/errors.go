package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures an invalid desired-state combination or a bad
// configuration field. It is raised before any probing or mutation happens and
// aborts the whole lifecycle call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NotImplementedError reports that a resource never provided one of the two
// mandatory overrides (GetCurrentState or Modify). It signals a programming
// error in the concrete resource, not a transient condition.
type NotImplementedError struct {
	Method  string
	Message string
}

// NewNotImplementedError constructs a NotImplementedError naming the missing method.
func NewNotImplementedError(method, message string) error {
	return &NotImplementedError{Method: method, Message: message}
}

func (e *NotImplementedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("method %s is not implemented", e.Method)
}

// ResourceError wraps a failure raised by a concrete resource's probe or
// mutator. The underlying error propagates unmodified; the core performs no
// retry, so callers re-verify with a fresh Test after a failed apply.
type ResourceError struct {
	ResourceID string
	Err        error
}

// NewResourceError constructs a ResourceError for the given resource id.
func NewResourceError(resourceID string, err error) error {
	return &ResourceError{ResourceID: resourceID, Err: err}
}

func (e *ResourceError) Error() string {
	if e == nil {
		return ""
	}
	if e.ResourceID != "" {
		return fmt.Sprintf("resource error [%s]: %v", e.ResourceID, e.Err)
	}
	return fmt.Sprintf("resource error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ResourceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
