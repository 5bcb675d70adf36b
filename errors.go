package statusview

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error type constants for classification and matching
const (
	// ErrorTypeAll acts as a wildcard that matches any render error
	ErrorTypeAll = "all"

	// ErrorTypeRenderFailed is the default for errors raised by a rendering
	// engine that carry no better classification
	ErrorTypeRenderFailed = "render_failed"

	// ErrorTypeTimeout matches a render that ran out of time or was canceled
	ErrorTypeTimeout = "timeout"

	// ErrorTypeTooLarge indicates the description exceeds the configured
	// maxTextSize
	ErrorTypeTooLarge = "too_large"

	// ErrorTypeInvalidDiagram indicates the description is not a diagram the
	// engine understands
	ErrorTypeInvalidDiagram = "invalid_diagram"
)

// ErrStatusNotFound is returned when no status exists for a workflow.
var ErrStatusNotFound = errors.New("status not found")

// RenderError is a classified rendering failure. It supports Go's error
// wrapping patterns through Unwrap.
type RenderError struct {
	Type    string `json:"type"`
	Cause   string `json:"cause"`
	Details any    `json:"details,omitempty"`
	Wrapped error  `json:"-"`
}

// Error implements the error interface
func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *RenderError) Unwrap() error {
	return e.Wrapped
}

// NewRenderError creates a new RenderError with the specified type and cause.
func NewRenderError(errorType, cause string) *RenderError {
	return &RenderError{
		Type:  errorType,
		Cause: cause,
	}
}

// ClassifyRenderError converts an arbitrary error into a RenderError
func ClassifyRenderError(err error) *RenderError {
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return renderErr
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return &RenderError{
			Type:    ErrorTypeTimeout,
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	return &RenderError{
		Type:    ErrorTypeRenderFailed,
		Cause:   err.Error(),
		Wrapped: err,
	}
}

// MatchesErrorType checks if an error matches a specified error type pattern
func MatchesErrorType(err error, errorType string) bool {
	if err == nil {
		return false
	}
	if errorType == ErrorTypeAll {
		return true
	}
	return ClassifyRenderError(err).Type == errorType
}
