package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDescription Category = "description"
	CategoryHost        Category = "host"
	CategoryScheduler   Category = "scheduler"
	CategoryProtocol    Category = "protocol"
	CategoryConfig      Category = "config"
	CategoryCLI         Category = "cli"
)

// FiberError is a structured error with a code, explanation, and hint.
type FiberError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FiberError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FiberError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a FiberError with the same code.
// This lets callers match on a bare template: errors.Is(err, errors.New("E004")).
func (e *FiberError) Is(target error) bool {
	t, ok := target.(*FiberError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FiberError) WithSuggestion(s string) *FiberError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *FiberError) WithDetail(d string) *FiberError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *FiberError) WithDetailf(format string, args ...any) *FiberError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *FiberError) Wrap(err error) *FiberError {
	e.Wrapped = err
	return e
}

// New creates a FiberError from a registered error code.
func New(code string) *FiberError {
	template, ok := registry[code]
	if !ok {
		return &FiberError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FiberError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new FiberError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FiberError {
	return &FiberError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FiberError.
// Errors that already are (or wrap) a FiberError are returned as-is.
func FromError(err error, code string) *FiberError {
	if err == nil {
		return nil
	}
	var fe *FiberError
	if stderrors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a FiberError with the given code.
func HasCode(err error, code string) bool {
	var fe *FiberError
	for err != nil {
		if !stderrors.As(err, &fe) {
			return false
		}
		if fe.Code == code {
			return true
		}
		err = fe.Wrapped
	}
	return false
}
