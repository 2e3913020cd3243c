package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeNotRegistered     ErrorType = "not_registered"
	ErrorTypeAlreadyRegistered ErrorType = "already_registered"
	ErrorTypeResourceExhausted ErrorType = "resource_exhausted"
	ErrorTypeUpstream          ErrorType = "upstream"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Code     string
	Message  string
	Internal error
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []any {
	fields := []any{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}
	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}
	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  fmt.Sprintf("%s:%d", file, line),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   fmt.Sprintf("%s:%d", file, line),
	}
}

// CodeOf returns the error code of err, or "" for plain errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Predefined errors
var (
	ErrNotRegistered      = New(ErrorTypeNotRegistered, "NOT_REGISTERED", "caller has no active registration")
	ErrAlreadyRegistered  = New(ErrorTypeAlreadyRegistered, "ALREADY_REGISTERED", "caller is already registered")
	ErrNoColumnsAvailable = New(ErrorTypeResourceExhausted, "NO_COLUMNS", "no free column pair in the header")
	ErrInvalidDate        = New(ErrorTypeValidation, "INVALID_DATE", "date must be YYYY-MM-DD")
	ErrInvalidWeight      = New(ErrorTypeValidation, "INVALID_WEIGHT", "weight must be a positive decimal")
	ErrUnknownMode        = New(ErrorTypeValidation, "UNKNOWN_MODE", "mode label not recognized")
	ErrBadUsage           = New(ErrorTypeValidation, "BAD_USAGE", "wrong argument count for command")
	ErrNoObservations     = New(ErrorTypeValidation, "NO_OBSERVATIONS", "no observations in the requested window")
)

// NewValidationError creates a validation error with a custom message.
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION", message)
}

// NewUpstreamError wraps a failed remote call.
func NewUpstreamError(err error, system string) *AppError {
	return Wrap(err, ErrorTypeUpstream, "UPSTREAM", fmt.Sprintf("%s call failed", system))
}

// NewInternalError wraps an unexpected internal failure.
func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "internal error")
}
