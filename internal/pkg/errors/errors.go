package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeData              = "DATA_ERROR"
	CodeTool              = "TOOL_ERROR"
	CodeInsufficientData  = "INSUFFICIENT_DATA"
	CodeUnsupportedMethod = "UNSUPPORTED_METHOD"
	CodeRateLimited       = "RATE_LIMITED"
	CodeBackend           = "BACKEND_ERROR"
	CodeContextType       = "CONTEXT_TYPE_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Data creates a data error (missing file, schema mismatch, empty dataset)
func Data(message string) *AppError {
	return New(CodeData, message)
}

// Tool creates a tool execution error
func Tool(message string) *AppError {
	return New(CodeTool, message)
}

// InsufficientData creates an error for datasets too small to analyze
func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

// UnsupportedMethod creates an error for unknown detection methods
func UnsupportedMethod(method string) *AppError {
	return New(CodeUnsupportedMethod, fmt.Sprintf("unsupported detection method: %s", method))
}

// RateLimited creates a rate limited error
func RateLimited() *AppError {
	return New(CodeRateLimited, "rate limit exceeded")
}

// Backend creates an external backend error
func Backend(message string) *AppError {
	return New(CodeBackend, message)
}

// ContextType creates a shared-context type mismatch error
func ContextType(message string) *AppError {
	return New(CodeContextType, message)
}

// Internal creates an internal error
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetCode returns the error code, or CodeInternal for unrecognized errors
func GetCode(err error) string {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return CodeInternal
}

// IsData checks if the error is a data error
func IsData(err error) bool {
	return GetCode(err) == CodeData
}

// IsInsufficientData checks if the error is an insufficient data error
func IsInsufficientData(err error) bool {
	return GetCode(err) == CodeInsufficientData
}

// IsUnsupportedMethod checks if the error is an unsupported method error
func IsUnsupportedMethod(err error) bool {
	return GetCode(err) == CodeUnsupportedMethod
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return GetCode(err) == CodeRateLimited
}

// IsBackend checks if the error is a backend error
func IsBackend(err error) bool {
	return GetCode(err) == CodeBackend
}

// IsContextType checks if the error is a context type error
func IsContextType(err error) bool {
	return GetCode(err) == CodeContextType
}
