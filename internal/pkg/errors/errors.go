package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeRateLimited  = "RATE_LIMITED"

	// Engine error codes
	ErrCodeConfig               = "CONFIG_ERROR"
	ErrCodeEvaluation           = "EVALUATION_ERROR"
	ErrCodeEnforcement          = "ENFORCEMENT_ERROR"
	ErrCodeReasoningUnavailable = "REASONING_UNAVAILABLE"
	ErrCodeBreakerTripped       = "BREAKER_TRIPPED"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// Engine error constructors

// ConfigError creates a configuration error; fatal at load time
func ConfigError(message string, err error) *AppError {
	return Wrap(err, ErrCodeConfig, message, http.StatusInternalServerError)
}

// EvaluationError creates an evaluator error; the evaluator's output is
// treated as empty for the cycle and the pipeline continues
func EvaluationError(evaluator string, err error) *AppError {
	return Wrap(err, ErrCodeEvaluation,
		fmt.Sprintf("evaluator %s failed", evaluator),
		http.StatusInternalServerError)
}

// EnforcementError creates an enforcement call error
func EnforcementError(message string, err error) *AppError {
	return Wrap(err, ErrCodeEnforcement, message, http.StatusBadGateway)
}

// ReasoningUnavailable indicates the external reasoning call errored or
// timed out; callers degrade to deterministic checks only
func ReasoningUnavailable(err error) *AppError {
	return Wrap(err, ErrCodeReasoningUnavailable,
		"external reasoning unavailable", http.StatusServiceUnavailable)
}

// BreakerTripped indicates automatic execution is disabled
func BreakerTripped(reason string) *AppError {
	return New(ErrCodeBreakerTripped,
		fmt.Sprintf("circuit breaker tripped: %s", reason),
		http.StatusConflict)
}

// InvalidTransition creates an action status transition error
func InvalidTransition(from, to string) *AppError {
	return New(ErrCodeInvalidTransition,
		fmt.Sprintf("invalid status transition %s -> %s", from, to),
		http.StatusConflict)
}
