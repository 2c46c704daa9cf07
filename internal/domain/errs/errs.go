// Package errs provides the coded error taxonomy shared across the analytics
// core. Privacy violations are always critical and must never be swallowed.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies a failure for propagation policy decisions
type Code string

const (
	CodeDatabase         Code = "DATABASE_ERROR"
	CodePrivacyViolation Code = "PRIVACY_VIOLATION"
	CodeAccessDenied     Code = "ACCESS_DENIED"
	CodeOperationFailed  Code = "OPERATION_FAILED"
)

// Severity mirrors alert severities for error reporting
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// CodedError carries a taxonomy code and severity alongside the cause
type CodedError struct {
	Code     Code
	Severity Severity
	Message  string
	Cause    error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.Cause }

// New creates a coded error with a default severity per code
func New(code Code, message string) *CodedError {
	return &CodedError{Code: code, Severity: defaultSeverity(code), Message: message}
}

// Wrap attaches a code to an underlying cause
func Wrap(code Code, message string, cause error) *CodedError {
	return &CodedError{Code: code, Severity: defaultSeverity(code), Message: message, Cause: cause}
}

func defaultSeverity(code Code) Severity {
	switch code {
	case CodePrivacyViolation:
		return SeverityCritical
	case CodeDatabase:
		return SeverityHigh
	case CodeAccessDenied:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// CodeOf extracts the taxonomy code from err, or CodeOperationFailed
func CodeOf(err error) Code {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeOperationFailed
}

// IsPrivacyViolation reports whether err must abort the triggering operation
func IsPrivacyViolation(err error) bool {
	return CodeOf(err) == CodePrivacyViolation
}

// IsAccessDenied reports whether the caller's role lacked permission
func IsAccessDenied(err error) bool {
	return CodeOf(err) == CodeAccessDenied
}
