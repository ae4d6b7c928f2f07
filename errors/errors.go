package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable error code returned to clients.
type ErrorCode string

const (
	// Auth errors
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Check-in rejections
	ErrCodeMalformedToken     ErrorCode = "MALFORMED_TOKEN"
	ErrCodeBadSignature       ErrorCode = "BAD_SIGNATURE"
	ErrCodeExpired            ErrorCode = "EXPIRED"
	ErrCodeUnknownSubject     ErrorCode = "UNKNOWN_SUBJECT"
	ErrCodeMembershipInactive ErrorCode = "MEMBERSHIP_INACTIVE"
	ErrCodeAlreadyProcessed   ErrorCode = "ALREADY_PROCESSED"

	// Storage unavailable; surfaced as "try again"
	ErrCodeDBError ErrorCode = "DB_ERROR"

	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// Business errors
	ErrCodeNoMembership ErrorCode = "NO_MEMBERSHIP"
)

// AppError carries a code, an operator-safe message and the underlying cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsAppError reports whether err is, or wraps, an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError returns the first AppError in err's chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Code {
	case ErrCodeValidation, ErrCodeRequiredField, ErrCodeInvalidFormat:
		return true
	}
	return false
}

// IsInfrastructure reports whether err is a storage/backend failure that the
// caller should surface as "try again".
func IsInfrastructure(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == ErrCodeDBError
}

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUnauthorized    = errors.New("unauthorized")
)
