package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Storage errors
	ErrCodeConfigDirUnavailable ErrorCode = "CONFIG_DIR_UNAVAILABLE"
	ErrCodeIO                   ErrorCode = "IO_ERROR"
	ErrCodeSerialization        ErrorCode = "SERIALIZATION_ERROR"

	// Input errors
	ErrCodeDecode         ErrorCode = "DECODE_ERROR"
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeUnknownCommand ErrorCode = "UNKNOWN_COMMAND"
	ErrCodeUserCancelled  ErrorCode = "USER_CANCELLED"

	// Upload errors
	ErrCodeConfigMissing ErrorCode = "CONFIG_MISSING"
	ErrCodeRemote        ErrorCode = "REMOTE_ERROR"

	// Application configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ScribeError represents a structured error with context
type ScribeError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ScribeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ScribeError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ScribeError) WithDetail(key string, value interface{}) *ScribeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ScribeError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ScribeError
func New(code ErrorCode, message string) *ScribeError {
	return &ScribeError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ScribeError
func Wrap(err error, code ErrorCode, message string) *ScribeError {
	return &ScribeError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific ScribeError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	scribeErr, ok := err.(*ScribeError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	if scribeErr.Code == code {
		return true
	}
	return Is(scribeErr.Cause, code)
}

// GetCode extracts the outermost error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	scribeErr, ok := err.(*ScribeError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return scribeErr.Code
}

// Flatten renders an error as the plain message handed back to the front-end.
// Codes are dropped; the message chain is kept.
func Flatten(err error) string {
	if err == nil {
		return ""
	}

	scribeErr, ok := err.(*ScribeError)
	if !ok {
		return err.Error()
	}
	if scribeErr.Cause == nil {
		return scribeErr.Message
	}
	return fmt.Sprintf("%s: %s", scribeErr.Message, Flatten(scribeErr.Cause))
}
