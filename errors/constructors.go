package errors

import (
	"fmt"
)

// ConfigDirUnavailable creates an error for an unresolvable or uncreatable config directory
func ConfigDirUnavailable(dir string, cause error) *ScribeError {
	if dir == "" {
		return New(ErrCodeConfigDirUnavailable, "could not resolve the configuration directory")
	}
	return Wrap(cause, ErrCodeConfigDirUnavailable, fmt.Sprintf("could not create configuration directory %s", dir)).
		WithDetail("path", dir)
}

// IOError creates a file I/O error
func IOError(op, path string, cause error) *ScribeError {
	return Wrap(cause, ErrCodeIO, fmt.Sprintf("failed to %s %s", op, path)).
		WithDetail("op", op).
		WithDetail("path", path)
}

// Serialization creates a JSON encoding or decoding error
func Serialization(what string, cause error) *ScribeError {
	return Wrap(cause, ErrCodeSerialization, fmt.Sprintf("invalid JSON in %s", what)).
		WithDetail("target", what)
}

// Decode creates a payload decoding error
func Decode(reason string, cause error) *ScribeError {
	if cause == nil {
		return New(ErrCodeDecode, reason)
	}
	return Wrap(cause, ErrCodeDecode, reason)
}

// InvalidInput creates an invalid input error
func InvalidInput(reason string) *ScribeError {
	return New(ErrCodeInvalidInput, reason)
}

// UnknownCommand creates an error for a command name that is not registered
func UnknownCommand(name string) *ScribeError {
	return New(ErrCodeUnknownCommand, fmt.Sprintf("unknown command '%s'", name)).
		WithDetail("command", name)
}

// UserCancelled creates an error for a dismissed interactive prompt
func UserCancelled(reason string) *ScribeError {
	return New(ErrCodeUserCancelled, reason)
}

// ConfigMissing creates an error for a stored configuration that does not exist
func ConfigMissing(what string) *ScribeError {
	return New(ErrCodeConfigMissing, fmt.Sprintf("%s configuration not found. Please configure %s settings first.", what, what)).
		WithDetail("config", what)
}

// Remote creates an upstream service failure error
func Remote(service string, cause error) *ScribeError {
	return Wrap(cause, ErrCodeRemote, fmt.Sprintf("failed to upload to %s", service)).
		WithDetail("service", service)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ScribeError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ScribeError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}
