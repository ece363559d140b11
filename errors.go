package securezip

import (
	"errors"
	"fmt"
)

// Error types represent the failure categories of the container format
// and the archive engine.

// ConfigurationError reports an invalid configuration or an operation
// attempted in the wrong engine state, such as decrypting without a
// password.
type ConfigurationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// FormatError reports malformed container bytes: missing magic, a
// truncated header, or a payload shorter than the header claims.
type FormatError struct {
	Offset  int64  // Byte offset where parsing failed, -1 if unknown
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("format error at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports a password commitment mismatch. No
// transform is attempted once the commitment check fails.
type AuthenticationError struct {
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// UnknownAlgorithmError reports an algorithm token outside the supported
// set. It is recoverable: container decoding falls back to the caller's
// configured algorithm rather than aborting.
type UnknownAlgorithmError struct {
	Token string // The unrecognized token from the container header
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm token %q", e.Token)
}

// Common sentinel errors
var (
	// ErrPasswordNotSet is returned when encryption or decryption is
	// requested while no password is configured.
	ErrPasswordNotSet = errors.New("password not set")

	// ErrNotContainer is returned when bytes do not start with the
	// SECUREZIP magic. Callers often treat this as a branch signal
	// rather than a fatal error.
	ErrNotContainer = errors.New("not a securezip container")

	// ErrPasswordMismatch is returned when the stored commitment does
	// not match the supplied password.
	ErrPasswordMismatch = errors.New("password commitment mismatch")

	// ErrCannotDecrypt is the uniform failure DecryptArchive reports for
	// every decode problem. Wrong passwords and corrupt containers are
	// deliberately indistinguishable through this error.
	ErrCannotDecrypt = errors.New("cannot decrypt archive")

	// ErrInvalidCiphertext is returned when a transform's ciphertext is
	// too short to carry its own framing, such as a missing salt.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Helper functions for creating structured errors

// NewFormatError creates a format error at the given offset.
func NewFormatError(offset int64, message string, err error) error {
	return &FormatError{
		Offset:  offset,
		Message: message,
		Err:     err,
	}
}

// NewAuthenticationError creates an authentication error wrapping err.
func NewAuthenticationError(message string, err error) error {
	return &AuthenticationError{
		Message: message,
		Err:     err,
	}
}

// Error checking helpers

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsFormatError checks if an error is a container format error.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsUnknownAlgorithmError checks if an error is an unknown algorithm error.
func IsUnknownAlgorithmError(err error) bool {
	var ue *UnknownAlgorithmError
	return errors.As(err, &ue)
}
