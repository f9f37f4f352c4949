// Package errs defines the coded application errors shared by the form,
// the registration client and the registrar endpoint.
package errs

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown    = "UNKNOWN"
	CodeValidation = "VALIDATION"
	CodeRemote     = "REMOTE"
	CodeTransport  = "TRANSPORT"
	CodeConfig     = "CONFIG"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// NewValidationError reports input rejected before any network call.
func NewValidationError(message string) error {
	return &Error{code: CodeValidation, message: message}
}

// NewConfigError reports an invalid or unreadable configuration.
func NewConfigError(message string, cause error) error {
	return &Error{code: CodeConfig, message: message, err: cause}
}

// NewTransportError reports a failed exchange: the request never got an
// answer, or the answer could not be decoded.
func NewTransportError(message string, cause error) error {
	return &Error{code: CodeTransport, message: message, err: cause}
}

// RemoteError is a non-success answer from the verification endpoint.
// Reason is the server-provided "error" field and may be empty.
type RemoteError struct {
	StatusCode int
	Reason     string
}

func (e *RemoteError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}

	return fmt.Sprintf("verification endpoint returned status %d", e.StatusCode)
}

func (e *RemoteError) Code() string {
	return CodeRemote
}

func (e *RemoteError) Unwrap() error {
	return nil
}

// NewRemoteError builds a RemoteError for the given status and reason.
func NewRemoteError(status int, reason string) error {
	return &RemoteError{StatusCode: status, Reason: reason}
}

// AsRemote returns the RemoteError in err's chain, if any.
func AsRemote(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}

	return nil, false
}
