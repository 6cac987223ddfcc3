package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// Remote store error codes.
const (
	RemoteCodeNotFound         = "not_found"
	RemoteCodePermissionDenied = "permission_denied"
	RemoteCodeConflict         = "conflict"
	RemoteCodeUnavailable      = "unavailable"
)

// RemoteError is returned by every remote store operation that fails.
type RemoteError struct {
	Code    string
	Message string
}

func NewRemoteError(code, msg string) *RemoteError {
	return &RemoteError{Code: code, Message: msg}
}

func (err RemoteError) Error() string {
	return err.Message + " (" + err.Code + ")"
}

func remoteCode(err error) string {
	if rerr, ok := errors.Cause(err).(*RemoteError); ok {
		return rerr.Code
	}
	return ""
}

func IsRemoteNotFound(err error) bool {
	return remoteCode(err) == RemoteCodeNotFound
}

// IsPermissionDenied reports whether err is an authorization-shaped failure.
// Record queries denied by scoping rules are treated as empty results, not
// errors.
func IsPermissionDenied(err error) bool {
	return remoteCode(err) == RemoteCodePermissionDenied
}
