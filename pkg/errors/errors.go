package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of a failure
type ErrorType string

const (
	// Configuration and usage errors fail before any network or browser activity.
	ErrorTypeUsage        ErrorType = "usage"
	ErrorTypeRange        ErrorType = "range"
	ErrorTypeAlreadyBuilt ErrorType = "already_built"
	ErrorTypeCredentials  ErrorType = "credentials"

	// Terminal navigation errors abort the current operation.
	ErrorTypeNavigation  ErrorType = "navigation"
	ErrorTypeUnavailable ErrorType = "unavailable"

	// Per-item retrieval errors are logged and skipped by the downloader.
	ErrorTypeRetrieval    ErrorType = "retrieval"
	ErrorTypeSubscription ErrorType = "subscription"
	ErrorTypeGone         ErrorType = "gone"

	// Connectivity errors during control operations (login, discovery) are fatal.
	ErrorTypeConnectivity ErrorType = "connectivity"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a typed error carrying an optional HTTP status code and cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type and message.
// Sentinels compare equal to wrapped copies produced by Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// New creates an error of the given type
func New(errType ErrorType, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// WithCode creates an error of the given type carrying an HTTP status code
func WithCode(errType ErrorType, code int, format string, args ...any) *Error {
	return &Error{Type: errType, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a copy of sentinel, keeping its type and message
// so errors.Is(result, sentinel) holds.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Type: sentinel.Type, Message: sentinel.Message, Code: sentinel.Code, Err: cause}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType checks whether err carries the given type anywhere in its chain
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsPerItem reports whether an error type only affects a single archive
// entry. The downloader records these and moves on to the next entry.
func IsPerItem(errType ErrorType) bool {
	switch errType {
	case ErrorTypeRetrieval, ErrorTypeSubscription, ErrorTypeGone:
		return true
	default:
		return false
	}
}

// IsUsage reports whether an error type is a caller mistake detected before any I/O
func IsUsage(errType ErrorType) bool {
	switch errType {
	case ErrorTypeUsage, ErrorTypeRange, ErrorTypeAlreadyBuilt, ErrorTypeCredentials:
		return true
	default:
		return false
	}
}

// StatusType maps a non-200 HTTP status from a per-entry fetch to an error type
func StatusType(statusCode int) ErrorType {
	switch statusCode {
	case 403, 404, 410:
		return ErrorTypeGone
	case 0:
		return ErrorTypeConnectivity
	default:
		return ErrorTypeRetrieval
	}
}
