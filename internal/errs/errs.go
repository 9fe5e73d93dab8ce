package errs

import (
	"errors"
	"fmt"
)

// Code is an application error code. The set is closed: every failure the
// pipeline can produce carries exactly one of these.
type Code string

const (
	ConfigNotFound       Code = "config_not_found"
	ConfigInvalid        Code = "config_invalid"
	AuthenticationFailed Code = "authentication_failed"
	TokenExchangeFailed  Code = "token_exchange_failed"
	InjectionFailed      Code = "injection_failed"
	Internal             Code = "internal"
)

// Error is a coded application error.
type Error struct {
	Code    Code
	Message string
	Field   string // dotted config path, set for ConfigInvalid
	Status  int    // HTTP status, set for TokenExchangeFailed when known
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// InvalidField creates a ConfigInvalid error naming the offending dotted
// config path, e.g. "firebase.apiKey".
func InvalidField(field, reason string) error {
	return &Error{
		Code:    ConfigInvalid,
		Message: reason,
		Field:   field,
	}
}

// ExchangeFailed creates a TokenExchangeFailed error. status is 0 when the
// failure happened below HTTP (DNS, timeout, malformed body).
func ExchangeFailed(status int, message string, cause error) error {
	return &Error{
		Code:    TokenExchangeFailed,
		Message: message,
		Status:  status,
		Err:     cause,
	}
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	return Internal
}

// FieldOf returns the dotted config path of a ConfigInvalid error, or "".
func FieldOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Field
	}
	return ""
}

// StatusOf returns the HTTP status attached to the error, or 0 when unknown.
func StatusOf(err error) int {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Status
	}
	return 0
}

// MessageOf returns a user-facing error message.
// If the error has no typed wrapper, returns "internal error" to prevent
// leaking raw transport errors or file paths to callers that format codes.
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}
