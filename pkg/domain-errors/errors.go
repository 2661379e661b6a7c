// Package domainerrors provides coded errors that services return and transport
// layers translate into protocol responses.
//
// Services wrap infrastructure failures (see pkg/platform/sentinel) into a coded
// error so transports never have to inspect store or network errors directly:
//
//	if errors.Is(err, sentinel.ErrNotFound) {
//		return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
//	}
//	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup failed")
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for the caller.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_error"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a coded error. Message is safe to show to callers; Err is not.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a coded error without an underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and a caller-safe message to err.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any coded error in err's chain carries code,
// including coded causes wrapped by an outer coded error.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the code of the first coded error in err's chain, or
// CodeInternal when err is not coded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// PublicMessage returns the caller-safe message for err. Uncoded and internal
// errors collapse to a generic message so causes are never leaked.
func PublicMessage(err error) string {
	var de *Error
	if !errors.As(err, &de) || de.Code == CodeInternal {
		return "internal error"
	}
	return de.Message
}
