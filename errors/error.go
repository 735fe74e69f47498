package errors

import (
	stderrors "errors"
	"fmt"
)

type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Cause   error  // the underlying error
	Details any    `json:"details,omitempty"`
}

func NewError(code int64, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewErrorf(code int64, cause error, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the outermost *Error in err's chain, or 0.
func CodeOf(err error) int64 {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// DetailsOf returns the details of the outermost *Error in err's chain.
func DetailsOf(err error) any {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Details
	}
	return nil
}
