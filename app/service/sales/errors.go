package sales

import (
	"errors"
	"fmt"
)

type ErrorCode string

const ErrorInvalidInput ErrorCode = "INVALID_INPUT"

var ErrValidation = errors.New("validation failed")

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("sales: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("sales: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
