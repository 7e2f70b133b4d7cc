package domain

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures. ConfigurationError and ValidationError
// surface to the caller before a run id is issued; every other kind is
// captured inside the run report.
type Kind string

const (
	KindConfiguration  Kind = "configuration_error"
	KindValidation     Kind = "validation_error"
	KindStepTimeout    Kind = "step_timeout"
	KindStepExecution  Kind = "step_execution_error"
	KindRetryExhausted Kind = "retry_exhausted"
	KindAborted        Kind = "aborted"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the taxonomy kind carried by err, or KindStepExecution for
// untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindStepExecution
}
