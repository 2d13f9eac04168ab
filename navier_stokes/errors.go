package navier_stokes

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrPrecondition  = errors.New("precondition error")
)

// ConfigurationError reports an unsupported option value. It is returned at
// construction and is never recoverable by retrying.
type ConfigurationError struct {
	Op  string
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Err }

// PreconditionError reports an operator used out of order or with
// inconsistent arguments.
type PreconditionError struct {
	Op  string
	Msg string
}

func (e *PreconditionError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Msg) }

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

func configErr(op string, err error, format string, args ...interface{}) error {
	return &ConfigurationError{Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

func preconditionErr(op string, format string, args ...interface{}) error {
	return &PreconditionError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
