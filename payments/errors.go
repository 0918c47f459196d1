package payments

import (
	"strings"

	"github.com/pkg/errors"

	"go-payments/store"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = store.ErrNotFound
	ErrExecutionFailure = errors.New("execution failure")
)

// ValidationError lists every problem found in a request. It matches ErrInvalidArgument.
type ValidationError struct {
	Problems []string
}

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return "invalid argument: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// ExecutionError is returned when a bank transfer was attempted and ended FAILED.
// Cause is the gateway rejection or persistence error that failed the transfer;
// Compensation is set when recording the FAILED state did not succeed either.
type ExecutionError struct {
	TransferID   string
	Cause        error
	Compensation error
}

func (e *ExecutionError) Error() string {
	msg := "bank transfer " + e.TransferID + " failed: " + e.Cause.Error()
	if e.Compensation != nil {
		msg += " (recording failure also failed: " + e.Compensation.Error() + ")"
	}
	return msg
}

func (e *ExecutionError) Is(target error) bool { return target == ErrExecutionFailure }

func (e *ExecutionError) Unwrap() error { return e.Cause }

func IsInvalidArgument(err error) bool  { return errors.Is(err, ErrInvalidArgument) }
func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsExecutionFailure(err error) bool { return errors.Is(err, ErrExecutionFailure) }
