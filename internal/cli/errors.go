package cli

import (
	"errors"
	"fmt"

	"github.com/piwi3910/tubenest/internal/model"
)

// ExitCode is the process exit status of a command.
type ExitCode int

const (
	ExitSuccess      ExitCode = 0
	ExitGeneralError ExitCode = 1
	ExitInvalidInput ExitCode = 2 // bad part table, record or flag
	ExitBounded      ExitCode = 3 // budget ran out before optimality was proven
	ExitInfeasible   ExitCode = 4 // a part is longer than the tube
	ExitInvariant    ExitCode = 5 // the solver produced an inconsistent result
)

// CLIError carries the exit code a failed command should terminate with.
type CLIError struct {
	Code    ExitCode
	Message string
	Err     error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError wraps err; a zero code is derived from err itself.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	if code == ExitSuccess {
		code = exitCodeFor(err)
	}
	return &CLIError{Code: code, Message: message, Err: err}
}

// exitCodeFor maps domain errors to exit codes. ErrCapacity is checked
// before ErrValidation since a *model.CapacityError matches both.
func exitCodeFor(err error) ExitCode {
	var cliErr *CLIError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.Is(err, model.ErrInvariant):
		return ExitInvariant
	case errors.Is(err, model.ErrCapacity):
		return ExitInfeasible
	case errors.Is(err, model.ErrLoad), errors.Is(err, model.ErrValidation):
		return ExitInvalidInput
	default:
		return ExitGeneralError
	}
}
