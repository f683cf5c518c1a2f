package cli

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/statlink/internal/usecase"
)

// Exit codes.
const (
	ExitSuccess  = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitUpstream = 3
	ExitBadData  = 4
	ExitRejected = 5
)

type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error from a command to the process exit code.
func ExitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage), errors.Is(err, usecase.ErrInvalidInput):
		return ExitUsage
	case errors.Is(err, usecase.ErrUpstreamUnavailable):
		return ExitUpstream
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrCorruptData),
		errors.Is(err, usecase.ErrSchemaMismatch):
		return ExitBadData
	case errors.Is(err, usecase.ErrRequestRejected):
		return ExitRejected
	default:
		return ExitFailure
	}
}
