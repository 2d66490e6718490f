package main

import (
	"errors"

	"adbrush/internal/domain"
)

const (
	exitCodeGeneric    = 1
	exitCodeUsage      = 2
	exitCodeDeviceLost = 3
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

func exitSilent(code int) error {
	return exitError{code: code, silent: true}
}

// exitFor maps err to the process exit code: 2 for invalid input, 3 when
// the device went away, 1 otherwise.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	var existing exitError
	if errors.As(err, &existing) {
		return existing
	}
	return exitError{code: exitCode(err), message: err.Error()}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidTarget):
		return exitCodeUsage
	case domain.IsConnectionLost(err):
		return exitCodeDeviceLost
	}
	if code, ok := domain.CodeFrom(err); ok && code == domain.CodeInvalidArgument {
		return exitCodeUsage
	}
	return exitCodeGeneric
}
