package domain

import (
	"context"
	"errors"
	"fmt"
)

// DeviceControl issues single actions against a device.
//
// Implementations must be safe for concurrent use: the dispatcher calls Tap
// from every worker at once and Refresh from its own goroutine.
type DeviceControl interface {
	Tap(ctx context.Context, x, y int) error
	Refresh(ctx context.Context) error
}

// DeviceErrorKind classifies a failed device action.
type DeviceErrorKind string

const (
	DeviceErrorTimeout        DeviceErrorKind = "timeout"
	DeviceErrorCommandFailed  DeviceErrorKind = "command_failed"
	DeviceErrorConnectionLost DeviceErrorKind = "connection_lost"
)

var (
	ErrDeviceTimeout  = errors.New("device command timed out")
	ErrCommandFailed  = errors.New("device command failed")
	ErrConnectionLost = errors.New("device connection lost")
)

// DeviceError is returned by DeviceControl implementations.
type DeviceError struct {
	Kind DeviceErrorKind
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DeviceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *DeviceError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrDeviceTimeout:
		return e.Kind == DeviceErrorTimeout
	case ErrCommandFailed:
		return e.Kind == DeviceErrorCommandFailed
	case ErrConnectionLost:
		return e.Kind == DeviceErrorConnectionLost
	}
	return false
}

// NewDeviceError builds a DeviceError.
func NewDeviceError(kind DeviceErrorKind, op string, err error) *DeviceError {
	return &DeviceError{Kind: kind, Op: op, Err: err}
}

// DeviceErrorKindOf returns the kind of a device error. Plain errors count as CommandFailed.
func DeviceErrorKindOf(err error) DeviceErrorKind {
	if err == nil {
		return ""
	}
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Kind
	}
	switch {
	case errors.Is(err, ErrConnectionLost):
		return DeviceErrorConnectionLost
	case errors.Is(err, ErrDeviceTimeout), errors.Is(err, context.DeadlineExceeded):
		return DeviceErrorTimeout
	default:
		return DeviceErrorCommandFailed
	}
}

// IsConnectionLost reports whether err ends the run.
func IsConnectionLost(err error) bool {
	return DeviceErrorKindOf(err) == DeviceErrorConnectionLost
}
