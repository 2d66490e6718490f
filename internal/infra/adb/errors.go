package adb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"adbrush/internal/domain"
	"adbrush/internal/infra/process"
)

// connectionLostMarkers are adb messages meaning the device is gone.
var connectionLostMarkers = []string{
	"device not found",
	"device offline",
	"no devices/emulators",
	"device unauthorized",
	"device still authorizing",
	"closed",
	"connection reset",
	"protocol fault",
	"cannot connect to daemon",
}

// classify turns a failed adb invocation into a *domain.DeviceError.
func classify(op string, result process.Result, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewDeviceError(domain.DeviceErrorTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return domain.NewDeviceError(domain.DeviceErrorCommandFailed, op, err)
	case errors.Is(err, domain.ErrExecutableNotFound), errors.Is(err, domain.ErrPermissionDenied):
		return domain.NewDeviceError(domain.DeviceErrorConnectionLost, op, err)
	}

	output := strings.TrimSpace(string(result.Stderr))
	if output == "" {
		output = strings.TrimSpace(string(result.Stdout))
	}
	if connectionLost(output) {
		return domain.NewDeviceError(domain.DeviceErrorConnectionLost, op, fmt.Errorf("%s: %w", output, err))
	}
	if output != "" {
		err = fmt.Errorf("%s: %w", output, err)
	}
	return domain.NewDeviceError(domain.DeviceErrorCommandFailed, op, err)
}

var missingSerialPattern = regexp.MustCompile(`device '[^']*' not found`)

func connectionLost(output string) bool {
	lower := strings.ToLower(output)
	if missingSerialPattern.MatchString(lower) {
		return true
	}
	for _, marker := range connectionLostMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
