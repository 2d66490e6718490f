package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldRunID      = "run_id"
	FieldWorker     = "worker"
	FieldDevice     = "device"
	FieldState      = "state"
	FieldReason     = "reason"
	FieldDurationMs = "duration_ms"
	FieldFailures   = "failures"
)

const (
	EventRunStart       = "run_start"
	EventRunStopping    = "run_stopping"
	EventRunStopped     = "run_stopped"
	EventTapFailure     = "tap_failure"
	EventDeviceLost     = "device_lost"
	EventRefreshSuccess = "refresh_success"
	EventRefreshFailure = "refresh_failure"
	EventDeviceWait     = "device_wait"
	EventScreenFallback = "screen_fallback"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func RunIDField(runID string) zap.Field {
	return zap.String(FieldRunID, runID)
}

func WorkerField(worker int) zap.Field {
	return zap.Int(FieldWorker, worker)
}

func DeviceField(serial string) zap.Field {
	return zap.String(FieldDevice, serial)
}

func StateField(state string) zap.Field {
	return zap.String(FieldState, state)
}

func ReasonField(reason string) zap.Field {
	return zap.String(FieldReason, reason)
}

func FailuresField(count uint64) zap.Field {
	return zap.Uint64(FieldFailures, count)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
