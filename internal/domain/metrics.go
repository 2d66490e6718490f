package domain

import "time"

// TapOutcome labels the result of a single tap or refresh.
type TapOutcome string

const (
	// TapOutcomeSuccess indicates the device accepted the command.
	TapOutcomeSuccess TapOutcome = "success"
	// TapOutcomeTimeout indicates the command exceeded its deadline.
	TapOutcomeTimeout TapOutcome = "timeout"
	// TapOutcomeCommandFailed indicates the bridge rejected the command.
	TapOutcomeCommandFailed TapOutcome = "command_failed"
	// TapOutcomeConnectionLost indicates the device went away.
	TapOutcomeConnectionLost TapOutcome = "connection_lost"
)

// OutcomeFromError maps a device call result to its metric label.
func OutcomeFromError(err error) TapOutcome {
	if err == nil {
		return TapOutcomeSuccess
	}
	switch DeviceErrorKindOf(err) {
	case DeviceErrorTimeout:
		return TapOutcomeTimeout
	case DeviceErrorConnectionLost:
		return TapOutcomeConnectionLost
	default:
		return TapOutcomeCommandFailed
	}
}

// Metrics records dispatch activity.
type Metrics interface {
	ObserveTap(outcome TapOutcome, duration time.Duration)
	ObserveRefresh(outcome TapOutcome, duration time.Duration)
	SetActiveWorkers(count int)
	SetTapRate(rate float64)
}
