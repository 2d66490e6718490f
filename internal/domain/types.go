package domain

import (
	"errors"
	"time"
)

// TapTarget is a screen coordinate in device pixels.
type TapTarget struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DispatchConfig describes one dispatch run. It is immutable once a run starts.
type DispatchConfig struct {
	Threads  int
	MinDelay time.Duration
	MaxDelay time.Duration
	// RefreshInterval of zero disables the refresh gesture.
	RefreshInterval time.Duration
	// TapOffset randomizes each tap by up to this many pixels on both axes.
	TapOffset int
	// MaxTapsPerSecond caps the aggregate tap rate across workers; zero disables the cap.
	MaxTapsPerSecond float64
}

// RefreshEnabled reports whether the refresh gesture runs during the dispatch.
func (c DispatchConfig) RefreshEnabled() bool {
	return c.RefreshInterval > 0
}

// RunState is the lifecycle state of a dispatcher.
type RunState string

const (
	RunStateIdle     RunState = "idle"
	RunStateRunning  RunState = "running"
	RunStateStopping RunState = "stopping"
	RunStateStopped  RunState = "stopped"
)

// StopReason explains why a run ended.
type StopReason string

const (
	StopReasonNone        StopReason = ""
	StopReasonRequested   StopReason = "requested"
	StopReasonContextDone StopReason = "context_done"
	StopReasonDeviceLost  StopReason = "device_lost"
)

// RunStats is a point-in-time copy of run counters.
type RunStats struct {
	Attempts        uint64    `json:"attempts"`
	Successes       uint64    `json:"successes"`
	Failures        uint64    `json:"failures"`
	RefreshAttempts uint64    `json:"refreshAttempts"`
	RefreshFailures uint64    `json:"refreshFailures"`
	StartedAt       time.Time `json:"startedAt"`
}

// Progress is what the reporting loop publishes on each tick.
type Progress struct {
	RunID   string
	Stats   RunStats
	Rate    float64
	Elapsed time.Duration
}

// RunSummary is the final outcome of a run.
type RunSummary struct {
	RunID           string        `json:"runId"`
	Target          TapTarget     `json:"target"`
	Attempts        uint64        `json:"attempts"`
	Successes       uint64        `json:"successes"`
	Failures        uint64        `json:"failures"`
	RefreshAttempts uint64        `json:"refreshAttempts"`
	RefreshFailures uint64        `json:"refreshFailures"`
	Elapsed         time.Duration `json:"elapsed"`
	Rate            float64       `json:"rate"`
	StoppedReason   StopReason    `json:"stoppedReason"`
	Err             error         `json:"-"`
}

// Device is one entry reported by the device bridge.
type Device struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// Authorized reports whether the device accepts commands.
func (d Device) Authorized() bool {
	return d.State == DeviceStateReady
}

// ScreenSize is the display resolution in pixels.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var ErrInvalidConfig = errors.New("invalid dispatch config")
var ErrAlreadyRunning = errors.New("dispatch already running")
var ErrInvalidTarget = errors.New("invalid tap target")
var ErrNoDevice = errors.New("no authorized device")
var ErrPresetNotFound = errors.New("preset not found")
var ErrExecutableNotFound = errors.New("executable not found")
var ErrPermissionDenied = errors.New("permission denied")
