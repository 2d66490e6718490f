package telemetry

import (
	"sync"
	"time"

	"adbrush/internal/domain"
)

// HealthReport is the /healthz payload.
type HealthReport struct {
	Status string            `json:"status"`
	State  domain.RunState   `json:"state"`
	RunID  string            `json:"runId,omitempty"`
	Device string            `json:"device,omitempty"`
	Target *domain.TapTarget `json:"target,omitempty"`
	Reason string            `json:"reason,omitempty"`
	Stats  *domain.RunStats  `json:"stats,omitempty"`
	Rate   float64           `json:"rate,omitempty"`
}

// HealthTracker mirrors the dispatcher state for the health endpoint.
type HealthTracker struct {
	mu     sync.RWMutex
	state  domain.RunState
	reason domain.StopReason
	runID  string
	device string
	target *domain.TapTarget
	stats  func() domain.RunStats
	now    func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{state: domain.RunStateIdle, now: time.Now}
}

// Attach binds the tracker to a started run. stats is read on every report.
func (h *HealthTracker) Attach(runID, device string, target domain.TapTarget, stats func() domain.RunStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runID = runID
	h.device = device
	h.target = &target
	h.stats = stats
}

// SetState records the latest run state.
func (h *HealthTracker) SetState(state domain.RunState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	if state == domain.RunStateRunning {
		h.reason = domain.StopReasonNone
	}
}

// SetStopReason records why the last run ended.
func (h *HealthTracker) SetStopReason(reason domain.StopReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reason = reason
}

func (h *HealthTracker) Report() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	report := HealthReport{
		Status: "ok",
		State:  h.state,
		RunID:  h.runID,
		Device: h.device,
		Target: h.target,
		Reason: string(h.reason),
	}
	if h.stats != nil {
		stats := h.stats()
		report.Stats = &stats
		if !stats.StartedAt.IsZero() {
			report.Rate = domain.Rate(stats.Successes, h.now().Sub(stats.StartedAt))
		}
	}
	if h.reason == domain.StopReasonDeviceLost {
		report.Status = "device_lost"
	}
	return report
}
