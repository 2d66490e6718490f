package dispatcher

import (
	"time"

	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/telemetry"
)

// refreshLoop fires the refresh gesture on its own cadence.
func (r *Run) refreshLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
		if r.stopped() {
			return
		}

		started := time.Now()
		err := r.device.Refresh(r.ctx)
		if err != nil && r.aborted(err) {
			return
		}
		duration := time.Since(started)
		r.stats.RecordRefresh(err == nil)
		r.metrics.ObserveRefresh(domain.OutcomeFromError(err), duration)

		if err == nil {
			r.logger.Debug("refresh done",
				telemetry.EventField(telemetry.EventRefreshSuccess),
				telemetry.DurationField(duration),
			)
			continue
		}
		if domain.IsConnectionLost(err) {
			r.logger.Error("device connection lost during refresh",
				telemetry.EventField(telemetry.EventDeviceLost),
				zap.Error(err),
			)
			r.halt(domain.StopReasonDeviceLost, err)
			return
		}
		r.logger.Warn("refresh failed",
			telemetry.EventField(telemetry.EventRefreshFailure),
			zap.Error(err),
		)
	}
}
