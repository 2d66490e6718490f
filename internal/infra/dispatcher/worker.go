package dispatcher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/pacing"
	"adbrush/internal/infra/telemetry"
)

func (r *Run) work(id int) {
	defer r.wg.Done()
	r.metrics.SetActiveWorkers(int(r.active.Add(1)))
	defer func() {
		r.metrics.SetActiveWorkers(int(r.active.Add(-1)))
	}()

	jitter := pacing.NewJitter(r.seed(id))
	logger := r.logger.With(telemetry.WorkerField(id))
	var failures uint64

	for {
		if r.stopped() {
			return
		}
		if err := r.gate.Wait(r.ctx); err != nil {
			return
		}
		// Checked again right before the tap so no tap starts after a stop.
		if r.stopped() {
			return
		}

		target := jitter.Target(r.target, r.cfg.TapOffset)
		started := time.Now()
		err := r.device.Tap(r.ctx, target.X, target.Y)
		if err != nil && r.aborted(err) {
			return
		}
		r.stats.RecordAttempt(err == nil)
		r.metrics.ObserveTap(domain.OutcomeFromError(err), time.Since(started))

		if err != nil {
			failures++
			if domain.IsConnectionLost(err) {
				logger.Error("device connection lost",
					telemetry.EventField(telemetry.EventDeviceLost),
					zap.Error(err),
				)
				r.halt(domain.StopReasonDeviceLost, err)
				return
			}
			logTapFailure(logger, failures, err)
		}

		if !r.sleep(jitter.NextDelay(r.cfg)) {
			return
		}
	}
}

// aborted reports whether err only reflects the run being cancelled mid-call.
func (r *Run) aborted(err error) bool {
	return r.stopped() && errors.Is(err, context.Canceled)
}

// logTapFailure logs the first failure of a worker and every Nth after it at warn.
func logTapFailure(logger *zap.Logger, failures uint64, err error) {
	fields := []zap.Field{
		telemetry.EventField(telemetry.EventTapFailure),
		telemetry.FailuresField(failures),
		zap.String("kind", string(domain.DeviceErrorKindOf(err))),
		zap.Error(err),
	}
	if failures == 1 || failures%domain.FailureLogEvery == 0 {
		logger.Warn("tap failed", fields...)
		return
	}
	logger.Debug("tap failed", fields...)
}
