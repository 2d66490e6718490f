package dispatcher

import "time"

// reportLoop publishes progress until the run stops.
func (r *Run) reportLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.publish()
		}
	}
}

func (r *Run) publish() {
	progress := r.Progress()
	r.metrics.SetTapRate(progress.Rate)
	if r.reporter != nil {
		r.reporter(progress)
	}
}
