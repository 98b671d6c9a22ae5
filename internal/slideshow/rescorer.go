package slideshow

import (
	"math"
	"time"
)

// RunRescorer is the background rescorer of §4.4: on every tick it
// recomputes freshness for all entries and evicts under capacity
// pressure > 90% (or cfg.EvictPressure). It terminates on Stop; callers
// join by waiting on the returned done channel.
func (e *Engine) RunRescorer() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(e.cfg.RescoreInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				e.rescoreTick()
			case <-e.stop:
				return
			}
		}
	}()
	return done
}

func (e *Engine) rescoreTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for _, fp := range e.order {
		entry := e.byFP[fp]
		hoursSince := now.Sub(entry.LastServedAt).Hours()
		if entry.LastServedAt.IsZero() {
			hoursSince = now.Sub(entry.CreatedAt).Hours()
		}
		entry.Freshness = math.Exp(-hoursSince/24.0) * (1.0 / (1.0 + 0.1*float64(entry.ServeCount)))
	}

	pressure := float64(len(e.order)) / float64(e.cfg.Cap)
	if pressure > e.cfg.EvictPressure {
		_ = e.evictLocked()
	}
}
