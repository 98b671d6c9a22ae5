package dls

import (
	"time"

	"github.com/sekz/ODR-PadEnc/internal/metrics"
)

// RunSweeper is the background sweeper of §4.5.1: on every tick it drops
// expired messages and prunes dedup-window entries outside the window. It
// terminates on Stop; callers join by waiting on the returned done
// channel.
func (e *Engine) RunSweeper() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(e.cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				e.sweepTick(time.Now())
			case <-e.stop:
				return
			}
		}
	}()
	return done
}

func (e *Engine) sweepTick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, msg := range e.messages {
		if now.After(msg.ExpiresAt) {
			delete(e.messages, id)
			e.order = removeID(e.order, id)
		}
	}

	for fp, seenAt := range e.dedup {
		if now.Sub(seenAt) > e.cfg.DedupWindow {
			delete(e.dedup, fp)
		}
	}

	metrics.DLSQueueSize.Set(float64(len(e.messages)))
}
