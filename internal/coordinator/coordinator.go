// Package coordinator implements the single-threaded control loop that
// ticks the Slideshow and DLS engines, honors emergency overrides, and
// publishes read-only status snapshots (§4.6, §9 "one-way ownership").
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sekz/ODR-PadEnc/internal/charset"
	"github.com/sekz/ODR-PadEnc/internal/config"
	"github.com/sekz/ODR-PadEnc/internal/dls"
	padlog "github.com/sekz/ODR-PadEnc/internal/log"
	"github.com/sekz/ODR-PadEnc/internal/metrics"
	"github.com/sekz/ODR-PadEnc/internal/padsink"
	"github.com/sekz/ODR-PadEnc/internal/persistence"
	"github.com/sekz/ODR-PadEnc/internal/slideshow"
)

// Config configures the Coordinator's tick cadence.
type Config struct {
	SlideshowTickInterval time.Duration
	DLSTickInterval       time.Duration
	DLSEmergencyInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.SlideshowTickInterval <= 0 {
		c.SlideshowTickInterval = 10 * time.Second
	}
	if c.DLSTickInterval <= 0 {
		c.DLSTickInterval = 12 * time.Second
	}
	if c.DLSEmergencyInterval <= 0 {
		c.DLSEmergencyInterval = 3 * time.Second
	}
	return c
}

// Status is the read-only snapshot the control surface observes (§4.6
// "publishes atomic status snapshots").
type Status struct {
	SlideshowHealthy bool
	DLSHealthy       bool
	EmergencyActive  bool
	EmergencyMessage string
	Context          dls.Context
	LastSlideshowFP  string
	LastDLSSourceID  string
	LastTickAt       time.Time
}

// Coordinator owns the Slideshow Engine, the DLS Engine, and the Context
// Selector; it holds only read-only snapshots of their state and never
// calls into one engine while touching the other (§5).
type Coordinator struct {
	cfg      Config
	store    *persistence.Store
	slides   *slideshow.Engine
	messages *dls.Engine
	selector *dls.ContextSelector
	sink     padsink.Sink
	logger   zerolog.Logger

	mu             sync.Mutex
	status         Status
	lastMOTFrame   []byte
	lastDLSSegment []byte
	emergencyTimer *time.Timer

	cfgMu sync.RWMutex // guards cfg swaps during Reconfigure's drain

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// statusCheckpointInterval is how often Run persists a status checkpoint
// when store is non-nil — slow and latency-insensitive, well off the
// per-tick hot path.
const statusCheckpointInterval = 30 * time.Second

// New constructs a Coordinator. store may be nil to skip persistence. If
// store holds a previously-recorded active emergency state, it is restored
// immediately so a crash/restart doesn't silently drop an in-progress
// emergency override.
func New(cfg Config, slides *slideshow.Engine, messages *dls.Engine, selector *dls.ContextSelector, sink padsink.Sink, store *persistence.Store) *Coordinator {
	c := &Coordinator{
		cfg:      cfg.withDefaults(),
		slides:   slides,
		messages: messages,
		selector: selector,
		sink:     sink,
		store:    store,
		logger:   padlog.WithComponent("coordinator"),
		stop:     make(chan struct{}),
		status:   Status{SlideshowHealthy: true, DLSHealthy: true},
	}
	c.restoreFromStore()
	return c
}

// restoreFromStore re-applies a previously-persisted emergency override and
// loads the last-known-good status snapshot so GET /health and GET /status
// don't falsely report an empty state before the first tick completes.
func (c *Coordinator) restoreFromStore() {
	if c.store == nil {
		return
	}
	if state, err := c.store.GetEmergency(); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: restore emergency state failed")
	} else if state.Active {
		if err := c.SetEmergency(state.Message, 0); err != nil {
			c.logger.Warn().Err(err).Msg("coordinator: reapply restored emergency state failed")
		}
	}

	if rec, err := c.store.GetStatus(); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: restore status checkpoint failed")
	} else if !rec.UpdatedAt.IsZero() {
		c.mu.Lock()
		c.status.SlideshowHealthy = rec.SlideshowHealthy
		c.status.DLSHealthy = rec.DLSHealthy
		c.status.LastSlideshowFP = rec.LastSlideshowFP
		c.status.LastDLSSourceID = rec.LastDLSSourceID
		c.mu.Unlock()
	}
}

// Run starts the slideshow and DLS ticking loops. It blocks until ctx is
// cancelled or Stop is called, then joins both loops (§5 "joins are
// required on shutdown").
func (c *Coordinator) Run(ctx context.Context) error {
	c.wg.Add(2)
	go c.runSlideshowLoop(ctx)
	go c.runDLSLoop(ctx)

	if c.store != nil {
		c.wg.Add(1)
		go c.runStatusCheckpointLoop(ctx)
	}

	select {
	case <-ctx.Done():
	case <-c.stop:
	}
	c.wg.Wait()
	return nil
}

// Stop signals the tick loops (and the status checkpoint loop, when
// running) to exit. Safe to call multiple times.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Coordinator) runSlideshowLoop(ctx context.Context) {
	defer c.wg.Done()
	t := time.NewTicker(c.tickInterval())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-t.C:
			c.tickSlideshow(ctx)
		}
	}
}

func (c *Coordinator) runDLSLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		interval := c.currentDLSInterval()
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-time.After(interval):
			c.tickDLS(ctx)
		}
	}
}

// runStatusCheckpointLoop durably persists the status snapshot every
// statusCheckpointInterval, the "slow periodic status checkpoint" the
// persistence.Store doc describes — latency-insensitive and off the per-tick hot
// path, so a plain ticker is enough.
func (c *Coordinator) runStatusCheckpointLoop(ctx context.Context) {
	defer c.wg.Done()
	t := time.NewTicker(statusCheckpointInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-t.C:
			c.checkpointStatus()
		}
	}
}

func (c *Coordinator) checkpointStatus() {
	s := c.Status()
	rec := persistence.StatusRecord{
		SlideshowHealthy: s.SlideshowHealthy,
		DLSHealthy:       s.DLSHealthy,
		LastSlideshowFP:  s.LastSlideshowFP,
		LastDLSSourceID:  s.LastDLSSourceID,
		UpdatedAt:        time.Now(),
	}
	if err := c.store.PutStatus(rec); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: status checkpoint failed")
	}
}

func (c *Coordinator) tickInterval() time.Duration {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg.SlideshowTickInterval
}

func (c *Coordinator) currentDLSInterval() time.Duration {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	c.mu.Lock()
	emergency := c.status.EmergencyActive
	c.mu.Unlock()
	if emergency {
		return c.cfg.DLSEmergencyInterval
	}
	return c.cfg.DLSTickInterval
}

// tickSlideshow pulls one image, frames it, and emits it to the PAD sink.
// §5's "never block the PAD sink more than one tick" is honored by
// re-emitting the last known-good frame on NoContent or a sink error
// instead of failing the tick.
func (c *Coordinator) tickSlideshow(ctx context.Context) {
	entry, err := c.slides.NextImage()
	if err != nil {
		c.recordSlideshowOutcome("no_content", false)
		c.emitLastMOTFrame(ctx)
		return
	}

	frame := slideshow.Frame(entry, entry.TransportID)
	if err := c.sink.Write(ctx, padsink.MOTFrame, frame); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: slideshow sink write failed")
		c.recordSlideshowOutcome("error", true)
		return
	}

	c.mu.Lock()
	c.lastMOTFrame = frame
	c.status.LastSlideshowFP = string(entry.Fingerprint)
	c.status.SlideshowHealthy = true
	c.status.LastTickAt = time.Now()
	c.mu.Unlock()

	metrics.TicksTotal.WithLabelValues("slideshow", "ok").Inc()
}

func (c *Coordinator) emitLastMOTFrame(ctx context.Context) {
	c.mu.Lock()
	frame := c.lastMOTFrame
	c.mu.Unlock()
	if frame == nil {
		metrics.TicksTotal.WithLabelValues("slideshow", "no_content").Inc()
		return
	}
	if err := c.sink.Write(ctx, padsink.MOTFrame, frame); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: repeat slideshow emission failed")
	}
	metrics.TicksTotal.WithLabelValues("slideshow", "repeat").Inc()
}

func (c *Coordinator) recordSlideshowOutcome(outcome string, degraded bool) {
	c.mu.Lock()
	if degraded {
		c.status.SlideshowHealthy = false
	}
	c.mu.Unlock()
	metrics.TicksTotal.WithLabelValues("slideshow", outcome).Inc()
}

// tickDLS pulls one message under the current context's criteria, maps it
// through the Charset Mapper, and emits it. Like tickSlideshow, a
// NoMatch/sink failure falls back to re-emitting the last segment.
func (c *Coordinator) tickDLS(ctx context.Context) {
	criteria := c.selector.CriteriaFor(c.selector.Current())
	msg, err := c.messages.Next(criteria)
	if err != nil {
		c.recordDLSOutcome("no_content", false)
		c.emitLastDLSSegment(ctx)
		return
	}

	segment := charset.Encode(msg.Text)
	if err := c.sink.Write(ctx, padsink.DLSSegment, segment); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: dls sink write failed")
		c.recordDLSOutcome("error", true)
		return
	}

	c.mu.Lock()
	c.lastDLSSegment = segment
	c.status.LastDLSSourceID = msg.SourceID
	c.status.DLSHealthy = true
	c.status.LastTickAt = time.Now()
	c.mu.Unlock()

	metrics.TicksTotal.WithLabelValues("dls", "ok").Inc()
}

func (c *Coordinator) emitLastDLSSegment(ctx context.Context) {
	c.mu.Lock()
	segment := c.lastDLSSegment
	c.mu.Unlock()
	if segment == nil {
		metrics.TicksTotal.WithLabelValues("dls", "no_content").Inc()
		return
	}
	if err := c.sink.Write(ctx, padsink.DLSSegment, segment); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: repeat dls emission failed")
	}
	metrics.TicksTotal.WithLabelValues("dls", "repeat").Inc()
}

func (c *Coordinator) recordDLSOutcome(outcome string, degraded bool) {
	c.mu.Lock()
	if degraded {
		c.status.DLSHealthy = false
	}
	c.mu.Unlock()
	metrics.TicksTotal.WithLabelValues("dls", outcome).Inc()
}

// Status returns a copy of the current status snapshot (§4.6).
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.Context = c.selector.Current()
	return s
}

// SetEmergency forces context = Emergency, injects an Emergency-priority
// DLS message (max_sends = 10), and arms an auto-clear timer if duration
// is non-zero (§4.6).
func (c *Coordinator) SetEmergency(message string, duration time.Duration) error {
	c.selector.SetContext(dls.ContextEmergency)

	_, err := c.messages.Add(dls.AddRequest{
		SourceID: "emergency",
		Text:     message,
		Priority: dls.Emergency,
		Context:  dls.ContextEmergency,
		Source:   dls.EmergencySys,
		MaxSends: 10,
	})
	if err != nil && err != dls.ErrDuplicate {
		return fmt.Errorf("coordinator: inject emergency message: %w", err)
	}

	c.mu.Lock()
	c.status.EmergencyActive = true
	c.status.EmergencyMessage = message
	if c.emergencyTimer != nil {
		c.emergencyTimer.Stop()
		c.emergencyTimer = nil
	}
	if duration > 0 {
		c.emergencyTimer = time.AfterFunc(duration, func() { _ = c.ClearEmergency() })
	}
	c.mu.Unlock()

	metrics.EmergencyActive.Set(1)
	c.persistEmergency(true, message)
	return nil
}

// ClearEmergency clears the emergency flag and restores automated
// context selection.
func (c *Coordinator) ClearEmergency() error {
	c.selector.SetContext(dls.Automated)

	c.mu.Lock()
	c.status.EmergencyActive = false
	c.status.EmergencyMessage = ""
	if c.emergencyTimer != nil {
		c.emergencyTimer.Stop()
		c.emergencyTimer = nil
	}
	c.mu.Unlock()

	metrics.EmergencyActive.Set(0)
	c.persistEmergency(false, "")
	return nil
}

func (c *Coordinator) persistEmergency(active bool, message string) {
	if c.store == nil {
		return
	}
	state := persistence.EmergencyState{Active: active, Message: message, SetAt: time.Now()}
	if err := c.store.PutEmergency(state); err != nil {
		c.logger.Warn().Err(err).Msg("coordinator: persist emergency state failed")
	}
}

// Reconfigure drains the current tick period before swapping the tick
// cadence, per §5's reconfigure-drains-first contract.
func (c *Coordinator) Reconfigure(cfg Config) {
	config.WaitDrain(c.tickInterval())

	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.cfg = cfg.withDefaults()
}
