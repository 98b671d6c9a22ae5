package slideshow

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sekz/ODR-PadEnc/internal/cache"
	"github.com/sekz/ODR-PadEnc/internal/fingerprint"
	"github.com/sekz/ODR-PadEnc/internal/imagecodec"
	padlog "github.com/sekz/ODR-PadEnc/internal/log"
	"github.com/sekz/ODR-PadEnc/internal/metrics"
)

// Config configures an Engine. Zero values fall back to spec.md defaults.
// Dedup is an optional shared backend (cache.NewRedis) consulted alongside
// the engine's own fingerprint map, for deployments where more than one
// encoder instance ingests from the same image directory.
type Config struct {
	Cap             int
	MaxObjectBytes  int
	SmartSelection  bool
	DedupEnabled    bool
	RescoreInterval time.Duration
	EvictPressure   float64
	CodecTimeout    time.Duration
	MaxWidth        int
	MaxHeight       int
	TargetFormat    imagecodec.Format
	Dedup           cache.Store
}

func (c Config) withDefaults() Config {
	if c.Cap <= 0 {
		c.Cap = 50
	}
	if c.MaxObjectBytes <= 0 {
		c.MaxObjectBytes = 50 * 1024
	}
	if c.RescoreInterval <= 0 {
		c.RescoreInterval = 5 * time.Minute
	}
	if c.EvictPressure <= 0 {
		c.EvictPressure = 0.9
	}
	if c.CodecTimeout <= 0 {
		c.CodecTimeout = 2 * time.Second
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = 320
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 240
	}
	if c.TargetFormat == "" {
		c.TargetFormat = imagecodec.JPEG
	}
	return c
}

// Engine owns the image carousel: a bounded cache of Entries, a
// fingerprint->entry map, and a monotonically increasing transport id
// counter (§4.4). One mutex protects the cache; the engine never calls
// into the DLS engine while holding it (§5).
type Engine struct {
	cfg    Config
	codec  *imagecodec.Adapter
	paths  PathValidator
	logger zerolog.Logger

	mu      sync.Mutex
	byFP    map[fingerprint.Fingerprint]*Entry
	order   []fingerprint.Fingerprint // insertion order, for round-robin
	rrNext  int
	transportID atomic.Uint32

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs an Engine. codec may be nil to use imagecodec.DefaultBackend().
func New(cfg Config, codec *imagecodec.Adapter, paths PathValidator) *Engine {
	if codec == nil {
		codec = imagecodec.New(imagecodec.DefaultBackend())
	}
	if paths == nil {
		paths = AllowAllPaths{}
	}
	return &Engine{
		cfg:    cfg.withDefaults(),
		codec:  codec,
		paths:  paths,
		logger: padlog.WithComponent("slideshow"),
		byFP:   make(map[fingerprint.Fingerprint]*Entry),
		stop:   make(chan struct{}),
	}
}

// Add ingests one image file: validate path, run the codec adapter,
// dedup, analyze quality, insert, evict under pressure (§4.4 Ingest).
func (e *Engine) Add(ctx context.Context, path string) error {
	if !e.paths.Allowed(path) {
		return fmt.Errorf("%w: path %q not in an ingest root", ErrInvalidInput, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %q: %v", ErrInvalidInput, path, err)
	}

	res, err := e.codec.Process(ctx, raw, imagecodec.Options{
		MaxWidth:     e.cfg.MaxWidth,
		MaxHeight:    e.cfg.MaxHeight,
		MaxBytes:     e.cfg.MaxObjectBytes,
		TargetFormat: e.cfg.TargetFormat,
		Timeout:      e.cfg.CodecTimeout,
	})
	if err != nil {
		metrics.CodecFailuresTotal.WithLabelValues(classifyCodecError(err)).Inc()
		return fmt.Errorf("%w: codec: %v", ErrInvalidInput, err)
	}

	fp := fingerprint.OfBytes(res.Payload)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.DedupEnabled {
		if _, exists := e.byFP[fp]; exists {
			metrics.DedupHitsTotal.WithLabelValues("slideshow").Inc()
			return ErrDuplicate
		}
		if e.cfg.Dedup != nil {
			if _, ok := e.cfg.Dedup.Get(string(fp)); ok {
				metrics.DedupHitsTotal.WithLabelValues("slideshow_shared").Inc()
				return ErrDuplicate
			}
			e.cfg.Dedup.Set(string(fp), time.Now().Unix(), e.cfg.RescoreInterval)
		}
	}

	entry := &Entry{
		Fingerprint: fp,
		Filename:    path,
		Payload:     res.Payload,
		Format:      res.Format,
		Width:       res.Width,
		Height:      res.Height,
		Sharpness:   res.Sharpness,
		Contrast:    res.Contrast,
		Brightness:  res.Brightness,
		ByteLength:  len(res.Payload),
		CreatedAt:   time.Now(),
		Freshness:   1.0,
		Optimized:   true,
	}

	e.byFP[fp] = entry
	e.order = append(e.order, fp)

	if len(e.byFP) > e.cfg.Cap {
		if err := e.evictLocked(); err != nil {
			return err
		}
	}

	metrics.SlideshowCacheSize.Set(float64(len(e.byFP)))
	e.logger.Info().Str("fingerprint", string(fp)).Str("format", string(res.Format)).
		Int("bytes", len(res.Payload)).Msg("slideshow: added entry")
	return nil
}

func classifyCodecError(err error) string {
	switch {
	case err == nil:
		return "none"
	default:
		return "codec_error"
	}
}

// evictLocked removes the lowest evictionScore entry. Caller must hold mu.
func (e *Engine) evictLocked() error {
	var worst fingerprint.Fingerprint
	worstScore := math.Inf(1)
	found := false
	for fp, entry := range e.byFP {
		s := entry.evictionScore()
		if !found || s < worstScore {
			worst = fp
			worstScore = s
			found = true
		}
	}
	if !found {
		return ErrResourceExhausted
	}
	delete(e.byFP, worst)
	e.order = removeFingerprint(e.order, worst)
	return nil
}

func removeFingerprint(order []fingerprint.Fingerprint, target fingerprint.Fingerprint) []fingerprint.Fingerprint {
	out := order[:0:0]
	for _, fp := range order {
		if fp != target {
			out = append(out, fp)
		}
	}
	return out
}

// NextImage selects the next entry per §4.4 Selection, updates its
// lifecycle fields under the lock, and returns a cloned snapshot so
// callers never observe a mutation in flight.
func (e *Engine) NextImage() (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.SelectionDuration.WithLabelValues("slideshow").Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.order) == 0 {
		return Entry{}, ErrNoContent
	}

	var fp fingerprint.Fingerprint
	if e.cfg.SmartSelection {
		fp = e.pickSmartLocked()
	} else {
		fp = e.pickRoundRobinLocked()
	}

	entry, ok := e.byFP[fp]
	if !ok {
		return Entry{}, ErrNoContent
	}

	now := time.Now()
	hoursSince := now.Sub(entry.LastServedAt).Hours()
	if entry.LastServedAt.IsZero() {
		hoursSince = now.Sub(entry.CreatedAt).Hours()
	}
	entry.LastServedAt = now
	entry.ServeCount++
	entry.Freshness = math.Exp(-hoursSince/24.0) * (1.0 / (1.0 + 0.1*float64(entry.ServeCount)))
	entry.TransportID = e.transportID.Add(1)

	return entry.Clone(), nil
}

// pickSmartLocked implements §4.4's smart-selection scoring with the
// documented tie-breaks: oldest last-served, then fingerprint lexical
// order. Caller must hold mu.
func (e *Engine) pickSmartLocked() fingerprint.Fingerprint {
	type cand struct {
		fp    fingerprint.Fingerprint
		score float64
		last  time.Time
	}
	cands := make([]cand, 0, len(e.order))
	for _, fp := range e.order {
		entry := e.byFP[fp]
		cands = append(cands, cand{fp: fp, score: entry.score(), last: entry.LastServedAt})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if !cands[i].last.Equal(cands[j].last) {
			return cands[i].last.Before(cands[j].last)
		}
		return cands[i].fp < cands[j].fp
	})
	return cands[0].fp
}

// pickRoundRobinLocked returns entries in insertion order, wrapping
// around. Caller must hold mu.
func (e *Engine) pickRoundRobinLocked() fingerprint.Fingerprint {
	if e.rrNext >= len(e.order) {
		e.rrNext = 0
	}
	fp := e.order[e.rrNext]
	e.rrNext++
	return fp
}

// Len reports the current cache size.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// Cap reports the configured cache capacity, for the control surface's
// detailed health payload.
func (e *Engine) Cap() int {
	return e.cfg.Cap
}

// Remove deletes an entry by fingerprint, e.g. on an operator command via
// the control surface.
func (e *Engine) Remove(fp fingerprint.Fingerprint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byFP[fp]; !ok {
		return false
	}
	delete(e.byFP, fp)
	e.order = removeFingerprint(e.order, fp)
	metrics.SlideshowCacheSize.Set(float64(len(e.byFP)))
	return true
}

// Snapshot returns a cloned list of every live entry, for the control
// surface's GET /images listing.
func (e *Engine) Snapshot() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, 0, len(e.order))
	for _, fp := range e.order {
		out = append(out, e.byFP[fp].Clone())
	}
	return out
}

// Stop signals background tasks to exit. Safe to call multiple times.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}
