package dls

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/sekz/ODR-PadEnc/internal/cache"
	"github.com/sekz/ODR-PadEnc/internal/charset"
	"github.com/sekz/ODR-PadEnc/internal/fingerprint"
	padlog "github.com/sekz/ODR-PadEnc/internal/log"
	"github.com/sekz/ODR-PadEnc/internal/metrics"
)

// Config configures an Engine. Zero values fall back to spec.md defaults.
// Dedup is optional; when set (typically cache.NewRedis, for an
// active/standby pair sharing one dedup history) it is consulted alongside
// the engine's own in-process index so a duplicate admitted on one instance
// is also rejected on its peer.
type Config struct {
	MaxLen        int
	DedupWindow   time.Duration
	DefaultTTL    time.Duration
	SweepInterval time.Duration
	Dedup         cache.Store
}

func (c Config) withDefaults() Config {
	if c.MaxLen <= 0 {
		c.MaxLen = 128
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = time.Hour
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 24 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	return c
}

// AddRequest is the caller-supplied admission request (§4.5.1 Admission).
type AddRequest struct {
	SourceID          string
	Text              string
	Priority          Priority
	Context           Context
	Source            Source
	Importance        float64
	MaxSends          int
	MinRepeatInterval time.Duration
	ExpiresAt         time.Time // zero = CreatedAt + Config.DefaultTTL
	Metadata          map[string]string
}

// Engine owns the DLS priority queue: messages keyed by an internal id, a
// fingerprint→timestamp dedup index, and the Length Optimizer (§4.5.1).
// One mutex protects both maps; the engine never calls into the slideshow
// engine while holding it (§5).
type Engine struct {
	cfg       Config
	optimizer *Optimizer
	logger    zerolog.Logger

	mu       sync.Mutex
	messages map[uint64]*Message
	order    []uint64
	nextID   uint64
	dedup    map[fingerprint.Fingerprint]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs an Engine. optimizer may be nil to use
// NewOptimizer(DefaultOptimizerConfig()).
func New(cfg Config, optimizer *Optimizer) *Engine {
	if optimizer == nil {
		optimizer = NewOptimizer(DefaultOptimizerConfig())
	}
	return &Engine{
		cfg:       cfg.withDefaults(),
		optimizer: optimizer,
		logger:    padlog.WithComponent("dls"),
		messages:  make(map[uint64]*Message),
		dedup:     make(map[fingerprint.Fingerprint]time.Time),
		stop:      make(chan struct{}),
	}
}

// normalizeText applies Unicode NFC normalization (so visually identical
// text always fingerprints the same, regardless of composed/decomposed
// input), strips control characters, and collapses whitespace (§4.5.1
// Admission step 1).
func normalizeText(text string) string {
	composed := norm.NFC.String(text)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, composed)
	return compressWhitespace(stripped)
}

// Add admits one message: normalize, dedup, optimize if over length, set
// defaults, insert (§4.5.1 Admission).
func (e *Engine) Add(req AddRequest) (Message, error) {
	return e.addAt(req, time.Now())
}

func (e *Engine) addAt(req AddRequest, now time.Time) (Message, error) {
	normalized := normalizeText(req.Text)
	if normalized == "" {
		return Message{}, fmt.Errorf("%w: empty text after normalization", ErrInvalidInput)
	}

	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = uuid.NewString()
	}

	fp := fingerprint.OfText(normalized)

	e.mu.Lock()
	defer e.mu.Unlock()

	if seenAt, ok := e.dedup[fp]; ok && now.Sub(seenAt) <= e.cfg.DedupWindow {
		metrics.DedupHitsTotal.WithLabelValues("dls").Inc()
		return Message{}, ErrDuplicate
	}
	if e.cfg.Dedup != nil {
		if _, ok := e.cfg.Dedup.Get(string(fp)); ok {
			metrics.DedupHitsTotal.WithLabelValues("dls_shared").Inc()
			return Message{}, ErrDuplicate
		}
	}

	text := normalized
	if len([]rune(text)) > e.cfg.MaxLen {
		result := e.optimizer.Optimize(text, e.cfg.MaxLen)
		text = result.Text
		if len([]rune(text)) > e.cfg.MaxLen {
			text = string([]rune(text)[:e.cfg.MaxLen])
		}
	}

	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(e.cfg.DefaultTTL)
	}

	msg := &Message{
		SourceID:          sourceID,
		Fingerprint:       fp,
		Text:              text,
		IsThai:            charset.ContainsThai(text),
		Priority:          req.Priority,
		Context:           req.Context,
		Source:            req.Source,
		CreatedAt:         now,
		ExpiresAt:         expiresAt,
		MaxSends:          req.MaxSends,
		MinRepeatInterval: req.MinRepeatInterval,
		Importance:        req.Importance,
		Metadata:          req.Metadata,
	}

	e.nextID++
	id := e.nextID
	e.messages[id] = msg
	e.order = append(e.order, id)
	e.dedup[fp] = now
	if e.cfg.Dedup != nil {
		e.cfg.Dedup.Set(string(fp), now.Unix(), e.cfg.DedupWindow)
	}

	metrics.DLSQueueSize.Set(float64(len(e.messages)))
	e.logger.Info().Str("source_id", sourceID).Str("priority", req.Priority.String()).
		Int("len", len([]rune(text))).Msg("dls: admitted message")

	return msg.Clone(), nil
}

// Next selects and marks-sent the best candidate under criteria (§4.5.1
// Selection).
func (e *Engine) Next(criteria SelectionCriteria) (Message, error) {
	return e.nextAt(criteria, time.Now())
}

func (e *Engine) nextAt(criteria SelectionCriteria, now time.Time) (Message, error) {
	start := now
	defer func() {
		metrics.SelectionDuration.WithLabelValues("dls").Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	type cand struct {
		id    uint64
		msg   *Message
		score float64
	}

	var cands []cand
	for _, id := range e.order {
		msg, ok := e.messages[id]
		if !ok {
			continue
		}
		if !passesFilter(msg, criteria, now) {
			continue
		}
		score := scoreMessage(msg, criteria, now)
		cands = append(cands, cand{id: id, msg: msg, score: score})
	}

	if len(cands) == 0 {
		return Message{}, ErrNoMatch
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if !cands[i].msg.CreatedAt.Equal(cands[j].msg.CreatedAt) {
			return cands[i].msg.CreatedAt.Before(cands[j].msg.CreatedAt)
		}
		return cands[i].msg.SourceID < cands[j].msg.SourceID
	})

	winner := cands[0].msg
	winner.LastSent = now
	winner.SendCount++

	return winner.Clone(), nil
}

// passesFilter implements the candidate drop rules of §4.5.1 Selection.
func passesFilter(msg *Message, c SelectionCriteria, now time.Time) bool {
	if now.After(msg.ExpiresAt) {
		return false
	}
	if msg.Priority < c.MinPriority || msg.Priority > c.MaxPriority {
		return false
	}
	if c.MaxAge > 0 && now.Sub(msg.CreatedAt) > c.MaxAge {
		return false
	}
	if len(c.AllowedSources) > 0 && !containsSource(c.AllowedSources, msg.Source) {
		return false
	}
	if containsSource(c.BlockedSources, msg.Source) {
		return false
	}
	if !c.AllowRepeats && msg.SendCount > 0 {
		return false
	}
	if c.MaxRepeatCount > 0 && msg.SendCount >= c.MaxRepeatCount {
		return false
	}
	if c.MinRepeatInterval > 0 && !msg.LastSent.IsZero() && now.Sub(msg.LastSent) < c.MinRepeatInterval {
		return false
	}
	if msg.MaxSends > 0 && msg.SendCount >= msg.MaxSends {
		return false
	}
	if c.MaxTextLength > 0 && len([]rune(msg.Text)) > c.MaxTextLength {
		return false
	}
	return true
}

func containsSource(list []Source, s Source) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// scoreMessage implements §4.5.1's default scoring function.
func scoreMessage(msg *Message, c SelectionCriteria, now time.Time) float64 {
	ageHours := now.Sub(msg.CreatedAt).Hours()
	score := 0.1*float64(int(Background)-int(msg.Priority)) +
		0.3*msg.Importance +
		0.2*math.Exp(-ageHours/24.0) +
		0.1*(1.0/(1.0+0.5*float64(msg.SendCount)))

	if c.PreferThai && !msg.IsThai {
		score *= 0.8
	}
	return score
}

// Len reports the current queue size.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

// Remove deletes the first live message whose source id matches, e.g. on
// an operator command. It returns false if no live message matches.
func (e *Engine) Remove(sourceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, msg := range e.messages {
		if msg.SourceID == sourceID {
			delete(e.messages, id)
			e.order = removeID(e.order, id)
			metrics.DLSQueueSize.Set(float64(len(e.messages)))
			return true
		}
	}
	return false
}

func removeID(order []uint64, target uint64) []uint64 {
	out := order[:0:0]
	for _, id := range order {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot returns a cloned list of every live message, in insertion
// order, for the control surface's GET /messages listing.
func (e *Engine) Snapshot() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.messages[id].Clone())
	}
	return out
}

// Stop signals background tasks to exit. Safe to call multiple times.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}
