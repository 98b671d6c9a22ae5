package dls

import (
	"sync"
	"time"
)

// SelectionCriteria filters and biases candidates for Next (§4.5.1
// Selection, §4.5.3).
type SelectionCriteria struct {
	MinPriority Priority
	MaxPriority Priority

	MaxAge time.Duration // 0 = unlimited

	AllowedSources []Source // empty = no allow-list restriction
	BlockedSources []Source

	AllowRepeats     bool
	MaxRepeatCount   int // 0 = unlimited
	MinRepeatInterval time.Duration
	MaxSends         int // not read by the selection filter; the message-level MaxSends is the send cap

	MaxTextLength int // 0 = unlimited

	PreferThai bool
}

// defaultCriteria returns the baseline criteria used when a context has no
// dedicated override: the full priority range, no age cap, repeats not
// allowed (a message already sent once is filtered out).
func defaultCriteria() SelectionCriteria {
	return SelectionCriteria{
		MinPriority:  Emergency,
		MaxPriority:  Background,
		AllowRepeats: false,
	}
}

// ContextSelector holds the current broadcast context and a configured
// default SelectionCriteria per context (§4.5.3). current and defaults are
// mutated from the control surface's HTTP handlers (SetContext/SetDefault
// on an emergency set/clear) while the coordinator's tick loop concurrently
// reads them every interval, so both are guarded by mu.
type ContextSelector struct {
	mu       sync.RWMutex
	current  Context
	defaults map[Context]SelectionCriteria
}

// NewContextSelector builds a ContextSelector with the spec's documented
// defaults: News favors high-priority, recent content; Emergency allows
// aggressive repeats.
func NewContextSelector() *ContextSelector {
	defaults := map[Context]SelectionCriteria{
		News: {
			MinPriority:  Emergency,
			MaxPriority:  High,
			MaxAge:       30 * time.Minute,
			AllowRepeats: true,
		},
		ContextEmergency: {
			MinPriority:       Emergency,
			MaxPriority:       Emergency,
			AllowRepeats:      true,
			MaxRepeatCount:    10,
			MinRepeatInterval: 30 * time.Second,
		},
		Maintenance: {
			MinPriority:  Low,
			MaxPriority:  Background,
			AllowRepeats: true,
		},
	}
	return &ContextSelector{current: Automated, defaults: defaults}
}

// SetContext changes the current context.
func (s *ContextSelector) SetContext(c Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

// Current reports the active context.
func (s *ContextSelector) Current() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CriteriaFor returns a copy of the configured criteria for ctx, composable
// with caller overrides; contexts with no dedicated entry fall back to
// defaultCriteria.
func (s *ContextSelector) CriteriaFor(ctx Context) SelectionCriteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.defaults[ctx]; ok {
		return c
	}
	return defaultCriteria()
}

// SetDefault overrides the stored default criteria for ctx.
func (s *ContextSelector) SetDefault(ctx Context, criteria SelectionCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[ctx] = criteria
}
