// Package validator computes a cultural-appropriateness verdict for text
// destined for DLS or slideshow captions. Token lists are configuration,
// not hard-coded — see TokenLists — and the validator itself is pure and
// deterministic.
package validator

import (
	"fmt"
	"strings"
	"sync"
)

// TokenLists is the configuration surface for the validator: disallowed,
// royal, and religious vocabulary. Matching is case-insensitive substring
// matching on the raw text, mirroring how the reference implementation
// scans for culturally sensitive terms.
type TokenLists struct {
	Disallowed []string
	Royal      []string
	Religious  []string
}

// Verdict is the result of Validate.
type Verdict struct {
	IsAppropriate          bool
	ContainsRoyal          bool
	ContainsReligious      bool
	RequiresSpecialFormat  bool
	Sensitivity            float64
	Warnings               []string
	Suggestions            []string
}

// Validator holds configuration and exposes Validate. tokens may be
// swapped at runtime via SetTokens (e.g. a config reload), guarded by mu
// since Validate runs concurrently from the control surface's handlers.
type Validator struct {
	mu     sync.RWMutex
	tokens TokenLists
}

// New constructs a Validator from the given token configuration.
func New(tokens TokenLists) *Validator {
	return &Validator{tokens: tokens}
}

// SetTokens atomically replaces the token lists, e.g. after a config
// reload. In-flight Validate calls see either the old or the new lists,
// never a partial mix.
func (v *Validator) SetTokens(tokens TokenLists) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens = tokens
}

// Validate computes the Verdict for text. Sensitivity starts at 1.0 and is
// decreased by 0.2 per disallowed-token occurrence, clamped to [0,1].
func (v *Validator) Validate(text string) Verdict {
	v.mu.RLock()
	tokens := v.tokens
	v.mu.RUnlock()

	verdict := Verdict{IsAppropriate: true, Sensitivity: 1.0}
	lower := strings.ToLower(text)

	disallowedHits := 0
	for _, tok := range tokens.Disallowed {
		if tok == "" {
			continue
		}
		count := strings.Count(lower, strings.ToLower(tok))
		if count > 0 {
			disallowedHits += count
			verdict.IsAppropriate = false
			verdict.Warnings = append(verdict.Warnings,
				fmt.Sprintf("disallowed term detected: %q", tok))
		}
	}

	for _, tok := range tokens.Royal {
		if tok != "" && strings.Contains(lower, strings.ToLower(tok)) {
			verdict.ContainsRoyal = true
			break
		}
	}

	for _, tok := range tokens.Religious {
		if tok != "" && strings.Contains(lower, strings.ToLower(tok)) {
			verdict.ContainsReligious = true
			break
		}
	}

	verdict.RequiresSpecialFormat = verdict.ContainsRoyal

	verdict.Sensitivity = 1.0 - 0.2*float64(disallowedHits)
	if verdict.Sensitivity < 0 {
		verdict.Sensitivity = 0
	}

	if verdict.ContainsRoyal {
		verdict.Suggestions = append(verdict.Suggestions,
			"royal references detected; apply the honorific display profile")
	}
	if verdict.ContainsReligious {
		verdict.Suggestions = append(verdict.Suggestions,
			"religious references detected; review tone before broadcast")
	}

	return verdict
}
