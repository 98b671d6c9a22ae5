package dls

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"github.com/sekz/ODR-PadEnc/internal/charset"
)

// PhraseTable maps a literal phrase to its replacement, applied in
// declaration order (§4.5.2 step 2). Configuration, not hard-coded.
type PhraseTable []PhraseRule

// PhraseRule is one common-phrase substitution entry.
type PhraseRule struct {
	From string
	To   string
}

// AbbreviationTable maps a whole word (case-insensitive) to its
// abbreviation, applied in declaration order (§4.5.2 step 3).
type AbbreviationTable []AbbreviationRule

// AbbreviationRule is one abbreviation entry.
type AbbreviationRule struct {
	From string
	To   string
}

// OptimizerConfig holds the Length Optimizer's configuration tables.
type OptimizerConfig struct {
	Phrases       PhraseTable
	AbbreviateEN  AbbreviationTable
	AbbreviateTH  AbbreviationTable
}

// DefaultOptimizerConfig returns the built-in tables used when no
// configuration override is supplied.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Phrases: PhraseTable{
			{From: "Now Playing", To: "♪"},
			{From: "now playing", To: "♪"},
			{From: "Live on air", To: "LIVE"},
		},
		AbbreviateEN: AbbreviationTable{
			{From: "information", To: "info"},
			{From: "tonight", To: "2nite"},
			{From: "tomorrow", To: "2morrow"},
			{From: "and", To: "&"},
			{From: "with", To: "w/"},
			{From: "featuring", To: "feat."},
			{From: "street", To: "st"},
			{From: "playing", To: "plyng"},
		},
		AbbreviateTH: AbbreviationTable{
			{From: "ประกาศ", To: "ปกศ."},
			{From: "สถานี", To: "สน."},
		},
	}
}

// Result reports the outcome of one Optimize call (§4.5.2).
type Result struct {
	Text             string
	OriginalLen      int
	OptimizedLen     int
	CompressionRatio float64
	AppliedRules     []string
	IsLossless       bool
}

// Optimizer implements the DLS Length Optimizer. It is pure and
// deterministic given its configuration tables.
type Optimizer struct {
	cfg OptimizerConfig
}

// NewOptimizer constructs an Optimizer from cfg.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	return &Optimizer{cfg: cfg}
}

// Optimize runs the fixed pipeline of §4.5.2 against text: every step
// through dedup runs unconditionally, in order. Only Smart Truncate (step
// 5) is conditional on still being over targetLen, and is the only step
// that marks the result lossy.
func (o *Optimizer) Optimize(text string, targetLen int) Result {
	res := Result{OriginalLen: len([]rune(text))}

	out := foldWidth(text)
	if out != text {
		res.AppliedRules = append(res.AppliedRules, "width_fold")
	}

	compressed := compressWhitespace(out)
	if compressed != out {
		res.AppliedRules = append(res.AppliedRules, "whitespace")
	}
	out = compressed

	substituted := applyPhrases(out, o.cfg.Phrases)
	if substituted != out {
		res.AppliedRules = append(res.AppliedRules, "phrase_substitution")
		out = substituted
	}

	table := o.cfg.AbbreviateEN
	if hasThaiConsonant(out) {
		table = o.cfg.AbbreviateTH
	}
	abbreviated := applyAbbreviations(out, table)
	if abbreviated != out {
		res.AppliedRules = append(res.AppliedRules, "abbreviation")
		out = abbreviated
	}

	deduped := removeConsecutiveDuplicateWords(out)
	if deduped != out {
		res.AppliedRules = append(res.AppliedRules, "dedup_words")
		out = deduped
	}

	res.IsLossless = true
	if len([]rune(out)) > targetLen {
		out = smartTruncate(out, targetLen)
		res.AppliedRules = append(res.AppliedRules, "smart_truncate")
		res.IsLossless = false
	}

	res.Text = out
	res.OptimizedLen = len([]rune(out))
	if res.OriginalLen > 0 {
		res.CompressionRatio = float64(res.OptimizedLen) / float64(res.OriginalLen)
	} else {
		res.CompressionRatio = 1.0
	}
	return res
}

// foldWidth narrows fullwidth/halfwidth-variant code points (e.g. fullwidth
// Latin letters and punctuation sometimes present in feed text) to their
// standard-width form, run ahead of whitespace compression since a
// fullwidth space doesn't match strings.Fields' ASCII-whitespace notion.
func foldWidth(text string) string {
	return width.Narrow.String(text)
}

// compressWhitespace collapses runs of whitespace to a single space and
// trims the result (§4.5.2 step 1).
func compressWhitespace(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

// applyPhrases performs literal, declaration-order substitution (§4.5.2
// step 2).
func applyPhrases(text string, phrases PhraseTable) string {
	out := text
	for _, p := range phrases {
		out = strings.ReplaceAll(out, p.From, p.To)
	}
	return out
}

// hasThaiConsonant reports whether text contains at least one Thai
// consonant, the selector between the English and Thai abbreviation
// tables (§4.5.2 step 3).
func hasThaiConsonant(text string) bool {
	for _, r := range text {
		if charset.Classify(r) == charset.Consonant {
			return true
		}
	}
	return false
}

// applyAbbreviations replaces whole words (case-insensitive) with their
// configured abbreviation, preserving word order and surrounding spaces.
func applyAbbreviations(text string, table AbbreviationTable) string {
	if len(table) == 0 {
		return text
	}
	lookup := make(map[string]string, len(table))
	for _, rule := range table {
		lookup[strings.ToLower(rule.From)] = rule.To
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if repl, ok := lookup[strings.ToLower(w)]; ok {
			words[i] = repl
		}
	}
	return strings.Join(words, " ")
}

// removeConsecutiveDuplicateWords drops a word immediately repeating the
// previous one, case-insensitively (§4.5.2 step 4).
func removeConsecutiveDuplicateWords(text string) string {
	words := strings.Split(text, " ")
	out := make([]string, 0, len(words))
	for i, w := range words {
		if i > 0 && strings.EqualFold(w, words[i-1]) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// smartTruncate finds the largest k <= targetLen-3 landing on a
// whitespace/punctuation boundary with k >= 0.7*targetLen, and returns
// text[:k] + "..." (§4.5.2 step 5). If no such boundary exists it falls
// back to a hard cut at targetLen-3.
func smartTruncate(text string, targetLen int) string {
	runes := []rune(text)
	maxK := targetLen - 3
	if maxK < 0 {
		maxK = 0
	}
	if maxK >= len(runes) {
		return text
	}
	minK := int(0.7 * float64(targetLen))

	best := -1
	for k := maxK; k >= minK && k >= 0; k-- {
		if k == 0 || k >= len(runes) {
			continue
		}
		if isBoundaryRune(runes[k]) || isBoundaryRune(runes[k-1]) {
			best = k
			break
		}
	}
	if best < 0 {
		best = maxK
	}
	if best < 0 {
		best = 0
	}
	return fmt.Sprintf("%s...", string(runes[:best]))
}

func isBoundaryRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', '.', ';', ':', '!', '?':
		return true
	default:
		return false
	}
}
