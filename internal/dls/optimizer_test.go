package dls

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptimizeWithinTargetIsNoOp(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	res := o.Optimize("short text", 50)
	require.Equal(t, "short text", res.Text)
	require.True(t, res.IsLossless)
	require.Empty(t, res.AppliedRules)
}

func TestOptimizeCollapsesWhitespace(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	res := o.Optimize("too   many\t\tspaces here and more padding words", 20)
	require.Contains(t, res.AppliedRules, "whitespace")
	require.LessOrEqual(t, res.OptimizedLen, 20)
}

// TestOptimizeScenarioC matches spec.md's literal scenario C.
func TestOptimizeScenarioC(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	res := o.Optimize("information and with tonight tonight", 20)

	require.LessOrEqual(t, res.OptimizedLen, 20)
	require.Contains(t, res.AppliedRules, "abbreviation")
	require.Contains(t, res.AppliedRules, "dedup_words")
	words := strings.Fields(res.Text)
	for i := 1; i < len(words); i++ {
		require.False(t, strings.EqualFold(words[i], words[i-1]))
	}
}

func TestOptimizeMonotonicity(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	texts := []string{
		"",
		"a",
		"the quick brown fox jumps over the lazy dog repeatedly and then some more",
		"          ",
		"tonight tonight tonight information information",
	}
	for _, text := range texts {
		for _, target := range []int{3, 5, 10, 20, 50} {
			res := o.Optimize(text, target)
			require.LessOrEqualf(t, res.OptimizedLen, target,
				"text=%q target=%d", text, target)
		}
	}
}

func TestOptimizeFixedPointAfterOnePass(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	text := "the quick brown fox jumps over the lazy dog and then keeps running"
	target := 25

	first := o.Optimize(text, target)
	second := o.Optimize(first.Text, target)
	require.Equal(t, first.Text, second.Text)
}

func TestOptimizeAllWhitespaceText(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	res := o.Optimize("     \t\n   ", 10)
	require.Equal(t, "", res.Text)
	require.LessOrEqual(t, res.OptimizedLen, 10)
}

func TestOptimizeSmartTruncateAddsEllipsis(t *testing.T) {
	o := NewOptimizer(DefaultOptimizerConfig())
	res := o.Optimize("a sentence with several distinct words that will not fit", 20)
	require.False(t, res.IsLossless)
	require.Contains(t, res.AppliedRules, "smart_truncate")
	require.True(t, strings.HasSuffix(res.Text, "..."))
	require.LessOrEqual(t, res.OptimizedLen, 20)
}

func TestHasThaiConsonantSelectsThaiTable(t *testing.T) {
	require.True(t, hasThaiConsonant("สถานี"))
	require.False(t, hasThaiConsonant("station"))
}
