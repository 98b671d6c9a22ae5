package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTokens() TokenLists {
	return TokenLists{
		Disallowed: []string{"badword", "slur"},
		Royal:      []string{"พระบาท", "king"},
		Religious:  []string{"พระพุทธ", "sacred"},
	}
}

func TestValidatePure(t *testing.T) {
	v := New(testTokens())
	a := v.Validate("a perfectly normal announcement")
	b := v.Validate("a perfectly normal announcement")
	assert.Equal(t, a, b)
}

func TestValidateClean(t *testing.T) {
	v := New(testTokens())
	verdict := v.Validate("Now playing the top of the hour news")
	assert.True(t, verdict.IsAppropriate)
	assert.False(t, verdict.ContainsRoyal)
	assert.False(t, verdict.ContainsReligious)
	assert.Equal(t, 1.0, verdict.Sensitivity)
}

func TestValidateDisallowed(t *testing.T) {
	v := New(testTokens())
	verdict := v.Validate("this contains a badword in it")
	assert.False(t, verdict.IsAppropriate)
	assert.InDelta(t, 0.8, verdict.Sensitivity, 1e-9)
	assert.NotEmpty(t, verdict.Warnings)
}

func TestValidateSensitivityClamp(t *testing.T) {
	v := New(testTokens())
	verdict := v.Validate("badword slur badword slur badword slur")
	assert.Equal(t, 0.0, verdict.Sensitivity)
}

func TestValidateRoyalRequiresSpecialFormatting(t *testing.T) {
	v := New(testTokens())
	verdict := v.Validate("a message about the king's visit")
	assert.True(t, verdict.ContainsRoyal)
	assert.True(t, verdict.RequiresSpecialFormat)
}
