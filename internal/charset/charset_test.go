package charset

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeProfileTag(t *testing.T) {
	out := Encode("สวัสดี Hello")
	require.NotEmpty(t, out)
	assert.Equal(t, ProfileTag, out[0])
}

func TestRoundTripAsciiThai(t *testing.T) {
	cases := []string{
		"สวัสดี Hello",
		"",
		"Hello, World! 123",
		"ราชการ",
		"  เว้นวรรค  ",
	}
	for _, s := range cases {
		encoded := Encode(s)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}
}

func TestRoundTripAllThaiBlock(t *testing.T) {
	var s []rune
	for r := rune(0x0E01); r <= 0x0E5B; r++ {
		s = append(s, r)
	}
	text := string(s)
	decoded, err := Decode(Encode(text))
	require.NoError(t, err)
	assert.Equal(t, text, decoded)
}

func TestEncodeFallback(t *testing.T) {
	out := Encode("héllo")
	// 'é' is outside ASCII/Thai, must fall back to '?'
	assert.Equal(t, byte('?'), out[2])
	assert.Equal(t, utf8.RuneCountInString("héllo")+1, len(out))
}

func TestDecodeInvalidProfile(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Consonant, Classify('ก'))
	assert.Equal(t, ToneMark, Classify('่'))
	assert.Equal(t, Digit, Classify('๕'))
	assert.Equal(t, AsciiPrintable, Classify('A'))
	assert.Equal(t, Other, Classify('é'))
}

func TestRequiresComplexLayout(t *testing.T) {
	assert.False(t, RequiresComplexLayout("Hello"))
	assert.False(t, RequiresComplexLayout("กขค"))
	assert.True(t, RequiresComplexLayout("ก่อน")) // mai ek tone mark
	assert.True(t, RequiresComplexLayout("สวัสดี"))
}

func TestContainsThai(t *testing.T) {
	assert.True(t, ContainsThai("Hello สวัสดี"))
	assert.False(t, ContainsThai("Hello World"))
}
