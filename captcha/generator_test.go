package captcha

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ooiai/neocrates/errors"
)

func TestGenerateNumeric_ValidLengths(t *testing.T) {
	for length := NumericMinLength; length <= NumericMaxLength; length++ {
		code, err := GenerateNumeric(length)
		require.NoError(t, err)
		require.Len(t, code, length)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "unexpected character %q in %q", c, code)
		}
	}
}

func TestGenerateNumeric_DefaultLength(t *testing.T) {
	code, err := GenerateNumeric(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestGenerateNumeric_OutOfRange(t *testing.T) {
	for _, length := range []int{-1, 1, 3, 9, 100} {
		_, err := GenerateNumeric(length)
		require.Error(t, err, "length %d should be rejected", length)
		assert.True(t, errors.IsValidation(err))
	}
}

func TestGenerateAlphanumeric_ValidLengths(t *testing.T) {
	for length := AlphanumericMinLength; length <= AlphanumericMaxLength; length++ {
		code, err := GenerateAlphanumeric(length)
		require.NoError(t, err)
		require.Len(t, code, length)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(alphaCharset, c),
				"character %q of %q outside retained alphabet", c, code)
		}
	}
}

func TestGenerateAlphanumeric_ExcludesConfusableGlyphs(t *testing.T) {
	// The retained alphabet must not contain 0, O, 1, I or l.
	for _, banned := range "0O1Il" {
		assert.False(t, strings.ContainsRune(alphaCharset, banned))
	}

	for i := 0; i < 50; i++ {
		code, err := GenerateAlphanumeric(10)
		require.NoError(t, err)
		assert.NotContainsf(t, code, "0", "code %q", code)
		assert.NotContainsf(t, code, "O", "code %q", code)
		assert.NotContainsf(t, code, "1", "code %q", code)
		assert.NotContainsf(t, code, "I", "code %q", code)
		assert.NotContainsf(t, code, "l", "code %q", code)
	}
}

func TestGenerateAlphanumeric_OutOfRange(t *testing.T) {
	for _, length := range []int{-1, 3, 11} {
		_, err := GenerateAlphanumeric(length)
		require.Error(t, err, "length %d should be rejected", length)
		assert.True(t, errors.IsValidation(err))
	}
}

func TestGenerateNumeric_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		code, err := GenerateNumeric(8)
		require.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "30 generations should not all collide")
}
