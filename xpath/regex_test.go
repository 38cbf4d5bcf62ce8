package xpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		Pattern string
		Want    string
	}{
		{Pattern: "", Want: `^(?:)$`},
		{Pattern: "a.c", Want: `^(?:a[^\n\r]c)$`},
		{Pattern: "[.]", Want: `^(?:[.])$`},
		{Pattern: `\w`, Want: `^(?:[\p{L}\p{M}\p{N}\p{S}])$`},
		{Pattern: `[\w-]`, Want: `^(?:[\p{L}\p{M}\p{N}\p{S}-])$`},
		{Pattern: `\W`, Want: `^(?:[\p{P}\p{Z}\p{C}])$`},
		{Pattern: "^a$", Want: `^(?:\^a\$)$`},
	}
	for _, c := range tests {
		t.Run(c.Pattern, func(t *testing.T) {
			got, err := translatePattern(c.Pattern)
			require.NoError(t, err)
			assert.Equal(t, c.Want, got)
		})
	}
}

func TestTranslatePatternErrors(t *testing.T) {
	tests := []string{
		"[a-[b]]",
		`[\S]`,
		`\p{IsBasicLatin}`,
		"(?:a)",
		"a)",
		"[a",
		`a\`,
		`\q`,
	}
	for _, str := range tests {
		_, err := translatePattern(str)
		assert.ErrorIs(t, err, ErrRegex, str)
	}
}
