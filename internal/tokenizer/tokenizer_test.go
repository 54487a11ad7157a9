package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "two words", text: "hello world", expected: 2},
		{name: "single word", text: "hello", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tok.Count(tt.text))
			assert.Len(t, tok.Tokenize(tt.text), tt.expected)
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	text := "The quick brown fox jumps over the lazy dog.\nSecond line."
	assert.Equal(t, tok.Tokenize(text), tok.Tokenize(text))
}

func TestTokenize_SpecialTokenText(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Greater(t, tok.Count("before <|endoftext|> after"), 3)
	})
}

func TestValidEmbedding(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	n, ok := tok.ValidEmbedding("short text", 50)
	assert.True(t, ok)
	assert.Positive(t, n)

	long := strings.Repeat("word ", 9000)
	_, ok = tok.ValidEmbedding(long, 50)
	assert.False(t, ok)
}

func TestCostEstimate(t *testing.T) {
	assert.Equal(t, "< $0.01", CostEstimate(0))
	assert.Equal(t, "< $0.01", CostEstimate(24_999))
	assert.Equal(t, "$0.01", CostEstimate(30_000))
	assert.Equal(t, "$0.40", CostEstimate(1_000_000))
}
