package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"words", "Home loan tenure", []string{"home", "loan", "tenure"}},
		{"punctuation split", "years. Fee: RM250!", []string{"years", ".", "fee", ":", "rm250", "!"}},
		{"symbols", "5% p.a.", []string{"5", "%", "p", ".", "a", "."}},
		{"newlines and tabs", "a\n\tb", []string{"a", "b"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, basicTokens(tt.text))
		})
	}
}

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("Hello, world", 10)
	require.Len(t, ids, 10)
	require.Len(t, attn, 10)
	require.Len(t, types, 10)

	assert.Equal(t, int64(clsToken), ids[0])
	assert.Equal(t, int64(sepToken), ids[4], "SEP after hello , world")
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}, attn)
	for _, id := range ids[1:4] {
		assert.GreaterOrEqual(t, id, int64(firstWordID))
		assert.Less(t, id, int64(vocabSize))
	}

	lower, _, _ := tok.Tokenize("hello, WORLD", 10)
	assert.Equal(t, ids[1:4], lower[1:4], "tokenization is case-insensitive")
}

func TestSimpleTokenizer_Truncates(t *testing.T) {
	ids, attn, _ := (&SimpleTokenizer{}).Tokenize("a b c d e f g h", 4)
	require.Len(t, ids, 4)
	assert.Equal(t, int64(sepToken), ids[3], "last slot is SEP")
	assert.Equal(t, []int64{1, 1, 1, 1}, attn)
}

func TestHashString(t *testing.T) {
	assert.NotZero(t, HashString("abc"))
	assert.Equal(t, HashString("abc"), HashString("abc"))
	assert.NotEqual(t, HashString("abc"), HashString("acb"))
	assert.GreaterOrEqual(t, HashString("a long sentence that overflows the accumulator several times over"), 0)
}
