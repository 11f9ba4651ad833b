package embedding

import (
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer approximates BERT basic tokenization without a vocabulary:
// text is lowercased, split on whitespace and punctuation (each punctuation
// rune is its own token), and every token is hashed into the word-piece id range.
type SimpleTokenizer struct{}

const (
	clsToken = 101
	sepToken = 102
	// Ids below firstWordID are reserved for special tokens.
	firstWordID = 1000
	vocabSize   = 30522
)

// Tokenize produces [CLS] tokens... [SEP] padded to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsToken
	attentionMask[0] = 1
	pos := 1
	for _, tok := range basicTokens(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = tokenID(tok)
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = sepToken
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// basicTokens lowercases text and splits it into words and single punctuation runes.
func basicTokens(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(unicode.ToLower(r))
		}
	}
	flush()
	return tokens
}

func tokenID(tok string) int64 {
	return int64(firstWordID + HashString(tok)%(vocabSize-firstWordID))
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
