// Package tokenizer counts tokens the way the embedding model does.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"document-processor/internal/models"
)

// Encoding is the BPE encoding shared with the text-embedding model family.
const Encoding = "cl100k_base"

var loaderOnce sync.Once

// Tokenizer wraps a single fixed encoding. It is safe for concurrent use.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding tables. The tables are embedded in the binary, so a
// failure here means the tables are corrupt.
func New() (*Tokenizer, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", Encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Tokenize encodes text. Special-token markers in the text are encoded as
// ordinary text.
func (t *Tokenizer) Tokenize(text string) []int {
	return t.enc.EncodeOrdinary(text)
}

// Count returns len(Tokenize(text)).
func (t *Tokenizer) Count(text string) int {
	return len(t.Tokenize(text))
}

// ValidEmbedding reports whether text fits the embedding model input with the
// given safety buffer.
func (t *Tokenizer) ValidEmbedding(text string, buffer int) (int, bool) {
	n := t.Count(text)
	return n, n+buffer <= models.MaxEmbeddingTokens
}

// costPerToken is the text-embedding-ada-002 price in dollars.
const costPerToken = 0.0004 / 1000

// CostEstimate formats the embedding price of tokens, e.g. "$0.04" or "< $0.01".
func CostEstimate(tokens int) string {
	total := float64(tokens) * costPerToken
	if total < 0.01 {
		return "< $0.01"
	}
	return fmt.Sprintf("$%.2f", total)
}
