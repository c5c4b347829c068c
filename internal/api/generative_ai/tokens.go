package generativeAI

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates prompt sizes. Groq's Llama models use their own
// vocabulary, so cl100k counts are an approximation used for telemetry only.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter loads the cl100k codec. On failure it still returns a usable
// counter that estimates four characters per token, together with the error.
func NewTokenCounter() (*TokenCounter, error) {
	return newTokenCounter(tokenizer.Cl100kBase)
}

func newTokenCounter(encoding tokenizer.Encoding) (*TokenCounter, error) {
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return &TokenCounter{}, fmt.Errorf("failed to load %s tokenizer: %w", encoding, err)
	}
	return &TokenCounter{codec: codec}, nil
}

// Count falls back to four characters per token when no codec is available.
func (tc *TokenCounter) Count(text string) int {
	if tc.codec == nil {
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
