package ai

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// EmbeddingEncoding is the tokenizer used by the OpenAI embedding models.
	EmbeddingEncoding = "cl100k_base"
	// MaxEmbeddingTokens is the input limit of text-embedding-3-*.
	MaxEmbeddingTokens = 8191
)

var (
	encMu     sync.Mutex
	encodings = map[string]*tiktoken.Tiktoken{}
)

func encoding(name string) (*tiktoken.Tiktoken, error) {
	encMu.Lock()
	defer encMu.Unlock()

	if enc, ok := encodings[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", name, err)
	}
	encodings[name] = enc
	return enc, nil
}

// CountTokens returns the number of tokens text encodes to.
func CountTokens(text string, encodingName string) (int, error) {
	enc, err := encoding(encodingName)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// TruncateTokens cuts text down to at most maxTokens tokens. Text within the
// limit is returned unchanged.
func TruncateTokens(text string, encodingName string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return text, nil
	}
	enc, err := encoding(encodingName)
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, nil
	}
	return enc.Decode(tokens[:maxTokens]), nil
}
