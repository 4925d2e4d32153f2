package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
)

// FakeAIClient is a scripted ai.GraphAIClient.
//
// Structured completions decode the next entry of Formats into out. Plain
// completions return Completion. Embeddings are produced by Embed, or a
// vector derived from the input length when Embed is nil.
type FakeAIClient struct {
	mu sync.Mutex

	Formats       []string
	FormatErr     error
	Completion    string
	CompletionErr error
	Embed         func(inputs []string) ([][]float32, error)
	Dim           int

	Prompts         []string
	EmbeddingInputs [][]string
}

func (f *FakeAIClient) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	return f.Completion, f.CompletionErr
}

func (f *FakeAIClient) GenerateCompletionWithFormat(_ context.Context, _ string, _ string, prompt string, out any, _ ...ai.GenerateOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if f.FormatErr != nil {
		return f.FormatErr
	}
	if len(f.Formats) == 0 {
		return errors.New("no scripted response")
	}
	next := f.Formats[0]
	f.Formats = f.Formats[1:]
	return json.Unmarshal([]byte(next), out)
}

func (f *FakeAIClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	out, err := f.GenerateEmbeddings(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *FakeAIClient) GenerateEmbeddings(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.EmbeddingInputs = append(f.EmbeddingInputs, append([]string(nil), inputs...))
	embed := f.Embed
	f.mu.Unlock()

	if embed != nil {
		return embed(inputs)
	}
	dim := f.Dim
	if dim <= 0 {
		dim = 3
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		vec := make([]float32, dim)
		vec[0] = float32(len(strings.TrimSpace(in)))
		out[i] = vec
	}
	return out, nil
}

func (f *FakeAIClient) ResetMetrics() {}

func (f *FakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

var _ ai.GraphAIClient = (*FakeAIClient)(nil)
