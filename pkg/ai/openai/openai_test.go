package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GraphOpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		EmbeddingModel:  "text-embedding-3-small",
		ExtractionModel: "gpt-4.1",
		QueryModel:      "gpt-4.1",
		Dimensions:      3,
		EmbeddingURL:    srv.URL + "/v1",
		EmbeddingKey:    "test",
		ChatURL:         srv.URL + "/v1",
		ChatKey:         "test",
	})
}

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4.1",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(b)
}

func TestGenerateEmbeddings_SkipsBlankInputs(t *testing.T) {
	var sent []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input      []string `json:"input"`
			Dimensions int      `json:"dimensions"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		sent = req.Input

		data := make([]map[string]any, 0, len(req.Input))
		for i := range req.Input {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(i + 1), 0.5},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-small",
			"usage":  map[string]any{"prompt_tokens": 4, "total_tokens": 4},
		})
	})

	out, err := client.GenerateEmbeddings(context.Background(), []string{"first", "  ", "second"})
	if err != nil {
		t.Fatalf("GenerateEmbeddings() error = %v", err)
	}
	if len(sent) != 2 || sent[0] != "first" || sent[1] != "second" {
		t.Fatalf("unexpected request inputs: %v", sent)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(out))
	}
	if out[0][0] != 1 || out[2][0] != 2 {
		t.Fatalf("vectors out of order: %v", out)
	}
	for _, v := range out[1] {
		if v != 0 {
			t.Fatalf("blank input should map to zero vector, got %v", out[1])
		}
	}
	if len(out[0]) != 3 {
		t.Fatalf("vector should be padded to 3 dimensions, got %d", len(out[0]))
	}
	if got := client.GetMetrics().InputTokens; got != 4 {
		t.Fatalf("expected 4 input tokens, got %d", got)
	}
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	type extraction struct {
		Nodes []string `json:"nodes"`
	}

	var format map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		format, _ = req["response_format"].(map[string]any)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatResponse(`{"nodes": ["OpenAI", "GPT-4.1"]}`))
	})

	var out extraction
	err := client.GenerateCompletionWithFormat(context.Background(), "graph", "graph extraction", "text", &out)
	if err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Nodes) != 2 || out.Nodes[1] != "GPT-4.1" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", format)
	}
}

func TestGenerateCompletion_MetricsAndReset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatResponse("Nvidia released Blackwell."))
	})

	answer, err := client.GenerateCompletion(context.Background(), "question", ai.WithTemperature(0))
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}
	if answer != "Nvidia released Blackwell." {
		t.Fatalf("unexpected answer %q", answer)
	}

	m := client.GetMetrics()
	if m.TotalTokens != 15 || m.Requests != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	client.ResetMetrics()
	if m := client.GetMetrics(); m.TotalTokens != 0 || m.Requests != 0 {
		t.Fatalf("metrics not reset: %+v", m)
	}
}
