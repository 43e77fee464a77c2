package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingsServer(t *testing.T, handler func(req EmbeddingsRequest) EmbeddingsResponse) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(handler(req))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEmbedTexts(t *testing.T) {
	server := embeddingsServer(t, func(req EmbeddingsRequest) EmbeddingsResponse {
		resp := EmbeddingsResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, EmbeddingData{Embedding: []float64{0.1, 0.2, 0.3}})
		}
		return resp
	})

	client := NewEmbeddingsClient(server.URL, "k", "text-embedding-3-small", 3)
	vecs, err := client.EmbedTexts(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Fatalf("got %d vectors of size %d", len(vecs), len(vecs[0]))
	}
	if vecs[0][1] != float32(0.2) {
		t.Errorf("vecs[0][1] = %v", vecs[0][1])
	}
}

func TestEmbedText_Single(t *testing.T) {
	server := embeddingsServer(t, func(req EmbeddingsRequest) EmbeddingsResponse {
		if len(req.Input) != 1 || req.Input[0] != "hello" {
			t.Errorf("input = %v", req.Input)
		}
		return EmbeddingsResponse{Data: []EmbeddingData{{Embedding: []float64{1, 2}}}}
	})

	client := NewEmbeddingsClient(server.URL, "k", "m", 2)
	vec, err := client.EmbedText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vector size = %d, want 2", len(vec))
	}
}

func TestEmbedTexts_EmptyInput(t *testing.T) {
	client := NewEmbeddingsClient("http://unused", "k", "m", 2)
	if _, err := client.EmbedTexts(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestEmbedTexts_SizeMismatch(t *testing.T) {
	server := embeddingsServer(t, func(req EmbeddingsRequest) EmbeddingsResponse {
		return EmbeddingsResponse{Data: []EmbeddingData{{Embedding: []float64{1, 2, 3, 4}}}}
	})

	client := NewEmbeddingsClient(server.URL, "k", "m", 3)
	if _, err := client.EmbedTexts(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error for wrong vector size")
	}
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	server := embeddingsServer(t, func(req EmbeddingsRequest) EmbeddingsResponse {
		return EmbeddingsResponse{Data: []EmbeddingData{{Embedding: []float64{1, 2, 3}}}}
	})

	client := NewEmbeddingsClient(server.URL, "k", "m", 3)
	if _, err := client.EmbedTexts(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error when counts differ")
	}
}
