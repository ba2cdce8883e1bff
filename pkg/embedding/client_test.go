package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"legal-smart-go/internal/config"
	"legal-smart-go/pkg/upstream"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.EmbeddingConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "text-embedding-3-small",
		Dimensions: 4,
	})
}

func TestCreateEmbeddingSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Input) != 1 || req.Input[0] != "โทษปรับเท่าไร" {
			t.Errorf("unexpected input: %v", req.Input)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3, 0.4}},
			},
		})
	}))
	defer srv.Close()

	vector, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "โทษปรับเท่าไร")
	if err != nil {
		t.Fatalf("embedding failed: %v", err)
	}
	if len(vector) != 4 {
		t.Errorf("expected 4 dimensions, got %d", len(vector))
	}
}

func TestCreateEmbeddingAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "คำถาม")
	if err == nil {
		t.Fatal("expected an error")
	}
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *upstream.Error, got %T", err)
	}
	if upErr.Kind != upstream.KindAuth {
		t.Errorf("expected auth kind, got %s", upErr.Kind)
	}
}

func TestCreateEmbeddingMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "คำถาม")
	var upErr *upstream.Error
	if !errors.As(err, &upErr) || upErr.Kind != upstream.KindMalformed {
		t.Errorf("expected malformed upstream error, got %v", err)
	}
}

func TestCreateEmbeddingEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "คำถาม")
	var upErr *upstream.Error
	if !errors.As(err, &upErr) || upErr.Kind != upstream.KindMalformed {
		t.Errorf("expected malformed upstream error, got %v", err)
	}
}

func TestCreateEmbeddingNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 立即关闭，模拟网络失败

	_, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), "คำถาม")
	var upErr *upstream.Error
	if !errors.As(err, &upErr) || upErr.Kind != upstream.KindNetwork {
		t.Errorf("expected network upstream error, got %v", err)
	}
}
