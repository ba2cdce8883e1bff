package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"legal-smart-go/internal/config"
	"legal-smart-go/pkg/upstream"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o-mini",
	})
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		if req["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model: %v", req["model"])
		}
		if stream, ok := req["stream"].(bool); !ok || stream {
			t.Error("Complete must send stream=false")
		}

		// 校验多段用户内容的请求形状
		msgs := req["messages"].([]interface{})
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		user := msgs[1].(map[string]interface{})
		parts := user["content"].([]interface{})
		first := parts[0].(map[string]interface{})
		if first["type"] != "text" || first["text"] != "คำถาม" {
			t.Errorf("unexpected text part: %v", first)
		}
		second := parts[1].(map[string]interface{})
		if second["type"] != "image_url" {
			t.Errorf("unexpected image part: %v", second)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "คำตอบแรก"}},
				{"message": map[string]string{"content": "คำตอบที่สอง"}},
			},
		})
	}))
	defer srv.Close()

	messages := []ChatMessage{
		{Role: "system", Content: "คุณคือผู้ช่วย AI กฎหมาย"},
		{Role: "user", Content: []ContentPart{
			TextPart("คำถาม"),
			ImagePart("https://example.com/evidence.jpg"),
		}},
	}

	answer, err := newTestClient(srv.URL).Complete(context.Background(), messages)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if answer != "คำตอบแรก" {
		t.Errorf("expected the first choice verbatim, got %q", answer)
	}
}

func TestCompleteQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), []ChatMessage{{Role: "user", Content: "q"}})
	var upErr *upstream.Error
	if !errors.As(err, &upErr) || upErr.Kind != upstream.KindQuota {
		t.Errorf("expected quota upstream error, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), []ChatMessage{{Role: "user", Content: "q"}})
	var upErr *upstream.Error
	if !errors.As(err, &upErr) || upErr.Kind != upstream.KindMalformed {
		t.Errorf("expected malformed upstream error, got %v", err)
	}
}

// collectWriter implements MessageWriter, collecting streamed chunks.
type collectWriter struct {
	chunks []string
}

func (c *collectWriter) WriteMessage(messageType int, data []byte) error {
	c.chunks = append(c.chunks, string(data))
	return nil
}

func TestStreamChatMessagesRelaysChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if stream, ok := req["stream"].(bool); !ok || !stream {
			t.Error("StreamChatMessages must send stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"content\":\"ปรับ\"}}]}\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"หนึ่งหมื่น\"}}]}\n" +
				"data: [DONE]\n"))
	}))
	defer srv.Close()

	writer := &collectWriter{}
	err := newTestClient(srv.URL).StreamChatMessages(context.Background(),
		[]ChatMessage{{Role: "user", Content: "โทษปรับเท่าไร"}}, writer)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	if strings.Join(writer.chunks, "") != "ปรับหนึ่งหมื่น" {
		t.Errorf("unexpected streamed content: %v", writer.chunks)
	}
}
