package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"legal-smart-go/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// mockChatService implements service.ChatService for testing.
type mockChatService struct {
	result *model.ChatResult
	err    error
	calls  int
}

func (m *mockChatService) Answer(ctx context.Context, query model.ChatQuery) (*model.ChatResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockChatService) StreamAnswer(ctx context.Context, conversationID, question string, ws *websocket.Conn) error {
	return nil
}

func newChatRouter(svc *mockChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chat", NewChatHandler(svc).Ask)
	return r
}

func TestAskReturnsAnswerAndContext(t *testing.T) {
	svc := &mockChatService{result: &model.ChatResult{
		Answer:  "ปรับไม่เกินหนึ่งหมื่นบาท",
		Context: "- หัวข้อ: อัตราโทษ\n  เนื้อหา: ปรับไม่เกินหนึ่งหมื่นบาท",
	}}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"โทษปรับเท่าไร"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["answer"] != svc.result.Answer {
		t.Errorf("unexpected answer: %q", resp["answer"])
	}
	if resp["context"] != svc.result.Context {
		t.Errorf("unexpected context: %q", resp["context"])
	}
}

func TestAskServiceFailureReturnsGenericError(t *testing.T) {
	svc := &mockChatService{err: errors.New("embedding (auth): embedding api returned non-200 status: 401")}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"คำถาม"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("failure response must carry the error message")
	}
	if _, hasAnswer := resp["answer"]; hasAnswer {
		t.Error("no partial result may be returned on failure")
	}
}

func TestAskRejectsMalformedBody(t *testing.T) {
	svc := &mockChatService{result: &model.ChatResult{}}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if svc.calls != 0 {
		t.Error("malformed bodies must be rejected before any upstream call")
	}
}

func TestAskRejectsWrongFieldTypes(t *testing.T) {
	svc := &mockChatService{result: &model.ChatResult{}}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": 42}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if svc.calls != 0 {
		t.Error("wrong-typed fields must be rejected before any upstream call")
	}
}

func TestAskAllowsEmptyBodyFields(t *testing.T) {
	svc := &mockChatService{result: &model.ChatResult{Answer: "สวัสดี", Context: ""}}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an empty query, got %d", w.Code)
	}
	if svc.calls != 1 {
		t.Error("an empty query should still reach the chat service")
	}
}
