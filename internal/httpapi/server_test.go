package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bloomed/internal/chat"
	"bloomed/pkg/types"
)

type mockService struct {
	ready    bool
	reply    string
	err      error
	lastMsgs []chat.Message
	lastP    chat.Params
	calls    int
}

func (m *mockService) Ready() bool { return m.ready }
func (m *mockService) Generate(ctx context.Context, msgs []chat.Message, p chat.Params) (string, error) {
	m.calls++
	m.lastMsgs = msgs
	m.lastP = p
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

var testInfo = types.ModelInfo{Backend: "remote", Provider: "DeepSeek AI", Model: "deepseek-chat", MaxTokens: 256, Temperature: 0.7, TopP: 0.95}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	svc := &mockService{reply: "Hello!"}
	rec := postChat(t, NewMux(svc, testInfo), `{"messages":[{"role":"user","content":"Hi"}],"temperature":0,"stop":["\nUSER:"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body types.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Content != "Hello!" || body.ID == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if len(svc.lastMsgs) != 1 || svc.lastMsgs[0].Role != chat.RoleUser {
		t.Fatalf("messages: %+v", svc.lastMsgs)
	}
	p := svc.lastP
	if p.MaxNewTokens != nil || p.TopP != nil {
		t.Fatalf("absent params should stay nil: %+v", p)
	}
	if p.Temperature == nil || *p.Temperature != 0 {
		t.Fatalf("explicit zero temperature lost: %v", p.Temperature)
	}
	if len(p.Stop) != 1 || p.Stop[0] != "\nUSER:" {
		t.Fatalf("stop: %q", p.Stop)
	}
}

func TestChat_RoleNormalized(t *testing.T) {
	svc := &mockService{reply: "ok"}
	rec := postChat(t, NewMux(svc, testInfo), `{"messages":[{"role":" System ","content":"be brief"},{"role":"USER","content":"x"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if svc.lastMsgs[0].Role != chat.RoleSystem || svc.lastMsgs[1].Role != chat.RoleUser {
		t.Fatalf("roles: %+v", svc.lastMsgs)
	}
}

func TestChat_BadRequests(t *testing.T) {
	cases := map[string]string{
		"bad json":      "not-json",
		"no messages":   `{"messages":[]}`,
		"blank content": `{"messages":[{"role":"user","content":"   "}]}`,
		"unknown role":  `{"messages":[{"role":"tool","content":"x"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &mockService{}
			rec := postChat(t, NewMux(svc, testInfo), body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", rec.Code)
			}
			if svc.calls != 0 {
				t.Fatalf("service should not be called")
			}
			var e types.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Code != http.StatusBadRequest || e.Error == "" {
				t.Fatalf("error payload: %s", rec.Body.String())
			}
		})
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"configuration", chat.ErrConfiguration("DEEPSEEK_API_KEY is required", nil), http.StatusServiceUnavailable},
		{"generation", chat.ErrGeneration("remote", errors.New("502 Bad Gateway")), http.StatusBadGateway},
		{"wrapped configuration", fmt.Errorf("load: %w", chat.ErrConfiguration("model missing", nil)), http.StatusServiceUnavailable},
		{"other", io.EOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChat(t, NewMux(&mockService{err: tc.err}, testInfo), `{"messages":[{"role":"user","content":"hi"}]}`)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestChat_UnsupportedMediaType(t *testing.T) {
	h := NewMux(&mockService{}, testInfo)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{"messages":[]}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestChat_ContentTypeCaseInsensitive(t *testing.T) {
	h := NewMux(&mockService{reply: "ok"}, testInfo)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestChat_BodyTooLarge(t *testing.T) {
	h := NewMux(&mockService{}, testInfo)
	big := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", (1<<20)+10) + `"}]}`
	if rec := postChat(t, h, big); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", rec.Code)
	}
}

// blockService waits for cancellation; used to exercise the timeout path.
type blockService struct{}

func (blockService) Ready() bool { return true }
func (blockService) Generate(ctx context.Context, _ []chat.Message, _ chat.Params) (string, error) {
	<-ctx.Done()
	return "", chat.ErrGeneration("remote", ctx.Err())
}

func TestChat_TimeoutMaps502(t *testing.T) {
	defer SetChatTimeout(0)
	SetChatTimeout(50 * time.Millisecond)
	rec := postChat(t, NewMux(blockService{}, testInfo), `{"messages":[{"role":"user","content":"x"}]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on timeout, got %d", rec.Code)
	}
}

func TestChat_LogsWithZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	h := NewMux(&mockService{reply: "ok"}, testInfo)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat?log=debug", bytes.NewBufferString(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "chat start") || !strings.Contains(out, "chat end") || !strings.Contains(out, "request_id") {
		t.Fatalf("missing log lines: %q", out)
	}
}

func TestModelInfo(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(&mockService{}, testInfo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/model", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var got types.ModelInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got != testInfo {
		t.Fatalf("got %+v", got)
	}
}

func TestReadyz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(&mockService{ready: true}, testInfo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(&mockService{}, testInfo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "loading") {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(&mockService{}, testInfo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"http://example.com"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{ready: true}, testInfo)
	req := httptest.NewRequest(http.MethodGet, "/v1/model", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected CORS origin echoed, got %q", got)
	}
}
