package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"bloomed/internal/backend/remote"
	"bloomed/internal/chat"
	"bloomed/internal/config"
	"bloomed/internal/httpapi"
	"bloomed/internal/persona"
)

// upstream is a fake OpenAI-compatible chat-completions endpoint.
type upstream struct {
	mu       sync.Mutex
	requests []map[string]any
	reply    string
	status   int
}

func newUpstream(t *testing.T, reply string) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{reply: reply, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer sk-e2e" {
			http.Error(w, `{"error":{"message":"unexpected request"}}`, http.StatusNotFound)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.requests = append(u.requests, body)
		status, reply := u.status, u.reply
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func (u *upstream) setStatus(code int) {
	u.mu.Lock()
	u.status = code
	u.mu.Unlock()
}

func (u *upstream) last(t *testing.T) map[string]any {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		t.Fatalf("upstream saw no requests")
	}
	return u.requests[len(u.requests)-1]
}

// newServer wires config -> remote backend -> chat.Service -> httpapi mux.
// builds counts backend constructions.
func newServer(t *testing.T, baseURL, apiKey string) (*httptest.Server, *chat.Service, *int32) {
	t.Helper()
	cfg := config.Defaults()
	cfg.BaseURL = baseURL
	cfg.APIKey = apiKey
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	var builds int32
	svc := chat.New(func(context.Context) (chat.Backend, error) {
		atomic.AddInt32(&builds, 1)
		b, err := remote.New(remote.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: cfg.Model, RequestTimeout: cfg.RequestTimeout()})
		if err != nil {
			return nil, err
		}
		return b, nil
	}, chat.Options{
		Defaults: chat.Defaults{MaxNewTokens: cfg.MaxNewTokens, Temperature: cfg.Temp(), TopP: cfg.TopPValue()},
		Persona:  persona.DefaultSystem,
		Logger:   zerolog.Nop(),
	})
	srv := httptest.NewServer(httpapi.NewMux(svc, cfg.ModelInfo()))
	t.Cleanup(srv.Close)
	return srv, svc, &builds
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}
