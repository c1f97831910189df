package e2e

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"bloomed/internal/persona"
	"bloomed/pkg/types"
)

func TestE2E_ChatInjectsPersonaAndTruncates(t *testing.T) {
	up, upSrv := newUpstream(t, "Hello world. STOP here")
	srv, _, _ := newServer(t, upSrv.URL, "sk-e2e")

	resp, body := postJSON(t, srv.URL+"/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "Hi"}},
		"stop":     []string{"STOP", "world"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out types.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Content != "Hello world." || out.ID == "" {
		t.Fatalf("unexpected reply: %+v", out)
	}

	req := up.last(t)
	msgs, _ := req["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("upstream messages: %v", req["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != persona.DefaultSystem() {
		t.Fatalf("persona not injected: %v", first)
	}
	if req["max_tokens"] != float64(256) || req["temperature"] != 0.7 || req["top_p"] != 0.95 || req["model"] != "deepseek-chat" {
		t.Fatalf("defaults not forwarded: %v", req)
	}
}

func TestE2E_CallerSystemMessageWins(t *testing.T) {
	up, upSrv := newUpstream(t, "  terse.  ")
	srv, _, _ := newServer(t, upSrv.URL, "sk-e2e")

	resp, body := postJSON(t, srv.URL+"/v1/chat", map[string]any{
		"messages":       []map[string]string{{"role": "system", "content": "Be terse."}, {"role": "user", "content": "Hi"}},
		"max_new_tokens": 8,
	})
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"content":"terse."`) {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	req := up.last(t)
	msgs, _ := req["messages"].([]any)
	first, _ := msgs[0].(map[string]any)
	if len(msgs) != 2 || first["content"] != "Be terse." || req["max_tokens"] != float64(8) {
		t.Fatalf("conversation altered: %v", req)
	}
}

func TestE2E_MissingAPIKeyIs503EveryTime(t *testing.T) {
	_, upSrv := newUpstream(t, "unused")
	srv, svc, builds := newServer(t, upSrv.URL, "")

	for i := 0; i < 2; i++ {
		resp, body := postJSON(t, srv.URL+"/v1/chat", map[string]any{
			"messages": []map[string]string{{"role": "user", "content": "Hi"}},
		})
		if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(string(body), "DEEPSEEK_API_KEY") {
			t.Fatalf("call %d: status=%d body=%s", i, resp.StatusCode, body)
		}
	}
	if svc.Ready() {
		t.Fatalf("service must not be ready")
	}
	if got := atomic.LoadInt32(builds); got != 2 {
		t.Fatalf("failed construction should be retried per call, builds=%d", got)
	}
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", resp.StatusCode)
	}
}

func TestE2E_UpstreamFailureIs502(t *testing.T) {
	up, upSrv := newUpstream(t, "unused")
	up.setStatus(http.StatusInternalServerError)
	srv, _, _ := newServer(t, upSrv.URL, "sk-e2e")

	resp, body := postJSON(t, srv.URL+"/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "Hi"}},
	})
	if resp.StatusCode != http.StatusBadGateway || !strings.Contains(string(body), "upstream exploded") {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
}

func TestE2E_ConcurrentFirstRequestsBuildOnce(t *testing.T) {
	_, upSrv := newUpstream(t, "ok")
	srv, svc, builds := newServer(t, upSrv.URL, "sk-e2e")

	const n = 8
	var wg sync.WaitGroup
	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _ := postJSON(t, srv.URL+"/v1/chat", map[string]any{
				"messages": []map[string]string{{"role": "user", "content": "Hi"}},
			})
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)
	for c := range codes {
		if c != http.StatusOK {
			t.Fatalf("status=%d", c)
		}
	}
	if got := atomic.LoadInt32(builds); got != 1 {
		t.Fatalf("builds=%d want 1", got)
	}
	if !svc.Ready() {
		t.Fatalf("expected ready")
	}
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status=%d", resp.StatusCode)
	}
}

func TestE2E_ModelInfo(t *testing.T) {
	_, upSrv := newUpstream(t, "unused")
	srv, _, _ := newServer(t, upSrv.URL, "sk-e2e")
	resp, body := httpGet(t, srv.URL+"/v1/model")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var info types.ModelInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("json: %v", err)
	}
	if info.BaseURL != upSrv.URL || info.Model != "deepseek-chat" {
		t.Fatalf("info=%+v", info)
	}
}
