package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"chatd/internal/config"
	"chatd/internal/httpapi"
	"chatd/internal/service"
)

// fakeOllama serves /api/chat with a fixed status and body.
func fakeOllama(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeOpenAI answers chat completions with "<model>: <prompt>".
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": req.Model + ": " + req.Messages[0].Content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadURL returns a URL nothing listens on.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

// newServer runs the full stack (config, service, router) against backendURL.
func newServer(t *testing.T, kind, backendURL string, mutate ...func(*config.Config)) (*httptest.Server, string) {
	t.Helper()
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("needs /proc for system stats")
	}
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Backend.Kind = kind
	cfg.Backend.URL = backendURL
	cfg.Backend.BreakerFailures = -1
	for _, m := range mutate {
		m(&cfg)
	}
	cfg, err := cfg.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	svc, err := service.Open(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, cfg.DataDir
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodGet, url, "")
}

func httpPostJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodPost, url, body)
}

func httpDelete(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodDelete, url, "")
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rdr)
	if err != nil { t.Fatalf("new req: %v", err) }
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil { t.Fatalf("do req: %v", err) }
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func listIDs(t *testing.T, base string) []string {
	t.Helper()
	resp, body := httpGet(t, base+"/get_chats")
	if resp.StatusCode != http.StatusOK { t.Fatalf("get_chats status=%d body=%s", resp.StatusCode, body) }
	var chats []map[string]any
	if err := json.Unmarshal(body, &chats); err != nil { t.Fatalf("decode chats: %v", err) }
	ids := make([]string, 0, len(chats))
	for _, c := range chats {
		switch v := c["id"].(type) {
		case string:
			ids = append(ids, v)
		case float64:
			ids = append(ids, jsonNumber(v))
		default:
			t.Fatalf("unexpected id type %T", v)
		}
	}
	return ids
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
