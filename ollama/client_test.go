package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestModelSupportsToolCalling(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"qwen3:4b", true},
		{"llama3.2:3b", true},
		{"llama3:8b", false},
		{"llama3-gradient", false},
		{"gemma3:1b", false},
		{"unknown-model", false},
	}
	for _, tt := range tests {
		if got := ModelSupportsToolCalling(tt.model); got != tt.want {
			t.Errorf("ModelSupportsToolCalling(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestNormalizeModelName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Gemma3", "gemma3:latest"},
		{"gemma3:1b", "gemma3:1b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeModelName(tt.in); got != tt.want {
			t.Errorf("normalizeModelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "gemma3")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestHasModel(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/tags": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"models":[{"name":"gemma3:latest","model":"gemma3:latest"}]}`))
		},
	})

	ok, err := c.HasModel(context.Background())
	if err != nil || !ok {
		t.Fatalf("HasModel() = %v, %v; want true", ok, err)
	}

	c.SetModel("qwen3:4b")
	ok, err = c.HasModel(context.Background())
	if err != nil || ok {
		t.Fatalf("HasModel() = %v, %v; want false", ok, err)
	}
}

func TestPullReportsProgress(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/pull": func(w http.ResponseWriter, r *http.Request) {
			enc := json.NewEncoder(w)
			_ = enc.Encode(map[string]any{"status": "pulling manifest"})
			_ = enc.Encode(map[string]any{"status": "pulling abc", "total": 100, "completed": 42})
			_ = enc.Encode(map[string]any{"status": "success"})
		},
	})

	var statuses []string
	var lastCompleted, lastTotal int64
	err := c.Pull(context.Background(), func(status string, completed, total int64) {
		statuses = append(statuses, status)
		if total > 0 {
			lastCompleted, lastTotal = completed, total
		}
	})
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if len(statuses) != 3 || statuses[2] != "success" {
		t.Errorf("statuses = %v", statuses)
	}
	if lastCompleted != 42 || lastTotal != 100 {
		t.Errorf("progress = %d/%d, want 42/100", lastCompleted, lastTotal)
	}
}

func TestUnloadSendsZeroKeepAlive(t *testing.T) {
	var body map[string]any
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/generate": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(map[string]any{"model": "gemma3", "done": true})
		},
	})

	if err := c.Unload(context.Background()); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if body["model"] != "gemma3" {
		t.Errorf("model = %v", body["model"])
	}
	if _, ok := body["keep_alive"]; !ok {
		t.Error("keep_alive must be sent")
	}

	if err := c.Load(context.Background(), 5*time.Minute); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
