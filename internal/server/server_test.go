package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/quote"
	"github.com/Lemmmy/SCHardwareSurvey/internal/repository"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
	"github.com/Lemmmy/SCHardwareSurvey/internal/submission"
)

func newTestServer(t *testing.T) (*Server, *repository.MemoryStore) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", ReadTimeout: 5, WriteTimeout: 5, IdleTimeout: 60},
		Client: config.ClientConfig{MCVersion: "1.12.2", ModVersion: "1.0.0"},
	}
	allow, err := stats.LoadAllowList("")
	if err != nil {
		t.Fatalf("allow-list: %v", err)
	}
	store := repository.NewMemoryStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	gate := submission.New(submission.Options{
		Store:        store,
		AllowList:    allow,
		MCVersion:    cfg.Client.MCVersion,
		ModVersion:   cfg.Client.ModVersion,
		Quotes:       quote.Builtin{},
		QuoteTimeout: time.Second,
		Logger:       zerolog.Nop(),
	})

	srv, err := New(cfg, Options{
		Logger:   zerolog.Nop(),
		Registry: reg,
		Metrics:  m,
		Gate:     gate,
		Store:    store,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, store
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestServer_SubmitThenReport(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/submit/3f2504e0-4f89-41d3-9a0c-0305e82c3301",
		strings.NewReader(`{"stats": {"os_name": "Mac OS X", "os_architecture": "x86_64"}}`))
	req.Header.Set("User-Agent", "SCHWS/1.12.2/1.0.0")
	rec := serve(srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || !out.OK {
		t.Fatalf("submit body = %s", rec.Body.String())
	}
	if n := store.Inserts(); n != 1 {
		t.Errorf("inserts = %d", n)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Mac OS X") {
		t.Errorf("home = %d\n%s", rec.Code, rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `schws_gate_submissions_total{result="ok"} 1`) {
		t.Errorf("metrics missing submission counter:\n%s", rec.Body.String())
	}
}

func TestServer_BodyLimit(t *testing.T) {
	srv, store := newTestServer(t)

	body := `{"stats": {"cpu_model": "` + strings.Repeat("x", 2<<20) + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/submit/3f2504e0-4f89-41d3-9a0c-0305e82c3301", strings.NewReader(body))
	req.Header.Set("User-Agent", "SCHWS/1.12.2/1.0.0")
	rec := serve(srv, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}

	// Chunked upload: the limit is only hit while reading.
	req = httptest.NewRequest(http.MethodPost, "/submit/3f2504e0-4f89-41d3-9a0c-0305e82c3301", strings.NewReader(body))
	req.ContentLength = -1
	req.Header.Set("User-Agent", "SCHWS/1.12.2/1.0.0")
	rec = serve(srv, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("chunked status = %d, want 413 (body %s)", rec.Code, rec.Body.String())
	}

	if n := store.Inserts(); n != 0 {
		t.Errorf("inserts = %d", n)
	}
}

func TestServer_Shutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
