package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/quote"
	"github.com/Lemmmy/SCHardwareSurvey/internal/repository"
	"github.com/Lemmmy/SCHardwareSurvey/internal/response"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
	"github.com/Lemmmy/SCHardwareSurvey/internal/submission"
	"github.com/Lemmmy/SCHardwareSurvey/internal/web"
)

const (
	testToken = "9b2f37a0-4c1e-4d7b-8f3a-1e2d3c4b5a69"
	testUA    = "SCHWS/1.12.2/1.0.0"
)

type brokenStore struct{}

func (brokenStore) ListStats(context.Context) ([]stats.Record, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	echo    *echo.Echo
	store   *repository.MemoryStore
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, minimal bool) *testServer {
	t.Helper()
	allow, err := stats.LoadAllowList("")
	if err != nil {
		t.Fatalf("allow-list: %v", err)
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	store := repository.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())

	gate := submission.New(submission.Options{
		Store:      store,
		AllowList:  allow,
		MCVersion:  "1.12.2",
		ModVersion: "1.0.0",
		Quotes:     quote.Builtin{},
		Logger:     zerolog.Nop(),
	})

	e := echo.New()
	e.Renderer = renderer
	submit := &SubmitHandler{Gate: gate, Metrics: m, Logger: zerolog.Nop()}
	rep := &ReportHandler{Store: store, Minimal: minimal, Metrics: m, Logger: zerolog.Nop()}
	e.POST("/submit/:token", submit.Submit)
	e.GET("/api/report", rep.Report)
	e.GET("/healthz", rep.Health)
	e.GET("/*", rep.Home)
	return &testServer{echo: e, store: store, metrics: m}
}

func (s *testServer) do(method, target, ua, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeSubmit(t *testing.T, rec *httptest.ResponseRecorder) response.SubmitResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out response.SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestSubmit_AcceptsThenRejectsDuplicate(t *testing.T) {
	s := newTestServer(t, false)
	body := `{"stats": {"os_name": "Linux", "os_architecture": "amd64"}}`

	first := decodeSubmit(t, s.do(http.MethodPost, "/submit/"+testToken, testUA, body))
	if !first.OK || first.UpliftHeadThought == "" {
		t.Fatalf("first submit = %+v", first)
	}

	second := decodeSubmit(t, s.do(http.MethodPost, "/submit/"+testToken, testUA, body))
	if second.OK || second.Error != string(submission.CodeAlreadySubmitted) {
		t.Fatalf("second submit = %+v", second)
	}
	if second.UpliftHeadThought != "" {
		t.Errorf("rejection carried a quote: %q", second.UpliftHeadThought)
	}

	if got := testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(metrics.ResultOK)); got != 1 {
		t.Errorf("ok submissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(string(submission.CodeAlreadySubmitted))); got != 1 {
		t.Errorf("duplicate submissions = %v, want 1", got)
	}
}

func TestSubmit_Rejections(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name     string
		token    string
		ua       string
		body     string
		wantCode submission.Code
		wantStat string
	}{
		{name: "BadToken", token: "not-a-token", ua: testUA, body: `{"stats": {}}`, wantCode: submission.CodeInvalidToken},
		{name: "NoStats", token: testToken, ua: testUA, body: `{}`, wantCode: submission.CodeMissingStats},
		{name: "BadClient", token: testToken, ua: "Mozilla/5.0", body: `{"stats": {}}`, wantCode: submission.CodeInvalidClient},
		{name: "UnknownStat", token: testToken, ua: testUA, body: `{"stats": {"shoe_size": "11"}}`, wantCode: submission.CodeInvalidStat, wantStat: "shoe_size"},
		{name: "JvmArgs", token: testToken, ua: testUA, body: `{"stats": {"jvm_args": "1"}}`, wantCode: submission.CodeInvalidJvmArgs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decodeSubmit(t, s.do(http.MethodPost, "/submit/"+tt.token, tt.ua, tt.body))
			if out.OK {
				t.Fatal("submission accepted")
			}
			if out.Error != string(tt.wantCode) {
				t.Errorf("error = %q, want %q", out.Error, tt.wantCode)
			}
			if out.Stat != tt.wantStat {
				t.Errorf("stat = %q, want %q", out.Stat, tt.wantStat)
			}
		})
	}
	if n := s.store.Inserts(); n != 0 {
		t.Errorf("store saw %d inserts", n)
	}
}

func TestReport_JSON(t *testing.T) {
	s := newTestServer(t, false)
	s.do(http.MethodPost, "/submit/"+testToken, testUA, `{"stats": {"os_name": "Linux", "opengl_version": "4.6.0 NVIDIA 535.54"}}`)

	rec := s.do(http.MethodGet, "/api/report", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Data struct {
			Count          int `json:"count"`
			OpenGLVersions []struct {
				Value string `json:"value"`
				Count int    `json:"count"`
			} `json:"openGLVersions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Data.Count != 1 {
		t.Errorf("count = %d, want 1", out.Data.Count)
	}
	if len(out.Data.OpenGLVersions) != 1 || out.Data.OpenGLVersions[0].Value != "4.6" {
		t.Errorf("openGLVersions = %+v", out.Data.OpenGLVersions)
	}
}

func TestReport_HTML(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/some/page", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "0 players have taken the survey") {
		t.Errorf("unexpected page:\n%s", rec.Body.String())
	}
}

func TestReport_Minimal(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "taken the survey") {
		t.Error("minimal mode rendered the report")
	}
	if rec := s.do(http.MethodGet, "/api/report", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("api status = %d, want 503", rec.Code)
	}
}

func TestReport_StoreFailure(t *testing.T) {
	e := echo.New()
	h := &ReportHandler{Store: brokenStore{}, Logger: zerolog.Nop()}
	e.GET("/healthz", h.Health)
	e.GET("/*", h.Home)

	for target, want := range map[string]int{"/": http.StatusInternalServerError, "/healthz": http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != want {
			t.Errorf("GET %s status = %d, want %d", target, rec.Code, want)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	if rec := s.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
