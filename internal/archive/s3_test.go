package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
)

type s3Request struct {
	method          string
	path            string
	contentType     string
	contentEncoding string
	body            string
}

// fakeBucketServer answers the handful of S3 calls the client makes. exists
// controls whether HeadBucket finds the bucket.
type fakeBucketServer struct {
	mu       sync.Mutex
	exists   bool
	requests []s3Request
}

func (f *fakeBucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, s3Request{
		method:          r.Method,
		path:            r.URL.Path,
		contentType:     r.Header.Get("Content-Type"),
		contentEncoding: r.Header.Get("Content-Encoding"),
		body:            string(body),
	})
	switch {
	case r.Method == http.MethodHead && !f.exists:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/snapshots":
		f.exists = true
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeBucketServer) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.method+" "+r.path)
	}
	return out
}

func newTestClient(t *testing.T, fake *fakeBucketServer, prefix string) *S3Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewS3Client(&config.ArchiveConfig{
		Endpoint:  srv.URL,
		Bucket:    "snapshots",
		Prefix:    prefix,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewS3Client_Disabled(t *testing.T) {
	t.Parallel()

	c, err := NewS3Client(nil)
	if err != nil || c != nil {
		t.Errorf("NewS3Client(nil) = %v, %v", c, err)
	}
	if _, err := NewS3Client(&config.ArchiveConfig{Bucket: "snapshots"}); err == nil {
		t.Error("expected error without endpoint")
	}
}

func TestS3Client_Upload(t *testing.T) {
	t.Parallel()

	fake := &fakeBucketServer{exists: true}
	c := newTestClient(t, fake, "/archive/")

	key, err := c.Upload(context.Background(), "2024/02/17/snapshot-x.json.gz", []byte("payload"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if key != "archive/2024/02/17/snapshot-x.json.gz" {
		t.Errorf("key = %q", key)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.requests) != 1 {
		t.Fatalf("requests = %+v", fake.requests)
	}
	got := fake.requests[0]
	if got.method != http.MethodPut || got.path != "/snapshots/archive/2024/02/17/snapshot-x.json.gz" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	if got.contentType != snapshotContentType || !strings.Contains(got.contentEncoding, snapshotContentEncoding) {
		t.Errorf("content type %q, encoding %q", got.contentType, got.contentEncoding)
	}
	if !strings.Contains(got.body, "payload") {
		t.Errorf("body = %q", got.body)
	}
}

func TestS3Client_DefaultPrefix(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeBucketServer{exists: true}, "")
	key, err := c.Upload(context.Background(), "snapshot.json.gz", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if key != "surveys/snapshot.json.gz" {
		t.Errorf("key = %q", key)
	}
}

func TestS3Client_EnsureBucket(t *testing.T) {
	t.Parallel()

	existing := &fakeBucketServer{exists: true}
	if err := newTestClient(t, existing, "").EnsureBucket(context.Background()); err != nil {
		t.Fatalf("ensure existing: %v", err)
	}
	if got := existing.methods(); len(got) != 1 || got[0] != "HEAD /snapshots" {
		t.Errorf("existing bucket calls = %v", got)
	}

	missing := &fakeBucketServer{}
	if err := newTestClient(t, missing, "").EnsureBucket(context.Background()); err != nil {
		t.Fatalf("ensure missing: %v", err)
	}
	got := missing.methods()
	if len(got) != 2 || got[0] != "HEAD /snapshots" || got[1] != "PUT /snapshots" {
		t.Errorf("missing bucket calls = %v", got)
	}
}
