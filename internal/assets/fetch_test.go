package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testManifest(base string) []Asset {
	return []Asset{
		{Name: "one", Filename: "one.tflite", URL: base + "/one", Description: "first"},
		{Name: "two", Filename: "two.tflite", URL: base + "/two", Description: "second"},
	}
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	if len(m) != 3 {
		t.Fatalf("got %d assets; want 3", len(m))
	}

	seen := map[string]bool{}
	for _, a := range m {
		if a.Name == "" || a.URL == "" || !strings.HasSuffix(a.Filename, ".tflite") {
			t.Errorf("incomplete asset %+v", a)
		}
		if seen[a.Filename] {
			t.Errorf("duplicate filename %s", a.Filename)
		}
		seen[a.Filename] = true
	}
}

func TestFetch(t *testing.T) {
	payload := bytes.Repeat([]byte("pose"), 1024)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.tflite")

	var progress bytes.Buffer
	n, err := Fetch(context.Background(), srv.Client(), srv.URL, dest, &progress)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if n != int64(len(payload)) {
		t.Errorf("wrote %d bytes; want %d", n, len(payload))
	}

	got, err := os.ReadFile(dest)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("dest content mismatch (err %v)", err)
	}

	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	if !strings.Contains(progress.String(), "100.0%") {
		t.Errorf("progress = %q; want a final 100%% line", progress.String())
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.tflite")

	_, err := Fetch(context.Background(), srv.Client(), srv.URL, dest, nil)

	var statusErr *ErrHTTPStatus
	if !errors.As(err, &statusErr) || !strings.HasPrefix(statusErr.Status, "404") {
		t.Fatalf("err = %v; want 404 ErrHTTPStatus", err)
	}

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("dest should not exist after a failed download")
	}
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	dir := t.TempDir()
	if _, err := Fetch(context.Background(), srv.Client(), srv.URL, filepath.Join(dir, "m"), nil); err == nil {
		t.Fatal("expected error for empty body")
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("files left behind: %d", len(entries))
	}
}

func TestFetchAll_AllSucceed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "model "+r.URL.Path)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "models")

	summary, err := FetchAll(context.Background(), testManifest(srv.URL), FetchOptions{
		Dir:    dir,
		Client: srv.Client(),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if !summary.OK() || summary.Downloaded() != 2 {
		t.Fatalf("summary = %+v", summary)
	}

	got, err := os.ReadFile(filepath.Join(dir, "two.tflite"))
	if err != nil || string(got) != "model /two" {
		t.Errorf("two.tflite = %q, %v", got, err)
	}
}

func TestFetchAll_PlaceholdersForFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/two" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		_, _ = io.WriteString(w, "real model")
	}))
	defer srv.Close()

	dir := t.TempDir()

	summary, err := FetchAll(context.Background(), testManifest(srv.URL), FetchOptions{
		Dir:    dir,
		Client: srv.Client(),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if summary.OK() || summary.Downloaded() != 1 {
		t.Fatalf("downloaded = %d; want 1", summary.Downloaded())
	}

	one, two := summary.Results[0], summary.Results[1]
	if one.Status != StatusDownloaded {
		t.Errorf("one = %s", one.Status)
	}

	if two.Status != StatusPlaceholder || two.Err == nil || two.Size == 0 {
		t.Errorf("two = %+v", two)
	}

	got, err := os.ReadFile(filepath.Join(dir, "one.tflite"))
	if err != nil || string(got) != "real model" {
		t.Errorf("downloaded asset was overwritten: %q, %v", got, err)
	}

	placeholder, err := os.ReadFile(filepath.Join(dir, "two.tflite"))
	if err != nil || len(placeholder) == 0 {
		t.Errorf("placeholder missing: %v", err)
	}
}

func TestFetchAll_SkipsExisting(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "fresh")
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "one.tflite"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := FetchOptions{Dir: dir, Client: srv.Client(), Logger: discardLogger()}

	summary, err := FetchAll(context.Background(), testManifest(srv.URL), opts)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Results[0].Status != StatusSkipped || hits.Load() != 1 {
		t.Errorf("status = %s, hits = %d", summary.Results[0].Status, hits.Load())
	}

	opts.Force = true
	if _, err := FetchAll(context.Background(), testManifest(srv.URL), opts); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "one.tflite"))
	if string(got) != "fresh" {
		t.Errorf("forced fetch kept %q", got)
	}
}

func TestFetchAll_ForcedFailureKeepsExistingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "one.tflite")
	if err := os.WriteFile(existing, []byte("real model bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := FetchAll(context.Background(), testManifest(srv.URL), FetchOptions{
		Dir:    dir,
		Force:  true,
		Client: srv.Client(),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	one, two := summary.Results[0], summary.Results[1]
	if one.Status != StatusStale || one.Err == nil || one.Size != int64(len("real model bytes")) {
		t.Errorf("one = %+v; want stale with error", one)
	}

	got, err := os.ReadFile(existing)
	if err != nil || string(got) != "real model bytes" {
		t.Errorf("existing asset overwritten: %q, %v", got, err)
	}

	if two.Status != StatusPlaceholder {
		t.Errorf("two = %s; want placeholder", two.Status)
	}

	if summary.OK() {
		t.Error("summary should not be OK after failed downloads")
	}
}

func TestFetchAll_Timeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	summary, err := FetchAll(context.Background(), testManifest(srv.URL)[:1], FetchOptions{
		Dir:     t.TempDir(),
		Timeout: 50 * time.Millisecond,
		Client:  srv.Client(),
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	r := summary.Results[0]
	if r.Status != StatusPlaceholder || !errors.Is(r.Err, context.DeadlineExceeded) {
		t.Errorf("result = %+v", r)
	}
}

func TestFetchAll_RequiresDir(t *testing.T) {
	if _, err := FetchAll(context.Background(), DefaultManifest(), FetchOptions{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := HumanSize(tt.n); got != tt.want {
			t.Errorf("HumanSize(%d) = %q; want %q", tt.n, got, tt.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	if StatusPlaceholder.String() != "placeholder" || StatusStale.String() != "stale" || Status(9).String() != "status(9)" {
		t.Error("unexpected status names")
	}
}
