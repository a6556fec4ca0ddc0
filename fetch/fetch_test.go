package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func newFetcher(url string) *Fetcher {
	return &Fetcher{
		URL:      url,
		Token:    "tok",
		Database: "DB1CIDR",
		Retries:  3,
		BackOff:  fastBackOff,
	}
}

func TestFetch_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" || r.URL.Query().Get("file") != "DB1CIDR" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("10.0.0.0/8\nbad\n192.168.1.0/24\n"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "ranges.txt")
	res, err := newFetcher(srv.URL).Fetch(context.Background(), dst)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Ranges != 2 {
		t.Errorf("Ranges = %d, want 2", res.Ranges)
	}
	if res.Member != "" {
		t.Errorf("Member = %q, want empty", res.Member)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.HasPrefix(string(data), "10.0.0.0/8\n") {
		t.Errorf("unexpected output %q", data)
	}
}

func TestFetch_ZipPayload(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"LICENSE.TXT":       "license",
		"IP2LOCATION-X.CIDR": "1.0.0.0/24\n2.0.0.0/16\n3.0.0.0/8\n",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		_, _ = w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "ranges.txt")
	res, err := newFetcher(srv.URL).Fetch(context.Background(), dst)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Member != "IP2LOCATION-X.CIDR" {
		t.Errorf("Member = %q", res.Member)
	}
	if res.Ranges != 3 {
		t.Errorf("Ranges = %d, want 3", res.Ranges)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("10.0.0.0/8\n"))
	}))
	defer srv.Close()

	_, err := newFetcher(srv.URL).Fetch(context.Background(), filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "out.txt")
	_, err := newFetcher(srv.URL).Fetch(context.Background(), dst)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("output file should not exist after a failed download")
	}
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := newFetcher(srv.URL).Fetch(context.Background(), filepath.Join(t.TempDir(), "out.txt"))
	if !errors.Is(err, ErrEmptyDownload) {
		t.Fatalf("expected ErrEmptyDownload, got %v", err)
	}
}

func TestFetch_NoRangesKeepsExistingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("NO PERMISSION"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "ranges.txt")
	if err := os.WriteFile(dst, []byte("10.0.0.0/8\n"), 0o644); err != nil {
		t.Fatalf("seeding output: %v", err)
	}

	_, err := newFetcher(srv.URL).Fetch(context.Background(), dst)
	if !errors.Is(err, ErrNoRanges) {
		t.Fatalf("expected ErrNoRanges, got %v", err)
	}
	if !strings.Contains(err.Error(), "NO PERMISSION") {
		t.Errorf("error should quote the payload, got %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "10.0.0.0/8\n" {
		t.Errorf("output was overwritten: %q", data)
	}
	matches, _ := filepath.Glob(dst + ".*.tmp")
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestFetch_RequiresTokenAndDatabase(t *testing.T) {
	f := &Fetcher{URL: "http://example.invalid"}
	if _, err := f.Fetch(context.Background(), "out.txt"); err == nil {
		t.Fatal("expected error without token and database")
	}
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newFetcher(srv.URL)
	f.Retries = 2
	if _, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "out.txt")); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}
