package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// redirectServer redirects /hop/N to /hop/N+1 until depth is reached, then
// answers 200.
func redirectServer(t *testing.T, depth int, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var n int
		fmt.Sscanf(r.URL.Path, "/hop/%d", &n)
		if n < depth {
			// Relative Location on purpose; the fetcher must resolve it.
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

func TestFollowRedirects(t *testing.T) {
	t.Run("Chain Within Cap", func(t *testing.T) {
		var requests atomic.Int64
		srv := redirectServer(t, 3, &requests)
		defer srv.Close()

		f := NewFetcher(srv.Client(), "https://mu-jie.cc/", 10)
		result, err := f.FollowRedirects(context.Background(), srv.URL+"/hop/0")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", result.StatusCode)
		}
		if want := srv.URL + "/hop/3"; result.FinalURL != want {
			t.Errorf("expected final url %s, got %s", want, result.FinalURL)
		}
		if requests.Load() != 4 {
			t.Errorf("expected 4 requests, got %d", requests.Load())
		}
	})

	t.Run("Chain Beyond Cap Fails", func(t *testing.T) {
		var requests atomic.Int64
		srv := redirectServer(t, 100, &requests)
		defer srv.Close()

		const capHops = 5
		f := NewFetcher(srv.Client(), "https://mu-jie.cc/", capHops)
		_, err := f.FollowRedirects(context.Background(), srv.URL+"/hop/0")
		if !errors.Is(err, ErrTooManyRedirects) {
			t.Fatalf("expected ErrTooManyRedirects, got %v", err)
		}
		if got := requests.Load(); got > capHops+1 {
			t.Errorf("expected at most %d requests, got %d", capHops+1, got)
		}
	})

	t.Run("Sends Spoofed Headers", func(t *testing.T) {
		var gotUA, gotReferer string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotReferer = r.Header.Get("Referer")
		}))
		defer srv.Close()

		f := NewFetcher(srv.Client(), "https://mu-jie.cc/", 10)
		if _, err := f.FollowRedirects(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if gotUA != userAgent {
			t.Errorf("unexpected user agent %q", gotUA)
		}
		if gotReferer != "https://mu-jie.cc/" {
			t.Errorf("unexpected referer %q", gotReferer)
		}
	})

	t.Run("Network Error Propagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		f := NewFetcher(nil, "", 10)
		if _, err := f.FollowRedirects(context.Background(), srv.URL); err == nil {
			t.Error("expected error for unreachable host")
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("Returns Streamable Body", func(t *testing.T) {
		var gotReferer string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReferer = r.Header.Get("Referer")
			w.Header().Set("Content-Length", "9")
			w.Write([]byte("audiodata"))
		}))
		defer srv.Close()

		f := NewFetcher(srv.Client(), "https://mu-jie.cc/", 10)
		resp, err := f.Open(context.Background(), srv.URL, "https://music.163.com/")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if string(body) != "audiodata" {
			t.Errorf("unexpected body %q", body)
		}
		if gotReferer != "https://music.163.com/" {
			t.Errorf("per-call referer should win, got %q", gotReferer)
		}
	})
}
