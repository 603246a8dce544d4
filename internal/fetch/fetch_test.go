package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

func TestFetch_ReturnsBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second, UserAgent: "insightd-test"}, srv.Client())
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
	if gotUA != "insightd-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFetch_NonSuccessIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Config{}, srv.Client()).Fetch(context.Background(), srv.URL)
	var fe *model.FetchError
	if !errors.As(err, &fe) || fe.URL != srv.URL {
		t.Fatalf("expected FetchError for %s, got %v", srv.URL, err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected HTTPError 404, got %v", err)
	}
}

func TestFetch_CapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	body, err := New(Config{MaxBytes: 10}, srv.Client()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(body) != 10 {
		t.Errorf("len(body) = %d, want 10", len(body))
	}
}

func TestFetchAll_OneResultPerURLInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fail":
			w.WriteHeader(http.StatusInternalServerError)
		case "/slow":
			time.Sleep(50 * time.Millisecond)
			fmt.Fprint(w, "slow")
		default:
			fmt.Fprint(w, strings.TrimPrefix(r.URL.Path, "/"))
		}
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/slow", srv.URL + "/a", srv.URL + "/fail", srv.URL + "/a"}
	results := New(Config{Concurrency: 4}, srv.Client()).FetchAll(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(urls))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("results[%d].URL = %s, want %s", i, r.URL, urls[i])
		}
	}
	if results[0].Body != "slow" || results[1].Body != "a" || results[3].Body != "a" {
		t.Errorf("bodies = %q %q %q", results[0].Body, results[1].Body, results[3].Body)
	}
	if results[2].Err == nil || results[2].Body != "" {
		t.Errorf("expected /fail to carry an error and empty body, got %+v", results[2])
	}
}

func TestFetchAll_TimeoutIsolatedPerURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/hang" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		fmt.Fprint(w, "fast")
	}))
	defer srv.Close()

	f := New(Config{Timeout: 100 * time.Millisecond, Concurrency: 2}, srv.Client())
	results := f.FetchAll(context.Background(), []string{srv.URL + "/hang", srv.URL + "/ok"})

	if results[0].Err == nil {
		t.Error("expected /hang to time out")
	}
	if results[1].Err != nil || results[1].Body != "fast" {
		t.Errorf("expected /ok to succeed, got %+v", results[1])
	}
}

func TestFetchAll_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}))
	defer srv.Close()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
	}
	New(Config{Concurrency: 2}, srv.Client()).FetchAll(context.Background(), urls)

	if p := peak.Load(); p > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", p)
	}
}

func TestFetchAll_Empty(t *testing.T) {
	if got := New(Config{}, nil).FetchAll(context.Background(), nil); len(got) != 0 {
		t.Errorf("FetchAll(nil) = %v", got)
	}
}
