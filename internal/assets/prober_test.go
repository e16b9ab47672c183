package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
)

func testProber(t *testing.T) *Prober {
	t.Helper()
	return NewProber(2*time.Second, 4, nil)
}

func candidatesFor(srv *httptest.Server, paths ...string) catalog.Candidates {
	var c catalog.Candidates
	c.Hero = []catalog.Asset{{ID: 1, Kind: "image", URL: srv.URL + paths[0]}}
	c.Context = []catalog.Asset{{ID: 2, Kind: "image", URL: srv.URL + paths[1]}}
	for i, p := range paths[2:] {
		c.Links = append(c.Links, catalog.Asset{ID: int64(10 + i), URL: srv.URL + p})
	}
	return c
}

func TestProber_KeepsAliveDropsDead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := candidatesFor(srv, "/hero.jpg", "/ctx.jpg", "/a", "/b", "/dead")
	out := testProber(t).Filter(context.Background(), c)

	if len(out.Hero) != 1 || len(out.Context) != 1 {
		t.Errorf("expected live media kept, got %d/%d", len(out.Hero), len(out.Context))
	}
	if len(out.Links) != 2 {
		t.Fatalf("expected dead link dropped, got %d", len(out.Links))
	}
	for _, a := range out.Links {
		if a.URL == srv.URL+"/dead" {
			t.Error("dead URL survived the filter")
		}
	}
}

func TestProber_FallsBackToGetWhenHeadRejected(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			t.Errorf("expected ranged GET, got %q", r.Header.Get("Range"))
		}
		gets.Add(1)
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	p := testProber(t)
	if !p.probe(context.Background(), srv.URL+"/img.png") {
		t.Fatal("expected GET fallback to succeed")
	}
	if gets.Load() != 1 {
		t.Errorf("expected exactly one GET, got %d", gets.Load())
	}
}

func TestProber_ForbiddenMediaFileCountsAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := testProber(t)
	if !p.probe(context.Background(), srv.URL+"/gated.jpg") {
		t.Error("expected 403 on a media extension to count as alive")
	}
	if p.probe(context.Background(), srv.URL+"/gated.html") {
		t.Error("expected 403 on a page URL to count as dead")
	}
}

func TestProber_CachesResults(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := testProber(t)
	url := srv.URL + "/cached.jpg"
	p.probe(context.Background(), url)
	p.probe(context.Background(), url)
	if hits.Load() != 1 {
		t.Errorf("expected one request for repeated probes, got %d", hits.Load())
	}
}

func TestProber_EmptyBucketStaysUnfiltered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := candidatesFor(srv, "/hero.jpg", "/ctx.jpg", "/a", "/b")
	out := testProber(t).Filter(context.Background(), c)

	// Everything failed; the buckets come back unfiltered rather than empty.
	if len(out.Hero) != 1 || len(out.Context) != 1 || len(out.Links) != 2 {
		t.Errorf("expected unfiltered fallback, got %d/%d/%d", len(out.Hero), len(out.Context), len(out.Links))
	}
}

func TestProber_UnreachableHostIsDead(t *testing.T) {
	p := NewProber(500*time.Millisecond, 2, nil)
	if p.probe(context.Background(), "http://127.0.0.1:1/nope.jpg") {
		t.Error("expected connection failure to count as dead")
	}
}

func TestLooksLikeMediaFile(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example/a.jpg", true},
		{"https://cdn.example/a.JPG", true},
		{"https://cdn.example/a.webp?token=abc", true},
		{"https://cdn.example/v.mp4#t=10", true},
		{"https://cdn.example/page.html", false},
		{"https://cdn.example/path", false},
	}
	for _, tt := range tests {
		if got := looksLikeMediaFile(tt.url); got != tt.want {
			t.Errorf("looksLikeMediaFile(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
