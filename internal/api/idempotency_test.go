package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newIdempotentServer() *Server {
	return &Server{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		replays: newReplayCache(8),
	}
}

func TestIdempotentConcurrentRetriesRunOnce(t *testing.T) {
	s := newIdempotentServer()
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	h := s.idempotent(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"cost": "10"})
	}))

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/purchases", nil)
		req.Header.Set("Idempotency-Key", "buy-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	const retries = 4
	results := make(chan *httptest.ResponseRecorder, retries+1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- serve()
	}()
	<-entered
	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- serve()
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	if got := calls.Load(); got != 1 {
		t.Fatalf("handler ran %d times for one key", got)
	}
	replayed := 0
	for rec := range results {
		if rec.Code != http.StatusOK || rec.Body.String() == "" {
			t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Idempotent-Replayed") == "true" {
			replayed++
		}
	}
	if replayed != retries {
		t.Fatalf("replayed=%d want %d", replayed, retries)
	}
}

func TestIdempotentServerErrorIsRetried(t *testing.T) {
	s := newIdempotentServer()
	var calls atomic.Int32
	h := s.idempotent(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeError(w, http.StatusInternalServerError, "boom")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}))
	for i, want := range []int{http.StatusInternalServerError, http.StatusOK, http.StatusOK} {
		req := httptest.NewRequest(http.MethodPost, "/v1/day/end", nil)
		req.Header.Set("Idempotency-Key", "end-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d status=%d want %d", i, rec.Code, want)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("handler calls=%d want 2", got)
	}
}

func TestReplayCacheEvictsOldest(t *testing.T) {
	c := newReplayCache(2)
	for _, key := range []string{"a", "b", "c"} {
		e, leader := c.claim(key)
		if !leader {
			t.Fatalf("%s: fresh key must be claimed", key)
		}
		c.finish(key, e, cachedResponse{status: http.StatusOK}, true)
	}
	if _, leader := c.claim("a"); !leader {
		t.Fatalf("oldest key must be evicted")
	}
	if e, leader := c.claim("c"); leader || !e.ok {
		t.Fatalf("newest key must replay")
	}
}
