package api

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// replayEntry is one idempotency key. done closes once the first request
// for the key has finished; ok reports whether res may be replayed.
type replayEntry struct {
	done chan struct{}
	res  cachedResponse
	ok   bool
}

// replayCache remembers the last responses by idempotency key, oldest evicted
// first. A key is claimed before its request runs, so concurrent retries wait
// for the first one instead of repeating the command.
type replayCache struct {
	mu    sync.Mutex
	limit int
	items map[string]*replayEntry
	order []string
}

func newReplayCache(limit int) *replayCache {
	return &replayCache{limit: limit, items: make(map[string]*replayEntry)}
}

// claim returns the entry for key. leader is true when the caller created it
// and must run the request, then call finish.
func (c *replayCache) claim(key string) (entry *replayEntry, leader bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		return e, false
	}
	e := &replayEntry{done: make(chan struct{})}
	c.items[key] = e
	return e, true
}

// finish publishes the leader's response. Entries that are not kept are
// dropped so a later retry runs the request again.
func (c *replayCache) finish(key string, e *replayEntry, res cachedResponse, keep bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.res, e.ok = res, keep
	close(e.done)
	if !keep {
		delete(c.items, key)
		return
	}
	c.order = append(c.order, key)
	for len(c.order) > c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

// idempotent echoes an Idempotency-Key on every mutating request. When the
// client supplied the key, a retry replays the first response instead of
// repeating the command.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		supplied := strings.TrimSpace(r.Header.Get("Idempotency-Key")) != ""
		key := idempotencyKey(r)
		w.Header().Set("Idempotency-Key", key)
		if !supplied {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := r.Method + " " + r.URL.Path + " " + key
		for {
			entry, leader := s.replays.claim(cacheKey)
			if leader {
				s.record(w, r, next, cacheKey, entry)
				return
			}
			select {
			case <-entry.done:
			case <-r.Context().Done():
				return
			}
			if !entry.ok {
				continue
			}
			s.log.Debug("idempotent replay", "key", key, "path", r.URL.Path)
			w.Header().Set("Content-Type", entry.res.contentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(entry.res.status)
			_, _ = w.Write(entry.res.body)
			return
		}
	})
}

// record runs next for the request that claimed cacheKey. Server errors and
// panics release the key without caching.
func (s *Server) record(w http.ResponseWriter, r *http.Request, next http.Handler, cacheKey string, entry *replayEntry) {
	rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
	keep := false
	defer func() {
		s.replays.finish(cacheKey, entry, cachedResponse{
			status:      rec.status,
			contentType: w.Header().Get("Content-Type"),
			body:        rec.body.Bytes(),
		}, keep)
	}()
	next.ServeHTTP(rec, r)
	keep = rec.status < http.StatusInternalServerError
}
