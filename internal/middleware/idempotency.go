package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/forgo/ludoteca/api/internal/model"
)

// maxIdempotencyKeyLen bounds the Idempotency-Key header
const maxIdempotencyKeyLen = 255

// IdempotencyStore keeps the responses of recent writes keyed by caller,
// Idempotency-Key and request fingerprint.
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // Default: 24h
	Cleanup time.Duration // Default: 1h
}

// NewIdempotencyStore creates a store and starts its cleanup loop
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// claimState is the outcome of IdempotencyStore.claim
type claimState int

const (
	claimOwner  claimState = iota // caller runs the request
	claimReplay                   // a stored response exists
	claimWait                     // an identical request is running
)

// claim looks key up and, when nothing usable is stored, registers an
// in-flight entry owned by the caller.
func (s *IdempotencyStore) claim(key string) (*idempotencyEntry, claimState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		if e.inFlight {
			return e, claimWait
		}
		if e.expiresAt.After(time.Now()) {
			return e, claimReplay
		}
	}

	e := &idempotencyEntry{inFlight: true, done: make(chan struct{})}
	s.entries[key] = e
	return e, claimOwner
}

// complete stores the captured response, or forgets the key when the
// request failed server side so a retry runs again.
func (s *IdempotencyStore) complete(key string, entry *idempotencyEntry, rec *capturingWriter) {
	if rec.status >= http.StatusInternalServerError {
		s.forget(key, entry)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.status = rec.status
	entry.headers = replayableHeaders(rec.Header())
	entry.body = rec.body.Bytes()
	entry.expiresAt = time.Now().Add(s.ttl)
	entry.inFlight = false
	close(entry.done)
}

// forget drops an in-flight claim and wakes the requests waiting on it
func (s *IdempotencyStore) forget(key string, entry *idempotencyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[key] == entry {
		delete(s.entries, key)
	}
	close(entry.done)
}

// perRequestHeaders are set around the handler on every response (encoding,
// request id, rate limit, CORS) and are not part of the stored response.
var perRequestHeaders = map[string]bool{
	"Content-Encoding":      true,
	"Content-Length":        true,
	"Vary":                  true,
	"X-Request-Id":          true,
	"X-Ratelimit-Limit":     true,
	"X-Ratelimit-Remaining": true,
	"Retry-After":           true,
}

func replayableHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if perRequestHeaders[k] || strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

// lookup returns the completed entry for key, if any
func (s *IdempotencyStore) lookup(key string) *idempotencyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !e.inFlight {
		return e
	}
	return nil
}

// fingerprint identifies one logical write of one caller
func fingerprint(caller, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{caller, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// capturingWriter copies the response so it can be replayed
type capturingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *capturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (e *idempotencyEntry) replay(w http.ResponseWriter) {
	for k, v := range e.headers {
		w.Header()[k] = append([]string(nil), v...)
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Idempotency replays the stored response for a repeated write carrying the
// same Idempotency-Key, so a retried rental request or approval is not
// applied twice. A duplicate that arrives while the first is still running
// waits for it, or until its own client goes away. Server errors and
// panics are not stored.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" || !isWriteMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > maxIdempotencyKeyLen {
				model.NewBadRequestError("Idempotency-Key is too long").WriteJSON(w)
				return
			}

			caller := GetUserID(r.Context())
			if caller == "" {
				caller = clientIP(r)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					model.NewPayloadTooLargeError(tooLarge.Limit).WriteJSON(w)
					return
				}
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(caller, idempotencyKey, r.Method, r.URL.Path, body)

			entry, state := store.claim(key)
			switch state {
			case claimReplay:
				entry.replay(w)
				return
			case claimWait:
				select {
				case <-entry.done:
				case <-r.Context().Done():
					return
				}
				if done := store.lookup(key); done != nil {
					done.replay(w)
					return
				}
				// The first attempt failed; run this one unguarded.
				next.ServeHTTP(w, r)
				return
			}

			// A panicking handler must not leave the claim in flight
			completed := false
			defer func() {
				if !completed {
					store.forget(key, entry)
				}
			}()

			rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			store.complete(key, entry, rec)
			completed = true
		})
	}
}
