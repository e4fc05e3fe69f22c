// Package idempotency replays the stored response of a POST request that is
// retried with the same Idempotency-Key.
package idempotency

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"
)

type Response struct {
	Status int
	Header map[string]string
	Result []byte
}

type Store interface {
	Get(ctx context.Context, key string) (*Response, error)
	Set(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	return i.store.Get(ctx, key)
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	return i.store.Set(ctx, key, resp, i.ttl)
}

// Recorder captures what a handler writes so it can be stored.
type Recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func NewRecorder(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *Recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *Recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *Recorder) Response() Response {
	return Response{
		Status: r.status,
		Header: map[string]string{"Content-Type": r.Header().Get("Content-Type")},
		Result: r.body.Bytes(),
	}
}

// MemoryStore keeps responses in process. Used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	resp      Response
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	resp := e.resp
	return &resp, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, resp Response, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{resp: resp, expiresAt: time.Now().Add(ttl)}
	return nil
}
