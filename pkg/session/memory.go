package session

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory; they are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryRecord
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]memoryRecord{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (map[string]string, error) {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || !rec.expiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return copyValues(rec.values), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, values map[string]string, expiresAt time.Time) error {
	s.mu.Lock()
	s.sessions[id] = memoryRecord{values: copyValues(values), expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// DeleteExpired drops sessions past their expiry and returns how many were removed.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	now := s.now()
	var n int64
	s.mu.Lock()
	for id, rec := range s.sessions {
		if !rec.expiresAt.After(now) {
			delete(s.sessions, id)
			n++
		}
	}
	s.mu.Unlock()
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
