package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

type memoryEntry struct {
	mu     sync.Mutex
	hits   []time.Time // ascending
	window time.Duration
	dead   bool // removed from the map by the sweeper
}

// MemoryStore keeps hit logs in process memory. Counters are not shared
// between processes.
type MemoryStore struct {
	entries sync.Map // string -> *memoryEntry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore starts a store whose sweeper drops idle keys every sweepInterval
// (5 minutes when zero). Close stops the sweeper.
func NewMemoryStore(sweepInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	s := &MemoryStore{
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)
	return s
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	for {
		v, _ := s.entries.LoadOrStore(key, &memoryEntry{window: window})
		entry := v.(*memoryEntry)

		entry.mu.Lock()
		if entry.dead {
			// lost a race with the sweeper, retry with a fresh entry
			entry.mu.Unlock()
			continue
		}
		d := entry.hit(s.now(), limit, window)
		entry.mu.Unlock()
		return d, nil
	}
}

func (e *memoryEntry) hit(now time.Time, limit int, window time.Duration) Decision {
	e.window = window
	e.prune(now)

	d := Decision{Limit: limit}
	if len(e.hits) < limit {
		e.hits = append(e.hits, now)
		d.Allowed = true
	}
	d.Count = len(e.hits)
	d.Remaining = remaining(limit, d.Count)
	d.ResetAt = now.Add(window)
	if len(e.hits) > 0 {
		d.ResetAt = e.hits[0].Add(window)
	}
	return d
}

// prune drops hits that are window or more in the past.
func (e *memoryEntry) prune(now time.Time) {
	cutoff := now.Add(-e.window)
	i := 0
	for i < len(e.hits) && !e.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		e.hits = append(e.hits[:0], e.hits[i:]...)
	}
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Sweep removes keys with no hits left in their window.
func (s *MemoryStore) Sweep() {
	now := s.now()
	s.entries.Range(func(key, value interface{}) bool {
		entry := value.(*memoryEntry)
		entry.mu.Lock()
		entry.prune(now)
		if len(entry.hits) == 0 {
			entry.dead = true
			s.entries.Delete(key)
		}
		entry.mu.Unlock()
		return true
	})
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}
