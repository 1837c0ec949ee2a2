package cache

import (
	"sync"
	"time"
)

// Sessions hands out one in-memory fast path per session identifier and
// forgets sessions that stay idle longer than the configured window.
type Sessions struct {
	mu         sync.Mutex
	byID       map[string]*session
	idle       time.Duration
	maxEntries int
	now        func() time.Time
}

type session struct {
	cache    *MemoryCache
	lastSeen time.Time
}

// NewSessions creates a registry. idle<=0 keeps sessions forever;
// maxEntries bounds each session's cache.
func NewSessions(idle time.Duration, maxEntries int, opts ...Option) *Sessions {
	o := applyOptions(opts)
	return &Sessions{
		byID:       make(map[string]*session),
		idle:       idle,
		maxEntries: maxEntries,
		now:        o.now,
	}
}

// Get returns the fast path for id, creating it on first use.
func (s *Sessions) Get(id string) *MemoryCache {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	sess, ok := s.byID[id]
	if !ok {
		sess = &session{cache: NewMemoryCache(WithMaxEntries(s.maxEntries), WithClock(s.now))}
		s.byID[id] = sess
	}
	sess.lastSeen = now
	return sess.cache
}

// Drop forgets a session.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Sessions) sweepLocked(now time.Time) {
	if s.idle <= 0 {
		return
	}
	for id, sess := range s.byID {
		if now.Sub(sess.lastSeen) > s.idle {
			delete(s.byID, id)
		}
	}
}
