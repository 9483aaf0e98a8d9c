// Package store implements EngineStore (§4.4): a bounded, thread-safe cache
// of idle EngineSessions, shared by the worker pool so a session can be
// reused across games instead of respawning the underlying process every
// time.
package store

import (
	"context"
	"sync"

	"github.com/herohde/arbiter/pkg/protocol"
	"github.com/seekerror/logw"
)

// Store is a capacity-bounded, FIFO-eviction cache of *protocol.EngineSession,
// grounded in original_source/src/store.hpp's Store<T>: a mutex-protected
// slice, release appends at the tail, eviction removes from the head, get()
// (GetAny here) pops from the tail (LIFO), and get(predicate) (GetBy here)
// scans front-to-back for the first match.
//
// Capacity 0 is legal and means "never cache": release destroys the session
// it was given immediately instead of storing it.
type Store struct {
	mu       sync.Mutex
	capacity int
	cache    []*protocol.EngineSession
}

// New constructs a Store with the given capacity.
func New(capacity int) *Store {
	return &Store{capacity: capacity}
}

// GetBy atomically removes and returns the first cached session matching
// predicate, scanning from the oldest entry. Reports false if none match.
func (s *Store) GetBy(predicate func(*protocol.EngineSession) bool) (*protocol.EngineSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sess := range s.cache {
		if predicate(sess) {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			return sess, true
		}
	}
	return nil, false
}

// GetAny removes and returns the most-recently-released session (LIFO get),
// or reports false if the store is empty.
func (s *Store) GetAny() (*protocol.EngineSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cache) == 0 {
		return nil, false
	}

	last := len(s.cache) - 1
	sess := s.cache[last]
	s.cache = s.cache[:last]
	return sess, true
}

// Release inserts sess at the tail of the cache. If doing so would exceed
// capacity, the oldest entry is evicted (and quit) and Release reports true.
// With capacity 0, sess is quit immediately without ever being cached, and
// Release reports true -- release always destroys.
func (s *Store) Release(ctx context.Context, sess *protocol.EngineSession) bool {
	s.mu.Lock()

	if s.capacity == 0 {
		s.mu.Unlock()
		quit(ctx, sess)
		return true
	}

	var victim *protocol.EngineSession
	evicted := false
	if len(s.cache) >= s.capacity {
		victim = s.cache[0]
		s.cache = s.cache[1:]
		evicted = true
	}
	s.cache = append(s.cache, sess)
	s.mu.Unlock()

	if victim != nil {
		quit(ctx, victim)
	}
	return evicted
}

// RemoveOldest evicts and quits the oldest cached session, if any.
func (s *Store) RemoveOldest(ctx context.Context) {
	s.mu.Lock()
	if len(s.cache) == 0 {
		s.mu.Unlock()
		return
	}
	victim := s.cache[0]
	s.cache = s.cache[1:]
	s.mu.Unlock()

	quit(ctx, victim)
}

// Clear evicts and quits every cached session.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	victims := s.cache
	s.cache = nil
	s.mu.Unlock()

	for _, v := range victims {
		quit(ctx, v)
	}
}

// Empty reports whether the store currently holds no sessions.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache) == 0
}

// Size returns the number of sessions currently cached.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Capacity returns the store's configured capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

func quit(ctx context.Context, sess *protocol.EngineSession) {
	if err := sess.Quit(); err != nil {
		logw.Infof(ctx, "engine store: quit on evicted session (spec %v) failed: %v", sess.SpecID, err)
	}
}
