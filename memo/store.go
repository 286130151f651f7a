package memo

import (
	"strconv"
	"sync"
)

// store is the result cache owned by one Memoizer. It never evicts.
//
// A key owns an entry from its first lookup until a failed computation
// drops it. The entry carries the singleflight key used while its result is
// being computed; it holds a result only after a successful computation.
type store[R any] struct {
	mu      sync.RWMutex
	entries map[any]*entry[R]
	filled  int
	seq     uint64
}

type entry[R any] struct {
	flight string
	value  R
	ok     bool
}

func newStore[R any]() *store[R] {
	return &store[R]{
		entries: make(map[any]*entry[R]),
	}
}

// lookup returns the cached result for key, or the entry whose flight key
// must be used to compute it.
func (s *store[R]) lookup(key any) (*entry[R], R, bool) {
	s.mu.RLock()
	e, found := s.entries[key]
	if found && e.ok {
		v := e.value
		s.mu.RUnlock()
		return e, v, true
	}
	s.mu.RUnlock()

	var zero R
	if found {
		return e, zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have created the entry, or filled it, since RUnlock.
	if e, found = s.entries[key]; found {
		if e.ok {
			return e, e.value, true
		}
		return e, zero, false
	}

	s.seq++
	e = &entry[R]{flight: strconv.FormatUint(s.seq, 36)}
	s.entries[key] = e
	return e, zero, false
}

// load reports the result held by e, if any.
func (s *store[R]) load(e *entry[R]) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return e.value, e.ok
}

// fill records a successful result. The first result for an entry wins.
func (s *store[R]) fill(e *entry[R], value R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ok {
		return
	}
	e.value = value
	e.ok = true
	s.filled++
}

// attached reports whether e is still the entry for key.
func (s *store[R]) attached(key any, e *entry[R]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key] == e
}

// drop removes e from the store unless it holds a result. Callers that
// still hold e see it as detached and look the key up again.
func (s *store[R]) drop(key any, e *entry[R]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[key]; ok && cur == e && !e.ok {
		delete(s.entries, key)
	}
}

// len returns the number of cached results.
func (s *store[R]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filled
}
