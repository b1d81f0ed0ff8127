package server

import (
	"sync"
	"time"

	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/widget"
)

// DefaultStateTTL bounds how long a login may take before its state is rejected.
const DefaultStateTTL = 10 * time.Minute

// DefaultStateLimit caps outstanding states; issuing past it evicts the oldest.
const DefaultStateLimit = 1024

type pendingLogin struct {
	opts    widget.Options
	expires time.Time
}

// StateStore holds outstanding OAuth state nonces and the render options they carry.
//
// Each state is accepted at most once.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]pendingLogin
	ttl     time.Duration
	limit   int
	now     func() time.Time
}

// NewStateStore creates a store whose states expire after ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{
		pending: make(map[string]pendingLogin),
		ttl:     ttl,
		limit:   DefaultStateLimit,
		now:     time.Now,
	}
}

// Issue records opts under a fresh state and returns the state.
func (s *StateStore) Issue(opts widget.Options) string {
	state := shared.GenerateState()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, p := range s.pending {
		if !now.Before(p.expires) {
			delete(s.pending, k)
		}
	}
	for s.limit > 0 && len(s.pending) >= s.limit {
		s.evictOldest()
	}
	s.pending[state] = pendingLogin{opts: opts, expires: now.Add(s.ttl)}
	return state
}

// evictOldest drops the state closest to expiry. Callers hold mu.
func (s *StateStore) evictOldest() {
	var (
		oldest string
		first  time.Time
	)
	for k, p := range s.pending {
		if oldest == "" || p.expires.Before(first) {
			oldest, first = k, p.expires
		}
	}
	delete(s.pending, oldest)
}

// Consume removes state and returns its options; ok is false for unknown or expired states.
func (s *StateStore) Consume(state string) (widget.Options, bool) {
	if state == "" {
		return widget.Options{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok {
		return widget.Options{}, false
	}
	delete(s.pending, state)

	if !s.now().Before(p.expires) {
		return widget.Options{}, false
	}
	return p.opts, true
}

// Len reports the number of outstanding states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
