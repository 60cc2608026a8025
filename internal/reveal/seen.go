package reveal

import (
	"sync"
	"time"
)

// seenStore remembers recently confirmed interactions so a duplicate
// callback delivery does not increment the view counter twice. Entries
// expire after a TTL; a genuinely new confirmation after expiry counts
// again.
type seenStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func newSeenStore(ttl time.Duration) *seenStore {
	return &seenStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// MarkIfNew atomically records key and reports whether it was new. The
// test-and-set is a single critical section, so of N concurrent duplicate
// deliveries exactly one observes "new". Expired entries are swept while
// the lock is held.
func (s *seenStore) MarkIfNew(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, k)
		}
	}
	if expiry, ok := s.entries[key]; ok && now.Before(expiry) {
		return false
	}
	s.entries[key] = now.Add(s.ttl)
	return true
}

// Forget drops a key, allowing the interaction to be retried after a
// failed transition.
func (s *seenStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
