package compose

import "sync"

// SeenTitles is the set of titles already turned into drafts. It lives for
// the process lifetime; titles are never removed.
type SeenTitles struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func NewSeenTitles() *SeenTitles {
	return &SeenTitles{set: make(map[string]struct{})}
}

func (s *SeenTitles) Has(title string) bool {
	s.mu.RLock()
	_, ok := s.set[title]
	s.mu.RUnlock()
	return ok
}

// Add inserts title and reports whether it was new.
func (s *SeenTitles) Add(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[title]; ok {
		return false
	}
	s.set[title] = struct{}{}
	return true
}

func (s *SeenTitles) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}
