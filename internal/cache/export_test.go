package cache

import "time"

// SetNowFunc overrides the clock for tests.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.now = now
}
