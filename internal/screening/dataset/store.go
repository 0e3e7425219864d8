package dataset

import "sync/atomic"

// Store owns the current snapshot of one source. Get is a single atomic
// load; Replace swaps the pointer and never touches the previous Dataset, so
// in-flight readers keep a consistent view.
type Store struct {
	current atomic.Pointer[Dataset]
}

// NewStore creates an empty store. Get returns nil until the first Replace.
func NewStore() *Store {
	return &Store{}
}

// Get returns the latest published snapshot, or nil if none was loaded.
func (s *Store) Get() *Dataset {
	return s.current.Load()
}

// Replace publishes d. A nil dataset is ignored so a failed build can never
// clear existing data.
func (s *Store) Replace(d *Dataset) {
	if d == nil {
		return
	}
	s.current.Store(d)
}

// Loaded reports whether any snapshot has been published.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}
