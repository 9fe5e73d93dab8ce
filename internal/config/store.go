package config

import "sync"

// Store caches a loaded config file for the life of the process. The cache
// is read-mostly after first load; concurrent first loads may each parse the
// file and converge on the same value.
type Store struct {
	mu     sync.Mutex
	cached *File

	// Dir overrides the discovery directory. Empty means working directory.
	Dir string
}

// Load returns the cached config, loading it on first use.
func (s *Store) Load() (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}
	f, err := Load(s.Dir)
	if err != nil {
		return nil, err
	}
	s.cached = f
	return f, nil
}

// Invalidate drops the cached config so the next Load re-reads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

var defaultStore = &Store{}

// Default returns the process-wide config store.
func Default() *Store {
	return defaultStore
}

// Invalidate drops the process-wide cached config. Intended for tests.
func Invalidate() {
	defaultStore.Invalidate()
}
