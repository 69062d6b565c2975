package config

import "sync/atomic"

// Store hands immutable snapshots to the pipeline. The settings side
// replaces the whole value on every change; the pipeline reads one snapshot
// per tick and never writes back.
type Store struct {
	p atomic.Pointer[Config]
}

// NewStore seeds the store with a validated config.
func NewStore(c Config) *Store {
	s := &Store{}
	s.p.Store(&c)
	return s
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	return *s.p.Load()
}

// Update applies fn to a copy of the current config and swaps it in when fn
// leaves it valid. Invalid updates are rejected and the old snapshot stays.
func (s *Store) Update(fn func(*Config)) error {
	c := *s.p.Load()
	fn(&c)
	if err := c.Validate(); err != nil {
		return err
	}
	s.p.Store(&c)
	return nil
}
