package mapping

import "sync"

// Store holds the authoritative mapping table and publishes immutable
// snapshots to concurrent readers. A matching pass takes one snapshot up
// front, so it never observes a half-updated rule set even while a
// configuration update replaces the table.
type Store struct {
	mu    sync.RWMutex
	table *Table
}

// NewStore creates a store seeded with the given table. A nil table is
// replaced by an empty one.
func NewStore(t *Table) *Store {
	if t == nil {
		t, _ = NewTable(nil)
	}
	return &Store{table: t}
}

// Snapshot returns the current table. The returned table is immutable and
// remains valid after later Replace calls.
func (s *Store) Snapshot() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Replace atomically swaps in a new table. Passes already running keep
// their old snapshot.
func (s *Store) Replace(t *Table) {
	if t == nil {
		return
	}
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}
