package report

import (
	"slices"
	"sync"
)

// Backend persists the whole record collection as one unit.
type Backend interface {
	Load() ([]Record, error)
	Save(records []Record) error
}

// Store is an append-only, clearable collection of records mirrored to
// a Backend. The in-memory collection is authoritative: a failed Save
// does not undo the mutation that triggered it.
//
// Saves run outside the lock, so two concurrent appends may reach the
// backend out of order and the durable copy can miss the later one.
type Store struct {
	mu      sync.RWMutex
	records []Record
	back    Backend
}

// NewStore creates an empty Store backed by back.
func NewStore(back Backend) *Store {
	return &Store{back: back}
}

// Load replaces the in-memory collection with the backend's contents.
// Records without a terminal status are dropped. On error the collection
// is left empty and the error is returned.
func (s *Store) Load() error {
	records, err := s.back.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.records = nil
		return err
	}
	s.records = slices.DeleteFunc(records, func(r Record) bool {
		return !r.Status.Terminal()
	})
	return nil
}

// Append adds rec and persists the whole collection. The record stays
// visible even if persisting fails.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	snapshot := slices.Clone(s.records)
	s.mu.Unlock()

	return s.back.Save(snapshot)
}

// Clear empties the collection and persists the empty collection.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()

	return s.back.Save([]Record{})
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record, newest first. Records with equal timestamps
// keep their insertion order.
func (s *Store) All() []Record {
	s.mu.RLock()
	out := slices.Clone(s.records)
	s.mu.RUnlock()

	sortNewestFirst(out)
	if out == nil {
		out = []Record{}
	}
	return out
}

// Page returns limit records of All starting at offset. An offset past
// the end yields an empty page.
func (s *Store) Page(limit, offset int) []Record {
	all := s.All()
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(all) {
		return []Record{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// ByName returns all records for testName, newest first.
func (s *Store) ByName(testName string) []Record {
	s.mu.RLock()
	out := []Record{}
	for _, r := range s.records {
		if r.TestName == testName {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out
}

func sortNewestFirst(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
