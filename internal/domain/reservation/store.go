package reservation

import "sync"

// Merge folds incoming into existing keyed by platform and id. Later records replace earlier
// ones in place, so the first occurrence of a key fixes its position in the output.
func Merge(existing, incoming []Reservation) []Reservation {
	out := make([]Reservation, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	for _, batch := range [][]Reservation{existing, incoming} {
		for _, r := range batch {
			key := r.Key()
			if i, ok := index[key]; ok {
				out[i] = r
				continue
			}
			index[key] = len(out)
			out = append(out, r)
		}
	}

	return out
}

// Store is the authoritative in-memory collection. Readers get copies; every write goes
// through Merge or Reset.
type Store struct {
	mu      sync.RWMutex
	records []Reservation
}

func NewStore(initial []Reservation) *Store {
	return &Store{records: Merge(nil, initial)}
}

// All returns a snapshot of the stored reservations
func (s *Store) All() []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reservation, len(s.records))
	copy(out, s.records)
	return out
}

// Merge applies incoming with last-write-wins semantics and returns the new size
func (s *Store) Merge(incoming []Reservation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = Merge(s.records, incoming)
	return len(s.records)
}

// Reset clears the store. Work already in flight may still merge afterwards.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
