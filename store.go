// The in-memory form of a store.
//
// Records behave as a fixed-capacity arena indexed by Count: every insert
// is preceded by an explicit Count < MaxItems check, and Count is
// re-derived from the record slice after each insert so the two can never
// drift apart.
package linkstore

import (
	"fmt"
	"iter"
	"slices"
)

// Store holds the record count and the records in append order.
type Store struct {
	Count   uint64   `json:"count"`
	Records []Record `json:"records"`
}

// newStore returns an empty store with room for MaxItems records.
func newStore() *Store {
	return &Store{Records: make([]Record, 0, MaxItems)}
}

// Full reports whether the store has reached MaxItems.
func (s *Store) Full() bool {
	return s.Count >= MaxItems
}

// Remaining returns the number of free record slots.
func (s *Store) Remaining() int {
	if s.Full() {
		return 0
	}
	return MaxItems - int(s.Count)
}

// Size returns the encoded size of the store including the discriminator.
func (s *Store) Size() int {
	n := PrefixSize
	for _, r := range s.Records {
		n += r.size()
	}
	return n
}

// All yields records with their position in append order. Iteration does
// not modify the store.
func (s *Store) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range s.Records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	return &Store{Count: s.Count, Records: slices.Clone(s.Records)}
}

// Equal reports whether two stores hold the same records in the same order.
// A nil store equals only another nil store.
func (s *Store) Equal(o *Store) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Count == o.Count && slices.Equal(s.Records, o.Records)
}

// append adds a record at the tail. All checks run before the slice is
// touched so a rejected record leaves the store unchanged.
func (s *Store) append(rec Record) error {
	if err := checkLink(rec.Link); err != nil {
		return err
	}
	if s.Full() {
		return fmt.Errorf("%w: %d of %d records", ErrStoreFull, s.Count, MaxItems)
	}
	if s.Size()+rec.size() > RegionSize {
		return ErrRegionOverflow
	}
	s.Records = append(s.Records, rec)
	s.Count = uint64(len(s.Records))
	return s.check()
}

// check verifies the structural invariants.
func (s *Store) check() error {
	if s.Count != uint64(len(s.Records)) {
		return fmt.Errorf("%w: count %d, records %d", ErrCorruptRegion, s.Count, len(s.Records))
	}
	if s.Count > MaxItems {
		return fmt.Errorf("%w: count %d exceeds %d", ErrCorruptRegion, s.Count, MaxItems)
	}
	return nil
}
