// Package placement keeps the signatures placed on document pages.
//
// Records are keyed by a generated id and remember insertion order, which is
// the order every view returns them in. The store does not validate page
// indexes or positions; the owning editor is trusted to pass sane values.
package placement

import (
	"iter"
	"slices"

	"github.com/digitorus/sigplace/images"
	"github.com/google/uuid"
)

// Signature is one positioned copy of a signature image on a page.
// X and Y are viewer-local pixel offsets from the top-left corner of the
// rendered page.
type Signature struct {
	ID        string
	Image     *images.Image
	PageIndex int // zero-based
	X, Y      float64
}

// Store is an insertion-ordered collection of placed signatures.
// A Store is not safe for concurrent use.
type Store struct {
	records map[string]*Signature
	order   []string
	newID   func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Signature),
		newID:   newID,
	}
}

// newID returns a time-ordered UUID so ids sort in generation order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Add places img on pageIndex at the origin and returns the new record.
func (s *Store) Add(img *images.Image, pageIndex int) Signature {
	id := s.newID()
	for s.records[id] != nil {
		id = s.newID()
	}
	rec := &Signature{ID: id, Image: img, PageIndex: pageIndex}
	s.records[id] = rec
	s.order = append(s.order, id)
	return *rec
}

// Remove deletes the record with the given id. It reports whether a record
// was removed; removing an unknown id is a no-op.
func (s *Store) Remove(id string) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

// Move sets the position of an existing record. It reports whether the
// record exists; unknown ids are ignored.
func (s *Store) Move(id string, x, y float64) bool {
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.X, rec.Y = x, y
	return true
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (Signature, bool) {
	rec, ok := s.records[id]
	if !ok {
		return Signature{}, false
	}
	return *rec, true
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.order)
}

// All yields every record in insertion order.
func (s *Store) All() iter.Seq[Signature] {
	return s.filter(func(*Signature) bool { return true })
}

// ByPage yields the records on a zero-based page in insertion order.
// The view is lazy: it reflects the store at iteration time.
func (s *Store) ByPage(pageIndex int) iter.Seq[Signature] {
	return s.filter(func(rec *Signature) bool { return rec.PageIndex == pageIndex })
}

func (s *Store) filter(keep func(*Signature) bool) iter.Seq[Signature] {
	return func(yield func(Signature) bool) {
		for _, id := range s.order {
			rec, ok := s.records[id]
			if !ok || !keep(rec) {
				continue
			}
			if !yield(*rec) {
				return
			}
		}
	}
}
