// Package rowset implements the in-memory buffer of (a, b) pairs that every
// other package in this module builds on: the accumulator drains into one,
// the store's write path encodes one, and the query facade concatenates
// results into one before compacting.
package rowset

import (
	"sort"

	"github.com/rpcpool/rill/rillerr"
)

// Row is an unordered pair of 64-bit identifiers. Zero is reserved as a
// sentinel in the on-disk encoding, so a well-formed row never has a zero
// side. A row with both sides zero is nil.
type Row struct {
	A, B uint64
}

// Nil reports whether r is the zero row.
func (r Row) Nil() bool { return r.A == 0 && r.B == 0 }

// Less reports whether r sorts before other under the row set's total
// order: (a1, b1) < (a2, b2) iff a1 < a2, or a1 == a2 and b1 < b2.
func (r Row) Less(other Row) bool {
	if r.A != other.A {
		return r.A < other.A
	}
	return r.B < other.B
}

// Cmp returns -1, 0 or 1 comparing r to other under the same order as Less.
func (r Row) Cmp(other Row) int {
	switch {
	case r.A < other.A:
		return -1
	case r.A > other.A:
		return +1
	case r.B < other.B:
		return -1
	case r.B > other.B:
		return +1
	default:
		return 0
	}
}

// Invert swaps the two sides of r.
func (r Row) Invert() Row { return Row{A: r.B, B: r.A} }

// Set is a growable, owned sequence of rows. The zero value is an empty,
// usable set.
type Set struct {
	rows []Row
}

// New returns a Set with capacity reserved for at least n rows.
func New(n int) *Set {
	s := &Set{}
	s.Reserve(n)
	return s
}

// Len returns the number of rows currently in the set.
func (s *Set) Len() int { return len(s.rows) }

// Rows returns the set's backing slice. Callers must not retain it across a
// call that mutates the set.
func (s *Set) Rows() []Row { return s.rows }

// Reserve grows the set's backing storage so it can hold at least n rows
// without reallocating, doubling capacity as needed like the C original's
// growth strategy.
func (s *Set) Reserve(n int) {
	if n <= cap(s.rows) {
		return
	}
	newCap := cap(s.rows)
	if newCap == 0 {
		newCap = 1
	}
	for newCap < n {
		newCap *= 2
	}
	grown := make([]Row, len(s.rows), newCap)
	copy(grown, s.rows)
	s.rows = grown
}

// Clear empties the set without releasing its backing storage.
func (s *Set) Clear() { s.rows = s.rows[:0] }

// Push appends a row. Both sides of the row must be nonzero.
func (s *Set) Push(a, b uint64) error {
	if a == 0 || b == 0 {
		return rillerr.Wrap("rowset.Push", "", rillerr.ErrNilRow)
	}
	s.rows = append(s.rows, Row{A: a, B: b})
	return nil
}

// Append adds an existing row verbatim, skipping the nonzero check so
// callers that already validated their rows (decoders, k-way merges) don't
// pay for it twice.
func (s *Set) Append(r Row) {
	s.rows = append(s.rows, r)
}

// AppendSet appends every row of other to s.
func (s *Set) AppendSet(other *Set) {
	s.Reserve(len(s.rows) + len(other.rows))
	s.rows = append(s.rows, other.rows...)
}

// Compact sorts the set lexicographically by (a, b) and removes duplicate
// rows in place.
func (s *Set) Compact() {
	if len(s.rows) <= 1 {
		return
	}
	sort.Slice(s.rows, func(i, j int) bool { return s.rows[i].Less(s.rows[j]) })

	j := 0
	for i := 1; i < len(s.rows); i++ {
		if s.rows[i] == s.rows[j] {
			continue
		}
		j++
		s.rows[j] = s.rows[i]
	}
	s.rows = s.rows[:j+1]
}

// Invert swaps both columns of every row in place. The set is not re-sorted;
// callers that need the inverted set compacted call Compact afterward.
func (s *Set) Invert() {
	for i := range s.rows {
		s.rows[i] = s.rows[i].Invert()
	}
}

// Copy returns a new Set with the same rows as s.
func (s *Set) Copy() *Set {
	out := New(len(s.rows))
	out.rows = append(out.rows, s.rows...)
	return out
}
