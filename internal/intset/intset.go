// Package intset implements a sorted, unique array of integers with a
// promoting encoding width (16/32/64-bit), used by the INTSET encoding
// of the SET type (spec.md §4.C).
package intset

import "sort"

// Encoding widths in bytes, smallest first so numeric order tracks
// width order.
const (
	Enc16 = 2
	Enc32 = 4
	Enc64 = 8
)

// Set is a sorted unique integer array with a promoting width.
type Set struct {
	encoding int
	values   []int64
}

// New creates an empty int-set at the smallest encoding.
func New() *Set {
	return &Set{encoding: Enc16}
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.values) }

// Encoding reports the current width (Enc16/Enc32/Enc64).
func (s *Set) Encoding() int { return s.encoding }

func requiredEncoding(v int64) int {
	switch {
	case v >= -(1<<15) && v <= (1<<15)-1:
		return Enc16
	case v >= -(1<<31) && v <= (1<<31)-1:
		return Enc32
	default:
		return Enc64
	}
}

// search returns the index at which v is found or should be inserted.
func (s *Set) search(v int64) (idx int, found bool) {
	idx = sort.Search(len(s.values), func(i int) bool { return s.values[i] >= v })
	found = idx < len(s.values) && s.values[idx] == v
	return
}

// Add inserts v, promoting the encoding if necessary. Returns true if
// v was newly added.
func (s *Set) Add(v int64) bool {
	want := requiredEncoding(v)
	idx, found := s.search(v)
	if found {
		return false
	}
	if want > s.encoding {
		s.promote(want, v)
		return true
	}
	s.values = append(s.values, 0)
	copy(s.values[idx+1:], s.values[idx:])
	s.values[idx] = v
	return true
}

// promote widens the encoding to enc and inserts v at the correct end;
// by monotonicity every existing value fits the new width, and the new
// value is strictly outside the old range so it becomes the new head
// or tail.
func (s *Set) promote(enc int, v int64) {
	s.encoding = enc
	if v < 0 {
		nv := make([]int64, len(s.values)+1)
		nv[0] = v
		copy(nv[1:], s.values)
		s.values = nv
	} else {
		s.values = append(s.values, v)
	}
}

// Remove deletes v if present, returning true if it was removed.
func (s *Set) Remove(v int64) bool {
	idx, found := s.search(v)
	if !found {
		return false
	}
	s.values = append(s.values[:idx], s.values[idx+1:]...)
	return true
}

// Contains reports membership.
func (s *Set) Contains(v int64) bool {
	_, found := s.search(v)
	return found
}

// Get returns the value at position i (0-based, ascending order).
func (s *Set) Get(i int) (int64, bool) {
	if i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// Random returns a pseudo-random member chosen by the caller's index
// function (the caller supplies randomness so behavior stays testable).
func (s *Set) Random(idx int) (int64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[idx%len(s.values)], true
}

// All returns every member in ascending order.
func (s *Set) All() []int64 {
	out := make([]int64, len(s.values))
	copy(out, s.values)
	return out
}
