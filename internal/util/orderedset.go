package util

import "slices"

// An OrderedSet represents a set of strings that remembers the order
// in which its elements were first added.
// The zero value represents an empty set.
type OrderedSet struct {
	elems []string
}

// NewOrderedSet returns an OrderedSet that contains all of elems
// (in order of first occurrence) but no other elements.
func NewOrderedSet(elems ...string) (set OrderedSet) {
	for _, e := range elems {
		set.Add(e)
	}
	return
}

// Add adds e to set, unless set already contains e.
func (set *OrderedSet) Add(e string) {
	if set.Contains(e) {
		return
	}
	set.elems = append(set.elems, e)
}

// Contains reports whether e is an element of set.
func (set OrderedSet) Contains(e string) bool {
	// Sets of allowed methods are small enough for a linear scan to beat
	// any hash-based lookup.
	return slices.Contains(set.elems, e)
}

// Size returns the cardinality of set.
func (set OrderedSet) Size() int {
	return len(set.elems)
}

// ToSlice returns a slice of set's elements in insertion order.
func (set OrderedSet) ToSlice() []string {
	// The result is a copy: clients may mutate it;
	// see (*corspolicy.Policy).Config.
	return slices.Clone(set.elems)
}
