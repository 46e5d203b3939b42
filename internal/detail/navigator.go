// Package detail drives the detail panel: which record of the displayed
// list is selected, and how its partnership entries are presented.
package detail

import "errors"

// None is the index before anything is selected.
const None = -1

// ErrOutOfRange is returned when selecting an index outside the list.
var ErrOutOfRange = errors.New("detail: index out of range")

// Navigator holds the current index into a displayed list of a fixed length.
// Next and Previous wrap around; both are no-ops on an empty list.
type Navigator struct {
	index  int
	length int
}

// NewNavigator creates a navigator over a list of length items with nothing
// selected.
func NewNavigator(length int) *Navigator {
	if length < 0 {
		length = 0
	}
	return &Navigator{index: None, length: length}
}

// Len returns the length of the list.
func (n *Navigator) Len() int { return n.length }

// Current returns the selected index, if any.
func (n *Navigator) Current() (int, bool) {
	return n.index, n.index != None
}

// Select sets the current index.
func (n *Navigator) Select(i int) error {
	if i < 0 || i >= n.length {
		return ErrOutOfRange
	}
	n.index = i
	return nil
}

// Next advances to the following index, wrapping to 0 past the end. From
// None it lands on 0.
func (n *Navigator) Next() int {
	if n.length == 0 {
		return n.index
	}
	n.index = (n.index + 1) % n.length
	return n.index
}

// Previous moves to the preceding index, wrapping to the last one below 0.
// From None it lands on the last index.
func (n *Navigator) Previous() int {
	if n.length == 0 {
		return n.index
	}
	if n.index <= 0 {
		n.index = n.length - 1
	} else {
		n.index--
	}
	return n.index
}

// Neighbours returns the indices Previous and Next would land on without
// moving.
func (n *Navigator) Neighbours() (prev, next int) {
	p, q := *n, *n
	return p.Previous(), q.Next()
}
