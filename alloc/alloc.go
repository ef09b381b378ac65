// Package alloc provides stack arenas for the block-sparse tensor layer.
//
// All tensor metadata and numerical data live in two preallocated slabs,
// one for 32-bit quantum number words and one for float64 elements.
// Blocks are carved off the top of a slab and must be returned in exact
// reverse order, which keeps the slabs fragmentation free across a sweep.
package alloc

import (
	"fmt"

	"github.com/adrianjhpc/block2-preview/label"
)

// Stack is a fixed-capacity LIFO arena.
type Stack[T any] struct {
	data  []T
	used  int
	shift int
}

func NewStack[T any](size int) *Stack[T] {
	return &Stack[T]{data: make([]T, size)}
}

// Size returns the slab capacity.
func (s *Stack[T]) Size() int { return len(s.data) }

// Used returns the number of live words.
func (s *Stack[T]) Used() int { return s.used }

// Allocate carves a block of n words off the top of the slab.
// The returned slice aliases the slab; it is valid until deallocated
// or moved by Reallocate.
func (s *Stack[T]) Allocate(n int) []T {
	if s.shift != 0 {
		panic(fmt.Sprintf("allocate during pending reallocation: %v", s))
	}
	if s.used+n >= len(s.data) {
		panic(fmt.Sprintf("exceeding allowed memory: %v ASK=%d", s, n))
	}
	x := s.data[s.used : s.used+n]
	s.used += n
	return x
}

// Deallocate returns a block to the slab. The block must be the most
// recently allocated live block; anything else is a discipline violation.
// A zero-length block is a no-op.
func (s *Stack[T]) Deallocate(x []T) {
	n := len(x)
	if n == 0 {
		return
	}
	off := s.offset(x)
	if s.used < n || off != s.used-n {
		panic(fmt.Sprintf("deallocation not happening in reverse order: %v OFF=%d LEN=%d", s, off, n))
	}
	s.used -= n
}

// Reallocate resizes a block in place. The block may sit below other
// live blocks; those are left where they are, and the accumulated shift
// is applied to each subsequent Reallocate call until the resized region
// reaches the top of the slab again. Callers walk the live blocks bottom
// to top, reallocating each one and moving its contents themselves.
func (s *Stack[T]) Reallocate(x []T, newN int) []T {
	n := len(x)
	off := s.offset(x) + s.shift
	s.shift += newN - n
	s.used += newN - n
	if off == s.used-newN {
		s.shift = 0
	}
	return s.data[off : off+newN]
}

// offset recovers a block's position in the slab from its capacity.
func (s *Stack[T]) offset(x []T) int {
	return cap(s.data) - cap(x)
}

func (s *Stack[T]) String() string {
	return fmt.Sprintf("SIZE=%d USED=%d SHIFT=%d", len(s.data), s.used, s.shift)
}

// Frame bundles the two arenas every allocating component needs.
// It is threaded explicitly through constructors rather than held in
// package globals, so independent solver instances never share slabs.
type Frame struct {
	Ints    *Stack[label.SpinLabel]
	Doubles *Stack[float64]
}

func NewFrame(isize, dsize int) *Frame {
	return &Frame{
		Ints:    NewStack[label.SpinLabel](isize),
		Doubles: NewStack[float64](dsize),
	}
}
