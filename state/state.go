// Package state implements the block-sparse tensor layer: quantum
// number decompositions of Hilbert spaces, the block structure of
// symmetry-respecting operators, and the numerical kernels that
// combine them.
//
// Metadata lives in the integer arena and numerical blocks in the
// float64 arena, so everything allocated here must be released in
// exact reverse order.
package state

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/adrianjhpc/block2-preview/alloc"
	"github.com/adrianjhpc/block2-preview/label"
)

// Tiny is the threshold below which a scale factor is treated as an
// exact zero.
const Tiny = 1e-20

// NoTrunc makes Collect merge the whole label range.
const NoTrunc = label.SpinLabel(0x7FFFFFFF)

// StateInfo is the quantum number decomposition of a Hilbert space:
// a sorted list of sector labels with the number of states in each.
// The backing block holds the n labels followed by the n state counts.
type StateInfo struct {
	ia           *alloc.Stack[label.SpinLabel]
	data         []label.SpinLabel
	N            int
	NStatesTotal int
}

// NewStateInfo carves an uninitialized decomposition with length
// sectors out of the integer arena.
func NewStateInfo(ia *alloc.Stack[label.SpinLabel], length int) *StateInfo {
	return &StateInfo{ia: ia, data: ia.Allocate(2 * length), N: length}
}

// SingleState returns the decomposition of a one-dimensional space
// holding only the sector q.
func SingleState(ia *alloc.Stack[label.SpinLabel], q label.SpinLabel) *StateInfo {
	s := NewStateInfo(ia, 1)
	s.data[0] = q
	s.SetNStates(0, 1)
	s.NStatesTotal = 1
	return s
}

func (s *StateInfo) Quanta() []label.SpinLabel { return s.data[:s.N] }

func (s *StateInfo) Quantum(i int) label.SpinLabel { return s.data[i] }

func (s *StateInfo) SetQuantum(i int, q label.SpinLabel) { s.data[i] = q }

func (s *StateInfo) NStates(i int) int { return int(s.data[s.N+i]) }

func (s *StateInfo) SetNStates(i, x int) { s.data[s.N+i] = label.SpinLabel(x) }

// Deallocate returns the backing block to the arena.
func (s *StateInfo) Deallocate() {
	if s.N == 0 && len(s.data) == 0 {
		panic("state info not allocated")
	}
	s.ia.Deallocate(s.data)
	s.data = nil
}

// Reallocate resizes the backing block in place, keeping the first
// length sectors. Follows the arena reallocation protocol: the block
// may move, and the counts region always has to be repacked because
// its offset depends on the length.
func (s *StateInfo) Reallocate(length int) {
	old := s.data
	ptr := s.ia.Reallocate(old, 2*length)
	if len(ptr) > 0 && (len(old) == 0 || cap(ptr) != cap(old)) {
		copy(ptr[:length], old[:length])
	}
	if length > 0 {
		copy(ptr[length:2*length], old[s.N:s.N+length])
	}
	s.data = ptr
	s.N = length
}

// DeepCopy clones the decomposition into a fresh arena block.
func (s *StateInfo) DeepCopy() *StateInfo {
	other := NewStateInfo(s.ia, s.N)
	copy(other.data, s.data)
	other.NStatesTotal = s.NStatesTotal
	return other
}

// SortStates sorts the sectors by label and recomputes the total
// state count.
func (s *StateInfo) SortStates() {
	type sector struct {
		q  label.SpinLabel
		ns int
	}
	items := make([]sector, s.N)
	for i := range items {
		items[i] = sector{s.Quantum(i), s.NStates(i)}
	}
	slices.SortFunc(items, func(a, b sector) int {
		return cmp.Compare(a.q, b.q)
	})
	s.NStatesTotal = 0
	for i, it := range items {
		s.SetQuantum(i, it.q)
		s.SetNStates(i, it.ns)
		s.NStatesTotal += it.ns
	}
}

// Collect merges duplicate sectors not exceeding target, dropping
// empty ones and saturating counts at 65535, then shrinks the backing
// block to the merged length.
func (s *StateInfo) Collect(target label.SpinLabel) {
	k := -1
	nn, _ := slices.BinarySearch(s.Quanta(), target+1)
	for i := 0; i < nn; i++ {
		switch {
		case s.NStates(i) == 0:
		case k != -1 && s.Quantum(i) == s.Quantum(k):
			s.SetNStates(k, min(s.NStates(k)+s.NStates(i), 65535))
		default:
			k++
			s.SetQuantum(k, s.Quantum(i))
			s.SetNStates(k, s.NStates(i))
		}
	}
	s.Reallocate(k + 1)
	s.NStatesTotal = 0
	for i := 0; i < s.N; i++ {
		s.NStatesTotal += s.NStates(i)
	}
}

// FindState returns the index of sector q, or -1.
func (s *StateInfo) FindState(q label.SpinLabel) int {
	i, ok := slices.BinarySearch(s.Quanta(), q)
	if !ok {
		return -1
	}
	return i
}

func (s *StateInfo) String() string {
	var b strings.Builder
	for i := 0; i < s.N; i++ {
		fmt.Fprintf(&b, "%v : %d\n", s.Quantum(i), s.NStates(i))
	}
	return b.String()
}

// TensorProduct builds the decomposition of the product space of a
// and b, truncated to labels not exceeding target.
func TensorProduct(a, b *StateInfo, target label.SpinLabel) *StateInfo {
	nc := 0
	for i := 0; i < a.N; i++ {
		for j := 0; j < b.N; j++ {
			nc += a.Quantum(i).Add(b.Quantum(j)).Count()
		}
	}
	c := NewStateInfo(a.ia, nc)
	ic := 0
	for i := 0; i < a.N; i++ {
		for j := 0; j < b.N; j++ {
			qc := a.Quantum(i).Add(b.Quantum(j))
			nprod := a.NStates(i) * b.NStates(j)
			for k := 0; k < qc.Count(); k++ {
				c.SetQuantum(ic+k, qc.Index(k))
				c.SetNStates(ic+k, min(nprod, 65535))
			}
			ic += qc.Count()
		}
	}
	c.SortStates()
	c.Collect(target)
	return c
}

// Filter caps each sector of a by the states reachable in b under the
// total target label, then caps b against the already filtered a. The
// second pass deliberately sees the updated counts of the first.
func Filter(a, b *StateInfo, target label.SpinLabel) {
	a.NStatesTotal = 0
	for i := 0; i < a.N; i++ {
		qb := target.Sub(a.Quantum(i))
		x := 0
		for k := 0; k < qb.Count(); k++ {
			if idx := b.FindState(qb.Index(k)); idx != -1 {
				x += b.NStates(idx)
			}
		}
		a.SetNStates(i, min(x, a.NStates(i)))
		a.NStatesTotal += a.NStates(i)
	}
	b.NStatesTotal = 0
	for i := 0; i < b.N; i++ {
		qa := target.Sub(b.Quantum(i))
		x := 0
		for k := 0; k < qa.Count(); k++ {
			if idx := a.FindState(qa.Index(k)); idx != -1 {
				x += a.NStates(idx)
			}
		}
		b.SetNStates(i, min(x, b.NStates(i)))
		b.NStatesTotal += b.NStates(i)
	}
}
