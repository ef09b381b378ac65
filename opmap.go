// Package block2 assembles the quantum chemistry DMRG pieces: the
// Hamiltonian with its elementary site operators, the symbolic MPO
// construction, and the matrix product state scaffolding.
package block2

import (
	"sort"

	"github.com/adrianjhpc/block2-preview/state"
	"github.com/adrianjhpc/block2-preview/symbolic"
)

// OpMap associates operator symbols with their sparse matrix
// representations, ordered by symbol. Keys are stored with unit
// factor.
type OpMap struct {
	keys []*symbolic.Elem
	vals []*state.SparseMatrix
}

func NewOpMap() *OpMap { return &OpMap{} }

func (m *OpMap) Len() int { return len(m.keys) }

func (m *OpMap) At(i int) (*symbolic.Elem, *state.SparseMatrix) {
	return m.keys[i], m.vals[i]
}

func (m *OpMap) search(k *symbolic.Elem) int {
	return sort.Search(len(m.keys), func(i int) bool { return !m.keys[i].Less(k) })
}

// Set inserts or overwrites the entry for k. The factor of k is
// discarded.
func (m *OpMap) Set(k *symbolic.Elem, v *state.SparseMatrix) {
	k = k.Abs()
	i := m.search(k)
	if i < len(m.keys) && m.keys[i].Equal(k) {
		m.vals[i] = v
		return
	}
	m.keys = append(m.keys, nil)
	m.vals = append(m.vals, nil)
	copy(m.keys[i+1:], m.keys[i:])
	copy(m.vals[i+1:], m.vals[i:])
	m.keys[i] = k
	m.vals[i] = v
}

func (m *OpMap) Get(k *symbolic.Elem) (*state.SparseMatrix, bool) {
	k = k.Abs()
	i := m.search(k)
	if i < len(m.keys) && m.keys[i].Equal(k) {
		return m.vals[i], true
	}
	return nil, false
}

// SetAt overwrites the value at position i.
func (m *OpMap) SetAt(i int, v *state.SparseMatrix) { m.vals[i] = v }

// Compact drops entries rejected by keep, preserving order.
func (m *OpMap) Compact(keep func(*symbolic.Elem, *state.SparseMatrix) bool) {
	j := 0
	for i := range m.keys {
		if keep(m.keys[i], m.vals[i]) {
			m.keys[j], m.vals[j] = m.keys[i], m.vals[i]
			j++
		}
	}
	m.keys = m.keys[:j]
	m.vals = m.vals[:j]
}
