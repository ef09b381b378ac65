package state

import (
	"fmt"
	"slices"
	"strings"

	"github.com/adrianjhpc/block2-preview/alloc"
	"github.com/adrianjhpc/block2-preview/label"
	"github.com/adrianjhpc/block2-preview/mat"
)

// SparseMatrixInfo describes the block structure of a symmetry
// respecting operator: the fused bra-operator-ket labels of its
// nonzero blocks, their dimensions, and the flat element offsets. The
// backing block holds the n fused labels, then the n packed block
// dimensions (bra in the high half word, ket in the low), then the n
// offsets.
type SparseMatrixInfo struct {
	ia             *alloc.Stack[label.SpinLabel]
	data           []label.SpinLabel
	DeltaQuantum   label.SpinLabel
	IsFermion      bool
	IsWavefunction bool
	N              int
}

func NewSparseMatrixInfo(ia *alloc.Stack[label.SpinLabel]) *SparseMatrixInfo {
	return &SparseMatrixInfo{ia: ia, N: -1}
}

// Initialize enumerates the nonzero blocks of an operator carrying
// delta quantum dq between the ket and bra spaces. For a wavefunction
// the ket labels are negated so that the fused label algebra sees the
// target sector coupling. Blocks are sorted by fused label.
func (info *SparseMatrixInfo) Initialize(bra, ket *StateInfo, dq label.SpinLabel, isFermion, wfn bool) {
	info.IsFermion = isFermion
	info.IsWavefunction = wfn
	info.DeltaQuantum = dq
	qs := make([]label.SpinLabel, 0, ket.N)
	for i := 0; i < ket.N; i++ {
		q := ket.Quantum(i)
		if wfn {
			q = q.Neg()
		}
		bs := dq.Add(q)
		for k := 0; k < bs.Count(); k++ {
			if bra.FindState(bs.Index(k)) != -1 {
				fused := q
				fused.SetTwosLow(bs.Index(k).Twos())
				qs = append(qs, fused)
			}
		}
	}
	info.allocate(len(qs))
	if info.N == 0 {
		return
	}
	copy(info.data[:info.N], qs)
	slices.Sort(info.data[:info.N])
	for i := 0; i < info.N; i++ {
		ketQ := info.Quantum(i).GetKet()
		if wfn {
			ketQ = ketQ.Neg()
		}
		nKet := ket.NStates(ket.FindState(ketQ))
		nBra := bra.NStates(bra.FindState(info.Quantum(i).GetBra(dq)))
		info.data[info.N+i] = label.SpinLabel(nBra<<16 | nKet)
	}
	info.setOffset(0, 0)
	for i := 0; i < info.N-1; i++ {
		info.setOffset(i+1, info.Offset(i)+info.NStatesBra(i)*info.NStatesKet(i))
	}
}

func (info *SparseMatrixInfo) Quantum(i int) label.SpinLabel { return info.data[i] }

func (info *SparseMatrixInfo) NStatesBra(i int) int { return int(info.data[info.N+i] >> 16) }

func (info *SparseMatrixInfo) NStatesKet(i int) int { return int(info.data[info.N+i] & 0xFFFF) }

// Offset returns the flat element offset of block i.
func (info *SparseMatrixInfo) Offset(i int) int { return int(info.data[2*info.N+i]) }

func (info *SparseMatrixInfo) setOffset(i, x int) { info.data[2*info.N+i] = label.SpinLabel(x) }

// FindState returns the block index of the fused label q, or -1.
func (info *SparseMatrixInfo) FindState(q label.SpinLabel) int {
	i, ok := slices.BinarySearch(info.data[:info.N], q)
	if !ok {
		return -1
	}
	return i
}

// TotalMemory returns the number of float64 elements of all blocks.
func (info *SparseMatrixInfo) TotalMemory() int {
	if info.N == 0 {
		return 0
	}
	return info.Offset(info.N-1) + info.NStatesBra(info.N-1)*info.NStatesKet(info.N-1)
}

func (info *SparseMatrixInfo) allocate(length int) {
	info.data = info.ia.Allocate(3 * length)
	info.N = length
}

func (info *SparseMatrixInfo) Deallocate() {
	if info.N == -1 {
		panic("sparse matrix info not allocated")
	}
	info.ia.Deallocate(info.data)
	info.data = nil
	info.N = -1
}

// Reallocate shrinks the block list to the first length entries,
// repacking the dimension and offset regions.
func (info *SparseMatrixInfo) Reallocate(length int) {
	old := info.data
	ptr := info.ia.Reallocate(old, 3*length)
	if len(ptr) > 0 && (len(old) == 0 || cap(ptr) != cap(old)) {
		copy(ptr[:length], old[:length])
	}
	if length > 0 {
		copy(ptr[length:2*length], old[info.N:info.N+length])
		copy(ptr[2*length:3*length], old[2*info.N:2*info.N+length])
	}
	info.data = ptr
	info.N = length
}

func (info *SparseMatrixInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DQ=%v N=%d SIZE=%d\n", info.DeltaQuantum, info.N, info.TotalMemory())
	for i := 0; i < info.N; i++ {
		fmt.Fprintf(&b, "BRA %v KET %v [ %dx%d ]\n",
			info.Quantum(i).GetBra(info.DeltaQuantum), info.Quantum(i).GetKet(),
			info.NStatesBra(i), info.NStatesKet(i))
	}
	return b.String()
}

// SparseMatrix is a block-sparse operator: an info describing the
// block structure plus the concatenated dense blocks. Factor is a lazy
// scalar applied when the matrix is consumed.
type SparseMatrix struct {
	Info        *SparseMatrixInfo
	Data        []float64
	Factor      float64
	TotalMemory int
	Conj        bool

	da    *alloc.Stack[float64]
	alias bool
}

func NewSparseMatrix() *SparseMatrix {
	return &SparseMatrix{Factor: 1}
}

// Allocate binds the matrix to info and zeroes a fresh arena block for
// its elements.
func (m *SparseMatrix) Allocate(info *SparseMatrixInfo, da *alloc.Stack[float64]) {
	m.Info = info
	m.TotalMemory = info.TotalMemory()
	if m.TotalMemory == 0 {
		return
	}
	m.da = da
	m.Data = da.Allocate(m.TotalMemory)
	for i := range m.Data {
		m.Data[i] = 0
	}
}

// AllocateFrom binds the matrix to info over borrowed storage. The
// matrix does not own the elements and must not be deallocated.
func (m *SparseMatrix) AllocateFrom(info *SparseMatrixInfo, data []float64) {
	m.Info = info
	m.TotalMemory = info.TotalMemory()
	m.Data = data[:m.TotalMemory]
	m.alias = true
}

func (m *SparseMatrix) Deallocate() {
	if m.alias {
		panic("deallocating borrowed sparse matrix storage")
	}
	if m.TotalMemory == 0 {
		if m.Data != nil {
			panic("sparse matrix data without memory")
		}
		return
	}
	m.da.Deallocate(m.Data)
	m.TotalMemory = 0
	m.Data = nil
}

func (m *SparseMatrix) CopyData(other *SparseMatrix) {
	if m.TotalMemory != other.TotalMemory {
		panic(fmt.Sprintf("size mismatch: %d != %d", m.TotalMemory, other.TotalMemory))
	}
	copy(m.Data, other.Data)
}

// Block returns the dense view of block idx.
func (m *SparseMatrix) Block(idx int) mat.Ref {
	if idx == -1 {
		panic("block not found")
	}
	off := m.Info.Offset(idx)
	nb, nk := m.Info.NStatesBra(idx), m.Info.NStatesKet(idx)
	return mat.NewRef(m.Data[off:off+nb*nk], nb, nk)
}

// BlockQ returns the dense view of the block with fused label q.
func (m *SparseMatrix) BlockQ(q label.SpinLabel) mat.Ref {
	return m.Block(m.Info.FindState(q))
}

func (m *SparseMatrix) String() string {
	var b strings.Builder
	b.WriteString("DATA = [ ")
	for _, v := range m.Data {
		fmt.Fprintf(&b, "%20.14f ", v)
	}
	b.WriteString("]")
	return b.String()
}
