package block2

import (
	"math"

	"github.com/adrianjhpc/block2-preview/alloc"
	"github.com/adrianjhpc/block2-preview/label"
	"github.com/adrianjhpc/block2-preview/state"
)

// MPSInfo carries the bond state spaces of a matrix product state:
// the exact FCI dimensions reachable from the vacuum on the left and
// from the target on the right, and their truncations to a finite
// bond dimension.
type MPSInfo struct {
	NSites         int
	Vacuum, Target label.SpinLabel
	OrbSym         []uint8
	Basis          []*state.StateInfo
	LeftDimsFCI    []*state.StateInfo
	RightDimsFCI   []*state.StateInfo
	LeftDims       []*state.StateInfo
	RightDims      []*state.StateInfo
	BondDim        int

	f *alloc.Frame
}

func NewMPSInfo(nSites int, vacuum, target label.SpinLabel, basis []*state.StateInfo, orbSym []uint8, f *alloc.Frame) *MPSInfo {
	mi := &MPSInfo{
		NSites: nSites, Vacuum: vacuum, Target: target,
		Basis: basis, OrbSym: orbSym, f: f,
	}
	mi.LeftDimsFCI = make([]*state.StateInfo, nSites+1)
	mi.LeftDimsFCI[0] = state.SingleState(f.Ints, vacuum)
	for i := 0; i < nSites; i++ {
		mi.LeftDimsFCI[i+1] = state.TensorProduct(mi.LeftDimsFCI[i], basis[orbSym[i]], target)
	}
	mi.RightDimsFCI = make([]*state.StateInfo, nSites+1)
	mi.RightDimsFCI[nSites] = state.SingleState(f.Ints, vacuum)
	for i := nSites - 1; i >= 0; i-- {
		mi.RightDimsFCI[i] = state.TensorProduct(basis[orbSym[i]], mi.RightDimsFCI[i+1], target)
	}
	for i := 0; i <= nSites; i++ {
		state.Filter(mi.LeftDimsFCI[i], mi.RightDimsFCI[i], target)
	}
	for i := 0; i <= nSites; i++ {
		mi.LeftDimsFCI[i].Collect(state.NoTrunc)
	}
	for i := nSites; i >= 0; i-- {
		mi.RightDimsFCI[i].Collect(state.NoTrunc)
	}
	return mi
}

// truncate scales the sector dimensions of s down to bond dimension
// m, keeping at least one state per surviving sector.
func truncate(s *state.StateInfo, m int) {
	if s.NStatesTotal <= m {
		return
	}
	total := 0
	for k := 0; k < s.N; k++ {
		ns := uint32(math.Ceil(float64(s.NStates(k))*float64(m)/float64(s.NStatesTotal)) + 0.1)
		if ns > 65535 {
			ns = 65535
		}
		s.SetNStates(k, int(ns))
		total += int(ns)
	}
	s.NStatesTotal = total
}

// clip caps the sector dimensions of s by those of the one-site
// extension t of its neighbor, dropping sectors t cannot reach.
func clip(s, t *state.StateInfo) {
	total := 0
	for k := 0; k < s.N; k++ {
		tk := t.FindState(s.Quantum(k))
		switch {
		case tk == -1:
			s.SetNStates(k, 0)
		case s.NStates(k) > t.NStates(tk):
			s.SetNStates(k, t.NStates(tk))
		}
		total += s.NStates(k)
	}
	s.NStatesTotal = total
}

// SetBondDimension truncates the FCI bond spaces to bond dimension m,
// proportionally per sector, and re-propagates the caps so each bond
// stays reachable from its neighbors.
func (mi *MPSInfo) SetBondDimension(m int) {
	mi.BondDim = m
	mi.LeftDims = make([]*state.StateInfo, mi.NSites+1)
	mi.LeftDims[0] = state.SingleState(mi.f.Ints, mi.Vacuum)
	for i := 0; i < mi.NSites; i++ {
		mi.LeftDims[i+1] = mi.LeftDimsFCI[i+1].DeepCopy()
	}
	for i := 0; i < mi.NSites; i++ {
		truncate(mi.LeftDims[i+1], m)
		if i != mi.NSites-1 {
			t := state.TensorProduct(mi.LeftDims[i+1], mi.Basis[mi.OrbSym[i+1]], mi.Target)
			clip(mi.LeftDims[i+2], t)
			t.Deallocate()
		}
	}
	mi.RightDims = make([]*state.StateInfo, mi.NSites+1)
	mi.RightDims[mi.NSites] = state.SingleState(mi.f.Ints, mi.Vacuum)
	for i := mi.NSites - 1; i >= 0; i-- {
		mi.RightDims[i] = mi.RightDimsFCI[i].DeepCopy()
	}
	for i := mi.NSites - 1; i >= 0; i-- {
		truncate(mi.RightDims[i], m)
		if i != 0 {
			t := state.TensorProduct(mi.Basis[mi.OrbSym[i-1]], mi.RightDims[i], mi.Target)
			clip(mi.RightDims[i-1], t)
			t.Deallocate()
		}
	}
}

func (mi *MPSInfo) Deallocate() {
	if mi.LeftDims != nil {
		for i := 0; i <= mi.NSites; i++ {
			mi.RightDims[i].Deallocate()
		}
		for i := mi.NSites; i >= 0; i-- {
			mi.LeftDims[i].Deallocate()
		}
	}
	for i := 0; i <= mi.NSites; i++ {
		mi.RightDimsFCI[i].Deallocate()
	}
	for i := mi.NSites; i >= 0; i-- {
		mi.LeftDimsFCI[i].Deallocate()
	}
}

// MPS is a matrix product state in mixed canonical form: left
// canonical tensors before the center, the center wavefunction over
// dot sites, right canonical tensors after.
type MPS struct {
	NSites, Center, Dot int
	Info                *MPSInfo
	MatInfos            []*state.SparseMatrixInfo
	Tensors             []*state.SparseMatrix
	CanonicalForm       []byte
}

func NewMPS(nSites, center, dot int) *MPS {
	m := &MPS{NSites: nSites, Center: center, Dot: dot}
	m.CanonicalForm = make([]byte, nSites)
	for i := 0; i < center; i++ {
		m.CanonicalForm[i] = 'L'
	}
	for i := center; i < center+dot; i++ {
		m.CanonicalForm[i] = 'C'
	}
	for i := center + dot; i < nSites; i++ {
		m.CanonicalForm[i] = 'R'
	}
	return m
}

// Initialize builds the block layouts for every site tensor and
// allocates their elements. Intermediate state spaces are compacted
// out of the arena so only the layouts and elements stay live.
func (m *MPS) Initialize(info *MPSInfo) {
	m.Info = info
	m.MatInfos = make([]*state.SparseMatrixInfo, m.NSites)
	m.Tensors = make([]*state.SparseMatrix, m.NSites)
	for i := 0; i < m.Center; i++ {
		t := state.TensorProduct(info.LeftDims[i], info.Basis[info.OrbSym[i]], info.Target)
		m.MatInfos[i] = state.NewSparseMatrixInfo(info.f.Ints)
		m.MatInfos[i].Initialize(t, info.LeftDims[i+1], info.Vacuum, false, false)
		t.Reallocate(0)
		m.MatInfos[i].Reallocate(m.MatInfos[i].N)
	}
	m.MatInfos[m.Center] = state.NewSparseMatrixInfo(info.f.Ints)
	if m.Dot == 1 {
		t := state.TensorProduct(info.LeftDims[m.Center], info.Basis[info.OrbSym[m.Center]], info.Target)
		m.MatInfos[m.Center].Initialize(t, info.RightDims[m.Center+m.Dot], info.Target, false, true)
		t.Reallocate(0)
		m.MatInfos[m.Center].Reallocate(m.MatInfos[m.Center].N)
	} else {
		tl := state.TensorProduct(info.LeftDims[m.Center], info.Basis[info.OrbSym[m.Center]], info.Target)
		tr := state.TensorProduct(info.Basis[info.OrbSym[m.Center+1]], info.RightDims[m.Center+m.Dot], info.Target)
		m.MatInfos[m.Center].Initialize(tl, tr, info.Target, false, true)
		tl.Reallocate(0)
		tr.Reallocate(0)
		m.MatInfos[m.Center].Reallocate(m.MatInfos[m.Center].N)
	}
	for i := m.Center + m.Dot; i < m.NSites; i++ {
		t := state.TensorProduct(info.Basis[info.OrbSym[i]], info.RightDims[i+1], info.Target)
		m.MatInfos[i] = state.NewSparseMatrixInfo(info.f.Ints)
		m.MatInfos[i].Initialize(info.RightDims[i], t, info.Vacuum, false, false)
		t.Reallocate(0)
		m.MatInfos[i].Reallocate(m.MatInfos[i].N)
	}
	for i := 0; i < m.NSites; i++ {
		if m.MatInfos[i] != nil {
			m.Tensors[i] = state.NewSparseMatrix()
			m.Tensors[i].Allocate(m.MatInfos[i], info.f.Doubles)
		}
	}
}

func (m *MPS) Deallocate() {
	for i := m.NSites - 1; i >= 0; i-- {
		if m.Tensors[i] != nil {
			m.Tensors[i].Deallocate()
		}
	}
	for i := m.NSites - 1; i >= 0; i-- {
		if m.MatInfos[i] != nil {
			m.MatInfos[i].Deallocate()
		}
	}
}

// Partition is the operator environment of one sweep position: the
// contracted left and right blocks plus the uncontracted dot sites
// between them.
type Partition struct {
	Left, Right *OperatorTensor
	Middle      []*OperatorTensor
}

// MovingEnvironment tracks the partitions of a right-to-left sweep
// toward the center site.
type MovingEnvironment struct {
	NSites, Center, Dot int
	MPO                 *MPO
	Envs                []*Partition
}

func NewMovingEnvironment(nSites, center, dot int, mpo *MPO) *MovingEnvironment {
	return &MovingEnvironment{NSites: nSites, Center: center, Dot: dot, MPO: mpo}
}

// InitEnvironments seeds the partition at every position from the
// center to the right edge, with all sites still uncontracted.
func (e *MovingEnvironment) InitEnvironments() {
	e.Envs = make([]*Partition, e.NSites)
	e.Envs[e.NSites-1] = &Partition{Middle: []*OperatorTensor{e.MPO.Tensors[e.NSites-1]}}
	if e.Dot == 2 {
		e.Envs[e.NSites-2] = &Partition{
			Middle: []*OperatorTensor{e.MPO.Tensors[e.NSites-2], e.MPO.Tensors[e.NSites-1]},
		}
	}
	for i := e.NSites - e.Dot - 1; i >= e.Center; i-- {
		next := e.Envs[i+1]
		middle := append([]*OperatorTensor{e.MPO.Tensors[i]}, next.Middle...)
		e.Envs[i] = &Partition{Left: next.Left, Right: next.Right, Middle: middle}
	}
}
