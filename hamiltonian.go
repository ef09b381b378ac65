package block2

import (
	"fmt"
	"math"
	"slices"

	"github.com/adrianjhpc/block2-preview/alloc"
	"github.com/adrianjhpc/block2-preview/cg"
	"github.com/adrianjhpc/block2-preview/fcidump"
	"github.com/adrianjhpc/block2-preview/label"
	"github.com/adrianjhpc/block2-preview/state"
	"github.com/adrianjhpc/block2-preview/symbolic"
)

type siteOpInfo struct {
	q    label.SpinLabel
	info *state.SparseMatrixInfo
}

// Hamiltonian holds the molecular integrals together with the
// elementary operators of a single orbital site, from which the MPO
// matrix elements are assembled. Operators are resolved per point
// group irrep, since a site basis only carries the irrep of its own
// orbital.
type Hamiltonian struct {
	Vacuum, Target label.SpinLabel
	Basis          []*state.StateInfo
	NSites, NSyms  int
	SU2            bool
	FCIDUMP        *fcidump.FCIDUMP
	Opf            *state.OperatorFunctions
	OrbSym         []uint8

	siteOpInfos [][]siteOpInfo
	opPrims     [2]map[symbolic.OpName]*state.SparseMatrix
	siteNormOps []*OpMap
	f           *alloc.Frame
}

func NewHamiltonian(vacuum, target label.SpinLabel, norb int, su2 bool, fcid *fcidump.FCIDUMP, orbSym []uint8, f *alloc.Frame) *Hamiltonian {
	h := &Hamiltonian{
		Vacuum: vacuum, Target: target, NSites: norb, SU2: su2,
		FCIDUMP: fcid, OrbSym: orbSym, f: f,
	}
	h.NSyms = int(slices.Max(orbSym)) + 1
	h.Basis = make([]*state.StateInfo, h.NSyms)
	for i := 0; i < h.NSyms; i++ {
		if su2 {
			b := state.NewStateInfo(f.Ints, 3)
			b.SetQuantum(0, vacuum)
			b.SetQuantum(1, label.NewSpin(1, 1, i))
			b.SetQuantum(2, label.NewSpin(2, 0, 0))
			for k := 0; k < 3; k++ {
				b.SetNStates(k, 1)
			}
			b.SortStates()
			h.Basis[i] = b
		} else {
			b := state.NewStateInfo(f.Ints, 4)
			b.SetQuantum(0, vacuum)
			b.SetQuantum(1, label.NewSpin(1, -1, i))
			b.SetQuantum(2, label.NewSpin(1, 1, i))
			b.SetQuantum(3, label.NewSpin(2, 0, 0))
			for k := 0; k < 4; k++ {
				b.SetNStates(k, 1)
			}
			b.SortStates()
			h.Basis[i] = b
		}
	}
	h.Opf = &state.OperatorFunctions{CG: cg.New(100, 10)}
	h.initSiteOps()
	return h
}

// SwapD2h maps MOLPRO D2h irrep numbers to the XOR-group convention.
func SwapD2h(isym uint8) uint8 {
	return [...]uint8{8, 0, 7, 6, 1, 5, 2, 3, 4}[isym]
}

func (h *Hamiltonian) initSiteOps() {
	h.siteOpInfos = make([][]siteOpInfo, h.NSyms)
	for i := 0; i < h.NSyms; i++ {
		qs := []label.SpinLabel{h.Vacuum, label.NewSpin(1, 1, i), label.NewSpin(-1, 1, i)}
		for n := -2; n <= 2; n += 2 {
			for s := 0; s <= 2; s += 2 {
				qs = append(qs, label.NewSpin(n, s, 0))
			}
		}
		slices.Sort(qs)
		qs = slices.Compact(qs)
		for _, q := range qs {
			info := state.NewSparseMatrixInfo(h.f.Ints)
			info.Initialize(h.Basis[i], h.Basis[i], q, q.Twos() == 1, false)
			h.siteOpInfos[i] = append(h.siteOpInfos[i], siteOpInfo{q, info})
		}
	}

	da := h.f.Doubles
	for s := 0; s < 2; s++ {
		h.opPrims[s] = map[symbolic.OpName]*state.SparseMatrix{}
	}
	prim := func(s int, name symbolic.OpName, dq label.SpinLabel) *state.SparseMatrix {
		m := state.NewSparseMatrix()
		m.Allocate(h.FindSiteOpInfo(dq, 0), da)
		h.opPrims[s][name] = m
		return m
	}
	opi := prim(0, symbolic.OpI, label.NewSpin(0, 0, 0))
	opi.BlockQ(label.NewSpinRange(0, 0, 0, 0)).Set(0, 0, 1)
	opi.BlockQ(label.NewSpinRange(1, 1, 1, 0)).Set(0, 0, 1)
	opi.BlockQ(label.NewSpinRange(2, 0, 0, 0)).Set(0, 0, 1)
	opn := prim(0, symbolic.OpN, label.NewSpin(0, 0, 0))
	opn.BlockQ(label.NewSpinRange(1, 1, 1, 0)).Set(0, 0, 1)
	opn.BlockQ(label.NewSpinRange(2, 0, 0, 0)).Set(0, 0, 2)
	opnn := prim(0, symbolic.OpNN, label.NewSpin(0, 0, 0))
	opnn.BlockQ(label.NewSpinRange(1, 1, 1, 0)).Set(0, 0, 1)
	opnn.BlockQ(label.NewSpinRange(2, 0, 0, 0)).Set(0, 0, 4)
	opc := prim(0, symbolic.OpC, label.NewSpin(1, 1, 0))
	opc.BlockQ(label.NewSpinRange(0, 1, 0, 0)).Set(0, 0, 1)
	opc.BlockQ(label.NewSpinRange(1, 0, 1, 0)).Set(0, 0, -math.Sqrt2)
	opd := prim(0, symbolic.OpD, label.NewSpin(-1, 1, 0))
	opd.BlockQ(label.NewSpinRange(1, 0, 1, 0)).Set(0, 0, math.Sqrt2)
	opd.BlockQ(label.NewSpinRange(2, 1, 0, 0)).Set(0, 0, 1)
	for s := 0; s < 2; s++ {
		a := prim(s, symbolic.OpA, label.NewSpin(2, s*2, 0))
		h.Opf.Product(opc, opc, a, 1)
		ad := prim(s, symbolic.OpAD, label.NewSpin(-2, s*2, 0))
		h.Opf.Product(opd, opd, ad, 1)
		b := prim(s, symbolic.OpB, label.NewSpin(0, s*2, 0))
		h.Opf.Product(opc, opd, b, 1)
	}
	r := prim(0, symbolic.OpR, label.NewSpin(-1, 1, 0))
	h.Opf.Product(h.opPrims[0][symbolic.OpB], opd, r, 1)
	rd := prim(0, symbolic.OpRD, label.NewSpin(1, 1, 0))
	h.Opf.Product(opc, h.opPrims[0][symbolic.OpB], rd, 1)

	h.siteNormOps = make([]*OpMap, h.NSyms)
	for i := 0; i < h.NSyms; i++ {
		h.siteNormOps[i] = NewOpMap()
		for _, name := range []symbolic.OpName{symbolic.OpI, symbolic.OpN, symbolic.OpNN} {
			h.siteNormOps[i].Set(symbolic.NewElem(name, nil, h.Vacuum, 1), nil)
		}
	}
	for m := 0; m < h.NSites; m++ {
		im := h.OrbSym[m]
		um := uint8(m)
		h.siteNormOps[im].Set(symbolic.NewElem(symbolic.OpC, []uint8{um}, label.NewSpin(1, 1, int(im)), 1), nil)
		h.siteNormOps[im].Set(symbolic.NewElem(symbolic.OpD, []uint8{um}, label.NewSpin(-1, 1, int(im)), 1), nil)
		for s := 0; s < 2; s++ {
			h.siteNormOps[im].Set(symbolic.NewElem(symbolic.OpA, []uint8{um, um, uint8(s)}, label.NewSpin(2, s*2, 0), 1), nil)
			h.siteNormOps[im].Set(symbolic.NewElem(symbolic.OpAD, []uint8{um, um, uint8(s)}, label.NewSpin(-2, s*2, 0), 1), nil)
			h.siteNormOps[im].Set(symbolic.NewElem(symbolic.OpB, []uint8{um, um, uint8(s)}, label.NewSpin(0, s*2, 0), 1), nil)
		}
	}
	for i := 0; i < h.NSyms; i++ {
		for k := 0; k < h.siteNormOps[i].Len(); k++ {
			op, _ := h.siteNormOps[i].At(k)
			m := state.NewSparseMatrix()
			switch op.Name {
			case symbolic.OpI, symbolic.OpN, symbolic.OpNN, symbolic.OpC, symbolic.OpD:
				m.AllocateFrom(h.FindSiteOpInfo(op.QLabel, i), h.opPrims[0][op.Name].Data)
			case symbolic.OpA, symbolic.OpAD, symbolic.OpB:
				s := op.SiteIndex[len(op.SiteIndex)-1]
				m.AllocateFrom(h.FindSiteOpInfo(op.QLabel, i), h.opPrims[s][op.Name].Data)
			default:
				panic(fmt.Sprintf("unexpected site operator %v", op))
			}
			h.siteNormOps[i].SetAt(k, m)
		}
	}
}

// GetSiteOps resolves every operator symbol in ops to its sparse
// matrix at site m. Symbols whose integral prefactors all vanish are
// bound to a shared zero matrix.
func (h *Hamiltonian) GetSiteOps(m int, ops *OpMap) {
	im := int(h.OrbSym[m])
	zero := state.NewSparseMatrix()
	zero.Factor = 0
	for x := 0; x < ops.Len(); x++ {
		op, _ := ops.At(x)
		switch op.Name {
		case symbolic.OpI, symbolic.OpN, symbolic.OpNN, symbolic.OpC, symbolic.OpD,
			symbolic.OpA, symbolic.OpAD, symbolic.OpB:
			ops.SetAt(x, h.FindSiteNormOp(op, im))
		case symbolic.OpH:
			p := state.NewSparseMatrix()
			p.Allocate(h.FindSiteOpInfo(op.QLabel, im), h.f.Doubles)
			p.BlockQ(label.NewSpinRange(1, 1, 1, im)).Set(0, 0, h.T(m, m))
			p.BlockQ(label.NewSpinRange(2, 0, 0, 0)).Set(0, 0, h.T(m, m)*2+h.V(m, m, m, m))
			ops.SetAt(x, p)
		case symbolic.OpR:
			i := int(op.SiteIndex[0])
			if h.OrbSym[i] != h.OrbSym[m] ||
				(math.Abs(h.T(i, m)) < state.Tiny && math.Abs(h.V(i, m, m, m)) < state.Tiny) {
				ops.SetAt(x, zero)
				break
			}
			p := state.NewSparseMatrix()
			p.Allocate(h.FindSiteOpInfo(op.QLabel, im), h.f.Doubles)
			p.CopyData(h.opPrims[0][symbolic.OpD])
			p.Factor *= h.T(i, m) * math.Sqrt2 / 4
			tmp := state.NewSparseMatrix()
			tmp.Allocate(h.FindSiteOpInfo(op.QLabel, im), h.f.Doubles)
			tmp.CopyData(h.opPrims[0][symbolic.OpR])
			tmp.Factor *= h.V(i, m, m, m)
			h.Opf.Iadd(p, tmp, 1)
			tmp.Deallocate()
			ops.SetAt(x, p)
		case symbolic.OpRD:
			i := int(op.SiteIndex[0])
			if h.OrbSym[i] != h.OrbSym[m] ||
				(math.Abs(h.T(i, m)) < state.Tiny && math.Abs(h.V(i, m, m, m)) < state.Tiny) {
				ops.SetAt(x, zero)
				break
			}
			p := state.NewSparseMatrix()
			p.Allocate(h.FindSiteOpInfo(op.QLabel, im), h.f.Doubles)
			p.CopyData(h.opPrims[0][symbolic.OpC])
			p.Factor *= h.T(i, m) * math.Sqrt2 / 4
			tmp := state.NewSparseMatrix()
			tmp.Allocate(h.FindSiteOpInfo(op.QLabel, im), h.f.Doubles)
			tmp.CopyData(h.opPrims[0][symbolic.OpRD])
			tmp.Factor *= h.V(i, m, m, m)
			h.Opf.Iadd(p, tmp, 1)
			tmp.Deallocate()
			ops.SetAt(x, p)
		case symbolic.OpP:
			i, k := int(op.SiteIndex[0]), int(op.SiteIndex[1])
			s := op.SiteIndex[2]
			if math.Abs(h.V(i, m, k, m)) < state.Tiny {
				ops.SetAt(x, zero)
				break
			}
			p := state.NewSparseMatrix()
			p.AllocateFrom(h.FindSiteOpInfo(op.QLabel, im), h.opPrims[s][symbolic.OpAD].Data)
			p.Factor *= h.V(i, m, k, m)
			ops.SetAt(x, p)
		case symbolic.OpPD:
			i, k := int(op.SiteIndex[0]), int(op.SiteIndex[1])
			s := op.SiteIndex[2]
			if math.Abs(h.V(i, m, k, m)) < state.Tiny {
				ops.SetAt(x, zero)
				break
			}
			p := state.NewSparseMatrix()
			p.AllocateFrom(h.FindSiteOpInfo(op.QLabel, im), h.opPrims[s][symbolic.OpA].Data)
			p.Factor *= h.V(i, m, k, m)
			ops.SetAt(x, p)
		case symbolic.OpQ:
			i, j := int(op.SiteIndex[0]), int(op.SiteIndex[1])
			s := op.SiteIndex[2]
			var f float64
			switch s {
			case 0:
				f = 2*h.V(i, j, m, m) - h.V(i, m, m, j)
			case 1:
				f = h.V(i, m, m, j)
			}
			if math.Abs(f) < state.Tiny {
				ops.SetAt(x, zero)
				break
			}
			p := state.NewSparseMatrix()
			p.AllocateFrom(h.FindSiteOpInfo(op.QLabel, im), h.opPrims[s][symbolic.OpB].Data)
			p.Factor *= f
			ops.SetAt(x, p)
		default:
			panic(fmt.Sprintf("unexpected site operator %v", op))
		}
	}
}

// FilterSiteOps collects the operator symbols referenced by pmat,
// resolves them at site m, and prunes both the symbolic matrix and
// ops of entries that vanish.
func (h *Hamiltonian) FilterSiteOps(m int, pmat symbolic.Symbolic, ops *OpMap) {
	data := pmat.Exprs()
	for _, x := range data {
		switch t := x.(type) {
		case symbolic.Zero:
		case *symbolic.Elem:
			ops.Set(t, nil)
		case *symbolic.Sum:
			for _, r := range t.Strings {
				ops.Set(r.Op(), nil)
			}
		default:
			panic(fmt.Sprintf("unexpected expression %v", x))
		}
	}
	h.GetSiteOps(m, ops)
	isZero := func(p *state.SparseMatrix) bool {
		return p.Factor == 0 || p.Info.N == 0
	}
	for i, x := range data {
		switch t := x.(type) {
		case symbolic.Zero:
		case *symbolic.Elem:
			p, _ := ops.Get(t)
			if isZero(p) {
				data[i] = symbolic.Zero{}
			}
		case *symbolic.Sum:
			allZero := true
			for _, r := range t.Strings {
				p, _ := ops.Get(r.Op())
				if !isZero(p) {
					allZero = false
					break
				}
			}
			if allZero {
				data[i] = symbolic.Zero{}
			}
		}
	}
	if sm, ok := pmat.(*symbolic.Matrix); ok {
		j := 0
		for i := range sm.Data {
			if _, isz := sm.Data[i].(symbolic.Zero); !isz {
				sm.Data[j] = sm.Data[i]
				sm.Indices[j] = sm.Indices[i]
				j++
			}
		}
		sm.Data = sm.Data[:j]
		sm.Indices = sm.Indices[:j]
	}
	ops.Compact(func(_ *symbolic.Elem, p *state.SparseMatrix) bool { return !isZero(p) })
}

// FindSiteOpInfo returns the block layout for delta quantum q on a
// site of irrep iSym, or nil when q is not a site operator quantum.
func (h *Hamiltonian) FindSiteOpInfo(q label.SpinLabel, iSym int) *state.SparseMatrixInfo {
	infos := h.siteOpInfos[iSym]
	i, ok := slices.BinarySearchFunc(infos, q, func(p siteOpInfo, q label.SpinLabel) int {
		switch {
		case p.q < q:
			return -1
		case p.q > q:
			return 1
		}
		return 0
	})
	if !ok {
		return nil
	}
	return infos[i].info
}

func (h *Hamiltonian) FindSiteNormOp(op *symbolic.Elem, iSym int) *state.SparseMatrix {
	p, ok := h.siteNormOps[iSym].Get(op)
	if !ok {
		return nil
	}
	return p
}

func (h *Hamiltonian) T(i, j int) float64 { return h.FCIDUMP.T(i, j) }
func (h *Hamiltonian) V(i, j, k, l int) float64 { return h.FCIDUMP.V(i, j, k, l) }
func (h *Hamiltonian) E() float64 { return h.FCIDUMP.E }

// Deallocate releases the elementary operators, block layouts and
// site bases in reverse allocation order.
func (h *Hamiltonian) Deallocate() {
	for _, name := range []symbolic.OpName{symbolic.OpRD, symbolic.OpR} {
		h.opPrims[0][name].Deallocate()
	}
	for _, name := range []symbolic.OpName{symbolic.OpB, symbolic.OpAD, symbolic.OpA} {
		h.opPrims[1][name].Deallocate()
	}
	for _, name := range []symbolic.OpName{
		symbolic.OpB, symbolic.OpAD, symbolic.OpA, symbolic.OpD,
		symbolic.OpC, symbolic.OpNN, symbolic.OpN, symbolic.OpI,
	} {
		h.opPrims[0][name].Deallocate()
	}
	for i := h.NSyms - 1; i >= 0; i-- {
		for j := len(h.siteOpInfos[i]) - 1; j >= 0; j-- {
			h.siteOpInfos[i][j].info.Deallocate()
		}
	}
	for i := h.NSyms - 1; i >= 0; i-- {
		h.Basis[i].Deallocate()
	}
}
