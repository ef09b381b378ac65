package block2

import (
	"testing"

	"github.com/adrianjhpc/block2-preview/symbolic"
)

func TestQCMPOShapes(t *testing.T) {
	t.Parallel()
	h, _ := newTestHamiltonian(t, 4)
	mpo := NewQCMPO(h)
	if len(mpo.Tensors) != 4 {
		t.Fatalf("%d", len(mpo.Tensors))
	}
	// Bond widths are 2 + 2N + 6m^2.
	widths := []int{16, 34, 64}
	rv, ok := mpo.Tensors[0].LMat.(*symbolic.RowVector)
	if !ok || len(rv.Data) != widths[0] {
		t.Fatalf("%T %v", mpo.Tensors[0].LMat, mpo.Tensors[0].LMat)
	}
	for m := 1; m <= 2; m++ {
		sm, ok := mpo.Tensors[m].LMat.(*symbolic.Matrix)
		if !ok || sm.M != widths[m-1] || sm.N != widths[m] {
			t.Fatalf("site %d: %T", m, mpo.Tensors[m].LMat)
		}
	}
	cv, ok := mpo.Tensors[3].LMat.(*symbolic.ColumnVector)
	if !ok || len(cv.Data) != widths[2] {
		t.Fatalf("%T", mpo.Tensors[3].LMat)
	}
	for m := 0; m < 3; m++ {
		lop := mpo.LeftOperatorNames[m].(*symbolic.RowVector)
		if len(lop.Data) != widths[m] {
			t.Fatalf("site %d: %d", m, len(lop.Data))
		}
	}
	// The widths are also readable through the Symbolic interface.
	for m := 0; m < 3; m++ {
		if _, w := mpo.LeftOperatorNames[m].Dims(); w != widths[m] {
			t.Fatalf("site %d: %d", m, w)
		}
	}
}

func TestQCMPOAdjacency(t *testing.T) {
	t.Parallel()
	h, _ := newTestHamiltonian(t, 4)
	mpo := NewQCMPO(h)
	// The right block operators at site m pair position by position
	// with the left block operators after site m-1: equal bond width,
	// conjugate particle numbers, matching spin and irrep.
	for m := 1; m < 4; m++ {
		lop := mpo.LeftOperatorNames[m-1].(*symbolic.RowVector)
		rop := mpo.RightOperatorNames[m].(*symbolic.ColumnVector)
		if len(lop.Data) != len(rop.Data) {
			t.Fatalf("site %d: %d %d", m, len(lop.Data), len(rop.Data))
		}
		for i := range lop.Data {
			lq := lop.Data[i].(*symbolic.Elem).QLabel
			rq := rop.Data[i].(*symbolic.Elem).QLabel
			if lq.N() != -rq.N() || lq.Twos() != rq.Twos() || lq.PG() != rq.PG() {
				t.Fatalf("site %d pos %d: %v %v", m, i, lq, rq)
			}
		}
	}
}

func TestQCMPOSiteOps(t *testing.T) {
	t.Parallel()
	h, _ := newTestHamiltonian(t, 4)
	mpo := NewQCMPO(h)
	for m := 0; m < 4; m++ {
		lops := mpo.Tensors[m].LOps
		if lops.Len() == 0 {
			t.Fatalf("site %d: no operators", m)
		}
		hOp := symbolic.NewElem(symbolic.OpH, nil, h.Vacuum, 1)
		if _, ok := lops.Get(hOp); !ok {
			t.Fatalf("site %d: missing H", m)
		}
		// Filtering removed every vanishing operator.
		for i := 0; i < lops.Len(); i++ {
			op, p := lops.At(i)
			if p == nil || p.Factor == 0 || p.Info.N == 0 {
				t.Fatalf("site %d: zero operator %v", m, op)
			}
		}
	}
	// With dense integrals the symbolic matrices keep no zero cells.
	for m := 1; m <= 2; m++ {
		sm := mpo.Tensors[m].LMat.(*symbolic.Matrix)
		if len(sm.Data) != len(sm.Indices) {
			t.Fatalf("site %d: %d %d", m, len(sm.Data), len(sm.Indices))
		}
		for _, x := range sm.Data {
			if _, isz := x.(symbolic.Zero); isz {
				t.Fatalf("site %d: zero cell survived", m)
			}
		}
	}
}

func TestQCMPODeallocate(t *testing.T) {
	t.Parallel()
	h, f := newTestHamiltonian(t, 4)
	base := f.Doubles.Used()
	iBase := f.Ints.Used()
	mpo := NewQCMPO(h)
	if f.Doubles.Used() <= base {
		t.Fatalf("no site operators allocated")
	}
	mpo.Deallocate()
	if f.Doubles.Used() != base || f.Ints.Used() != iBase {
		t.Fatalf("%d %d", f.Doubles.Used()-base, f.Ints.Used()-iBase)
	}
}

func TestMovingEnvironment(t *testing.T) {
	t.Parallel()
	h, _ := newTestHamiltonian(t, 4)
	mpo := NewQCMPO(h)
	env := NewMovingEnvironment(4, 0, 2, mpo)
	env.InitEnvironments()
	if len(env.Envs) != 4 {
		t.Fatalf("%d", len(env.Envs))
	}
	for i, want := range []int{4, 3, 2, 1} {
		if len(env.Envs[i].Middle) != want {
			t.Fatalf("%d: %d", i, len(env.Envs[i].Middle))
		}
		for k, opt := range env.Envs[i].Middle {
			if opt != mpo.Tensors[i+k] {
				t.Fatalf("%d %d", i, k)
			}
		}
	}
}
