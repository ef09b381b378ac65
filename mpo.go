package block2

import (
	"math"

	"github.com/adrianjhpc/block2-preview/label"
	"github.com/adrianjhpc/block2-preview/symbolic"
)

// OperatorTensor is one site of an MPO: the symbolic operator matrix
// together with the sparse matrices its symbols resolve to.
type OperatorTensor struct {
	LMat, RMat symbolic.Symbolic
	LOps, ROps *OpMap
}

func NewOperatorTensor() *OperatorTensor {
	return &OperatorTensor{LOps: NewOpMap(), ROps: NewOpMap()}
}

// MPO is a matrix product operator, one OperatorTensor per site plus
// the names of the normal and complementary operators carried by the
// left and right blocks after each site.
type MPO struct {
	Tensors            []*OperatorTensor
	LeftOperatorNames  []symbolic.Symbolic
	RightOperatorNames []symbolic.Symbolic
	NSites             int
}

// NewQCMPO builds the quantum chemistry MPO for hamil. Site m of the
// operator matrix has 2+2N+6m^2 rows and 2+2N+6(m+1)^2 columns: the
// identity and Hamiltonian rails, a C/D/RD/R rail per orbital, and
// the m^2 blocks of the singlet and triplet A, AD and B operators of
// the left block.
func NewQCMPO(hamil *Hamiltonian) *MPO {
	ns := hamil.NSites
	mpo := &MPO{NSites: ns}
	hOp := symbolic.NewElem(symbolic.OpH, nil, hamil.Vacuum, 1)
	iOp := symbolic.NewElem(symbolic.OpI, nil, hamil.Vacuum, 1)
	cOp := make([]*symbolic.Elem, ns)
	dOp := make([]*symbolic.Elem, ns)
	mcOp := make([]*symbolic.Elem, ns)
	mdOp := make([]*symbolic.Elem, ns)
	trdOp := make([]*symbolic.Elem, ns)
	trOp := make([]*symbolic.Elem, ns)
	for m := 0; m < ns; m++ {
		sym := int(hamil.OrbSym[m])
		um := uint8(m)
		cOp[m] = symbolic.NewElem(symbolic.OpC, []uint8{um}, label.NewSpin(1, 1, sym), 1)
		dOp[m] = symbolic.NewElem(symbolic.OpD, []uint8{um}, label.NewSpin(-1, 1, sym), 1)
		mcOp[m] = symbolic.NewElem(symbolic.OpC, []uint8{um}, label.NewSpin(1, 1, sym), -1)
		mdOp[m] = symbolic.NewElem(symbolic.OpD, []uint8{um}, label.NewSpin(-1, 1, sym), -1)
		trdOp[m] = symbolic.NewElem(symbolic.OpRD, []uint8{um}, label.NewSpin(1, 1, sym), 2)
		trOp[m] = symbolic.NewElem(symbolic.OpR, []uint8{um}, label.NewSpin(-1, 1, sym), 2)
	}
	type pairOps [][][2]*symbolic.Elem
	newPairOps := func(name symbolic.OpName, dn int) pairOps {
		ops := make(pairOps, ns)
		for i := 0; i < ns; i++ {
			ops[i] = make([][2]*symbolic.Elem, ns)
			for j := 0; j < ns; j++ {
				pg := int(hamil.OrbSym[i] ^ hamil.OrbSym[j])
				for s := 0; s < 2; s++ {
					ops[i][j][s] = symbolic.NewElem(name,
						[]uint8{uint8(i), uint8(j), uint8(s)}, label.NewSpin(dn, s*2, pg), 1)
				}
			}
		}
		return ops
	}
	aOp := newPairOps(symbolic.OpA, 2)
	adOp := newPairOps(symbolic.OpAD, -2)
	bOp := newPairOps(symbolic.OpB, 0)
	pOp := newPairOps(symbolic.OpP, -2)
	pdOp := newPairOps(symbolic.OpPD, 2)
	qOp := newPairOps(symbolic.OpQ, 0)

	sqrt3 := math.Sqrt(3)
	for m := 0; m < ns; m++ {
		lshape := 2 + 2*ns + 6*m*m
		rshape := 2 + 2*ns + 6*(m+1)*(m+1)

		var pmat symbolic.Symbolic
		var rv *symbolic.RowVector
		var cv *symbolic.ColumnVector
		var sm *symbolic.Matrix
		switch {
		case m == 0:
			rv = symbolic.NewRowVector(rshape)
			pmat = rv
		case m == ns-1:
			cv = symbolic.NewColumnVector(lshape)
			pmat = cv
		default:
			sm = symbolic.NewMatrix(lshape, rshape)
			pmat = sm
		}
		var p int
		if m == 0 {
			rv.Data[0] = hOp
			rv.Data[1] = iOp
			rv.Data[2] = cOp[m]
			rv.Data[3] = dOp[m]
			p = 4
			for j := m + 1; j < ns; j++ {
				rv.Data[p+j-m-1] = trdOp[j]
			}
			p += ns - (m + 1)
			for j := m + 1; j < ns; j++ {
				rv.Data[p+j-m-1] = trOp[j]
			}
			p += ns - (m + 1)
			for s := 0; s < 2; s++ {
				rv.Data[p+s] = aOp[m][m][s]
			}
			p += 2
			for s := 0; s < 2; s++ {
				rv.Data[p+s] = adOp[m][m][s]
			}
			p += 2
			for s := 0; s < 2; s++ {
				rv.Data[p+s] = bOp[m][m][s]
			}
			p += 2
			if p != rshape {
				panic("row vector size mismatch")
			}
		} else {
			// First column: the complete Hamiltonian of the right
			// block, in terms of left-block operators and their
			// complementary partners.
			set := func(i int, e symbolic.Expr) {
				if cv != nil {
					cv.Data[i] = e
				} else {
					sm.Add(i, 0, e)
				}
			}
			set(0, iOp)
			set(1, hOp)
			p = 2
			for j := 0; j < m; j++ {
				set(p+j, trOp[j])
			}
			p += m
			for j := 0; j < m; j++ {
				set(p+j, trdOp[j])
			}
			p += m
			set(p, dOp[m])
			p += ns - m
			set(p, cOp[m])
			p += ns - m
			su2Factor := []float64{-0.5, -0.5 * sqrt3}
			for s := 0; s < 2; s++ {
				for j := 0; j < m; j++ {
					for k := 0; k < m; k++ {
						set(p+k, pOp[j][k][s].Scale(su2Factor[s]))
					}
					p += m
				}
			}
			for s := 0; s < 2; s++ {
				for j := 0; j < m; j++ {
					for k := 0; k < m; k++ {
						set(p+k, pdOp[j][k][s].Scale(su2Factor[s]))
					}
					p += m
				}
			}
			su2Factor = []float64{1, sqrt3}
			for s := 0; s < 2; s++ {
				for j := 0; j < m; j++ {
					for k := 0; k < m; k++ {
						set(p+k, qOp[j][k][s].Scale(su2Factor[s]))
					}
					p += m
				}
			}
			if p != lshape {
				panic("column vector size mismatch")
			}
		}
		if m != 0 && m != ns-1 {
			sm.Add(1, 1, iOp)
			p = 2
			pi, pc, pd := 1, 2, 2+m
			prd, pr := 2+m, 2+m+ns-m
			pa0 := 2 + ns*2
			pa1 := pa0 + m*m
			pad0 := pa0 + m*m*2
			pad1 := pa0 + m*m*3
			pb0 := pa0 + m*m*4
			pb1 := pa0 + m*m*5
			// C
			for j := 0; j < m; j++ {
				sm.Add(pc+j, p+j, iOp)
			}
			sm.Add(pi, p+m, cOp[m])
			p += m + 1
			// D
			for j := 0; j < m; j++ {
				sm.Add(pd+j, p+j, iOp)
			}
			sm.Add(pi, p+m, dOp[m])
			p += m + 1
			// RD
			for i := m + 1; i < ns; i++ {
				sm.Add(prd+i, p+i-(m+1), iOp)
				sm.Add(pi, p+i-(m+1), trdOp[i])
				for k := 0; k < m; k++ {
					sm.Add(pd+k, p+i-(m+1), symbolic.Scale(symbolic.Add(
						pdOp[i][k][0].Scale(-0.5), pdOp[i][k][1].Scale(-0.5*sqrt3)), 2))
					sm.Add(pc+k, p+i-(m+1), symbolic.Scale(symbolic.Add(
						qOp[k][i][0].Scale(0.5), qOp[k][i][1].Scale(-0.5*sqrt3)), 2))
				}
				for j := 0; j < m; j++ {
					for l := 0; l < m; l++ {
						f0 := hamil.V(i, j, m, l) + hamil.V(i, l, m, j)
						f1 := hamil.V(i, j, m, l) - hamil.V(i, l, m, j)
						sm.Add(pa0+j*m+l, p+i-(m+1), dOp[m].Scale(f0*-0.5))
						sm.Add(pa1+j*m+l, p+i-(m+1), dOp[m].Scale(f1*0.5*sqrt3))
					}
				}
				for k := 0; k < m; k++ {
					for l := 0; l < m; l++ {
						f := 2*hamil.V(i, m, k, l) - hamil.V(i, l, k, m)
						sm.Add(pb0+l*m+k, p+i-(m+1), cOp[m].Scale(f))
					}
				}
				for j := 0; j < m; j++ {
					for k := 0; k < m; k++ {
						f := hamil.V(i, j, k, m) * sqrt3
						sm.Add(pb1+j*m+k, p+i-(m+1), cOp[m].Scale(f))
					}
				}
			}
			p += ns - (m + 1)
			// R
			for i := m + 1; i < ns; i++ {
				sm.Add(pr+i, p+i-(m+1), iOp)
				sm.Add(pi, p+i-(m+1), trOp[i])
				for k := 0; k < m; k++ {
					sm.Add(pc+k, p+i-(m+1), symbolic.Scale(symbolic.Add(
						pOp[i][k][0].Scale(-0.5), pOp[i][k][1].Scale(0.5*sqrt3)), 2))
					sm.Add(pd+k, p+i-(m+1), symbolic.Scale(symbolic.Add(
						qOp[i][k][0].Scale(0.5), qOp[i][k][1].Scale(0.5*sqrt3)), 2))
				}
				for j := 0; j < m; j++ {
					for l := 0; l < m; l++ {
						f0 := hamil.V(i, j, m, l) + hamil.V(i, l, m, j)
						f1 := hamil.V(i, j, m, l) - hamil.V(i, l, m, j)
						sm.Add(pad0+j*m+l, p+i-(m+1), cOp[m].Scale(f0*-0.5))
						sm.Add(pad1+j*m+l, p+i-(m+1), cOp[m].Scale(f1*-0.5*sqrt3))
					}
				}
				for k := 0; k < m; k++ {
					for l := 0; l < m; l++ {
						f := 2*hamil.V(i, m, k, l) - hamil.V(i, l, k, m)
						sm.Add(pb0+k*m+l, p+i-(m+1), dOp[m].Scale(f))
					}
				}
				for j := 0; j < m; j++ {
					for k := 0; k < m; k++ {
						f := -hamil.V(i, j, k, m) * sqrt3
						sm.Add(pb1+k*m+j, p+i-(m+1), dOp[m].Scale(f))
					}
				}
			}
			p += ns - (m + 1)
			// A
			for s := 0; s < 2; s++ {
				pa := pa0
				if s == 1 {
					pa = pa1
				}
				for i := 0; i < m; i++ {
					for j := 0; j < m; j++ {
						sm.Add(pa+i*m+j, p+i*(m+1)+j, iOp)
					}
				}
				for i := 0; i < m; i++ {
					sm.Add(pc+i, p+i*(m+1)+m, cOp[m])
					if s == 1 {
						sm.Add(pc+i, p+m*(m+1)+i, mcOp[m])
					} else {
						sm.Add(pc+i, p+m*(m+1)+i, cOp[m])
					}
				}
				sm.Add(pi, p+m*(m+1)+m, aOp[m][m][s])
				p += (m + 1) * (m + 1)
			}
			// AD
			for s := 0; s < 2; s++ {
				pad := pad0
				if s == 1 {
					pad = pad1
				}
				for i := 0; i < m; i++ {
					for j := 0; j < m; j++ {
						sm.Add(pad+i*m+j, p+i*(m+1)+j, iOp)
					}
				}
				for i := 0; i < m; i++ {
					if s == 1 {
						sm.Add(pd+i, p+i*(m+1)+m, mdOp[m])
					} else {
						sm.Add(pd+i, p+i*(m+1)+m, dOp[m])
					}
					sm.Add(pd+i, p+m*(m+1)+i, dOp[m])
				}
				sm.Add(pi, p+m*(m+1)+m, adOp[m][m][s])
				p += (m + 1) * (m + 1)
			}
			// B
			for s := 0; s < 2; s++ {
				pb := pb0
				if s == 1 {
					pb = pb1
				}
				for i := 0; i < m; i++ {
					for j := 0; j < m; j++ {
						sm.Add(pb+i*m+j, p+i*(m+1)+j, iOp)
					}
				}
				for i := 0; i < m; i++ {
					sm.Add(pc+i, p+i*(m+1)+m, dOp[m])
					if s == 1 {
						sm.Add(pd+i, p+m*(m+1)+i, mcOp[m])
					} else {
						sm.Add(pd+i, p+m*(m+1)+i, cOp[m])
					}
				}
				sm.Add(pi, p+m*(m+1)+m, bOp[m][m][s])
				p += (m + 1) * (m + 1)
			}
			if p != rshape {
				panic("matrix size mismatch")
			}
		}
		opt := NewOperatorTensor()
		opt.LMat, opt.RMat = pmat, pmat

		var lop *symbolic.RowVector
		if m == ns-1 {
			lop = symbolic.NewRowVector(1)
		} else {
			lop = symbolic.NewRowVector(rshape)
		}
		var rop *symbolic.ColumnVector
		if m == 0 {
			rop = symbolic.NewColumnVector(1)
		} else {
			rop = symbolic.NewColumnVector(lshape)
		}
		lop.Data[0] = hOp
		if m != ns-1 {
			lop.Data[1] = iOp
			p = 2
			for j := 0; j < m+1; j++ {
				lop.Data[p+j] = cOp[j]
			}
			p += m + 1
			for j := 0; j < m+1; j++ {
				lop.Data[p+j] = dOp[j]
			}
			p += m + 1
			for j := m + 1; j < ns; j++ {
				lop.Data[p+j-(m+1)] = trdOp[j]
			}
			p += ns - (m + 1)
			for j := m + 1; j < ns; j++ {
				lop.Data[p+j-(m+1)] = trOp[j]
			}
			p += ns - (m + 1)
			for _, ops := range []pairOps{aOp, adOp, bOp} {
				for s := 0; s < 2; s++ {
					for j := 0; j < m+1; j++ {
						for k := 0; k < m+1; k++ {
							lop.Data[p+k] = ops[j][k][s]
						}
						p += m + 1
					}
				}
			}
			if p != rshape {
				panic("left operator names size mismatch")
			}
		}
		rop.Data[0] = iOp
		if m != 0 {
			rop.Data[1] = hOp
			p = 2
			for j := 0; j < m; j++ {
				rop.Data[p+j] = trOp[j]
			}
			p += m
			for j := 0; j < m; j++ {
				rop.Data[p+j] = trdOp[j]
			}
			p += m
			for j := m; j < ns; j++ {
				rop.Data[p+j-m] = dOp[j]
			}
			p += ns - m
			for j := m; j < ns; j++ {
				rop.Data[p+j-m] = cOp[j]
			}
			p += ns - m
			su2Factor := []float64{-0.5, -0.5 * sqrt3}
			for _, ops := range []pairOps{pOp, pdOp} {
				for s := 0; s < 2; s++ {
					for j := 0; j < m; j++ {
						for k := 0; k < m; k++ {
							rop.Data[p+k] = ops[j][k][s].Scale(su2Factor[s])
						}
						p += m
					}
				}
			}
			su2Factor = []float64{1, sqrt3}
			for s := 0; s < 2; s++ {
				for j := 0; j < m; j++ {
					for k := 0; k < m; k++ {
						rop.Data[p+k] = qOp[j][k][s].Scale(su2Factor[s])
					}
					p += m
				}
			}
			if p != lshape {
				panic("right operator names size mismatch")
			}
		}
		hamil.FilterSiteOps(m, opt.LMat, opt.LOps)
		mpo.Tensors = append(mpo.Tensors, opt)
		mpo.LeftOperatorNames = append(mpo.LeftOperatorNames, lop)
		mpo.RightOperatorNames = append(mpo.RightOperatorNames, rop)
	}
	return mpo
}

// Deallocate frees the site operators that were built fresh for each
// site, in reverse site and reverse symbol order. The remaining
// operators alias the Hamiltonian's primitives and are owned by it.
func (mpo *MPO) Deallocate() {
	for m := mpo.NSites - 1; m >= 0; m-- {
		lop := mpo.Tensors[m].LOps
		for i := lop.Len() - 1; i >= 0; i-- {
			op, p := lop.At(i)
			switch op.Name {
			case symbolic.OpR, symbolic.OpRD, symbolic.OpH:
				p.Deallocate()
			}
		}
	}
}
