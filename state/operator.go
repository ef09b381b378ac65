package state

import (
	"math"

	"github.com/adrianjhpc/block2-preview/cg"
	"github.com/adrianjhpc/block2-preview/label"
	"github.com/adrianjhpc/block2-preview/mat"
)

// OperatorFunctions are the block-sparse kernels: addition, spin
// recoupled tensor products between subsystems, and operator products
// within one space. The recoupling weights come from the shared
// coefficient table.
type OperatorFunctions struct {
	CG *cg.CG
}

// Iadd does a += b * scale. The lazy factor of a is folded into its
// elements first so that the sum is plain.
func (of *OperatorFunctions) Iadd(a, b *SparseMatrix, scale float64) {
	if a.Info.N != b.Info.N || a.TotalMemory != b.TotalMemory {
		panic("block structure mismatch")
	}
	if a.Factor != 1 {
		mat.Iscale(mat.NewRef(a.Data, 1, a.TotalMemory), a.Factor)
		a.Factor = 1
	}
	if scale != 0 {
		mat.Iadd(mat.NewRef(a.Data, 1, a.TotalMemory), mat.NewRef(b.Data, 1, b.TotalMemory), scale*b.Factor)
	}
}

// TensorProduct accumulates scale * (a (x) b) into c, where a acts on
// the left space and b on the right. Each c block is assembled from
// the Kronecker products of compatible a and b blocks, weighted by a
// Wigner 9j recoupling of the six spins involved, with the fermionic
// sign from commuting b through the left space when its particle
// count is odd.
func (of *OperatorFunctions) TensorProduct(a, b, c *SparseMatrix, scale float64) {
	scale = scale * a.Factor * b.Factor
	if c.Factor != 1 {
		panic("tensor product into scaled matrix")
	}
	if math.Abs(scale) < Tiny {
		return
	}
	adq, bdq, cdq := a.Info.DeltaQuantum, b.Info.DeltaQuantum, c.Info.DeltaQuantum
	for ic := 0; ic < c.Info.N; ic++ {
		cq := c.Info.Quantum(ic).GetBra(cdq)
		cqprime := c.Info.Quantum(ic).GetKet()
		rowStride, colStride := 0, 0
		for ib := 0; ib < b.Info.N; ib++ {
			bq := b.Info.Quantum(ib).GetBra(bdq)
			bqprime := b.Info.Quantum(ib).GetKet()
			aqs := cq.Sub(bq)
			aqps := cqprime.Sub(bqprime)
			for k := 0; k < aqs.Count(); k++ {
				aq := aqs.Index(k)
				aqpds := aq.Sub(adq)
				nBra := 0
				for l := 0; l < aqpds.Count(); l++ {
					aqprime := aqpds.Index(l)
					al := adq.Combine(aq, aqprime)
					nKet := 0
					if aqps.Find(aqprime) != -1 && al != label.Invalid {
						if ia := a.Info.FindState(al); ia != -1 {
							nBra = a.Info.NStatesBra(ia)
							nKet = a.Info.NStatesKet(ia)
							factor := of.CG.Wigner9J(
								aqprime.Twos(), bqprime.Twos(), cqprime.Twos(),
								adq.Twos(), bdq.Twos(), cdq.Twos(),
								aq.Twos(), bq.Twos(), cq.Twos())
							if b.Info.IsFermion && aqprime.N()&1 != 0 {
								factor = -factor
							}
							mat.TensorProduct(a.Block(ia), a.Conj, b.Block(ib), b.Conj, c.Block(ic),
								scale*factor, rowStride*c.Info.NStatesKet(ic)+colStride)
						}
					}
					colStride += nKet * b.Info.NStatesKet(ib)
				}
				rowStride += nBra * b.Info.NStatesBra(ib)
			}
		}
	}
}

// Product accumulates scale * a * b into c for three operators on the
// same space. Each c block sums matrix products of a and b blocks
// whose intermediate sector is consistent, weighted by a Racah
// recoupling and the norm ratio of the coupled sectors.
func (of *OperatorFunctions) Product(a, b, c *SparseMatrix, scale float64) {
	scale = scale * a.Factor * b.Factor
	if c.Factor != 1 {
		panic("product into scaled matrix")
	}
	if math.Abs(scale) < Tiny {
		return
	}
	adq := a.Info.DeltaQuantum.Twos()
	bdq := b.Info.DeltaQuantum.Twos()
	cdq := c.Info.DeltaQuantum.Twos()
	for ic := 0; ic < c.Info.N; ic++ {
		cq := c.Info.Quantum(ic).GetBra(c.Info.DeltaQuantum)
		cqprime := c.Info.Quantum(ic).GetKet()
		aps := cq.Sub(a.Info.DeltaQuantum)
		for k := 0; k < aps.Count(); k++ {
			aqprime := aps.Index(k)
			ac := aps.Index(k)
			ac.SetTwosLow(cq.Twos())
			ia := a.Info.FindState(ac)
			if ia == -1 {
				continue
			}
			bl := b.Info.DeltaQuantum.Combine(aqprime, cqprime)
			if bl == label.Invalid {
				continue
			}
			ib := b.Info.FindState(bl)
			if ib == -1 {
				continue
			}
			aqpj, cqj, cqpj := aqprime.Twos(), cq.Twos(), cqprime.Twos()
			factor := of.CG.Racah(cqpj, bdq, cqj, adq, aqpj, cdq)
			factor *= math.Sqrt(float64((cdq + 1) * (aqpj + 1)))
			if (adq+bdq-cdq)&2 != 0 {
				factor = -factor
			}
			mat.Multiply(a.Block(ia), a.Conj, b.Block(ib), b.Conj, c.Block(ic), scale*factor, 1)
		}
	}
}
