// Package cg computes Clebsch-Gordan, Wigner 3j/6j/9j and Racah
// coefficients for SU(2) recoupling.
//
// All angular momentum arguments are doubled integers, so half-integer
// spins stay exact. The closed-form sums follow Messiah, Quantum
// Mechanics Vol 2, Eqs. (C.21), (C.36), (C.41). The sums alternate in
// sign over large factorial ratios, so the factorial square roots are
// tabulated and combined in 128-bit floats before the final rounding
// to float64.
package cg

import (
	"math"
	"math/big"

	"github.com/adrianjhpc/block2-preview/label"
)

const prec = 128

// CG holds the square root factorial table sqrtFact[i] = sqrt(i!).
type CG struct {
	sqrtFact []big.Float
	nTwoJ    int
}

// New tabulates nSqrtFact square root factorials, enough for momenta
// up to maxJ (doubled).
func New(nSqrtFact, maxJ int) *CG {
	c := &CG{sqrtFact: make([]big.Float, nSqrtFact), nTwoJ: maxJ}
	c.sqrtFact[0].SetPrec(prec).SetInt64(1)
	t := new(big.Float).SetPrec(prec)
	for i := 1; i < nSqrtFact; i++ {
		t.SetInt64(int64(i))
		t.Sqrt(t)
		c.sqrtFact[i].SetPrec(prec).Mul(&c.sqrtFact[i-1], t)
	}
	return c
}

// sqrtDelta is the square root of the triangle coefficient
// delta(ja jb jc).
func (c *CG) sqrtDelta(tja, tjb, tjc int) *big.Float {
	r := new(big.Float).SetPrec(prec)
	r.Mul(&c.sqrtFact[(tja+tjb-tjc)>>1], &c.sqrtFact[(tja-tjb+tjc)>>1])
	r.Mul(r, &c.sqrtFact[(-tja+tjb+tjc)>>1])
	r.Quo(r, &c.sqrtFact[(tja+tjb+tjc+2)>>1])
	return r
}

// CG returns the Clebsch-Gordan coefficient <ja ma jb mb|jc mc>.
func (c *CG) CG(tja, tjb, tjc, tma, tmb, tmc int) float64 {
	sign := 1.0
	if (tmc+tja-tjb)&2 != 0 {
		sign = -1
	}
	return sign * math.Sqrt(float64(tjc+1)) * c.Wigner3J(tja, tjb, tjc, tma, tmb, -tmc)
}

// Wigner3J returns the Wigner 3j symbol (ja jb jc; ma mb mc).
func (c *CG) Wigner3J(tja, tjb, tjc, tma, tmb, tmc int) float64 {
	if tma+tmb+tmc != 0 || !label.Triangle(tja, tjb, tjc) ||
		(tja+tma)&1 != 0 || (tjb+tmb)&1 != 0 || (tjc+tmc)&1 != 0 {
		return 0
	}
	alpha1, alpha2 := (tjb-tjc-tma)>>1, (tja-tjc+tmb)>>1
	beta1, beta2, beta3 := (tja+tjb-tjc)>>1, (tja-tma)>>1, (tjb+tmb)>>1
	maxAlpha := max(0, alpha1, alpha2)
	minBeta := min(beta1, beta2, beta3)
	if maxAlpha > minBeta {
		return 0
	}
	factor := c.sqrtDelta(tja, tjb, tjc)
	for _, k := range [...]int{(tja + tma) >> 1, (tja - tma) >> 1, (tjb + tmb) >> 1,
		(tjb - tmb) >> 1, (tjc + tmc) >> 1, (tjc - tmc) >> 1} {
		factor.Mul(factor, &c.sqrtFact[k])
	}
	if (tja-tjb-tmc)&2 != 0 {
		factor.Neg(factor)
	}
	if maxAlpha&1 != 0 {
		factor.Neg(factor)
	}
	r := new(big.Float).SetPrec(prec)
	rst := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec)
	for t := maxAlpha; t <= minBeta; t++ {
		rst.Mul(&c.sqrtFact[t], &c.sqrtFact[t-alpha1])
		rst.Mul(rst, &c.sqrtFact[t-alpha2])
		rst.Mul(rst, &c.sqrtFact[beta1-t])
		rst.Mul(rst, &c.sqrtFact[beta2-t])
		rst.Mul(rst, &c.sqrtFact[beta3-t])
		rst.Mul(rst, rst)
		term.Quo(factor, rst)
		r.Add(r, term)
		factor.Neg(factor)
	}
	f, _ := r.Float64()
	return f
}

// Wigner6J returns the Wigner 6j symbol {ja jb jc; jd je jf}.
func (c *CG) Wigner6J(tja, tjb, tjc, tjd, tje, tjf int) float64 {
	f, _ := c.wigner6J(tja, tjb, tjc, tjd, tje, tjf).Float64()
	return f
}

func (c *CG) wigner6J(tja, tjb, tjc, tjd, tje, tjf int) *big.Float {
	r := new(big.Float).SetPrec(prec)
	if !label.Triangle(tja, tjb, tjc) || !label.Triangle(tja, tje, tjf) ||
		!label.Triangle(tjd, tjb, tjf) || !label.Triangle(tjd, tje, tjc) {
		return r
	}
	alpha1, alpha2 := (tja+tjb+tjc)>>1, (tja+tje+tjf)>>1
	alpha3, alpha4 := (tjd+tjb+tjf)>>1, (tjd+tje+tjc)>>1
	beta1 := (tja + tjb + tjd + tje) >> 1
	beta2 := (tjb + tjc + tje + tjf) >> 1
	beta3 := (tja + tjc + tjd + tjf) >> 1
	maxAlpha := max(alpha1, alpha2, alpha3, alpha4)
	minBeta := min(beta1, beta2, beta3)
	if maxAlpha > minBeta {
		return r
	}
	factor := c.sqrtDelta(tja, tjb, tjc)
	factor.Mul(factor, c.sqrtDelta(tja, tje, tjf))
	factor.Mul(factor, c.sqrtDelta(tjd, tjb, tjf))
	factor.Mul(factor, c.sqrtDelta(tjd, tje, tjc))
	if maxAlpha&1 != 0 {
		factor.Neg(factor)
	}
	rst := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec)
	for t := maxAlpha; t <= minBeta; t++ {
		rst.Mul(&c.sqrtFact[t-alpha1], &c.sqrtFact[t-alpha2])
		rst.Mul(rst, &c.sqrtFact[t-alpha3])
		rst.Mul(rst, &c.sqrtFact[t-alpha4])
		rst.Mul(rst, &c.sqrtFact[beta1-t])
		rst.Mul(rst, &c.sqrtFact[beta2-t])
		rst.Mul(rst, &c.sqrtFact[beta3-t])
		rst.Mul(rst, rst)
		term.Mul(&c.sqrtFact[t+1], &c.sqrtFact[t+1])
		term.Mul(term, factor)
		term.Quo(term, rst)
		r.Add(r, term)
		factor.Neg(factor)
	}
	return r
}

// Wigner9J returns the Wigner 9j symbol, expanded as a sum over
// products of three 6j symbols.
func (c *CG) Wigner9J(tja, tjb, tjc, tjd, tje, tjf, tjg, tjh, tji int) float64 {
	if !label.Triangle(tja, tjb, tjc) || !label.Triangle(tjd, tje, tjf) ||
		!label.Triangle(tjg, tjh, tji) || !label.Triangle(tja, tjd, tjg) ||
		!label.Triangle(tjb, tje, tjh) || !label.Triangle(tjc, tjf, tji) {
		return 0
	}
	maxAlpha := max(abs(tja-tji), abs(tjd-tjh), abs(tjb-tjf))
	minBeta := min(tja+tji, tjd+tjh, tjb+tjf)
	r := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec)
	g := new(big.Float).SetPrec(prec)
	for tg := maxAlpha; tg <= minBeta; tg += 2 {
		g.SetInt64(int64(tg + 1))
		term.Mul(c.wigner6J(tja, tjb, tjc, tjf, tji, tg), c.wigner6J(tjd, tje, tjf, tjb, tg, tjh))
		term.Mul(term, c.wigner6J(tjg, tjh, tji, tg, tja, tjd))
		term.Mul(term, g)
		r.Add(r, term)
	}
	f, _ := r.Float64()
	if maxAlpha&1 != 0 {
		return -f
	}
	return f
}

// Racah returns the Racah coefficient W(abcd;ef).
// Brink and Satchler, Angular Momentum, p142.
func (c *CG) Racah(ta, tb, tc, td, te, tf int) float64 {
	sign := 1.0
	if (ta+tb+tc+td)&2 != 0 {
		sign = -1
	}
	return sign * c.Wigner6J(ta, tb, te, td, tc, tf)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
