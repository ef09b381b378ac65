// Package label implements packed quantum number labels.
//
// A label identifies a symmetry sector by particle number, spin and
// point group irrep. SpinLabel is the SU(2) spin-adapted form, where a
// single value can stand for a whole range of total spins produced by
// angular momentum coupling. SZLabel is the abelian form used when only
// the spin projection is conserved.
//
// Labels pack into 32 bits so that slices of them can live directly in
// the integer arena, and so that comparing the packed words orders
// labels lexicographically by (n, twosLow, twos, pg).
package label

import (
	"fmt"
	"strconv"
)

// SpinLabel is an SU(2) symmetry sector label. The twos field holds
// twice the total spin; twosLow equals twos for a simple label and
// marks the lower end of a coupled range otherwise. In fused
// bra-operator-ket labels, twosLow carries the bra spin instead.
type SpinLabel uint32

// Invalid marks a failed coupling.
const Invalid SpinLabel = 0xFFFFFFFF

// NewSpin returns a simple label with a single total spin.
func NewSpin(n, twos, pg int) SpinLabel {
	return NewSpinRange(n, twos, twos, pg)
}

// NewSpinRange returns a label covering total spins twosLow..twos in
// steps of 2.
func NewSpinRange(n, twosLow, twos, pg int) SpinLabel {
	return SpinLabel(uint32(n)<<24 | uint32(twosLow&0xFF)<<16 | uint32(twos&0xFF)<<8 | uint32(pg&0xFF))
}

func (q SpinLabel) N() int { return int(int32(q) >> 24) }
func (q SpinLabel) TwosLow() int { return int(q >> 16 & 0xFF) }
func (q SpinLabel) Twos() int { return int(q >> 8 & 0xFF) }
func (q SpinLabel) PG() int { return int(q & 0xFF) }

func (q *SpinLabel) SetN(n int) {
	*q = *q&0x00FFFFFF | SpinLabel(uint32(n)<<24)
}

func (q *SpinLabel) SetTwos(twos int) {
	*q = *q&0xFF0000FF | SpinLabel(uint32(twos&0xFF)<<16|uint32(twos&0xFF)<<8)
}

func (q *SpinLabel) SetTwosLow(twos int) {
	*q = *q&0xFF00FFFF | SpinLabel(uint32(twos&0xFF)<<16)
}

func (q *SpinLabel) SetPG(pg int) {
	*q = *q&0xFFFFFF00 | SpinLabel(uint32(pg&0xFF))
}

// Count returns the number of total spins the label stands for.
func (q SpinLabel) Count() int {
	return (q.Twos()-q.TwosLow())/2 + 1
}

// Index returns the i-th simple label in the coupled range.
func (q SpinLabel) Index(i int) SpinLabel {
	twos := q.TwosLow() + 2*i
	return NewSpinRange(q.N(), twos, twos, q.PG())
}

// Neg negates the particle number. Total spin is a magnitude and is
// left unchanged, as is the irrep, which is its own inverse under xor
// group multiplication.
func (q SpinLabel) Neg() SpinLabel {
	return NewSpinRange(-q.N(), q.TwosLow(), q.Twos(), q.PG())
}

// Add couples two labels. Particle numbers add, irreps multiply, and
// the spin range covers every total spin reachable by coupling a spin
// from one range with a spin from the other.
func (q SpinLabel) Add(other SpinLabel) SpinLabel {
	twos := q.Twos() + other.Twos()
	lr := q.Twos() - other.TwosLow()
	if lr < 0 {
		lr = -lr
	}
	rl := other.Twos() - q.TwosLow()
	if rl < 0 {
		rl = -rl
	}
	return NewSpinRange(q.N()+other.N(), min(lr, rl), twos, q.PG()^other.PG())
}

func (q SpinLabel) Sub(other SpinLabel) SpinLabel {
	return q.Add(other.Neg())
}

// Find returns the position of the simple label x in q's coupled
// range, or -1 when x does not belong to it.
func (q SpinLabel) Find(x SpinLabel) int {
	if q.N() != x.N() || q.PG() != x.PG() {
		return -1
	}
	if (x.Twos()-q.TwosLow())%2 != 0 || x.Twos() < q.TwosLow() || x.Twos() > q.Twos() {
		return -1
	}
	return (x.Twos() - q.TwosLow()) / 2
}

// GetKet recovers the ket label from a fused label by discarding the
// bra spin stored in twosLow.
func (q SpinLabel) GetKet() SpinLabel {
	return NewSpin(q.N(), q.Twos(), q.PG())
}

// GetBra recovers the bra label from a fused label, given the operator
// delta quantum dq.
func (q SpinLabel) GetBra(dq SpinLabel) SpinLabel {
	return NewSpin(q.N()+dq.N(), q.TwosLow(), q.PG()^dq.PG())
}

// Combine fuses a bra and ket label connected by the operator delta
// quantum q. The fused label keeps the ket's quantum numbers and
// records the bra spin in twosLow. Returns Invalid when the triple
// violates particle number, irrep or triangle constraints.
func (q SpinLabel) Combine(bra, ket SpinLabel) SpinLabel {
	fused := ket
	fused.SetTwosLow(bra.Twos())
	if fused.GetBra(q) != bra || !Triangle(ket.Twos(), q.Twos(), bra.Twos()) {
		return Invalid
	}
	return fused
}

func (q SpinLabel) String() string {
	s := "< N=" + strconv.Itoa(q.N()) + " S="
	if q.TwosLow() != q.Twos() {
		s += halfStr(q.TwosLow()) + "~"
	}
	s += halfStr(q.Twos())
	return s + " PG=" + strconv.Itoa(q.PG()) + " >"
}

func halfStr(twos int) string {
	if twos&1 != 0 {
		return fmt.Sprintf("%d/2", twos)
	}
	return strconv.Itoa(twos >> 1)
}

// Triangle reports whether the doubled angular momenta (a, b, c) can
// couple: matching parity and the triangle inequality.
func Triangle(a, b, c int) bool {
	return (a+b+c)&1 == 0 && c <= a+b && c >= abs(a-b)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SZLabel is an abelian symmetry sector label carrying particle
// number, twice the spin projection and the point group irrep. Every
// SZLabel stands for exactly one sector.
type SZLabel uint32

// NewSZ returns the label for particle number n, spin projection
// twos/2 and irrep pg.
func NewSZ(n, twos, pg int) SZLabel {
	return SZLabel(uint32(n)<<24 | uint32(twos&0xFF)<<8 | uint32(pg&0xFF))
}

func (q SZLabel) N() int { return int(int32(q) >> 24) }
func (q SZLabel) Twos() int { return int(int8(q >> 8)) }
func (q SZLabel) PG() int { return int(q & 0xFF) }

func (q SZLabel) Count() int { return 1 }

func (q SZLabel) Index(i int) SZLabel { return q }

// Neg negates both the particle number and the spin projection.
func (q SZLabel) Neg() SZLabel {
	return NewSZ(-q.N(), -q.Twos(), q.PG())
}

func (q SZLabel) Add(other SZLabel) SZLabel {
	return NewSZ(q.N()+other.N(), q.Twos()+other.Twos(), q.PG()^other.PG())
}

func (q SZLabel) Sub(other SZLabel) SZLabel {
	return q.Add(other.Neg())
}

func (q SZLabel) GetKet() SZLabel { return q }

func (q SZLabel) GetBra(dq SZLabel) SZLabel { return q.Add(dq) }

func (q SZLabel) String() string {
	return "< N=" + strconv.Itoa(q.N()) + " SZ=" + halfStr(q.Twos()) + " PG=" + strconv.Itoa(q.PG()) + " >"
}
