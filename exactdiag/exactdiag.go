// Package exactdiag computes full configuration interaction references
// for small molecules by diagonalizing the electronic Hamiltonian in
// the complete Slater determinant basis. It serves as an independent
// check on the tensor network ground state search, which should agree
// with it to within the truncation error of the bond dimension.
package exactdiag

import (
	"fmt"
	"math/bits"
	"math/cmplx"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"github.com/adrianjhpc/block2-preview/fcidump"
)

// A determinant is a bit pattern over spin orbitals, where bit 2m is
// the alpha spin orbital of spatial orbital m and bit 2m+1 its beta
// partner. The Jordan-Wigner sign of an operator on spin orbital p is
// the parity of the occupied spin orbitals below p.

// Determinants enumerates the Slater determinants over norb spatial
// orbitals with nElec electrons and twoSz = nAlpha - nBeta, in
// increasing bit pattern order.
func Determinants(norb, nElec, twoSz int) []uint64 {
	alphaMask := uint64(0)
	for m := 0; m < norb; m++ {
		alphaMask |= 1 << (2 * m)
	}

	dets := make([]uint64, 0)
	for d := uint64(0); d < 1<<(2*norb); d++ {
		na := bits.OnesCount64(d & alphaMask)
		nb := bits.OnesCount64(d) - na
		if na+nb == nElec && na-nb == twoSz {
			dets = append(dets, d)
		}
	}
	return dets
}

// Hamiltonian fills h with the matrix of the electronic Hamiltonian
//
//	E + sum_{s,ij} t(i,j) c+_is c_js
//	  + 1/2 sum_{st,ijkl} (ij|kl) c+_is c+_kt c_lt c_js
//
// in the determinant basis dets.
func Hamiltonian(h *tensor.Dense, fcid *fcidump.FCIDUMP, dets []uint64) {
	norb := fcid.NSites()
	index := make(map[uint64]int, len(dets))
	for i, d := range dets {
		index[d] = i
	}

	h.Reset(len(dets), len(dets))
	add := func(bra uint64, ket int, x float64) {
		if x == 0 {
			return
		}
		i, ok := index[bra]
		if !ok {
			panic(fmt.Sprintf("%b", bra))
		}
		h.SetAt([]int{i, ket}, h.At(i, ket)+complex(float32(x), 0))
	}

	for ket, d := range dets {
		add(d, ket, fcid.E)

		// One-electron part.
		for s := 0; s < 2; s++ {
			for j := 0; j < norb; j++ {
				d1, f1 := annihilate(d, 2*j+s)
				if f1 == 0 {
					continue
				}
				for i := 0; i < norb; i++ {
					d2, f2 := create(d1, 2*i+s)
					if f2 == 0 {
						continue
					}
					add(d2, ket, oneBody(fcid, s, i, j)*float64(f1*f2))
				}
			}
		}

		// Two-electron part, applied right to left:
		// c_js, then c_lt, then c+_kt, then c+_is.
		for s := 0; s < 2; s++ {
			for t := 0; t < 2; t++ {
				for j := 0; j < norb; j++ {
					d1, f1 := annihilate(d, 2*j+s)
					if f1 == 0 {
						continue
					}
					for l := 0; l < norb; l++ {
						d2, f2 := annihilate(d1, 2*l+t)
						if f2 == 0 {
							continue
						}
						for k := 0; k < norb; k++ {
							d3, f3 := create(d2, 2*k+t)
							if f3 == 0 {
								continue
							}
							for i := 0; i < norb; i++ {
								d4, f4 := create(d3, 2*i+s)
								if f4 == 0 {
									continue
								}
								v := twoBody(fcid, s, t, i, j, k, l)
								add(d4, ket, 0.5*v*float64(f1*f2*f3*f4))
							}
						}
					}
				}
			}
		}
	}
}

// GroundState computes the lowest eigenpair of the hermitian matrix h.
func GroundState(h *tensor.Dense, bufs [10]*tensor.Dense) (complex64, *tensor.Dense, error) {
	dim := h.Shape()[0]

	// Shift the spectrum down by a Gershgorin bound, so that the lowest
	// eigenvalue is also the one largest in magnitude.
	var bound float64
	for i := 0; i < dim; i++ {
		var row float64
		for j := 0; j < dim; j++ {
			row += cmplx.Abs(complex128(h.At(i, j)))
		}
		if row > bound {
			bound = row
		}
	}
	shift := complex(float32(bound), 0)
	shifted := resetCopy(bufs[0], h)
	for i := 0; i < dim; i++ {
		shifted.SetAt([]int{i, i}, shifted.At(i, i)-shift)
	}

	eigvals, eigvecs := bufs[1], bufs[2]
	abufs := [7]*tensor.Dense(bufs[3:])
	if err := tensor.Arnoldi(eigvals, eigvecs, shifted, 1, abufs); err != nil {
		return 0, nil, errors.Wrap(err, "")
	}
	return eigvals.At(0) + shift, eigvecs.Reshape(dim), nil
}

func annihilate(d uint64, p int) (uint64, float32) {
	if d&(1<<p) == 0 {
		return 0, 0
	}
	return d &^ (1 << p), parity(d, p)
}

func create(d uint64, p int) (uint64, float32) {
	if d&(1<<p) != 0 {
		return 0, 0
	}
	return d | 1<<p, parity(d, p)
}

func parity(d uint64, p int) float32 {
	if bits.OnesCount64(d&(1<<p-1))%2 == 1 {
		return -1
	}
	return 1
}

func oneBody(d *fcidump.FCIDUMP, s, i, j int) float64 {
	if d.UHF {
		return d.Ts[s].At(i, j)
	}
	return d.Ts[0].At(i, j)
}

// twoBody returns the integral (ij|kl) with the bra pair of spin s and
// the ket pair of spin t. The unrestricted mixed table stores the
// alpha pair first.
func twoBody(d *fcidump.FCIDUMP, s, t, i, j, k, l int) float64 {
	switch {
	case !d.UHF:
		return d.Vs[0].At(i, j, k, l)
	case s == t:
		return d.Vs[s].At(i, j, k, l)
	case s == 0:
		return d.Vabs[0].At(i, j, k, l)
	default:
		return d.Vabs[0].At(k, l, i, j)
	}
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}
