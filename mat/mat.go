// Package mat provides dense row-major kernels over BLAS for the
// block-sparse tensor layer. A Ref never owns its elements; it is a
// shaped view into arena memory.
package mat

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	gmat "gonum.org/v1/gonum/mat"
)

// Ref is a row-major matrix view.
type Ref struct {
	M, N int
	Data []float64
}

func NewRef(data []float64, m, n int) Ref {
	return Ref{M: m, N: n, Data: data}
}

func (a Ref) At(i, j int) float64 { return a.Data[i*a.N+j] }
func (a Ref) Set(i, j int, v float64) { a.Data[i*a.N+j] = v }
func (a Ref) Size() int { return a.M * a.N }

func (a Ref) vec() blas64.Vector {
	return blas64.Vector{N: a.M * a.N, Data: a.Data, Inc: 1}
}

func (a Ref) general() blas64.General {
	return blas64.General{Rows: a.M, Cols: a.N, Stride: a.N, Data: a.Data}
}

// Iscale does a *= scale.
func Iscale(a Ref, scale float64) {
	blas64.Scal(scale, a.vec())
}

// Iadd does a += b * scale.
func Iadd(a, b Ref, scale float64) {
	if a.M != b.M || a.N != b.N {
		panic(fmt.Sprintf("shape mismatch: %dx%d += %dx%d", a.M, a.N, b.M, b.N))
	}
	blas64.Axpy(scale, b.vec(), a.vec())
}

// Multiply does c = scale * a * b + cfactor * c. The conjugation flags
// are carried through from callers but only the plain case is needed.
func Multiply(a Ref, conja bool, b Ref, conjb bool, c Ref, scale, cfactor float64) {
	if conja || conjb {
		panic("transposed multiply not implemented")
	}
	if a.N != b.M || c.M != a.M || c.N != b.N {
		panic(fmt.Sprintf("shape mismatch: %dx%d * %dx%d -> %dx%d", a.M, a.N, b.M, b.N, c.M, c.N))
	}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, scale, a.general(), b.general(), cfactor, c.general())
}

// TensorProduct accumulates scale * (a (x) b) into c. The Kronecker
// block lands at flat offset stride within each row group, which lets
// the caller place the product inside a larger block of c.
func TensorProduct(a Ref, conja bool, b Ref, conjb bool, c Ref, scale float64, stride int) {
	if conja || conjb {
		panic("transposed tensor product not implemented")
	}
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			factor := scale * a.Data[i*a.N+j]
			for k := 0; k < b.M; k++ {
				off := (i*b.M+k)*c.N + j*b.N + stride
				blas64.Axpy(factor,
					blas64.Vector{N: b.N, Data: b.Data[k*b.N : (k+1)*b.N], Inc: 1},
					blas64.Vector{N: b.N, Data: c.Data[off : off+b.N], Inc: 1})
			}
		}
	}
}

// Eigen diagonalizes the symmetric matrix a. Row i of a is overwritten
// with the i-th eigenvector, and w receives the eigenvalues in
// ascending order.
func Eigen(a Ref, w []float64) {
	if a.M != a.N || len(w) != a.M {
		panic(fmt.Sprintf("shape mismatch: %dx%d eigenvalues %d", a.M, a.N, len(w)))
	}
	sym := gmat.NewSymDense(a.M, nil)
	for i := 0; i < a.M; i++ {
		for j := i; j < a.N; j++ {
			sym.SetSym(i, j, a.At(i, j))
		}
	}
	var es gmat.EigenSym
	if !es.Factorize(sym, true) {
		panic("eigendecomposition failed")
	}
	es.Values(w)
	var vecs gmat.Dense
	es.VectorsTo(&vecs)
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			a.Set(i, j, vecs.At(j, i))
		}
	}
}
