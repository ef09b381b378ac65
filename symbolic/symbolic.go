package symbolic

import "fmt"

// Symbolic is a symbolic operator matrix: the first site of an MPO is
// a row vector, the last a column vector, and interior sites are
// sparse matrices.
type Symbolic interface {
	Dims() (m, n int)
	Exprs() []Expr
}

// RowVector is a 1 x n symbolic matrix.
type RowVector struct {
	Data []Expr
}

func NewRowVector(n int) *RowVector {
	r := &RowVector{Data: make([]Expr, n)}
	for i := range r.Data {
		r.Data[i] = Zero{}
	}
	return r
}

func (r *RowVector) Dims() (int, int) { return 1, len(r.Data) }
func (r *RowVector) Exprs() []Expr { return r.Data }

// ColumnVector is an n x 1 symbolic matrix.
type ColumnVector struct {
	Data []Expr
}

func NewColumnVector(n int) *ColumnVector {
	c := &ColumnVector{Data: make([]Expr, n)}
	for i := range c.Data {
		c.Data[i] = Zero{}
	}
	return c
}

func (c *ColumnVector) Dims() (int, int) { return len(c.Data), 1 }
func (c *ColumnVector) Exprs() []Expr { return c.Data }

// Matrix is an m x n symbolic matrix storing only its nonzero
// entries, in insertion order.
type Matrix struct {
	M, N    int
	Indices [][2]int
	Data    []Expr
}

func NewMatrix(m, n int) *Matrix {
	return &Matrix{M: m, N: n}
}

func (a *Matrix) Dims() (int, int) { return a.M, a.N }
func (a *Matrix) Exprs() []Expr { return a.Data }

func (a *Matrix) Add(i, j int, e Expr) {
	a.Indices = append(a.Indices, [2]int{i, j})
	a.Data = append(a.Data, e)
}

// MatMul multiplies two symbolic matrices. The defined shapes are
// vector x matrix, matrix x vector and vector x vector, mirroring how
// adjacent MPO sites compose.
func MatMul(a, b Symbolic) Symbolic {
	_, an := a.Dims()
	bm, _ := b.Dims()
	if an != bm {
		panic(fmt.Sprintf("shape mismatch: %d != %d", an, bm))
	}
	switch x := a.(type) {
	case *RowVector:
		switch y := b.(type) {
		case *Matrix:
			r := NewRowVector(y.N)
			xs := make([][]Expr, y.N)
			for k, e := range y.Data {
				i, j := y.Indices[k][0], y.Indices[k][1]
				xs[j] = append(xs[j], Mul(x.Data[i], e))
			}
			for j := range r.Data {
				r.Data[j] = SumExprs(xs[j])
			}
			return r
		case *ColumnVector:
			r := NewColumnVector(1)
			r.Data[0] = DotProduct(x.Data, y.Data)
			return r
		}
	case *Matrix:
		if y, ok := b.(*ColumnVector); ok {
			r := NewColumnVector(x.M)
			xs := make([][]Expr, x.M)
			for k, e := range x.Data {
				i, j := x.Indices[k][0], x.Indices[k][1]
				xs[i] = append(xs[i], Mul(e, y.Data[j]))
			}
			for i := range r.Data {
				r.Data[i] = SumExprs(xs[i])
			}
			return r
		}
	}
	panic(fmt.Sprintf("undefined symbolic product: %T * %T", a, b))
}
