package symbolic

import (
	"testing"
)

func TestMatMulVecMat(t *testing.T) {
	t.Parallel()
	// [I C] * [[I 0] [0 C']] collects column expressions.
	a := NewRowVector(2)
	a.Data[0] = elem(OpI)
	a.Data[1] = elem(OpC, 0)
	b := NewMatrix(2, 2)
	b.Add(0, 0, elem(OpI))
	b.Add(1, 1, elem(OpC, 1))
	b.Add(1, 0, elem(OpD, 1))
	r, ok := MatMul(a, b).(*RowVector)
	if !ok {
		t.Fatalf("not a row vector")
	}
	if m, n := r.Dims(); m != 1 || n != 2 {
		t.Fatalf("dims %dx%d", m, n)
	}
	// Column 0 receives I*I + C0*D1, column 1 receives C0*C1.
	col0, ok := r.Data[0].(*Sum)
	if !ok || len(col0.Strings) != 2 {
		t.Fatalf("col0 = %v", String(r.Data[0]))
	}
	col1 := r.Data[1].(*Sum)
	if len(col1.Strings) != 1 || len(col1.Strings[0].Ops) != 2 {
		t.Fatalf("col1 = %v", String(r.Data[1]))
	}
}

func TestMatMulMatVec(t *testing.T) {
	t.Parallel()
	a := NewMatrix(2, 2)
	a.Add(0, 0, elem(OpI))
	a.Add(1, 0, elem(OpC, 0))
	a.Add(1, 1, elem(OpI))
	b := NewColumnVector(2)
	b.Data[0] = elem(OpH)
	b.Data[1] = elem(OpD, 1)
	r, ok := MatMul(a, b).(*ColumnVector)
	if !ok {
		t.Fatalf("not a column vector")
	}
	if m, n := r.Dims(); m != 2 || n != 1 {
		t.Fatalf("dims %dx%d", m, n)
	}
	row1 := r.Data[1].(*Sum)
	if len(row1.Strings) != 2 {
		t.Fatalf("row1 = %v", String(r.Data[1]))
	}
}

func TestMatMulVecVec(t *testing.T) {
	t.Parallel()
	a := NewRowVector(2)
	a.Data[0] = elem(OpC, 0)
	a.Data[1] = Zero{}
	b := NewColumnVector(2)
	b.Data[0] = elem(OpD, 1)
	b.Data[1] = elem(OpI)
	r := MatMul(a, b).(*ColumnVector)
	if m, n := r.Dims(); m != 1 || n != 1 {
		t.Fatalf("dims %dx%d", m, n)
	}
	// The zero entry contributes nothing.
	s := r.Data[0].(*Sum)
	if len(s.Strings) != 1 || len(s.Strings[0].Ops) != 2 {
		t.Fatalf("dot = %v", String(r.Data[0]))
	}
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	t.Parallel()
	a := NewRowVector(2)
	b := NewColumnVector(3)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MatMul(a, b)
}
