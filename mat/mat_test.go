package mat

import (
	"math"
	"testing"
)

const eps = 1e-12

func TestIscaleIadd(t *testing.T) {
	t.Parallel()
	a := NewRef([]float64{1, 2, 3, 4}, 2, 2)
	b := NewRef([]float64{1, 1, 1, 1}, 2, 2)
	Iscale(a, 2)
	Iadd(a, b, -1)
	want := []float64{1, 3, 5, 7}
	for i, v := range a.Data {
		if math.Abs(v-want[i]) > eps {
			t.Fatalf("a = %v, want %v", a.Data, want)
		}
	}
}

func TestMultiply(t *testing.T) {
	t.Parallel()
	a := NewRef([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewRef([]float64{7, 8, 9, 10, 11, 12}, 3, 2)
	c := NewRef([]float64{1, 0, 0, 1}, 2, 2)
	Multiply(a, false, b, false, c, 1, 100)
	want := []float64{158, 64, 139, 254}
	for i, v := range c.Data {
		if math.Abs(v-want[i]) > eps {
			t.Fatalf("c = %v, want %v", c.Data, want)
		}
	}
}

func TestTensorProduct(t *testing.T) {
	t.Parallel()
	a := NewRef([]float64{1, 2, 3, 4}, 2, 2)
	b := NewRef([]float64{0, 5, 6, 7}, 2, 2)
	c := NewRef(make([]float64, 16), 4, 4)
	TensorProduct(a, false, b, false, c, 1, 0)
	want := []float64{
		0, 5, 0, 10,
		6, 7, 12, 14,
		0, 15, 0, 20,
		18, 21, 24, 28,
	}
	for i, v := range c.Data {
		if math.Abs(v-want[i]) > eps {
			t.Fatalf("c = %v, want %v", c.Data, want)
		}
	}
}

func TestTensorProductStride(t *testing.T) {
	t.Parallel()
	// Place a scalar Kronecker product inside a wider block of c.
	a := NewRef([]float64{2}, 1, 1)
	b := NewRef([]float64{1, 3}, 1, 2)
	c := NewRef(make([]float64, 5), 1, 5)
	TensorProduct(a, false, b, false, c, 1, 2)
	want := []float64{0, 0, 2, 6, 0}
	for i, v := range c.Data {
		if math.Abs(v-want[i]) > eps {
			t.Fatalf("c = %v, want %v", c.Data, want)
		}
	}
}

func TestEigen(t *testing.T) {
	t.Parallel()
	a := NewRef([]float64{2, 1, 1, 2}, 2, 2)
	w := make([]float64, 2)
	Eigen(a, w)
	if math.Abs(w[0]-1) > eps || math.Abs(w[1]-3) > eps {
		t.Fatalf("w = %v", w)
	}
	// Each row is a normalized eigenvector of its eigenvalue.
	for i := 0; i < 2; i++ {
		x, y := a.At(i, 0), a.At(i, 1)
		if math.Abs((2-w[i])*x+y) > eps {
			t.Fatalf("row %d = (%f, %f) not an eigenvector of %f", i, x, y, w[i])
		}
		if math.Abs(x*x+y*y-1) > eps {
			t.Fatalf("row %d not normalized", i)
		}
	}
}
