package symbolic

import (
	"testing"

	"github.com/adrianjhpc/block2-preview/label"
)

func elem(name OpName, sites ...uint8) *Elem {
	return NewElem(name, sites, label.NewSpin(0, 0, 0), 1)
}

func TestZeroLaws(t *testing.T) {
	t.Parallel()
	c := elem(OpC, 3)
	if got := Add(Zero{}, c); !Equal(got, c) {
		t.Fatalf("0 + C3 = %v", String(got))
	}
	if got := Add(c, Zero{}); !Equal(got, c) {
		t.Fatalf("C3 + 0 = %v", String(got))
	}
	if got := Mul(Zero{}, c); !Equal(got, Zero{}) {
		t.Fatalf("0 * C3 = %v", String(got))
	}
	if got := Mul(c, Zero{}); !Equal(got, Zero{}) {
		t.Fatalf("C3 * 0 = %v", String(got))
	}
	if got := Scale(c, 0); !Equal(got, Zero{}) {
		t.Fatalf("C3 * 0.0 = %v", String(got))
	}
	if got := Scale(Zero{}, 5); !Equal(got, Zero{}) {
		t.Fatalf("0 * 5 = %v", String(got))
	}
}

func TestElemAlgebra(t *testing.T) {
	t.Parallel()
	c := elem(OpC, 1)
	d := elem(OpD, 2)
	p, ok := Mul(c, d).(*Prod)
	if !ok || len(p.Ops) != 2 || p.Factor != 1 {
		t.Fatalf("C1 * D2 = %v", String(p))
	}
	// Factors collect into the product.
	p2 := Mul(c.Scale(2), d.Scale(3)).(*Prod)
	if p2.Factor != 6 {
		t.Fatalf("factor = %v", p2.Factor)
	}
	for _, op := range p2.Ops {
		if op.Factor != 1 {
			t.Fatalf("constituent factor = %v", op.Factor)
		}
	}
	s, ok := Add(c, d).(*Sum)
	if !ok || len(s.Strings) != 2 {
		t.Fatalf("C1 + D2 = %v", String(s))
	}
	// Sum flattening.
	s2 := Add(s, Mul(c, d)).(*Sum)
	if len(s2.Strings) != 3 {
		t.Fatalf("flattened = %v", String(s2))
	}
}

func TestElemOrderIgnoresQLabel(t *testing.T) {
	t.Parallel()
	a := NewElem(OpB, []uint8{1, 2}, label.NewSpin(0, 0, 0), 1)
	b := NewElem(OpB, []uint8{1, 2}, label.NewSpin(0, 2, 0), 1)
	if !a.Equal(b) {
		t.Fatalf("labels should not participate in equality")
	}
	if a.Less(b) || b.Less(a) {
		t.Fatalf("labels should not participate in order")
	}
	c := NewElem(OpC, []uint8{0}, label.NewSpin(1, 1, 0), 1)
	d := NewElem(OpD, []uint8{0}, label.NewSpin(-1, 1, 0), 1)
	if !c.Less(d) {
		t.Fatalf("C should sort before D")
	}
	e := NewElem(OpC, []uint8{1}, label.NewSpin(1, 1, 0), 1)
	if !c.Less(e) {
		t.Fatalf("C0 should sort before C1")
	}
}

func TestAbs(t *testing.T) {
	t.Parallel()
	c := elem(OpC, 1).Scale(-2.5)
	if got := Abs(c).(*Elem); got.Factor != 1 || got.Name != OpC {
		t.Fatalf("abs = %v", got)
	}
	p := Mul(c, elem(OpD, 2)).(*Prod)
	if got := Abs(p).(*Prod); got.Factor != 1 {
		t.Fatalf("abs factor = %v", got.Factor)
	}
}

func TestScaleDistributes(t *testing.T) {
	t.Parallel()
	c := elem(OpC, 1)
	d := elem(OpD, 2)
	s := Add(c, d)
	scaled := Scale(s, 3).(*Sum)
	for _, r := range scaled.Strings {
		if r.Factor != 3 {
			t.Fatalf("factor = %v", r.Factor)
		}
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		x    Expr
		want string
	}{
		{Zero{}, "0"},
		{elem(OpH), "H"},
		{elem(OpC, 3), "C3"},
		{NewElem(OpB, []uint8{1, 2}, label.NewSpin(0, 0, 0), 1), "B[ 1 2 ]"},
		{elem(OpC, 1).Scale(2), "(2 C1)"},
	}
	for i, test := range tests {
		if got := String(test.x); got != test.want {
			t.Fatalf("%d: got %q, want %q", i, got, test.want)
		}
	}
}

func TestUndefinedCombinationPanics(t *testing.T) {
	t.Parallel()
	s := Add(elem(OpC, 1), elem(OpD, 2))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Mul(s, s)
}
