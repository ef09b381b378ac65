package label

import (
	"fmt"
	"testing"
)

func TestSpinAdd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b SpinLabel
		want SpinLabel
	}{
		// Two spin-1/2 electrons couple to singlet and triplet.
		{NewSpin(1, 1, 0), NewSpin(1, 1, 2), NewSpinRange(2, 0, 2, 2)},
		// Spin-1 with spin-1/2 couples to 1/2 and 3/2.
		{NewSpin(2, 2, 3), NewSpin(1, 1, 1), NewSpinRange(3, 1, 3, 2)},
		// Vacuum is the identity.
		{NewSpin(0, 0, 0), NewSpin(1, 1, 5), NewSpin(1, 1, 5)},
		// Ranges couple end to end.
		{NewSpinRange(2, 0, 2, 0), NewSpinRange(3, 1, 3, 1), NewSpinRange(5, 1, 5, 1)},
	}
	for i, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			t.Parallel()
			if got := test.a.Add(test.b); got != test.want {
				t.Fatalf("%v + %v = %v, want %v", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestSpinNeg(t *testing.T) {
	t.Parallel()
	labels := []SpinLabel{
		NewSpin(0, 0, 0),
		NewSpin(1, 1, 3),
		NewSpin(2, 0, 0),
		NewSpinRange(-2, 0, 2, 5),
	}
	for _, q := range labels {
		if got := q.Neg().Neg(); got != q {
			t.Fatalf("-(-(%v)) = %v", q, got)
		}
		if q.TwosLow() != q.Twos() {
			continue
		}
		// A simple label coupled with its inverse must reach the vacuum.
		sum := q.Add(q.Neg())
		vac := NewSpin(0, 0, 0)
		if sum.Find(vac) == -1 && sum != vac {
			t.Fatalf("%v + %v = %v does not contain vacuum", q, q.Neg(), sum)
		}
	}
}

func TestSpinFind(t *testing.T) {
	t.Parallel()
	q := NewSpinRange(3, 1, 5, 2)
	tests := []struct {
		x    SpinLabel
		want int
	}{
		{NewSpin(3, 1, 2), 0},
		{NewSpin(3, 3, 2), 1},
		{NewSpin(3, 5, 2), 2},
		{NewSpin(3, 7, 2), -1},
		{NewSpin(3, 2, 2), -1},
		{NewSpin(2, 1, 2), -1},
		{NewSpin(3, 1, 3), -1},
	}
	for i, test := range tests {
		if got := q.Find(test.x); got != test.want {
			t.Fatalf("%d: find(%v) = %d, want %d", i, test.x, got, test.want)
		}
		if test.want >= 0 && q.Index(test.want) != test.x {
			t.Fatalf("%d: index(%d) = %v, want %v", i, test.want, q.Index(test.want), test.x)
		}
	}
}

func TestSpinCombine(t *testing.T) {
	t.Parallel()
	// A single creation operator (dq = one electron, spin 1/2) maps the
	// vacuum ket to the one electron bra.
	dq := NewSpin(1, 1, 4)
	ket := NewSpin(0, 0, 0)
	bra := NewSpin(1, 1, 4)
	fused := dq.Combine(bra, ket)
	if fused == Invalid {
		t.Fatalf("combine(%v, %v) invalid", bra, ket)
	}
	if got := fused.GetKet(); got != ket {
		t.Fatalf("ket: %v, want %v", got, ket)
	}
	if got := fused.GetBra(dq); got != bra {
		t.Fatalf("bra: %v, want %v", got, bra)
	}

	// Wrong particle number.
	if got := dq.Combine(NewSpin(2, 0, 4), ket); got != Invalid {
		t.Fatalf("expected invalid, got %v", got)
	}
	// Triangle violation: spin-1/2 operator cannot connect two singlets.
	if got := dq.Combine(NewSpin(1, 0, 4), NewSpin(0, 0, 0)); got != Invalid {
		t.Fatalf("expected invalid, got %v", got)
	}
	// Wrong irrep.
	if got := dq.Combine(NewSpin(1, 1, 5), ket); got != Invalid {
		t.Fatalf("expected invalid, got %v", got)
	}
}

func TestSpinOrder(t *testing.T) {
	t.Parallel()
	// Packed comparison orders by n first, then the spin fields, then pg.
	less := []struct{ a, b SpinLabel }{
		{NewSpin(0, 0, 0), NewSpin(1, 1, 0)},
		{NewSpin(1, 1, 0), NewSpin(1, 1, 1)},
		{NewSpin(2, 0, 0), NewSpin(2, 2, 0)},
	}
	for i, test := range less {
		if !(test.a < test.b) {
			t.Fatalf("%d: %v should be less than %v", i, test.a, test.b)
		}
	}
}

func TestSpinString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		q    SpinLabel
		want string
	}{
		{NewSpin(1, 1, 2), "< N=1 S=1/2 PG=2 >"},
		{NewSpin(2, 0, 0), "< N=2 S=0 PG=0 >"},
		{NewSpinRange(2, 0, 2, 0), "< N=2 S=0~1 PG=0 >"},
	}
	for i, test := range tests {
		if got := test.q.String(); got != test.want {
			t.Fatalf("%d: got %q, want %q", i, got, test.want)
		}
	}
}

func TestSZLabel(t *testing.T) {
	t.Parallel()
	a := NewSZ(1, 1, 3)
	b := NewSZ(1, -1, 5)
	if got, want := a.Add(b), NewSZ(2, 0, 6); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := a.Neg(), NewSZ(-1, -1, 3); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := a.Sub(a), NewSZ(0, 0, 0); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := a.Count(); got != 1 {
		t.Fatalf("count = %d", got)
	}
	if got, want := b.String(), "< N=1 SZ=-1/2 PG=5 >"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
