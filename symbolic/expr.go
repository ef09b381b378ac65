// Package symbolic implements the symbolic operator algebra of the
// matrix product operator: named elementary operators, products and
// sums of them, and sparse symbolic matrices whose entries are such
// expressions.
//
// The algebra is deliberately shallow. Expressions are built once by
// the MPO generator and then interpreted against concrete block
// sparse matrices; only the combinations the generator produces are
// defined, and any other combination panics.
package symbolic

import (
	"fmt"
	"slices"
	"strings"

	"github.com/adrianjhpc/block2-preview/label"
)

// OpName identifies an elementary operator family. The order fixes
// how operators sort, which in turn fixes allocation order for every
// catalog keyed by operator, so it must not change.
type OpName uint8

const (
	OpH OpName = iota
	OpI
	OpN
	OpNN
	OpNUD
	OpC
	OpD
	OpR
	OpRD
	OpA
	OpAD
	OpP
	OpPD
	OpB
	OpQ
	OpPDM1
)

var opNameRepr = [...]string{
	"H", "I", "N", "NN", "NUD", "C", "D", "R", "RD", "A", "AD", "P", "PD", "B", "Q", "PDM1",
}

func (n OpName) String() string { return opNameRepr[n] }

// Expr is a symbolic operator expression: Zero, *Elem, *Prod or *Sum.
type Expr interface {
	isExpr()
}

// Zero is the empty expression.
type Zero struct{}

func (Zero) isExpr() {}

// Elem is a named elementary operator with site indices, a scalar
// factor and the delta quantum it carries.
type Elem struct {
	Name      OpName
	SiteIndex []uint8
	Factor    float64
	QLabel    label.SpinLabel
}

func (*Elem) isExpr() {}

func NewElem(name OpName, siteIndex []uint8, q label.SpinLabel, factor float64) *Elem {
	return &Elem{Name: name, SiteIndex: siteIndex, Factor: factor, QLabel: q}
}

// Abs returns the operator with unit factor.
func (e *Elem) Abs() *Elem {
	return &Elem{Name: e.Name, SiteIndex: e.SiteIndex, Factor: 1, QLabel: e.QLabel}
}

func (e *Elem) Scale(d float64) *Elem {
	return &Elem{Name: e.Name, SiteIndex: e.SiteIndex, Factor: e.Factor * d, QLabel: e.QLabel}
}

// Equal compares name, site indices and factor. The quantum label is
// derived from the rest and does not participate.
func (e *Elem) Equal(o *Elem) bool {
	return e.Name == o.Name && slices.Equal(e.SiteIndex, o.SiteIndex) && e.Factor == o.Factor
}

// Less orders elements by name, then site indices, then factor.
func (e *Elem) Less(o *Elem) bool {
	if e.Name != o.Name {
		return e.Name < o.Name
	}
	if c := slices.Compare(e.SiteIndex, o.SiteIndex); c != 0 {
		return c < 0
	}
	return e.Factor < o.Factor
}

func (e *Elem) String() string {
	switch {
	case e.Factor != 1:
		return fmt.Sprintf("(%v %v)", e.Factor, e.Abs())
	case len(e.SiteIndex) == 0:
		return e.Name.String()
	case len(e.SiteIndex) == 1:
		return fmt.Sprintf("%v%d", e.Name, e.SiteIndex[0])
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "%v[ ", e.Name)
		for _, r := range e.SiteIndex {
			fmt.Fprintf(&b, "%d ", r)
		}
		b.WriteString("]")
		return b.String()
	}
}

// Prod is a product of elementary operators with a collected scalar
// factor. The constituent operators always carry unit factors.
type Prod struct {
	Factor float64
	Ops    []*Elem
}

func (*Prod) isExpr() {}

// NewProd folds the factors of ops into the product factor and stores
// the operators with unit factor.
func NewProd(ops []*Elem, factor float64) *Prod {
	p := &Prod{Factor: factor, Ops: make([]*Elem, 0, len(ops))}
	for _, e := range ops {
		p.Factor *= e.Factor
		p.Ops = append(p.Ops, e.Abs())
	}
	return p
}

func (p *Prod) Abs() *Prod { return NewProd(p.Ops, 1) }

func (p *Prod) Scale(d float64) *Prod { return NewProd(p.Ops, p.Factor*d) }

// Op returns the single constituent of a unit-length product.
func (p *Prod) Op() *Elem {
	if len(p.Ops) != 1 {
		panic(fmt.Sprintf("product of %d operators", len(p.Ops)))
	}
	return p.Ops[0]
}

func (p *Prod) Equal(o *Prod) bool {
	if len(p.Ops) != len(o.Ops) || p.Factor != o.Factor {
		return false
	}
	for i := range p.Ops {
		if !p.Ops[i].Equal(o.Ops[i]) {
			return false
		}
	}
	return true
}

func (p *Prod) String() string {
	if p.Factor != 1 {
		return fmt.Sprintf("(%v %v)", p.Factor, p.Abs())
	}
	var b strings.Builder
	for _, r := range p.Ops {
		fmt.Fprintf(&b, "%v ", r)
	}
	return b.String()
}

// Sum is a sum of operator products.
type Sum struct {
	Strings []*Prod
}

func (*Sum) isExpr() {}

func (s *Sum) Abs() *Sum {
	strs := make([]*Prod, len(s.Strings))
	for i, r := range s.Strings {
		strs[i] = r.Abs()
	}
	return &Sum{Strings: strs}
}

func (s *Sum) Scale(d float64) *Sum {
	strs := make([]*Prod, len(s.Strings))
	for i, r := range s.Strings {
		strs[i] = r.Scale(d)
	}
	return &Sum{Strings: strs}
}

func (s *Sum) Equal(o *Sum) bool {
	if len(s.Strings) != len(o.Strings) {
		return false
	}
	for i := range s.Strings {
		if !s.Strings[i].Equal(o.Strings[i]) {
			return false
		}
	}
	return true
}

func (s *Sum) String() string {
	parts := make([]string, len(s.Strings))
	for i, r := range s.Strings {
		parts[i] = r.String()
	}
	return strings.Join(parts, " + ")
}

func prodOf(e *Elem) *Prod { return NewProd([]*Elem{e}, 1) }

// Add combines two expressions into a sum.
func Add(a, b Expr) Expr {
	switch x := a.(type) {
	case Zero:
		return b
	case *Elem:
		switch y := b.(type) {
		case Zero:
			return a
		case *Elem:
			return &Sum{Strings: []*Prod{prodOf(x), prodOf(y)}}
		case *Sum:
			strs := make([]*Prod, 0, len(y.Strings)+1)
			strs = append(strs, prodOf(x))
			return &Sum{Strings: append(strs, y.Strings...)}
		}
	case *Prod:
		switch y := b.(type) {
		case Zero:
			return a
		case *Prod:
			return &Sum{Strings: []*Prod{x, y}}
		case *Sum:
			strs := make([]*Prod, 0, len(y.Strings)+1)
			strs = append(strs, x)
			return &Sum{Strings: append(strs, y.Strings...)}
		}
	case *Sum:
		switch y := b.(type) {
		case Zero:
			return a
		case *Elem:
			strs := make([]*Prod, 0, len(x.Strings)+1)
			strs = append(strs, x.Strings...)
			return &Sum{Strings: append(strs, prodOf(y))}
		case *Prod:
			strs := make([]*Prod, 0, len(x.Strings)+1)
			strs = append(strs, x.Strings...)
			return &Sum{Strings: append(strs, y)}
		case *Sum:
			strs := make([]*Prod, 0, len(x.Strings)+len(y.Strings))
			strs = append(strs, x.Strings...)
			return &Sum{Strings: append(strs, y.Strings...)}
		}
	}
	panic(fmt.Sprintf("undefined sum: %v + %v", String(a), String(b)))
}

// Scale multiplies an expression by a scalar. Scaling by zero
// collapses to Zero.
func Scale(x Expr, d float64) Expr {
	if _, ok := x.(Zero); ok {
		return x
	}
	if d == 0 {
		return Zero{}
	}
	switch v := x.(type) {
	case *Elem:
		return v.Scale(d)
	case *Prod:
		return v.Scale(d)
	case *Sum:
		return v.Scale(d)
	}
	panic(fmt.Sprintf("undefined scale: %v", String(x)))
}

// Mul multiplies two expressions.
func Mul(a, b Expr) Expr {
	if _, ok := a.(Zero); ok {
		return a
	}
	if _, ok := b.(Zero); ok {
		return b
	}
	switch x := a.(type) {
	case *Elem:
		switch y := b.(type) {
		case *Elem:
			return NewProd([]*Elem{x, y}, 1)
		case *Prod:
			ops := make([]*Elem, 0, len(y.Ops)+1)
			ops = append(ops, x)
			return NewProd(append(ops, y.Ops...), y.Factor)
		case *Sum:
			strs := make([]*Prod, 0, len(y.Strings))
			for _, r := range y.Strings {
				ops := make([]*Elem, 0, len(r.Ops)+1)
				ops = append(ops, x)
				strs = append(strs, NewProd(append(ops, r.Ops...), r.Factor))
			}
			return &Sum{Strings: strs}
		}
	case *Prod:
		switch y := b.(type) {
		case *Elem:
			ops := make([]*Elem, 0, len(x.Ops)+1)
			ops = append(ops, x.Ops...)
			return NewProd(append(ops, y), x.Factor)
		case *Prod:
			ops := make([]*Elem, 0, len(x.Ops)+len(y.Ops))
			ops = append(ops, x.Ops...)
			return NewProd(append(ops, y.Ops...), x.Factor*y.Factor)
		}
	case *Sum:
		switch y := b.(type) {
		case *Elem:
			strs := make([]*Prod, 0, len(x.Strings))
			for _, r := range x.Strings {
				ops := make([]*Elem, 0, len(r.Ops)+1)
				ops = append(ops, r.Ops...)
				strs = append(strs, NewProd(append(ops, y), r.Factor))
			}
			return &Sum{Strings: strs}
		}
	}
	panic(fmt.Sprintf("undefined product: %v * %v", String(a), String(b)))
}

// Abs strips all scalar factors.
func Abs(x Expr) Expr {
	switch v := x.(type) {
	case Zero:
		return x
	case *Elem:
		return v.Abs()
	case *Prod:
		return v.Abs()
	case *Sum:
		return v.Abs()
	}
	panic(fmt.Sprintf("undefined abs: %v", String(x)))
}

// SumExprs flattens a list of expressions into one sum, inlining
// nested sums and dropping zeros.
func SumExprs(xs []Expr) *Sum {
	strs := make([]*Prod, 0, len(xs))
	for _, r := range xs {
		switch v := r.(type) {
		case *Prod:
			strs = append(strs, v)
		case *Elem:
			strs = append(strs, prodOf(v))
		case *Sum:
			strs = append(strs, v.Strings...)
		}
	}
	return &Sum{Strings: strs}
}

// DotProduct is the elementwise product of two equal-length
// expression vectors, summed.
func DotProduct(a, b []Expr) Expr {
	if len(a) != len(b) {
		panic(fmt.Sprintf("length mismatch: %d != %d", len(a), len(b)))
	}
	xs := make([]Expr, len(a))
	for k := range a {
		xs[k] = Mul(a[k], b[k])
	}
	return SumExprs(xs)
}

// Equal compares two expressions structurally.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case Zero:
		_, ok := b.(Zero)
		return ok
	case *Elem:
		y, ok := b.(*Elem)
		return ok && x.Equal(y)
	case *Prod:
		y, ok := b.(*Prod)
		return ok && x.Equal(y)
	case *Sum:
		y, ok := b.(*Sum)
		return ok && x.Equal(y)
	}
	return false
}

// String renders an expression.
func String(x Expr) string {
	switch v := x.(type) {
	case Zero:
		return "0"
	case *Elem:
		return v.String()
	case *Prod:
		return v.String()
	case *Sum:
		return v.String()
	}
	return fmt.Sprintf("%v", x)
}
