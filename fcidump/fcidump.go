// Package fcidump reads molecular integral files in the FCIDUMP
// format: a &FCI namelist header followed by one integral value and
// four 1-based orbital indices per line. The integral tables live in
// the float64 arena and exploit the permutational symmetry of the
// integrals, 2-fold for the one-electron part and 8-fold (4-fold
// across spin species in the unrestricted case) for the two-electron
// part.
package fcidump

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/adrianjhpc/block2-preview/alloc"
)

// TInt is a symmetric two-index integral table storing the lower
// triangle.
type TInt struct {
	N    int
	Data []float64
}

func NewTInt(n int) TInt { return TInt{N: n} }

func (t TInt) findIndex(i, j int) int {
	if i < j {
		i, j = j, i
	}
	return i*(i+1)/2 + j
}

func (t TInt) Size() int { return t.N * (t.N + 1) / 2 }

func (t TInt) At(i, j int) float64 { return t.Data[t.findIndex(i, j)] }

func (t TInt) Set(i, j int, v float64) { t.Data[t.findIndex(i, j)] = v }

// V8Int is a two-electron integral table with full 8-fold symmetry:
// (ij|kl) = (ji|kl) = (ij|lk) = (kl|ij) and their compositions.
type V8Int struct {
	N, M int
	Data []float64
}

func NewV8Int(n int) V8Int { return V8Int{N: n, M: n * (n + 1) / 2} }

func pairIndex(i, j int) int {
	if i < j {
		i, j = j, i
	}
	return i*(i+1)/2 + j
}

func (v V8Int) findIndex(i, j, k, l int) int {
	return pairIndex(pairIndex(i, j), pairIndex(k, l))
}

func (v V8Int) Size() int { return v.M * (v.M + 1) / 2 }

func (v V8Int) At(i, j, k, l int) float64 { return v.Data[v.findIndex(i, j, k, l)] }

func (v V8Int) Set(i, j, k, l int, x float64) { v.Data[v.findIndex(i, j, k, l)] = x }

// V4Int is a two-electron integral table with 4-fold symmetry, used
// for the mixed-spin integrals of unrestricted files where bra and
// ket pairs are not interchangeable.
type V4Int struct {
	N, M int
	Data []float64
}

func NewV4Int(n int) V4Int { return V4Int{N: n, M: n * (n + 1) / 2} }

func (v V4Int) findIndex(i, j, k, l int) int {
	return pairIndex(i, j)*v.M + pairIndex(k, l)
}

func (v V4Int) Size() int { return v.M * v.M }

func (v V4Int) At(i, j, k, l int) float64 { return v.Data[v.findIndex(i, j, k, l)] }

func (v V4Int) Set(i, j, k, l int, x float64) { v.Data[v.findIndex(i, j, k, l)] = x }

// FCIDUMP holds a parsed integral file. Restricted files carry one
// TInt and one V8Int; unrestricted files carry one of each per spin
// species plus the mixed-spin V4Int.
type FCIDUMP struct {
	Params      map[string]string
	Ts          []TInt
	Vs          []V8Int
	Vabs        []V4Int
	E           float64
	UHF         bool
	TotalMemory int

	nSites int
	nElec  int
	twoS   int
	iSym   int
	orbSym []uint8

	da   *alloc.Stack[float64]
	data []float64
}

// Read parses an FCIDUMP file, placing the integral tables in the
// float64 arena.
func Read(filename string, da *alloc.Stack[float64]) (*FCIDUMP, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	d := &FCIDUMP{Params: map[string]string{}, da: da}
	if err := d.parse(string(raw)); err != nil {
		return nil, errors.Wrap(err, filename)
	}
	return d, nil
}

func (d *FCIDUMP) parse(content string) error {
	var pars, ints []string
	ipar := true
	for _, l := range strings.Split(content, "\n") {
		l = strings.ToLower(l)
		if i := strings.Index(l, "&fci"); i != -1 {
			l = l[:i] + l[i+4:]
		}
		switch {
		case strings.Contains(l, "/") || strings.Contains(l, "&end"):
			ipar = false
		case ipar:
			pars = append(pars, l)
		default:
			ints = append(ints, l)
		}
	}

	par := strings.Join(pars, ",")
	par = strings.ReplaceAll(par, " ", ",")
	pKey := ""
	for _, c := range strings.Split(par, ",") {
		switch {
		case strings.Contains(c, "=") || pKey == "":
			cs := strings.SplitN(c, "=", 2)
			pKey = strings.TrimSpace(cs[0])
			if len(cs) == 2 {
				d.Params[pKey] = strings.TrimSpace(cs[1])
			} else {
				d.Params[pKey] = ""
			}
		default:
			cc := strings.TrimSpace(c)
			if cc == "" {
				continue
			}
			if d.Params[pKey] == "" {
				d.Params[pKey] = cc
			} else {
				d.Params[pKey] += "," + cc
			}
		}
	}

	if err := d.parseHeader(); err != nil {
		return err
	}

	type entry struct {
		idx [4]int
		val float64
	}
	entries := make([]entry, 0, len(ints))
	for _, l := range ints {
		ll := strings.TrimSpace(l)
		if ll == "" || ll[0] == '!' {
			continue
		}
		ls := strings.Fields(ll)
		if len(ls) != 5 {
			return errors.Errorf("malformed integral line %q", ll)
		}
		var e entry
		var err error
		if e.val, err = strconv.ParseFloat(ls[0], 64); err != nil {
			return errors.Wrap(err, ll)
		}
		for k := 0; k < 4; k++ {
			if e.idx[k], err = strconv.Atoi(ls[k+1]); err != nil {
				return errors.Wrap(err, ll)
			}
		}
		entries = append(entries, e)
	}

	n := d.nSites
	d.UHF = d.Params["iuhf"] == "1"
	if !d.UHF {
		d.Ts = []TInt{NewTInt(n)}
		d.Vs = []V8Int{NewV8Int(n)}
		d.TotalMemory = d.Ts[0].Size() + d.Vs[0].Size()
		d.data = d.da.Allocate(d.TotalMemory)
		clear(d.data)
		d.Ts[0].Data = d.data[:d.Ts[0].Size()]
		d.Vs[0].Data = d.data[d.Ts[0].Size():]
		for _, e := range entries {
			switch {
			case e.idx[0]+e.idx[1]+e.idx[2]+e.idx[3] == 0:
				d.E = e.val
			case e.idx[2]+e.idx[3] == 0:
				d.Ts[0].Set(e.idx[0]-1, e.idx[1]-1, e.val)
			default:
				d.Vs[0].Set(e.idx[0]-1, e.idx[1]-1, e.idx[2]-1, e.idx[3]-1, e.val)
			}
		}
		return nil
	}

	// Unrestricted layout: the sections are separated by zero-index
	// lines, in the order vaa, vbb, vab, ta, tb, energy.
	d.Ts = []TInt{NewTInt(n), NewTInt(n)}
	d.Vs = []V8Int{NewV8Int(n), NewV8Int(n)}
	d.Vabs = []V4Int{NewV4Int(n)}
	d.TotalMemory = 2*(d.Ts[0].Size()+d.Vs[0].Size()) + d.Vabs[0].Size()
	d.data = d.da.Allocate(d.TotalMemory)
	clear(d.data)
	ts, vs := d.Ts[0].Size(), d.Vs[0].Size()
	d.Ts[0].Data = d.data[:ts]
	d.Ts[1].Data = d.data[ts : 2*ts]
	d.Vs[0].Data = d.data[2*ts : 2*ts+vs]
	d.Vs[1].Data = d.data[2*ts+vs : 2*ts+2*vs]
	d.Vabs[0].Data = d.data[2*(ts+vs):]
	ip := 0
	for _, e := range entries {
		switch {
		case e.idx[0]+e.idx[1]+e.idx[2]+e.idx[3] == 0:
			ip++
			if ip == 6 {
				d.E = e.val
			}
		case e.idx[2]+e.idx[3] == 0:
			d.Ts[ip-3].Set(e.idx[0]-1, e.idx[1]-1, e.val)
		case ip < 2:
			d.Vs[ip].Set(e.idx[0]-1, e.idx[1]-1, e.idx[2]-1, e.idx[3]-1, e.val)
		default:
			d.Vabs[0].Set(e.idx[0]-1, e.idx[1]-1, e.idx[2]-1, e.idx[3]-1, e.val)
		}
	}
	return nil
}

func (d *FCIDUMP) parseHeader() error {
	for _, key := range []string{"norb", "nelec", "ms2", "isym", "orbsym"} {
		if _, ok := d.Params[key]; !ok {
			return errors.Errorf("missing parameter %s", key)
		}
	}
	var err error
	if d.nSites, err = strconv.Atoi(d.Params["norb"]); err != nil {
		return errors.Wrap(err, "norb")
	}
	if d.nElec, err = strconv.Atoi(d.Params["nelec"]); err != nil {
		return errors.Wrap(err, "nelec")
	}
	if d.twoS, err = strconv.Atoi(d.Params["ms2"]); err != nil {
		return errors.Wrap(err, "ms2")
	}
	if d.iSym, err = strconv.Atoi(d.Params["isym"]); err != nil {
		return errors.Wrap(err, "isym")
	}
	for _, x := range strings.Split(d.Params["orbsym"], ",") {
		v, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return errors.Wrap(err, "orbsym")
		}
		d.orbSym = append(d.orbSym, uint8(v))
	}
	if len(d.orbSym) != d.nSites {
		return errors.Errorf("orbsym has %d entries for %d orbitals", len(d.orbSym), d.nSites)
	}
	return nil
}

func (d *FCIDUMP) NSites() int { return d.nSites }
func (d *FCIDUMP) NElec() int { return d.nElec }
func (d *FCIDUMP) TwoS() int { return d.twoS }
func (d *FCIDUMP) ISym() int { return d.iSym }
func (d *FCIDUMP) OrbSym() []uint8 { return d.orbSym }

// T returns the one-electron integral t(i,j) of the restricted table.
func (d *FCIDUMP) T(i, j int) float64 { return d.Ts[0].At(i, j) }

// V returns the two-electron integral (ij|kl) of the restricted table.
func (d *FCIDUMP) V(i, j, k, l int) float64 { return d.Vs[0].At(i, j, k, l) }

// Deallocate returns the integral slab to the arena.
func (d *FCIDUMP) Deallocate() {
	if d.TotalMemory == 0 {
		panic("fcidump not allocated")
	}
	d.da.Deallocate(d.data)
	d.data = nil
	d.Ts = nil
	d.Vs = nil
	d.Vabs = nil
}
