package fcidump

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrianjhpc/block2-preview/alloc"
)

const rhfFile = `&FCI NORB=2,NELEC=2,MS2=0,
  ORBSYM=1,1,
  ISYM=1,
&END
 0.6744887663568286  1  1  1  1
 0.6634416479930518  2  2  1  1
 0.6973979494693358  2  2  2  2
 0.1812875358123322  2  1  2  1
-1.2524635735648981  1  1  0  0
-0.4759344611440753  2  2  0  0
 0.7137758743754461  0  0  0  0
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	fpath := filepath.Join(t.TempDir(), "FCIDUMP")
	if err := os.WriteFile(fpath, []byte(content), 0644); err != nil {
		t.Fatalf("%+v", err)
	}
	return fpath
}

func TestReadRHF(t *testing.T) {
	t.Parallel()
	da := alloc.NewStack[float64](1 << 12)
	d, err := Read(writeFile(t, rhfFile), da)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if d.NSites() != 2 || d.NElec() != 2 || d.TwoS() != 0 || d.ISym() != 1 {
		t.Fatalf("%d %d %d %d", d.NSites(), d.NElec(), d.TwoS(), d.ISym())
	}
	if len(d.OrbSym()) != 2 || d.OrbSym()[0] != 1 || d.OrbSym()[1] != 1 {
		t.Fatalf("%v", d.OrbSym())
	}
	if d.UHF {
		t.Fatalf("restricted file parsed as unrestricted")
	}
	if math.Abs(d.E-0.7137758743754461) > 1e-15 {
		t.Fatalf("%v", d.E)
	}
	if math.Abs(d.T(0, 0)+1.2524635735648981) > 1e-15 {
		t.Fatalf("%v", d.T(0, 0))
	}
	// Symmetric partner of an unstored one-electron element.
	if d.T(0, 1) != 0 || d.T(1, 0) != 0 {
		t.Fatalf("%v %v", d.T(0, 1), d.T(1, 0))
	}
	// 8-fold symmetry images of (21|21).
	want := 0.1812875358123322
	for _, idx := range [][4]int{{1, 0, 1, 0}, {0, 1, 1, 0}, {1, 0, 0, 1}, {0, 1, 0, 1}} {
		got := d.V(idx[0], idx[1], idx[2], idx[3])
		if math.Abs(got-want) > 1e-15 {
			t.Fatalf("%v: %v", idx, got)
		}
	}
	if math.Abs(d.V(1, 1, 0, 0)-0.6634416479930518) > 1e-15 {
		t.Fatalf("%v", d.V(1, 1, 0, 0))
	}
	if math.Abs(d.V(0, 0, 1, 1)-0.6634416479930518) > 1e-15 {
		t.Fatalf("%v", d.V(0, 0, 1, 1))
	}

	d.Deallocate()
	if da.Used() != 0 {
		t.Fatalf("%d", da.Used())
	}
}

const uhfFile = `&FCI NORB=1,NELEC=1,MS2=1,ORBSYM=1,ISYM=1,IUHF=1,
&END
 0.625  1  1  1  1
 0.0  0  0  0  0
 0.5  1  1  1  1
 0.0  0  0  0  0
 0.55  1  1  1  1
 0.0  0  0  0  0
 -1.0  1  1  0  0
 0.0  0  0  0  0
 -0.9  1  1  0  0
 0.0  0  0  0  0
 0.3  0  0  0  0
`

func TestReadUHF(t *testing.T) {
	t.Parallel()
	da := alloc.NewStack[float64](1 << 12)
	d, err := Read(writeFile(t, uhfFile), da)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !d.UHF {
		t.Fatalf("unrestricted file parsed as restricted")
	}
	if len(d.Ts) != 2 || len(d.Vs) != 2 || len(d.Vabs) != 1 {
		t.Fatalf("%d %d %d", len(d.Ts), len(d.Vs), len(d.Vabs))
	}
	for i, want := range []float64{0.625, 0.5} {
		if got := d.Vs[i].At(0, 0, 0, 0); got != want {
			t.Fatalf("v%d: %v", i, got)
		}
	}
	if got := d.Vabs[0].At(0, 0, 0, 0); got != 0.55 {
		t.Fatalf("%v", got)
	}
	for i, want := range []float64{-1.0, -0.9} {
		if got := d.Ts[i].At(0, 0); got != want {
			t.Fatalf("t%d: %v", i, got)
		}
	}
	if d.E != 0.3 {
		t.Fatalf("%v", d.E)
	}
	d.Deallocate()
}

func TestReadMissingParam(t *testing.T) {
	t.Parallel()
	da := alloc.NewStack[float64](1 << 12)
	content := "&FCI NORB=2,NELEC=2,MS2=0,\n&END\n 0.0 0 0 0 0\n"
	if _, err := Read(writeFile(t, content), da); err == nil {
		t.Fatalf("expected error")
	}
}

func TestV8IntSymmetry(t *testing.T) {
	t.Parallel()
	v := NewV8Int(3)
	v.Data = make([]float64, v.Size())
	v.Set(2, 1, 1, 0, 0.25)
	for _, idx := range [][4]int{
		{2, 1, 1, 0}, {1, 2, 1, 0}, {2, 1, 0, 1}, {1, 2, 0, 1},
		{1, 0, 2, 1}, {0, 1, 2, 1}, {1, 0, 1, 2}, {0, 1, 1, 2},
	} {
		if got := v.At(idx[0], idx[1], idx[2], idx[3]); got != 0.25 {
			t.Fatalf("%v: %v", idx, got)
		}
	}
	if got := v.At(2, 2, 1, 0); got != 0 {
		t.Fatalf("%v", got)
	}
}

func TestDiskInts(t *testing.T) {
	t.Parallel()
	d, err := NewDiskInts(filepath.Join(t.TempDir(), "v.db"), 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer d.Close()

	if err := d.Set(2, 1, 1, 0, 0.25); err != nil {
		t.Fatalf("%+v", err)
	}
	got, err := d.At(1, 2, 0, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if got != 0.25 {
		t.Fatalf("%v", got)
	}
	// Absent entries read as zero.
	got, err = d.At(0, 0, 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if got != 0 {
		t.Fatalf("%v", got)
	}
	// Setting zero deletes the row.
	if err := d.Set(2, 1, 1, 0, 0); err != nil {
		t.Fatalf("%+v", err)
	}
	got, err = d.At(2, 1, 1, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if got != 0 {
		t.Fatalf("%v", got)
	}
}

func TestDiskIntsLoad(t *testing.T) {
	t.Parallel()
	v := NewV8Int(2)
	v.Data = make([]float64, v.Size())
	v.Set(0, 0, 0, 0, 0.67)
	v.Set(1, 1, 0, 0, 0.66)
	v.Set(1, 0, 1, 0, 0.18)

	d, err := NewDiskInts(filepath.Join(t.TempDir(), "v.db"), 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer d.Close()
	if err := d.Load(v); err != nil {
		t.Fatalf("%+v", err)
	}
	for _, tc := range []struct {
		idx  [4]int
		want float64
	}{
		{[4]int{0, 0, 0, 0}, 0.67},
		{[4]int{0, 0, 1, 1}, 0.66},
		{[4]int{0, 1, 0, 1}, 0.18},
		{[4]int{1, 1, 1, 1}, 0},
	} {
		got, err := d.At(tc.idx[0], tc.idx[1], tc.idx[2], tc.idx[3])
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if got != tc.want {
			t.Fatalf("%v: %v", tc.idx, got)
		}
	}
}
