// Command run builds the quantum chemistry matrix product operator of
// a molecular integral file, prepares an initial matrix product state,
// and optionally cross checks against full configuration interaction.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	block2 "github.com/adrianjhpc/block2-preview"
	"github.com/adrianjhpc/block2-preview/alloc"
	"github.com/adrianjhpc/block2-preview/exactdiag"
	"github.com/adrianjhpc/block2-preview/fcidump"
	"github.com/adrianjhpc/block2-preview/label"
)

const (
	fnameSummary = "summary.json"
	fnameDone    = "done.txt"
)

var (
	fcidumpPath = flag.String("fcidump", "FCIDUMP", "molecular integral file")
	runDir      = flag.String("d", filepath.Join("runs", "block2"), "run directory")
	bondDim     = flag.Int("bond", 250, "matrix product state bond dimension")
	vdbPath     = flag.String("vdb", "", "store the two electron integrals in a sqlite table at this path")
	dot         = flag.Int("dot", 2, "number of active sites")
	memory      = flag.Int("memory", 1<<26, "arena size in words")
	exact       = flag.Bool("exact", false, "full configuration interaction reference")
)

type Summary struct {
	NSites       int
	NElec        int
	TwoS         int
	MPOWidth     []int
	BondFCI      []int
	Bond         []int
	GroundEnergy *float64 `json:",omitempty"`
}

func solve() (*Summary, error) {
	f := alloc.NewFrame(*memory, *memory)

	fcid, err := fcidump.Read(*fcidumpPath, f.Doubles)
	if err != nil {
		return nil, errors.Wrap(err, *fcidumpPath)
	}
	n := fcid.NSites()
	orbSym := make([]uint8, n)
	for i, x := range fcid.OrbSym() {
		orbSym[i] = block2.SwapD2h(x)
	}
	vacuum := label.NewSpin(0, 0, 0)
	target := label.NewSpin(fcid.NElec(), fcid.TwoS(), int(block2.SwapD2h(uint8(fcid.ISym()))))
	log.Printf("%d sites, %d electrons, 2S=%d", n, fcid.NElec(), fcid.TwoS())

	if *vdbPath != "" {
		if fcid.UHF {
			return nil, errors.Errorf("unrestricted integrals cannot share one table")
		}
		db, err := fcidump.NewDiskInts(*vdbPath, n)
		if err != nil {
			return nil, errors.Wrap(err, *vdbPath)
		}
		if err := db.Load(fcid.Vs[0]); err != nil {
			return nil, errors.Wrap(err, *vdbPath)
		}
		v, err := db.At(0, 0, 0, 0)
		if err != nil {
			return nil, errors.Wrap(err, *vdbPath)
		}
		if err := db.Close(); err != nil {
			return nil, errors.Wrap(err, *vdbPath)
		}
		log.Printf("two electron integrals stored at %s, (11|11)=%g", *vdbPath, v)
	}

	hamil := block2.NewHamiltonian(vacuum, target, n, true, fcid, orbSym, f)
	mpo := block2.NewQCMPO(hamil)

	mi := block2.NewMPSInfo(n, vacuum, target, hamil.Basis, orbSym, f)
	mi.SetBondDimension(*bondDim)
	mps := block2.NewMPS(n, 0, *dot)
	mps.Initialize(mi)

	env := block2.NewMovingEnvironment(n, 0, *dot, mpo)
	env.InitEnvironments()

	s := &Summary{NSites: n, NElec: fcid.NElec(), TwoS: fcid.TwoS()}
	for i := 0; i < n; i++ {
		_, w := mpo.LeftOperatorNames[i].Dims()
		s.MPOWidth = append(s.MPOWidth, w)
		s.BondFCI = append(s.BondFCI, mi.LeftDimsFCI[i+1].NStatesTotal)
		s.Bond = append(s.Bond, mi.LeftDims[i+1].NStatesTotal)
	}

	if *exact {
		dets := exactdiag.Determinants(n, fcid.NElec(), fcid.TwoS())
		log.Printf("%d determinants", len(dets))
		h := tensor.Zeros(1)
		exactdiag.Hamiltonian(h, fcid, dets)
		var bufs [10]*tensor.Dense
		for i := range bufs {
			bufs[i] = tensor.Zeros(1)
		}
		e0, _, err := exactdiag.GroundState(h, bufs)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		energy := float64(real(e0))
		s.GroundEnergy = &energy
	}

	mps.Deallocate()
	mi.Deallocate()
	mpo.Deallocate()
	hamil.Deallocate()
	fcid.Deallocate()
	if f.Ints.Used() != 0 || f.Doubles.Used() != 0 {
		return nil, errors.Errorf("arena words still in use: %d ints, %d doubles", f.Ints.Used(), f.Doubles.Used())
	}
	return s, nil
}

func readSummary(dir string) (*Summary, error) {
	b, err := os.ReadFile(filepath.Join(dir, fnameSummary))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	s := &Summary{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return s, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	donePath := filepath.Join(*runDir, fnameDone)
	var s *Summary
	if _, err := os.Stat(donePath); err == nil {
		if s, err = readSummary(*runDir); err != nil {
			return errors.Wrap(err, "")
		}
	} else {
		var err error
		if s, err = solve(); err != nil {
			return errors.Wrap(err, "")
		}
		b, err := json.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := os.WriteFile(filepath.Join(*runDir, fnameSummary), b, 0644); err != nil {
			return errors.Wrap(err, "")
		}
		if err := os.WriteFile(donePath, nil, 0644); err != nil {
			return errors.Wrap(err, "")
		}
	}

	fmt.Printf("site,mpo,fci,bond\n")
	for i := 0; i < s.NSites; i++ {
		fmt.Printf("%d,%d,%d,%d\n", i, s.MPOWidth[i], s.BondFCI[i], s.Bond[i])
	}
	if s.GroundEnergy != nil {
		fmt.Printf("ground energy %.10f\n", *s.GroundEnergy)
	}
	return nil
}
