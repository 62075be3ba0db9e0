package cells

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/kpotier/mddf/pkg/geom"
)

const tolerance = 1e-9

func orthoCell(t *testing.T, a, b, c float64) *geom.Cell {
	t.Helper()
	cell, err := geom.NewCell(a, b, c)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	return cell
}

// bruteforce computes the reference MolDist records with the dense pair
// loop.
func bruteforce(solute, solvent [][3]float64, natomsPerMol, refAtom int, cell *geom.Cell, cutoff float64) []MolDist {
	nmols := len(solvent) / natomsPerMol
	out := make([]MolDist, nmols)
	for m := range out {
		out[m] = MolDist{D: math.Inf(1), DRef: math.Inf(1), I: -1, J: -1}
	}

	for i, p := range solute {
		for j, q := range solvent {
			d := math.Sqrt(cell.ImageDist2(p, q))
			if d > cutoff {
				continue
			}
			rec := &out[j/natomsPerMol]
			if d < rec.D {
				rec.D = d
				rec.I = i
				rec.J = j
				rec.WithinCutoff = true
			}
			if j%natomsPerMol == refAtom && d < rec.DRef {
				rec.DRef = d
				rec.RefWithinCutoff = true
			}
		}
	}
	return out
}

func randomAtoms(rng *rand.Rand, n int, cell *geom.Cell) [][3]float64 {
	pts := make([][3]float64, n)
	for i := range pts {
		pts[i] = cell.Cart([3]float64{rng.Float64(), rng.Float64(), rng.Float64()})
	}
	return pts
}

func TestMinDistancesAgainstBruteForce(t *testing.T) {
	tri, err := geom.NewTriclinicCell([3][3]float64{
		{20, 0, 0},
		{4, 20, 0},
		{2, 3, 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]*geom.Cell{
		"orthorhombic": orthoCell(t, 20, 20, 20),
		"triclinic":    tri,
	}

	const (
		natomsPerMol = 3
		nmols        = 12
		refAtom      = 1
		cutoff       = 7.5
	)

	for name, cell := range cases {
		rng := rand.New(rand.NewSource(3))
		solvent := randomAtoms(rng, nmols*natomsPerMol, cell)
		solute := randomAtoms(rng, 4, cell)

		want := bruteforce(solute, solvent, natomsPerMol, refAtom, cell, cutoff)

		for _, lcell := range []int{1, 2, 3} {
			x := NewIndex(lcell)
			if err := x.Build(solvent, cell, cutoff); err != nil {
				t.Fatalf("%s lcell %d: Build: %v", name, lcell, err)
			}
			got := make([]MolDist, nmols)
			x.MinDistances(solute, natomsPerMol, refAtom, got)

			for m := range want {
				w, g := want[m], got[m]
				if w.WithinCutoff != g.WithinCutoff || w.RefWithinCutoff != g.RefWithinCutoff {
					t.Fatalf("%s lcell %d mol %d: classification differs: got %+v, want %+v", name, lcell, m, g, w)
				}
				if w.WithinCutoff && math.Abs(w.D-g.D) > tolerance {
					t.Fatalf("%s lcell %d mol %d: D: got %g, want %g", name, lcell, m, g.D, w.D)
				}
				if w.RefWithinCutoff && math.Abs(w.DRef-g.DRef) > tolerance {
					t.Fatalf("%s lcell %d mol %d: DRef: got %g, want %g", name, lcell, m, g.DRef, w.DRef)
				}
			}
		}
	}
}

func TestMinDistancesOutsideCutoff(t *testing.T) {
	cell := orthoCell(t, 30, 30, 30)
	solvent := [][3]float64{{2, 15, 15}, {2.5, 15, 15}, {3, 15, 15}}
	solute := [][3]float64{{15, 15, 15}}

	x := NewIndex(1)
	if err := x.Build(solvent, cell, 10); err != nil {
		t.Fatal(err)
	}
	out := make([]MolDist, 1)
	x.MinDistances(solute, 3, 0, out)

	if out[0].WithinCutoff {
		t.Errorf("molecule at 12 A flagged within a 10 A cutoff")
	}
	if !math.IsInf(out[0].D, 1) {
		t.Errorf("D of an out-of-cutoff molecule: got %g, want +Inf", out[0].D)
	}
	if out[0].RefWithinCutoff {
		t.Errorf("reference atom flagged within cutoff")
	}
}

func TestBuildCutoffTooLarge(t *testing.T) {
	cell := orthoCell(t, 19.9, 30, 30)
	x := NewIndex(2)
	err := x.Build(make([][3]float64, 3), cell, 10)
	if err == nil {
		t.Fatal("Build accepted a cutoff larger than half the cell width")
	}
	if !strings.Contains(err.Error(), "cutoff") {
		t.Errorf("unexpected error message: %v", err)
	}
}
