// Package cells implements a linked cell index over the solvent atoms. It
// answers, for one solute molecule at a time, the minimum atom-atom distance
// to every solvent molecule under periodic boundary conditions without
// scanning the full solute x solvent pair matrix.
package cells

import (
	"fmt"
	"math"

	"github.com/kpotier/mddf/pkg/geom"
)

// MolDist is the minimum distance record of a single solvent molecule with
// respect to the solute molecule of the query. Molecules without any atom
// pair within the cutoff keep WithinCutoff false and an infinite distance, so
// counting the bulk molecules downstream is exact.
type MolDist struct {
	WithinCutoff    bool
	D               float64 // minimum atom-atom distance
	DRef            float64 // minimum distance to the reference atom
	RefWithinCutoff bool
	I               int // solute atom realizing D (index in the query slice)
	J               int // solvent atom realizing D (index in the built slice)
}

// Index is a periodic linked cell grid. It is built once per frame (per
// worker) over the solvent atoms and queried once per solute molecule. The
// head/next arrays are reused from one frame to the next.
type Index struct {
	lcell  int
	cutoff float64
	cut2   float64
	cell   *geom.Cell
	nc     [3]int
	head   []int
	next   []int
	atoms  [][3]float64

	// per axis neighbour cell indexes, deduplicated for small grids
	neigh [3][]int
}

// NewIndex returns an empty index. lcell sets the granularity of the grid:
// the cell width is at least cutoff/lcell, so scanning lcell neighbouring
// cells in each direction cannot miss a pair within the cutoff.
func NewIndex(lcell int) *Index {
	if lcell < 1 {
		lcell = 1
	}
	return &Index{lcell: lcell}
}

// Build partitions the atoms into the grid. It fails when the cutoff exceeds
// half the minimum width of the cell, as the minimum image convention would
// count periodic images twice; the caller is expected to abort the whole run.
func (x *Index) Build(atoms [][3]float64, cell *geom.Cell, cutoff float64) error {
	if w := cell.MinWidth(); cutoff > w/2 {
		return fmt.Errorf("cutoff %g is larger than half the minimum cell width %g", cutoff, w/2)
	}

	x.cell = cell
	x.cutoff = cutoff
	x.cut2 = cutoff * cutoff
	x.atoms = atoms

	perp := cell.PerpWidths()
	for k := 0; k < 3; k++ {
		nc := int(perp[k] * float64(x.lcell) / cutoff)
		if nc < 1 {
			nc = 1
		}
		x.nc[k] = nc
	}

	ncells := x.nc[0] * x.nc[1] * x.nc[2]
	if cap(x.head) < ncells {
		x.head = make([]int, ncells)
	}
	x.head = x.head[:ncells]
	for i := range x.head {
		x.head[i] = -1
	}

	if cap(x.next) < len(atoms) {
		x.next = make([]int, len(atoms))
	}
	x.next = x.next[:len(atoms)]

	for j, p := range atoms {
		c := x.cellID(x.cellOf(p))
		x.next[j] = x.head[c]
		x.head[c] = j
	}

	return nil
}

// MinDistances fills out with one record per solvent molecule: the minimum
// distance between the solute atoms given and the molecule, and the distance
// between the solute and the molecule's reference atom (refAtom is the atom
// offset within a molecule). Only pairs at or below the cutoff are retained.
// out must have one entry per solvent molecule of the built atom set.
func (x *Index) MinDistances(solute [][3]float64, natomsPerMol, refAtom int, out []MolDist) {
	for m := range out {
		out[m] = MolDist{D: math.Inf(1), DRef: math.Inf(1), I: -1, J: -1}
	}

	for i, p := range solute {
		c := x.cellOf(p)
		for k := 0; k < 3; k++ {
			x.neigh[k] = neighbours(x.neigh[k][:0], c[k], x.nc[k], x.lcell)
		}

		for _, cx := range x.neigh[0] {
			for _, cy := range x.neigh[1] {
				for _, cz := range x.neigh[2] {
					id := (cx*x.nc[1]+cy)*x.nc[2] + cz
					for j := x.head[id]; j != -1; j = x.next[j] {
						d2 := x.cell.ImageDist2(p, x.atoms[j])
						if d2 > x.cut2 {
							continue
						}

						d := math.Sqrt(d2)
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
			}
		}
	}
}

// cellOf returns the grid cell of a point, wrapping its fractional
// coordinates into [0,1).
func (x *Index) cellOf(p [3]float64) [3]int {
	s := x.cell.Frac(p)
	var c [3]int
	for k := 0; k < 3; k++ {
		f := s[k] - math.Floor(s[k])
		i := int(f * float64(x.nc[k]))
		if i >= x.nc[k] { // f can round up to 1.0
			i = x.nc[k] - 1
		}
		c[k] = i
	}
	return c
}

func (x *Index) cellID(c [3]int) int {
	return (c[0]*x.nc[1]+c[1])*x.nc[2] + c[2]
}

// neighbours appends to dst the wrapped cell indexes from c-lcell to c+lcell
// along an axis of nc cells, without repetitions (a grid smaller than the
// scan range would visit the same cell twice).
func neighbours(dst []int, c, nc, lcell int) []int {
	for d := -lcell; d <= lcell; d++ {
		i := c + d
		for i < 0 {
			i += nc
		}
		for i >= nc {
			i -= nc
		}

		seen := false
		for _, v := range dst {
			if v == i {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, i)
		}
	}
	return dst
}
