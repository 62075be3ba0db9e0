package mddf

import (
	"errors"
	"math"

	"github.com/kpotier/mddf/pkg/util"

	"gonum.org/v1/gonum/floats"
)

// Normalize turns the accumulated counts into the distribution functions and
// the Kirkwood-Buff integral, in place. It must be called exactly once, on
// the Result obtained after merging every worker.
//
// The random counters correspond to NRandomSamples reference passes per
// frame while the real ones correspond to one pass per solute molecule, so
// the random counts are first rescaled to the same number of passes. The
// distribution is the ratio of the real to the rescaled random counts, times
// the ratio of the total to the bulk solvent density (the randomized
// ensemble is an ideal gas at the total density, the physical reference is
// the bulk). The same per bin scale is applied to the contribution columns,
// so that their sum reproduces the distribution at every bin.
func (r *Result) Normalize() error {
	if r.Normalized {
		return errors.New("results already normalized")
	}
	if r.Weight <= 0 {
		return errors.New("no frames accumulated")
	}

	wTot := r.Weight
	r.VolumeTotal /= wTot
	r.VolumeBulk /= wTot
	r.DensitySolute /= wTot
	r.DensitySolvent /= wTot
	r.BulkCount /= wTot

	if r.VolumeBulk > 0 {
		r.DensitySolventBulk = r.BulkCount / r.VolumeBulk
	} else {
		r.DensitySolventBulk = r.DensitySolvent
	}
	factor := 1.0
	if r.DensitySolventBulk > 0 {
		factor = r.DensitySolvent / r.DensitySolventBulk
	}

	scale := float64(r.NMolsSolute) / float64(r.NRandomSamples)

	r.MDDF = make([]float64, r.NBins)
	r.RDF = make([]float64, r.NBins)
	r.KB = make([]float64, r.NBins)

	var kb, prev float64
	for i := 0; i < r.NBins; i++ {
		if rnd := r.MDCountRandom[i] * scale; rnd > 0 {
			r.MDDF[i] = r.MDCount[i] / rnd * factor
		}
		if rnd := r.RDFCountRandom[i] * scale; rnd > 0 {
			r.RDF[i] = r.RDFCount[i] / rnd * factor
		}

		var s float64
		if r.MDCount[i] > 0 {
			s = r.MDDF[i] / r.MDCount[i]
		}
		floats.Scale(s, r.SoluteAtom[i])
		if !r.Self {
			floats.Scale(s, r.SolventAtom[i])
		}

		// Kirkwood-Buff integral: cumulative trapezoid of (mddf-1)*4*pi*r^2
		// over the bin edges, up to dbulk.
		if edge := float64(i+1) * r.BinStep; edge <= r.DBulk+1e-10 {
			f := (r.MDDF[i] - 1) * 4 * math.Pi * util.Pow(edge, 2)
			kb += 0.5 * (prev + f) * r.BinStep
			prev = f
		}
		r.KB[i] = kb
	}

	if r.Self {
		// Both sides are the same physical molecules.
		r.SolventCols = append([]string(nil), r.SoluteCols...)
		r.SolventAtom = make([][]float64, r.NBins)
		for i := 0; i < r.NBins; i++ {
			r.SolventAtom[i] = append([]float64(nil), r.SoluteAtom[i]...)
		}
	}

	r.Normalized = true
	return nil
}
