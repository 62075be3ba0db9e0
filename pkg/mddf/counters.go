package mddf

import "github.com/kpotier/mddf/pkg/cells"

// weighting fixes the statistical weight of the pairs once per run, so the
// per frame loops carry no mode branching. In self mode the solute and the
// solvent are the same molecules: every unordered pair is encountered twice
// and each encounter counts half.
type weighting struct {
	self bool
	pair float64
}

func newWeighting(self bool) weighting {
	if self {
		return weighting{self: true, pair: 0.5}
	}
	return weighting{pair: 1}
}

// updateReal increments the histogram counters for the minimum distances of
// one real (trajectory) solute pass. Every record within the cutoff feeds
// the aggregate counter and the contribution columns of the solute atom and
// solvent atom realizing the minimum; in self mode both sides fold into the
// solute columns and the solvent side is copied at finalization.
func (w *worker) updateReal(md []cells.MolDist, fw float64) {
	m := w.m
	res := w.res
	wt := fw * m.wt.pair
	nat := m.Solvent.NAtomsPerMol

	for i := range md {
		rec := &md[i]
		if !rec.WithinCutoff {
			continue
		}

		if bin := int(rec.D / res.BinStep); bin < res.NBins {
			res.MDCount[bin] += wt

			jOff := rec.J % nat
			if m.wt.self {
				// Both sides fold into the solute columns; the weight is
				// split so the row sum still matches MDCount.
				for _, c := range m.Solute.colOf[rec.I] {
					res.SoluteAtom[bin][c] += wt / 2
				}
				for _, c := range m.Solute.colOf[jOff] {
					res.SoluteAtom[bin][c] += wt / 2
				}
			} else {
				for _, c := range m.Solute.colOf[rec.I] {
					res.SoluteAtom[bin][c] += wt
				}
				for _, c := range m.Solvent.colOf[jOff] {
					res.SolventAtom[bin][c] += wt
				}
			}
		}

		if rec.RefWithinCutoff {
			if bin := int(rec.DRef / res.BinStep); bin < res.NBins {
				res.RDFCount[bin] += wt
			}
		}
	}
}

// updateRandom increments the ideal gas counters for the minimum distances
// of one randomized pass. Random samples never feed the contribution
// columns: they are a null model, not real atomic contributions. The number
// of placements classified as bulk is returned; the caller turns it into the
// bulk volume estimate.
func (w *worker) updateRandom(md []cells.MolDist, fw float64) int {
	res := w.res
	wt := fw * w.m.wt.pair

	var nbulk int
	for i := range md {
		rec := &md[i]
		if w.m.inBulk(rec) {
			nbulk++
		}
		if !rec.WithinCutoff {
			continue
		}

		if bin := int(rec.D / res.BinStep); bin < res.NBins {
			res.MDCountRandom[bin] += wt
		}
		if rec.RefWithinCutoff {
			if bin := int(rec.DRef / res.BinStep); bin < res.NBins {
				res.RDFCountRandom[bin] += wt
			}
		}
	}
	return nbulk
}
