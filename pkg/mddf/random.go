package mddf

import (
	"github.com/kpotier/mddf/pkg/cells"
	"github.com/kpotier/mddf/pkg/geom"
)

// inBulk reports whether a minimum distance record belongs to the bulk
// region. Without use_cutoff the bulk is everything beyond dbulk; with it,
// the [dbulk, cutoff] shell.
func (m *MDDF) inBulk(rec *cells.MolDist) bool {
	if m.UseCutoff {
		return rec.WithinCutoff && rec.D >= m.DBulk
	}
	return !rec.WithinCutoff
}

// classifyBulk fills w.bulk with the indexes of the solvent molecules in the
// bulk region and returns their number.
func (w *worker) classifyBulk(md []cells.MolDist) int {
	w.bulk = w.bulk[:0]
	for i := range md {
		if w.m.inBulk(&md[i]) {
			w.bulk = append(w.bulk, i)
		}
	}
	return len(w.bulk)
}

// randomEnsemble fills w.randBuf with one randomized copy of a solvent
// molecule per slot of solvent. Each copy starts from a molecule drawn from
// the bulk subset when any exists (so the copied conformations are the
// unperturbed ones), from the whole solvent otherwise, and is then rigidly
// randomized in position and orientation.
func (w *worker) randomEnsemble(solvent [][3]float64, cell *geom.Cell) {
	m := w.m
	nat := m.Solvent.NAtomsPerMol
	nmols := len(solvent) / nat

	for s := 0; s < nmols; s++ {
		var src int
		if len(w.bulk) > 0 {
			src = w.bulk[w.rng.Intn(len(w.bulk))]
		} else {
			src = w.rng.Intn(nmols)
		}
		mol := solvent[src*nat : (src+1)*nat]
		geom.RandomRigidPlacement(w.randBuf[s*nat:(s+1)*nat], mol, m.IRefAtom, cell, w.rng)
	}
}
