package mddf

import (
	"fmt"
	"math/rand"

	"github.com/kpotier/mddf/pkg/cells"
	"github.com/kpotier/mddf/pkg/geom"
)

// worker owns everything one thread needs to process frames without any
// synchronization: its frame coordinate buffers (filled under the read
// lock), its counters, its spatial indexes, its random number stream and
// the scratch arenas reused frame after frame.
type worker struct {
	m   *MDDF
	res *Result
	rng *rand.Rand

	ix  *cells.Index // over the frame solvent
	ixr *cells.Index // over the randomized solvent

	solute  [][3]float64
	solvent [][3]float64

	md      []cells.MolDist
	solvSub [][3]float64 // solvent minus the solute's own molecule (self mode)
	randBuf [][3]float64
	bulk    []int
	sched   []int
}

// newWorker returns a worker with all the scratch arenas sized once. Worker
// id seeds the random stream, so a run is reproducible for a fixed seed and
// worker count.
func (m *MDDF) newWorker(id int) *worker {
	w := &worker{
		m:   m,
		res: newResult(m),
		rng: rand.New(rand.NewSource(m.Seed + int64(id))),
		ix:  cells.NewIndex(m.LCell),
		ixr: cells.NewIndex(m.LCell),
	}

	nat := m.Solvent.NAtomsPerMol
	nEff := m.Solvent.nmols
	if m.self {
		nEff--
	}

	w.solvent = make([][3]float64, len(m.Solvent.Indexes))
	if m.self {
		w.solute = w.solvent
	} else {
		w.solute = make([][3]float64, len(m.Solute.Indexes))
	}

	w.md = make([]cells.MolDist, nEff)
	if m.self {
		w.solvSub = make([][3]float64, nEff*nat)
	}
	w.randBuf = make([][3]float64, nEff*nat)
	w.bulk = make([]int, 0, m.Solvent.nmols)
	w.sched = make([]int, m.Solute.nmols)

	return w
}

// frame processes one frame already sitting in the worker's coordinate
// buffers: volumes and densities, then for every solute molecule the real
// minimum distance pass and as many randomized passes as the sampling
// schedule assigned to it. A cutoff too large for the frame's periodic cell
// is fatal for the whole run.
func (w *worker) frame(cfg int, cell *geom.Cell) error {
	m := w.m

	if half := cell.MinWidth() / 2; m.qcutoff > half {
		p := cell.PerpWidths()
		return fmt.Errorf("frame %d: cutoff %g exceeds half the periodic cell widths (%g %g %g)",
			cfg, m.qcutoff, p[0], p[1], p[2])
	}

	fw := m.FrameWeight
	vol := cell.Volume()
	res := w.res
	res.VolumeTotal += fw * vol
	res.DensitySolute += fw * float64(m.Solute.nmols) / vol
	res.DensitySolvent += fw * float64(m.Solvent.nmols) / vol
	res.Weight += fw
	res.Frames++

	// Sampling schedule: how many randomized ensembles each solute molecule
	// gets as a reference. The total per frame is always NRandomSamples.
	for i := range w.sched {
		w.sched[i] = 0
	}
	for k := 0; k < m.NRandomSamples; k++ {
		w.sched[w.rng.Intn(len(w.sched))]++
	}

	natSolute := m.Solute.NAtomsPerMol
	nat := m.Solvent.NAtomsPerMol
	var bulkSum float64
	var randBulk, randTotal int

	// The solvent set is frame constant in cross mode; the index is rebuilt
	// per solute molecule only when its own molecule must be excluded.
	if !m.self {
		if err := w.ix.Build(w.solvent, cell, m.qcutoff); err != nil {
			return fmt.Errorf("frame %d: %w", cfg, err)
		}
	}

	for im := 0; im < m.Solute.nmols; im++ {
		soluteMol := w.solute[im*natSolute : (im+1)*natSolute]

		solvent := w.solvent
		if m.self {
			copy(w.solvSub, w.solvent[:im*nat])
			copy(w.solvSub[im*nat:], w.solvent[(im+1)*nat:])
			solvent = w.solvSub
			if err := w.ix.Build(solvent, cell, m.qcutoff); err != nil {
				return fmt.Errorf("frame %d: %w", cfg, err)
			}
		}

		w.ix.MinDistances(soluteMol, nat, m.IRefAtom, w.md)
		w.updateReal(w.md, fw)

		bulkSum += float64(w.classifyBulk(w.md))

		for t := 0; t < w.sched[im]; t++ {
			w.randomEnsemble(solvent, cell)
			err := w.ixr.Build(w.randBuf, cell, m.qcutoff)
			if err != nil {
				return fmt.Errorf("frame %d: %w", cfg, err)
			}
			w.ixr.MinDistances(soluteMol, nat, m.IRefAtom, w.md)
			randBulk += w.updateRandom(w.md, fw)
			randTotal += len(w.md)
		}
	}

	meanBulk := bulkSum / float64(m.Solute.nmols)
	res.BulkCount += fw * meanBulk
	if randTotal > 0 {
		// The randomized molecules are uniform over the cell, so the fraction
		// of them classified as bulk measures the volume of the bulk region
		// independently of where the real solvent sits.
		res.VolumeBulk += fw * vol * float64(randBulk) / float64(randTotal)
	}
	return nil
}
