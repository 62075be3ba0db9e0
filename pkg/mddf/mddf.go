// Package mddf calculates the minimum distance distribution function of a
// solvent around a solute and its Kirkwood-Buff integral. For every frame and
// every solute molecule, the minimum atom-atom distance to each solvent
// molecule is binned; the same histogram accumulated over randomized (ideal
// gas) solvent configurations provides the normalization reference.
package mddf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/kpotier/mddf/pkg/geom"
	"github.com/kpotier/mddf/pkg/util"

	"github.com/pelletier/go-toml"
)

// Type is the type of calculation.
var Type = "mddf"

// MDDF is a structure containing the parameters that can be parsed from a
// TOML configuration file. This structure can be instanced through the New
// method. It also contains other unexported informations like the number of
// atoms, the number of columns, the shared trajectory cursor, ...
// FirstFrame must be lower than LastFrame; LastFrame may be -1 (or omitted)
// to read the trajectory until its end.
type MDDF struct {
	FileIn        string `toml:"mddf.file_in"`
	FileOut       string `toml:"mddf.file_out"`
	FileOutResult string `toml:"mddf.file_out_result"`

	FirstFrame int `toml:"mddf.first_frame"`
	LastFrame  int `toml:"mddf.last_frame"`
	Stride     int `toml:"mddf.stride"`

	BinStep   float64 `toml:"mddf.binstep"`
	DBulk     float64 `toml:"mddf.dbulk"`
	Cutoff    float64 `toml:"mddf.cutoff"`
	UseCutoff bool    `toml:"mddf.use_cutoff"`

	IRefAtom       int     `toml:"mddf.iref_atom"` // atom offset within a solvent molecule
	NRandomSamples int     `toml:"mddf.n_random_samples"`
	LCell          int     `toml:"mddf.lcell"`
	NThreads       int     `toml:"mddf.nthreads"`
	Seed           int64   `toml:"mddf.seed"`
	FrameWeight    float64 `toml:"mddf.frame_weight"`

	Solute  Selection `toml:"mddf.solute"`
	Solvent Selection `toml:"mddf.solvent"`

	self    bool
	wt      weighting
	nbins   int
	qcutoff float64 // distance searched: Cutoff if UseCutoff, DBulk otherwise

	atoms   int
	cols    [4]int // id x y z
	colsLen int
	route   map[int][]slotRef

	cfg int
	err error
	mux sync.Mutex
	wg  sync.WaitGroup
}

// New returns an instance of the MDDF structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file.
func New(path string) (*MDDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m MDDF
	dec := toml.NewDecoder(f)
	err = dec.Decode(&m)
	if err != nil {
		return nil, err
	}

	err = m.setup()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// setup validates the options, fills the defaults and prepares the atom id
// routing. It is split from New so tests can build an MDDF without a file.
func (m *MDDF) setup() error {
	if m.LastFrame == 0 {
		m.LastFrame = -1
	}
	if m.LastFrame >= 0 && m.FirstFrame >= m.LastFrame {
		return errors.New("FirstFrame is greater or equal than LastFrame")
	}
	if m.Stride < 1 {
		m.Stride = 1
	}

	if m.BinStep <= 0 {
		return errors.New("binstep must be greater than 0")
	}
	if m.DBulk <= 0 {
		return errors.New("dbulk must be greater than 0")
	}
	if m.UseCutoff {
		if m.Cutoff < m.DBulk {
			return errors.New("cutoff must be greater or equal than dbulk")
		}
		m.qcutoff = m.Cutoff
	} else {
		m.Cutoff = m.DBulk
		m.qcutoff = m.DBulk
	}

	m.nbins = int(math.Ceil(m.qcutoff / m.BinStep))
	if m.nbins <= 1 {
		return errors.New("the number of bins must be greater than 1")
	}

	err := m.Solute.setup("solute")
	if err != nil {
		return err
	}
	err = m.Solvent.setup("solvent")
	if err != nil {
		return err
	}
	m.self = m.Solute.equal(&m.Solvent)
	m.wt = newWeighting(m.self)
	if m.self && m.Solvent.nmols < 2 {
		return errors.New("the self mode needs at least two molecules")
	}

	if m.IRefAtom < 0 || m.IRefAtom >= m.Solvent.NAtomsPerMol {
		return fmt.Errorf("iref_atom %d is outside the solvent molecule (0..%d)",
			m.IRefAtom, m.Solvent.NAtomsPerMol-1)
	}

	if m.NRandomSamples < 1 {
		m.NRandomSamples = 10 * m.Solute.nmols
	}
	if m.LCell < 1 {
		m.LCell = 1
	}
	if m.NThreads < 1 {
		m.NThreads = runtime.NumCPU()
	}
	if m.Seed == 0 {
		m.Seed = time.Now().UnixNano()
	}
	if m.FrameWeight <= 0 {
		m.FrameWeight = 1
	}

	m.route = make(map[int][]slotRef, len(m.Solvent.Indexes)+len(m.Solute.Indexes))
	for pos, id := range m.Solvent.Indexes {
		m.route[id] = append(m.route[id], slotRef{bufSolvent, pos})
	}
	if !m.self {
		for pos, id := range m.Solute.Indexes {
			m.route[id] = append(m.route[id], slotRef{bufSolute, pos})
		}
	}

	return nil
}

// Start performs the calculation. It is a thread blocking method. The
// trajectory is read serially under a lock while the per frame computation
// runs in parallel on NThreads workers, each with its own counters, spatial
// index and random number stream.
func (m *MDDF) Start() error {
	f, err := os.Open(m.FileIn)
	if err != nil {
		return err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	if m.FirstFrame > 0 {
		_, err = util.ReadCfgNonCvg(r, m.FirstFrame)
		if err != nil {
			return fmt.Errorf("ReadCfgNonCvg: %w", err)
		}
	}

	workers := make([]*worker, m.NThreads)
	for i := range workers {
		workers[i] = m.newWorker(i)
	}

	box, err := m.readCfgFirst(r, workers[0])
	if err != nil {
		return fmt.Errorf("readCfgFirst: %w", err)
	}
	cell, err := boxCell(box)
	if err != nil {
		return fmt.Errorf("readCfgFirst: %w", err)
	}
	err = workers[0].frame(m.FirstFrame, cell)
	if err != nil {
		return err
	}
	m.cfg = m.FirstFrame

	for i := 1; i < m.NThreads; i++ {
		m.wg.Add(1)
		go m.start(r, workers[i])
	}
	m.wg.Add(1)
	m.start(r, workers[0])
	m.wg.Wait()

	if m.err != nil {
		return m.err
	}

	res := workers[0].res
	for _, w := range workers[1:] {
		res.Merge(w.res)
	}
	err = res.Normalize()
	if err != nil {
		return fmt.Errorf("Normalize: %w", err)
	}

	if m.FileOutResult != "" {
		err = res.Save(m.FileOutResult)
		if err != nil {
			return fmt.Errorf("Save: %w", err)
		}
	}

	out, err := util.Write(m.FileOut, m)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()
	return m.write(out, res)
}

func (m *MDDF) start(r *bufio.Reader, w *worker) {
	for {
		m.mux.Lock()
		m.cfg += m.Stride
		if (m.LastFrame >= 0 && m.cfg >= m.LastFrame) || m.err != nil {
			break
		}

		if m.Stride > 1 {
			util.SkipCfgs(r, m.Stride-1, m.atoms)
		}
		if _, err := r.Peek(1); err == io.EOF {
			// A trajectory shorter than LastFrame is an error; running out of
			// frames with LastFrame -1 is the normal way to stop.
			if m.LastFrame >= 0 && m.err == nil {
				m.err = fmt.Errorf("readCfg (step %d): unexpected end of trajectory", m.cfg)
			}
			break
		}

		box, err := m.readCfg(r, w)
		if err != nil {
			if m.err == nil {
				m.err = fmt.Errorf("readCfg (step %d): %w", m.cfg, err)
			}
			break
		}
		cur := m.cfg
		m.mux.Unlock()

		cell, err := boxCell(box)
		if err == nil {
			err = w.frame(cur, cell)
		}
		if err != nil {
			m.mux.Lock()
			if m.err == nil {
				m.err = err
			}
			break
		}
	}

	m.mux.Unlock()
	m.wg.Done()
}

// boxCell builds the periodic cell of a frame from the Lammps box bounds.
func boxCell(box util.Box) (*geom.Cell, error) {
	if !box.Triclinic {
		return geom.NewCell(box.L[0], box.L[1], box.L[2])
	}
	xy, xz, yz := box.Tilt[0], box.Tilt[1], box.Tilt[2]
	return geom.NewTriclinicCell([3][3]float64{
		{box.L[0], 0, 0},
		{xy, box.L[1], 0},
		{xz, yz, box.L[2]},
	})
}
