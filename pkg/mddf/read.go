package mddf

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/kpotier/mddf/pkg/util"
)

const (
	bufSolute = iota
	bufSolvent
)

// slotRef routes a global atom id into a position of one of the per worker
// coordinate buffers.
type slotRef struct {
	buf int
	pos int
}

// readCfgFirst reads the first configuration. It reads the number of atoms,
// discovers the columns and fills the coordinate buffers of w.
func (m *MDDF) readCfgFirst(r *bufio.Reader, w *worker) (box util.Box, err error) {
	m.atoms, box, err = util.Header(r)
	if err != nil {
		err = fmt.Errorf("Header: %w", err)
		return
	}

	b, _ := r.ReadSlice('\n')
	fields := strings.Fields(string(b))

	if len(fields) <= 2 {
		err = fmt.Errorf("not enough columns (at least 3; got %d)", len(fields))
		return
	}
	fields = fields[2:]

	var found int
	m.colsLen = len(fields)
	for k, v := range fields {
		switch v {
		case "id":
			m.cols[0] = k
		case "x", "xu":
			m.cols[1] = k
		case "y", "yu":
			m.cols[2] = k
		case "z", "zu":
			m.cols[3] = k
		default:
			continue
		}
		found++
	}

	if found < len(m.cols) {
		err = fmt.Errorf("cannot find the columns id, x, y and z")
		return
	}

	err = m.fetchXYZ(r, w)
	if err != nil {
		err = fmt.Errorf("fetchXYZ: %w", err)
	}
	return
}

// readCfg reads a configuration of the Lammps trajectory and fills the
// coordinate buffers of w.
func (m *MDDF) readCfg(r *bufio.Reader, w *worker) (box util.Box, err error) {
	box, err = util.HeaderWOutAtoms(r)
	if err != nil {
		err = fmt.Errorf("HeaderWOutAtoms: %w", err)
		return
	}

	r.ReadSlice('\n')

	err = m.fetchXYZ(r, w)
	if err != nil {
		err = fmt.Errorf("fetchXYZ: %w", err)
	}
	return
}

// fetchXYZ reads the coordinates of every atom of the configuration and
// routes the selected ones into the solute and solvent buffers of w.
func (m *MDDF) fetchXYZ(r *bufio.Reader, w *worker) error {
	filled := 0
	want := len(m.Solvent.Indexes)
	if !m.self {
		want += len(m.Solute.Indexes)
	}

	for i := 0; i < m.atoms; i++ {
		b, _ := r.ReadSlice('\n')
		fields := strings.Fields(string(b))
		if len(fields) != m.colsLen {
			return fmt.Errorf("number of columns don't match: %d (expected %d)", len(fields), m.colsLen)
		}

		id, err := strconv.Atoi(fields[m.cols[0]])
		if err != nil {
			return fmt.Errorf("atom id: %w", err)
		}
		refs, ok := m.route[id]
		if !ok {
			continue
		}

		var p [3]float64
		for k := 0; k < 3; k++ {
			p[k], _ = strconv.ParseFloat(fields[m.cols[k+1]], 64)
		}

		for _, ref := range refs {
			if ref.buf == bufSolute {
				w.solute[ref.pos] = p
			} else {
				w.solvent[ref.pos] = p
			}
			filled++
		}
	}

	if filled != want {
		return fmt.Errorf("%d selected atoms found in the configuration (expected %d)", filled, want)
	}
	return nil
}
