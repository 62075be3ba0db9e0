package util

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Box is the periodic box of one configuration of a Lammps trajectory. For a
// triclinic box the bound lines carry the tilt factors xy, xz and yz; the
// bounds are then corrected the way Lammps extends them.
type Box struct {
	L         [3]float64 // box lengths
	Tilt      [3]float64 // xy, xz, yz
	Triclinic bool
}

// Header corresponds to the lines specific to a Lammps trajectory file. It
// contains the size of the box and the number of atoms. This method returns
// the number of atoms and the box.
func Header(r *bufio.Reader) (atoms int, box Box, err error) {
	for l := 0; l < 3; l++ {
		r.ReadSlice('\n')
	}

	b, _ := r.ReadSlice('\n')
	atomsStr := strings.TrimSpace(string(b))
	atoms, err = strconv.Atoi(atomsStr)
	if err != nil {
		err = fmt.Errorf("unable to get the number of atoms: %w", err)
		return
	}

	r.ReadSlice('\n')

	box, err = HeaderBox(r)
	return
}

// HeaderBox returns the box. Each of the three bound lines holds two fields
// (lo hi) for an orthorhombic box, or three (lo hi tilt) for a triclinic one.
func HeaderBox(r *bufio.Reader) (box Box, err error) {
	var lo, hi [3]float64
	for k := 0; k < 3; k++ {
		b, _ := r.ReadSlice('\n')

		fields := strings.Fields(string(b))
		switch len(fields) {
		case 2:
		case 3:
			box.Triclinic = true
			box.Tilt[k], _ = strconv.ParseFloat(fields[2], 64)
		default:
			err = fmt.Errorf("unable to get the size of the box")
			return
		}

		lo[k], _ = strconv.ParseFloat(fields[0], 64)
		hi[k], _ = strconv.ParseFloat(fields[1], 64)
	}

	if box.Triclinic {
		// Lammps writes the bounding box of the tilted cell; undo the
		// extension to recover the cell lengths.
		xy, xz, yz := box.Tilt[0], box.Tilt[1], box.Tilt[2]
		lo[0] -= min4(0, xy, xz, xy+xz)
		hi[0] -= max4(0, xy, xz, xy+xz)
		lo[1] -= min4(0, yz, 0, yz)
		hi[1] -= max4(0, yz, 0, yz)
	}

	for k := 0; k < 3; k++ {
		box.L[k] = hi[k] - lo[k]
	}

	return
}

// HeaderWOutAtoms returns the box. It is like HeaderBox but it also reads the
// leading lines of the configuration, without the number of atoms.
func HeaderWOutAtoms(r *bufio.Reader) (box Box, err error) {
	for l := 0; l < 5; l++ {
		r.ReadSlice('\n')
	}

	return HeaderBox(r)
}

func min4(a, b, c, d float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}

func max4(a, b, c, d float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	if d > m {
		m = d
	}
	return m
}
