package mddf

import (
	"fmt"
	"log"
	"sort"
)

// Selection is one side (solute or solvent) of the calculation: an ordered
// list of global atom ids, laid out molecule after molecule, with the number
// of atoms per molecule. Optional named groups map atom offsets within a
// molecule (0 based) to contribution columns; without groups every atom
// offset gets its own column. A Selection is never modified after setup.
type Selection struct {
	Indexes      []int            `toml:"indexes"`
	NAtomsPerMol int              `toml:"natoms_per_mol"`
	Groups       map[string][]int `toml:"groups"`

	nmols int
	cols  []string
	colOf [][]int // per atom offset, the columns it feeds
}

// setup validates the selection and builds the contribution columns. role is
// only used in error messages and warnings.
func (s *Selection) setup(role string) error {
	if s.NAtomsPerMol < 1 {
		return fmt.Errorf("%s: natoms_per_mol must be at least 1", role)
	}
	if len(s.Indexes) == 0 {
		return fmt.Errorf("%s: no atom indexes", role)
	}
	if len(s.Indexes)%s.NAtomsPerMol != 0 {
		return fmt.Errorf("%s: %d indexes is not a whole number of molecules of %d atoms",
			role, len(s.Indexes), s.NAtomsPerMol)
	}
	s.nmols = len(s.Indexes) / s.NAtomsPerMol

	seen := make(map[int]bool, len(s.Indexes))
	for _, id := range s.Indexes {
		if seen[id] {
			return fmt.Errorf("%s: atom id %d appears twice", role, id)
		}
		seen[id] = true
	}

	groups := s.Groups
	if len(groups) > 0 && s.nmols > 1 && role == "solute" {
		// Groups describe a single molecule; with several solute molecules we
		// fall back to the per atom columns.
		log.Printf("mddf: %s: groups defined on a selection of %d molecules; aggregating per atom instead", role, s.nmols)
		groups = nil
	}

	s.colOf = make([][]int, s.NAtomsPerMol)
	if len(groups) == 0 {
		s.cols = make([]string, s.NAtomsPerMol)
		for k := 0; k < s.NAtomsPerMol; k++ {
			s.cols[k] = fmt.Sprintf("at%d", k)
			s.colOf[k] = []int{k}
		}
		return nil
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	s.cols = names
	for c, name := range names {
		for _, off := range groups[name] {
			if off < 0 || off >= s.NAtomsPerMol {
				return fmt.Errorf("%s: group %q: atom offset %d is outside the molecule (0..%d)",
					role, name, off, s.NAtomsPerMol-1)
			}
			s.colOf[off] = append(s.colOf[off], c)
		}
	}

	return nil
}

// NMols returns the number of molecules in the selection.
func (s *Selection) NMols() int { return s.nmols }

// equal reports whether both selections cover exactly the same atoms in the
// same order, which switches the calculation to the self mode.
func (s *Selection) equal(o *Selection) bool {
	if len(s.Indexes) != len(o.Indexes) || s.NAtomsPerMol != o.NAtomsPerMol {
		return false
	}
	for i, id := range s.Indexes {
		if id != o.Indexes[i] {
			return false
		}
	}
	return true
}
