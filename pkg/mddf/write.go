package mddf

import (
	"fmt"
	"io"
)

// write writes the results of this calculation into a file: one row per bin
// with the upper edge distance, the distribution functions, the integral,
// the raw counts and the contribution columns.
func (m *MDDF) write(w io.Writer, res *Result) error {
	fmt.Fprint(w, "dist mddf kb rdf md_count md_count_random rdf_count rdf_count_random")
	for _, c := range res.SoluteCols {
		fmt.Fprint(w, " solute-", c)
	}
	for _, c := range res.SolventCols {
		fmt.Fprint(w, " solvent-", c)
	}
	fmt.Fprint(w, "\n")

	for i := 0; i < res.NBins; i++ {
		fmt.Fprint(w, float64(i+1)*res.BinStep, " ",
			res.MDDF[i], " ", res.KB[i], " ", res.RDF[i], " ",
			res.MDCount[i], " ", res.MDCountRandom[i], " ",
			res.RDFCount[i], " ", res.RDFCountRandom[i])
		for _, v := range res.SoluteAtom[i] {
			fmt.Fprint(w, " ", v)
		}
		for _, v := range res.SolventAtom[i] {
			fmt.Fprint(w, " ", v)
		}
		fmt.Fprint(w, "\n")
	}

	return nil
}
