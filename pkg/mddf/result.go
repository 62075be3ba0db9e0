package mddf

import (
	"encoding/json"
	"os"

	"github.com/klauspost/compress/gzip"
	"gonum.org/v1/gonum/floats"
)

// Result accumulates the counts of one worker and, once every worker is
// merged, becomes the final output. All counters grow monotonically during
// the accumulation and merging is a component-wise sum, so the reduction
// over workers is associative and commutative. Normalize must run exactly
// once, on the fully merged Result.
type Result struct {
	BinStep   float64 `json:"binstep"`
	NBins     int     `json:"nbins"`
	DBulk     float64 `json:"dbulk"`
	Cutoff    float64 `json:"cutoff"`
	UseCutoff bool    `json:"use_cutoff"`

	NMolsSolute    int  `json:"nmols_solute"`
	NMolsSolvent   int  `json:"nmols_solvent"`
	Self           bool `json:"self"`
	NRandomSamples int  `json:"n_random_samples"`

	MDCount        []float64 `json:"md_count"`
	MDCountRandom  []float64 `json:"md_count_random"`
	RDFCount       []float64 `json:"rdf_count"`
	RDFCountRandom []float64 `json:"rdf_count_random"`

	SoluteAtom  [][]float64 `json:"solute_atom"`  // [bin][column]
	SolventAtom [][]float64 `json:"solvent_atom"` // [bin][column]
	SoluteCols  []string    `json:"solute_cols"`
	SolventCols []string    `json:"solvent_cols"`

	VolumeTotal        float64 `json:"volume_total"`
	VolumeBulk         float64 `json:"volume_bulk"`
	DensitySolute      float64 `json:"density_solute"`
	DensitySolvent     float64 `json:"density_solvent"`
	DensitySolventBulk float64 `json:"density_solvent_bulk"`
	BulkCount          float64 `json:"bulk_count"`
	Weight             float64 `json:"weight"`
	Frames             int     `json:"frames"`

	// Filled by Normalize.
	MDDF       []float64 `json:"mddf,omitempty"`
	RDF        []float64 `json:"rdf,omitempty"`
	KB         []float64 `json:"kb,omitempty"`
	Normalized bool      `json:"normalized"`

	Opts *MDDF `json:"options,omitempty"`
}

// newResult returns an empty Result shaped after the options.
func newResult(m *MDDF) *Result {
	r := &Result{
		BinStep:        m.BinStep,
		NBins:          m.nbins,
		DBulk:          m.DBulk,
		Cutoff:         m.Cutoff,
		UseCutoff:      m.UseCutoff,
		NMolsSolute:    m.Solute.nmols,
		NMolsSolvent:   m.Solvent.nmols,
		Self:           m.self,
		NRandomSamples: m.NRandomSamples,
		SoluteCols:     m.Solute.cols,
		SolventCols:    m.Solvent.cols,
		Opts:           m,
	}

	r.MDCount = make([]float64, r.NBins)
	r.MDCountRandom = make([]float64, r.NBins)
	r.RDFCount = make([]float64, r.NBins)
	r.RDFCountRandom = make([]float64, r.NBins)

	r.SoluteAtom = make([][]float64, r.NBins)
	r.SolventAtom = make([][]float64, r.NBins)
	for i := 0; i < r.NBins; i++ {
		r.SoluteAtom[i] = make([]float64, len(r.SoluteCols))
		r.SolventAtom[i] = make([]float64, len(r.SolventCols))
	}

	return r
}

// Merge adds the counters and scalar accumulators of o into r. Both results
// must come from the same options and must not be normalized.
func (r *Result) Merge(o *Result) {
	if r.NBins != o.NBins || len(r.SoluteCols) != len(o.SoluteCols) ||
		len(r.SolventCols) != len(o.SolventCols) {
		panic("mddf: Result.Merge: ill-formed results for merging")
	}
	if r.Normalized || o.Normalized {
		panic("mddf: Result.Merge: cannot merge normalized results")
	}

	floats.Add(r.MDCount, o.MDCount)
	floats.Add(r.MDCountRandom, o.MDCountRandom)
	floats.Add(r.RDFCount, o.RDFCount)
	floats.Add(r.RDFCountRandom, o.RDFCountRandom)
	for i := 0; i < r.NBins; i++ {
		floats.Add(r.SoluteAtom[i], o.SoluteAtom[i])
		floats.Add(r.SolventAtom[i], o.SolventAtom[i])
	}

	r.VolumeTotal += o.VolumeTotal
	r.VolumeBulk += o.VolumeBulk
	r.DensitySolute += o.DensitySolute
	r.DensitySolvent += o.DensitySolvent
	r.BulkCount += o.BulkCount
	r.Weight += o.Weight
	r.Frames += o.Frames
}

// Save writes the Result, including the originating options, as gzip
// compressed JSON.
func (r *Result) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	err = json.NewEncoder(zw).Encode(r)
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// LoadResult reads back a Result written by Save.
func LoadResult(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var r Result
	err = json.NewDecoder(zr).Decode(&r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
