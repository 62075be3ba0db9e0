package mddf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	dumpCols = "ITEM: ATOMS id type x y z\n"
	// Atom 7 is never selected and must be skipped by the routing.
	dumpRows = "1 1 5 5 5\n2 2 8 5 5\n7 3 20 20 20\n"
)

// writeDump writes a Lammps trajectory of identical frames (only the
// timestep changes) and returns its path.
func writeDump(t *testing.T, frames int, cols, rows string) string {
	t.Helper()
	var b strings.Builder
	for f := 0; f < frames; f++ {
		fmt.Fprintf(&b, "ITEM: TIMESTEP\n%d\nITEM: NUMBER OF ATOMS\n3\n", f*100)
		b.WriteString("ITEM: BOX BOUNDS pp pp pp\n0 30\n0 30\n0 30\n")
		b.WriteString(cols)
		b.WriteString(rows)
	}

	path := filepath.Join(t.TempDir(), "dump.lammpstrj")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStartStrideAndSelection(t *testing.T) {
	dir := t.TempDir()
	m := &MDDF{
		FileIn:        writeDump(t, 5, dumpCols, dumpRows),
		FileOut:       filepath.Join(dir, "mddf.dat"),
		FileOutResult: filepath.Join(dir, "mddf.json.gz"),
		FirstFrame:    1,
		Stride:        2,
		BinStep:       1, DBulk: 10,
		NRandomSamples: 2, NThreads: 2, Seed: 3,
		Solute:  Selection{Indexes: []int{1}, NAtomsPerMol: 1},
		Solvent: Selection{Indexes: []int{2}, NAtomsPerMol: 1},
	}
	if err := m.setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := LoadResult(m.FileOutResult)
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	// Frames 1 and 3 of the 5 written: stride 2 starting at 1, then EOF.
	if res.Frames != 2 {
		t.Errorf("Frames: got %d, want 2", res.Frames)
	}
	if !res.Normalized {
		t.Error("saved result not normalized")
	}
	// The solvent sits 3 A from the solute in every frame.
	if res.MDCount[3] != 2 {
		t.Errorf("MDCount[3]: got %g, want 2", res.MDCount[3])
	}
	if res.RDFCount[3] != 2 {
		t.Errorf("RDFCount[3]: got %g, want 2", res.RDFCount[3])
	}
	if res.VolumeTotal != 27000 {
		t.Errorf("VolumeTotal: got %g, want 27000", res.VolumeTotal)
	}

	out, err := os.ReadFile(m.FileOut)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(out), "dist mddf kb rdf") {
		t.Error("text output misses the column header")
	}
}

func TestStartTruncatedTrajectory(t *testing.T) {
	dir := t.TempDir()
	m := &MDDF{
		FileIn:    writeDump(t, 3, dumpCols, dumpRows),
		FileOut:   filepath.Join(dir, "mddf.dat"),
		LastFrame: 10,
		BinStep:   1, DBulk: 10,
		NRandomSamples: 1, NThreads: 1, Seed: 3,
		Solute:  Selection{Indexes: []int{1}, NAtomsPerMol: 1},
		Solvent: Selection{Indexes: []int{2}, NAtomsPerMol: 1},
	}
	if err := m.setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}

	err := m.Start()
	if err == nil {
		t.Fatal("a trajectory shorter than last_frame did not fail")
	}
	if !strings.Contains(err.Error(), "unexpected end of trajectory") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStartMissingColumn(t *testing.T) {
	dir := t.TempDir()
	m := &MDDF{
		FileIn:  writeDump(t, 1, "ITEM: ATOMS id type x y\n", "1 1 5 5\n2 2 8 5\n7 3 20 20\n"),
		FileOut: filepath.Join(dir, "mddf.dat"),
		BinStep: 1, DBulk: 10,
		NRandomSamples: 1, NThreads: 1, Seed: 3,
		Solute:  Selection{Indexes: []int{1}, NAtomsPerMol: 1},
		Solvent: Selection{Indexes: []int{2}, NAtomsPerMol: 1},
	}
	if err := m.setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}

	err := m.Start()
	if err == nil || !strings.Contains(err.Error(), "columns") {
		t.Errorf("a dump without a z column: got %v", err)
	}
}
