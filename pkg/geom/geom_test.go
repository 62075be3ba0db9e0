package geom

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-9

func equals(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func ortho(t *testing.T, a, b, c float64) *Cell {
	t.Helper()
	cell, err := NewCell(a, b, c)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	return cell
}

func triclinic(t *testing.T) *Cell {
	t.Helper()
	c, err := NewTriclinicCell([3][3]float64{
		{10, 0, 0},
		{3, 10, 0},
		{1, 2, 10},
	})
	if err != nil {
		t.Fatalf("NewTriclinicCell: %v", err)
	}
	return c
}

func TestCellVolume(t *testing.T) {
	// The triple product of integer sides is exact, not merely close.
	c := ortho(t, 30, 30, 30)
	if c.Volume() != 27000 {
		t.Errorf("volume of a 30x30x30 cell: got %g, want exactly 27000", c.Volume())
	}

	// The volume of a sheared cell does not change.
	tc := triclinic(t)
	if tc.Volume() != 1000 {
		t.Errorf("volume of the triclinic cell: got %g, want exactly 1000", tc.Volume())
	}
}

func TestNewCellDegenerate(t *testing.T) {
	if _, err := NewCell(0, 30, 30); err == nil {
		t.Error("a zero-sided cell was accepted")
	}
	if _, err := NewCell(30, -1, 30); err == nil {
		t.Error("a negative-sided cell was accepted")
	}
	if _, err := NewTriclinicCell([3][3]float64{{1, 0, 0}, {2, 0, 0}, {0, 0, 1}}); err == nil {
		t.Error("coplanar cell vectors were accepted")
	}
}

func TestWrapOrthorhombic(t *testing.T) {
	c := ortho(t, 10, 10, 10)
	w := c.Wrap([3]float64{9, 0, 0}, [3]float64{0, 0, 0})
	if !equals(w[0], -1) || !equals(w[1], 0) || !equals(w[2], 0) {
		t.Errorf("Wrap: got %v, want [-1 0 0]", w)
	}

	// A point already closest to the reference is left alone.
	w = c.Wrap([3]float64{4, -3, 2}, [3]float64{0, 0, 0})
	if !equals(w[0], 4) || !equals(w[1], -3) || !equals(w[2], 2) {
		t.Errorf("Wrap: got %v, want [4 -3 2]", w)
	}
}

func TestWrapTriclinic(t *testing.T) {
	c := triclinic(t)
	q := [3]float64{1.5, 2.5, 3.5}

	// Displace q by a whole number of cell vectors: a + b + 2c.
	p := [3]float64{q[0] + 10 + 3 + 2, q[1] + 10 + 4, q[2] + 20}
	w := c.Wrap(p, q)
	for k := 0; k < 3; k++ {
		if !equals(w[k], q[k]) {
			t.Fatalf("Wrap: got %v, want %v", w, q)
		}
	}
}

func TestImageDist2(t *testing.T) {
	c := ortho(t, 10, 10, 10)
	d2 := c.ImageDist2([3]float64{0.5, 0, 0}, [3]float64{9.5, 0, 0})
	if !equals(d2, 1) {
		t.Errorf("ImageDist2 across the boundary: got %g, want 1", d2)
	}
}

func TestRotationXYZ(t *testing.T) {
	r := RotationXYZ(0.3, 0.4, 0.5)

	var id mat.Dense
	id.Mul(r.T(), r)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if !equals(id.At(i, j), want) {
				t.Fatalf("R^T R is not the identity: %v", mat.Formatted(&id))
			}
		}
	}

	if det := mat.Det(r); !equals(det, 1) {
		t.Errorf("rotation determinant: got %g, want 1", det)
	}
}

func TestRigidTransformCentroid(t *testing.T) {
	pts := [][3]float64{{1, 0, 0}, {-1, 0, 0}, {0, 2, 0}}
	rot := RotationXYZ(1.1, 0.2, 2.3)
	dst := RigidTransform(nil, pts, rot, [3]float64{5, -3, 7})

	c := Centroid(pts)
	cd := Centroid(dst)
	if !equals(cd[0], c[0]+5) || !equals(cd[1], c[1]-3) || !equals(cd[2], c[2]+7) {
		t.Errorf("centroid after transform: got %v", cd)
	}
}

func TestRandomRigidPlacementKeepsDistances(t *testing.T) {
	cells := map[string]*Cell{
		"orthorhombic": ortho(t, 10, 10, 10),
		"triclinic":    triclinic(t),
	}
	// The molecule is split across the x boundary on purpose: atom 0 and
	// atom 1 are 0.4 apart through the periodic image.
	pts := [][3]float64{{9.9, 1, 1}, {0.3, 1, 1}, {9.9, 1.8, 1}}

	for name, cell := range cells {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 20; trial++ {
			dst := RandomRigidPlacement(nil, pts, 0, cell, rng)
			if len(dst) != len(pts) {
				t.Fatalf("%s: got %d atoms, want %d", name, len(dst), len(pts))
			}
			for i := 0; i < len(pts); i++ {
				for j := i + 1; j < len(pts); j++ {
					want := math.Sqrt(cell.ImageDist2(pts[i], pts[j]))
					got := math.Sqrt(Dist2(dst[i], dst[j]))
					if !equals(got, want) {
						t.Fatalf("%s: distance %d-%d changed: got %g, want %g", name, i, j, got, want)
					}
				}
			}
		}
	}
}

func TestRandomRigidPlacementDoesNotMutate(t *testing.T) {
	cell := ortho(t, 10, 10, 10)
	rng := rand.New(rand.NewSource(7))
	pts := [][3]float64{{1, 2, 3}, {2, 2, 3}}
	RandomRigidPlacement(nil, pts, 0, cell, rng)
	if pts[0] != [3]float64{1, 2, 3} || pts[1] != [3]float64{2, 2, 3} {
		t.Errorf("input points were modified: %v", pts)
	}
}
