// Package geom contains the periodic cell geometry used by the minimum
// distance calculations: minimum image wrapping, distances, and rigid body
// transformations of molecule coordinate sets.
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cell is a periodic simulation cell. Orthorhombic and triclinic cells are
// supported. The cell vectors are the columns of a 3x3 matrix; its inverse is
// cached for the conversions to fractional coordinates.
type Cell struct {
	m    *mat.Dense
	inv  *mat.Dense
	vol  float64
	perp [3]float64
	orth bool
	side [3]float64 // only valid when orth
}

// NewCell returns an orthorhombic cell of sides a, b and c. The sides must be
// positive; a malformed trajectory box (hi equal to lo) is reported here.
func NewCell(a, b, c float64) (*Cell, error) {
	if a <= 0 || b <= 0 || c <= 0 {
		return nil, fmt.Errorf("cell sides must be positive (%g %g %g)", a, b, c)
	}
	cell, err := NewTriclinicCell([3][3]float64{{a, 0, 0}, {0, b, 0}, {0, 0, c}})
	if err != nil {
		return nil, err
	}
	cell.orth = true
	cell.side = [3]float64{a, b, c}
	return cell, nil
}

// NewTriclinicCell returns a cell whose vectors are the columns of v
// (v[i][k] is the k component of the vector i). The matrix must not be
// singular.
func NewTriclinicCell(v [3][3]float64) (*Cell, error) {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			m.Set(k, i, v[i][k])
		}
	}

	var inv mat.Dense
	err := inv.Inverse(m)
	if err != nil {
		return nil, errors.New("the cell vectors do not span a volume")
	}

	c := &Cell{m: m, inv: &inv}

	// Volume as the triple product a . (b x c); a LU determinant would round
	// even an integer-sided box.
	cr := cross(v[1], v[2])
	c.vol = math.Abs(v[0][0]*cr[0] + v[0][1]*cr[1] + v[0][2]*cr[2])

	// Distance between the opposite faces of the cell: V / |a_j x a_k|.
	for i := 0; i < 3; i++ {
		j, k := (i+1)%3, (i+2)%3
		cr := cross(v[j], v[k])
		c.perp[i] = c.vol / math.Sqrt(cr[0]*cr[0]+cr[1]*cr[1]+cr[2]*cr[2])
	}

	return c, nil
}

// Volume returns the volume of the cell.
func (c *Cell) Volume() float64 { return c.vol }

// PerpWidths returns the distances between the three pairs of opposite faces
// of the cell. For an orthorhombic cell they are the sides.
func (c *Cell) PerpWidths() [3]float64 { return c.perp }

// MinWidth returns the smallest distance between two opposite faces. The
// minimum image convention is only valid for distances below half this value.
func (c *Cell) MinWidth() float64 {
	return math.Min(c.perp[0], math.Min(c.perp[1], c.perp[2]))
}

// Frac converts a cartesian point into fractional coordinates.
func (c *Cell) Frac(p [3]float64) [3]float64 {
	var s [3]float64
	for k := 0; k < 3; k++ {
		s[k] = c.inv.At(k, 0)*p[0] + c.inv.At(k, 1)*p[1] + c.inv.At(k, 2)*p[2]
	}
	return s
}

// Cart converts fractional coordinates into a cartesian point.
func (c *Cell) Cart(s [3]float64) [3]float64 {
	var p [3]float64
	for k := 0; k < 3; k++ {
		p[k] = c.m.At(k, 0)*s[0] + c.m.At(k, 1)*s[1] + c.m.At(k, 2)*s[2]
	}
	return p
}

// Wrap returns the periodic image of p that is the closest to ref. The input
// points are not modified.
func (c *Cell) Wrap(p, ref [3]float64) [3]float64 {
	var d [3]float64
	for k := 0; k < 3; k++ {
		d[k] = p[k] - ref[k]
	}

	if c.orth {
		for k := 0; k < 3; k++ {
			d[k] -= c.side[k] * math.Round(d[k]/c.side[k])
			d[k] += ref[k]
		}
		return d
	}

	s := c.Frac(d)
	for k := 0; k < 3; k++ {
		s[k] -= math.Round(s[k])
	}
	d = c.Cart(s)
	for k := 0; k < 3; k++ {
		d[k] += ref[k]
	}
	return d
}

// ImageDist2 returns the squared distance between p and the closest periodic
// image of q.
func (c *Cell) ImageDist2(p, q [3]float64) float64 {
	if c.orth {
		var dist float64
		for k := 0; k < 3; k++ {
			d := p[k] - q[k]
			d -= c.side[k] * math.Round(d/c.side[k])
			dist += d * d
		}
		return dist
	}

	w := c.Wrap(q, p)
	return Dist2(p, w)
}

// Dist2 returns the squared euclidean distance between two points.
func Dist2(p, q [3]float64) float64 {
	var dist float64
	for k := 0; k < 3; k++ {
		d := p[k] - q[k]
		dist += d * d
	}
	return dist
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
