package geom

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Scale factor applied to the cell when drawing a random center. The
// resulting point is reduced back into the cell by the minimum image
// wrapping performed downstream, which avoids any edge-of-box bias.
const overScale = 100.0

// RotationXYZ returns the proper orthonormal rotation matrix that rotates
// about x by ax, then about y by ay, then about z by az (right handed
// convention, so R = Rz*Ry*Rx).
func RotationXYZ(ax, ay, az float64) *mat.Dense {
	sx, cx := math.Sincos(ax)
	sy, cy := math.Sincos(ay)
	sz, cz := math.Sincos(az)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var ryx, rot mat.Dense
	ryx.Mul(ry, rx)
	rot.Mul(rz, &ryx)
	return &rot
}

// Centroid returns the geometric center of a set of points.
func Centroid(pts [][3]float64) [3]float64 {
	var c [3]float64
	for _, p := range pts {
		for k := 0; k < 3; k++ {
			c[k] += p[k]
		}
	}
	n := float64(len(pts))
	for k := 0; k < 3; k++ {
		c[k] /= n
	}
	return c
}

// RigidTransform rotates pts about their centroid and then translates them by
// trans. The result is stored in dst, which is allocated if nil or too short.
// pts is not modified.
func RigidTransform(dst, pts [][3]float64, rot *mat.Dense, trans [3]float64) [][3]float64 {
	if len(dst) < len(pts) {
		dst = make([][3]float64, len(pts))
	}
	dst = dst[:len(pts)]

	c := Centroid(pts)
	for i, p := range pts {
		var d [3]float64
		for k := 0; k < 3; k++ {
			d[k] = p[k] - c[k]
		}
		for k := 0; k < 3; k++ {
			dst[i][k] = rot.At(k, 0)*d[0] + rot.At(k, 1)*d[1] + rot.At(k, 2)*d[2] +
				c[k] + trans[k]
		}
	}
	return dst
}

// RandomRigidPlacement copies the molecule pts and places it at a random
// position with a random orientation. The molecule is first made whole by
// wrapping every atom around the atom ref, so that a molecule split across a
// periodic boundary is not torn apart by the rotation. The new center is
// drawn uniformly in an oversized copy of the cell and the orientation from
// three uniform angles in [0, 2pi). pts is not modified.
func RandomRigidPlacement(dst, pts [][3]float64, ref int, cell *Cell, rng *rand.Rand) [][3]float64 {
	if len(dst) < len(pts) {
		dst = make([][3]float64, len(pts))
	}
	dst = dst[:len(pts)]

	for i, p := range pts {
		dst[i] = cell.Wrap(p, pts[ref])
	}

	rot := RotationXYZ(
		2*math.Pi*rng.Float64(),
		2*math.Pi*rng.Float64(),
		2*math.Pi*rng.Float64(),
	)

	var s [3]float64
	for k := 0; k < 3; k++ {
		s[k] = (rng.Float64() - 0.5) * overScale
	}
	center := cell.Cart(s)

	c := Centroid(dst)
	var trans [3]float64
	for k := 0; k < 3; k++ {
		trans[k] = center[k] - c[k]
	}

	return RigidTransform(dst, dst, rot, trans)
}
