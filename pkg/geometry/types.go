package geometry

import (
	"fmt"
	"math"
)

// Point3D is a position, either in index space or in world space.
type Point3D [3]float64

// Vector3D is a displacement in 3D space.
type Vector3D [3]float64

// Matrix3x3 is a row-major 3x3 matrix. Element [r][c] is row r, column c.
type Matrix3x3 [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Matrix3x3 {
	return Matrix3x3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// flat returns the matrix in row-major order, the layout gonum's mat.NewDense expects.
func (m Matrix3x3) flat() []float64 {
	return []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	}
}

// Column returns column c of the matrix, i.e. the world direction of index axis c.
func (m Matrix3x3) Column(c int) Vector3D {
	return Vector3D{m[0][c], m[1][c], m[2][c]}
}

// Norm returns the Euclidean length of the vector.
func (v Vector3D) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Add returns p translated by v.
func (p Point3D) Add(v Vector3D) Point3D {
	return Point3D{p[0] + v[0], p[1] + v[1], p[2] + v[2]}
}

// Bounds is an axis-aligned box in index space laid out as
// [xmin, xmax, ymin, ymax, zmin, zmax].
type Bounds [6]float64

// Validate reports ErrInvalidBounds when any axis has min > max or a NaN component.
func (b Bounds) Validate() error {
	for axis := 0; axis < 3; axis++ {
		lo, hi := b[2*axis], b[2*axis+1]
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
			return fmt.Errorf("%w: axis %d has [%g, %g]", ErrInvalidBounds, axis, lo, hi)
		}
	}
	return nil
}

// Min returns the lower corner of the bounds.
func (b Bounds) Min() Point3D {
	return Point3D{b[0], b[2], b[4]}
}

// Max returns the upper corner of the bounds.
func (b Bounds) Max() Point3D {
	return Point3D{b[1], b[3], b[5]}
}

// BoundsFromMinMax assembles a bounds array from its two corners.
func BoundsFromMinMax(lo, hi Point3D) Bounds {
	return Bounds{lo[0], hi[0], lo[1], hi[1], lo[2], hi[2]}
}
