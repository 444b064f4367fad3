package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SingularityTolerance bounds |det(M)| / (|c0| |c1| |c2|), the volume spanned
// by the matrix columns relative to their lengths. A matrix at or below it is
// treated as singular. The ratio is independent of voxel spacing.
const SingularityTolerance = 1e-12

// Geometry3D is a single affine 3D coordinate frame: a map from index space
// to world space, an index-space bounding box, a frame-of-reference id and a
// flag telling whether index samples are voxel centres on a regular grid.
//
// The zero value is not ready for use; construct with NewGeometry3D or
// NewGeometry3DFrom. Geometry3D is not safe for concurrent mutation.
type Geometry3D struct {
	matrix             Matrix3x3
	offset             Vector3D
	bounds             Bounds
	frameOfReferenceID uint
	imageGeometry      bool
	mtime              TimeStamp

	// inverse caches the inverted matrix; nil means it must be recomputed.
	inverse *mat.Dense
}

// NewGeometry3D returns an empty geometry: identity transform, zero offset
// and zero bounds.
func NewGeometry3D() *Geometry3D {
	return &Geometry3D{
		matrix: Identity(),
		mtime:  NextTimeStamp(),
	}
}

// NewGeometry3DFrom builds a geometry from an explicit transform and bounds.
// It fails with ErrInvalidTransform or ErrInvalidBounds on invalid input.
func NewGeometry3DFrom(matrix Matrix3x3, offset Vector3D, bounds Bounds) (*Geometry3D, error) {
	g := NewGeometry3D()
	if err := g.SetIndexToWorldTransform(matrix, offset); err != nil {
		return nil, err
	}
	if err := g.SetBounds(bounds); err != nil {
		return nil, err
	}
	return g, nil
}

// Modified bumps the modification timestamp.
func (g *Geometry3D) Modified() {
	g.mtime = NextTimeStamp()
}

// MTime returns the last modification timestamp.
func (g *Geometry3D) MTime() TimeStamp {
	return g.mtime
}

// SetIndexToWorldTransform replaces the affine map. A singular matrix is
// rejected with ErrInvalidTransform and the previous transform is kept.
func (g *Geometry3D) SetIndexToWorldTransform(matrix Matrix3x3, offset Vector3D) error {
	for _, v := range matrix.flat() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coefficient %g", ErrInvalidTransform, v)
		}
	}
	for _, v := range offset {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite offset %g", ErrInvalidTransform, v)
		}
	}
	det := mat.Det(mat.NewDense(3, 3, matrix.flat()))
	scale := matrix.Column(0).Norm() * matrix.Column(1).Norm() * matrix.Column(2).Norm()
	if scale == 0 || math.Abs(det) <= SingularityTolerance*scale {
		return fmt.Errorf("%w: determinant %g", ErrInvalidTransform, det)
	}

	g.matrix = matrix
	g.offset = offset
	g.inverse = nil
	g.Modified()
	return nil
}

// Matrix returns the index-to-world matrix.
func (g *Geometry3D) Matrix() Matrix3x3 {
	return g.matrix
}

// Offset returns the index-to-world translation.
func (g *Geometry3D) Offset() Vector3D {
	return g.offset
}

// SetBounds replaces the index-space bounding box.
func (g *Geometry3D) SetBounds(bounds Bounds) error {
	if err := bounds.Validate(); err != nil {
		return err
	}
	g.bounds = bounds
	g.Modified()
	return nil
}

// Bounds returns the index-space bounding box.
func (g *Geometry3D) Bounds() Bounds {
	return g.bounds
}

// SetFrameOfReferenceID assigns the frame-of-reference key. The key is
// resolved to a UID string through a FrameOfReferenceRegistry.
func (g *Geometry3D) SetFrameOfReferenceID(id uint) {
	if g.frameOfReferenceID == id {
		return
	}
	g.frameOfReferenceID = id
	g.Modified()
}

// FrameOfReferenceID returns the frame-of-reference key.
func (g *Geometry3D) FrameOfReferenceID() uint {
	return g.frameOfReferenceID
}

// SetImageGeometry toggles the voxel-grid interpretation of index space.
func (g *Geometry3D) SetImageGeometry(image bool) {
	if g.imageGeometry == image {
		return
	}
	g.imageGeometry = image
	g.Modified()
}

// ImageGeometry reports whether index samples are voxel centres.
func (g *Geometry3D) ImageGeometry() bool {
	return g.imageGeometry
}

// IndexToWorld maps an index-space point to world space.
func (g *Geometry3D) IndexToWorld(p Point3D) Point3D {
	var out mat.VecDense
	out.MulVec(mat.NewDense(3, 3, g.matrix.flat()), mat.NewVecDense(3, []float64{p[0], p[1], p[2]}))
	return Point3D{
		out.AtVec(0) + g.offset[0],
		out.AtVec(1) + g.offset[1],
		out.AtVec(2) + g.offset[2],
	}
}

// WorldToIndex maps a world-space point to index space using the cached
// inverse transform.
func (g *Geometry3D) WorldToIndex(p Point3D) Point3D {
	inv := g.inverseMatrix()
	rel := mat.NewVecDense(3, []float64{p[0] - g.offset[0], p[1] - g.offset[1], p[2] - g.offset[2]})
	var out mat.VecDense
	out.MulVec(inv, rel)
	return Point3D{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

func (g *Geometry3D) inverseMatrix() *mat.Dense {
	if g.inverse != nil {
		return g.inverse
	}
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, g.matrix.flat())); err != nil {
		// An ill-conditioned but non-singular matrix still yields a usable
		// inverse; the determinant gate in SetIndexToWorldTransform rules
		// out the singular case.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			panic(fmt.Sprintf("geometry: inverting validated transform: %v", err))
		}
	}
	g.inverse = &inv
	return g.inverse
}

// Origin returns the world position of index (0,0,0).
func (g *Geometry3D) Origin() Point3D {
	return Point3D{g.offset[0], g.offset[1], g.offset[2]}
}

// Spacing returns the world length of one index step along each axis.
func (g *Geometry3D) Spacing() Vector3D {
	return Vector3D{g.matrix.Column(0).Norm(), g.matrix.Column(1).Norm(), g.matrix.Column(2).Norm()}
}

// Extent returns the index-space size of the bounds along axis.
func (g *Geometry3D) Extent(axis int) float64 {
	return g.bounds[2*axis+1] - g.bounds[2*axis]
}

// ExtentInMM returns the world-space size of the bounds along axis.
func (g *Geometry3D) ExtentInMM(axis int) float64 {
	return g.matrix.Column(axis).Norm() * g.Extent(axis)
}

// Translate moves the geometry by v in world space.
func (g *Geometry3D) Translate(v Vector3D) {
	for i := range g.offset {
		g.offset[i] += v[i]
	}
	g.Modified()
}

// CornerPoint returns corner id (0-7) of the bounds in world space. Bit 2
// of id selects x max, bit 1 y max, bit 0 z max. For image geometries the
// bounds enclose voxel centres, so corners are shifted by half a voxel.
func (g *Geometry3D) CornerPoint(id int) (Point3D, error) {
	if id < 0 || id > 7 {
		return Point3D{}, fmt.Errorf("%w: corner %d, a box has corners 0-7", ErrInvalidArgument, id)
	}
	b := g.bounds
	corner := Point3D{b[0], b[2], b[4]}
	if id&4 != 0 {
		corner[0] = b[1]
	}
	if id&2 != 0 {
		corner[1] = b[3]
	}
	if id&1 != 0 {
		corner[2] = b[5]
	}
	if g.imageGeometry {
		corner = corner.Add(Vector3D{-0.5, -0.5, -0.5})
	}
	return g.IndexToWorld(corner), nil
}

// WorldBoundingBox returns the world-space envelope of the eight corners.
func (g *Geometry3D) WorldBoundingBox() BoundingBox {
	var box BoundingBox
	for id := 0; id < 8; id++ {
		corner, _ := g.CornerPoint(id)
		box.Include(corner)
	}
	return box
}

// Clone returns a deep, independent copy with a fresh timestamp.
func (g *Geometry3D) Clone() *Geometry3D {
	return &Geometry3D{
		matrix:             g.matrix,
		offset:             g.offset,
		bounds:             g.bounds,
		frameOfReferenceID: g.frameOfReferenceID,
		imageGeometry:      g.imageGeometry,
		mtime:              NextTimeStamp(),
	}
}

// Equal reports whether two geometries agree on every numeric field to
// within eps (relative to magnitude for values larger than one) and exactly
// on the frame-of-reference id and image-geometry flag.
func Equal(a, b *Geometry3D, eps float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.frameOfReferenceID != b.frameOfReferenceID || a.imageGeometry != b.imageGeometry {
		return false
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if !closeEnough(a.matrix[r][c], b.matrix[r][c], eps) {
				return false
			}
		}
		if !closeEnough(a.offset[r], b.offset[r], eps) {
			return false
		}
	}
	for i := range a.bounds {
		if !closeEnough(a.bounds[i], b.bounds[i], eps) {
			return false
		}
	}
	return true
}

func closeEnough(x, y, eps float64) bool {
	scale := math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
	return math.Abs(x-y) <= eps*scale
}
