// Package geometry provides the single-frame spatial model: an affine map
// from index space to world space together with index-space bounds, a
// frame-of-reference identity and the image-grid flag.
//
// # Coordinate Spaces
//
// Index space is the sample grid of the data. World space is the physical
// patient space in millimetres. IndexToWorld applies matrix*p + offset;
// WorldToIndex applies the cached inverse. Bounds are always stored in index
// space as [xmin, xmax, ymin, ymax, zmin, zmax].
//
// When ImageGeometry is set, integer index positions are voxel centres, so
// the world envelope of the bounds extends half a voxel outwards on every
// side (see CornerPoint).
//
// # Error Handling
//
// Setters validate their input synchronously and return ErrInvalidTransform
// or ErrInvalidBounds without touching the previous state.
//
// # Thread Safety
//
// Geometry3D is not safe for concurrent mutation. FrameOfReferenceRegistry
// is safe for concurrent use.
package geometry
