package basedata

import (
	"fmt"
	"slices"

	"geomdata/pkg/geometry"
)

// ImageRegion is a box in (x, y, z, t) index space.
type ImageRegion struct {
	Index [4]int
	Size  [4]int
}

// containedIn reports whether r lies entirely inside outer.
func (r ImageRegion) containedIn(outer ImageRegion) bool {
	for i := 0; i < 4; i++ {
		if r.Index[i] < outer.Index[i] || r.Index[i]+r.Size[i] > outer.Index[i]+outer.Size[i] {
			return false
		}
	}
	return true
}

// Volume is a time-resolved scalar image on a regular voxel grid.
type Volume struct {
	Base

	// Width, Height, Depth are the dimensions of one frame in voxels
	Width, Height, Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}

	// frames holds one row-major buffer per time step; nil means not loaded
	frames [][]float64

	requested ImageRegion
}

// NewVolume creates an uninitialised volume with an image geometry whose
// matrix is diag(voxelSize) and whose bounds cover the voxel grid.
func NewVolume(width, height, depth, timeSteps int, voxelSize geometry.Vector3D) (*Volume, error) {
	if width <= 0 || height <= 0 || depth <= 0 || timeSteps <= 0 {
		return nil, fmt.Errorf("%w: volume %dx%dx%d with %d time steps", geometry.ErrInvalidArgument, width, height, depth, timeSteps)
	}
	template, err := geometry.NewGeometry3DFrom(
		geometry.Matrix3x3{{voxelSize[0], 0, 0}, {0, voxelSize[1], 0}, {0, 0, voxelSize[2]}},
		geometry.Vector3D{},
		geometry.Bounds{0, float64(width), 0, float64(height), 0, float64(depth)},
	)
	if err != nil {
		return nil, fmt.Errorf("volume geometry: %w", err)
	}
	template.SetImageGeometry(true)

	v := &Volume{Width: width, Height: height, Depth: depth}
	v.VoxelSize.X, v.VoxelSize.Y, v.VoxelSize.Z = voxelSize[0], voxelSize[1], voxelSize[2]
	v.InitBase()
	if err := v.TimeGeometry().InitializeEvenlyTimed(template, timeSteps); err != nil {
		return nil, err
	}
	v.frames = make([][]float64, timeSteps)
	v.SetRequestedRegionToLargestPossibleRegion()
	return v, nil
}

// SetFrame copies data into the buffer of step. data must hold
// Width*Height*Depth values in row-major (x fastest) order.
func (v *Volume) SetFrame(step int, data []float64) error {
	if step < 0 || step >= len(v.frames) {
		return fmt.Errorf("%w: step %d of %d", geometry.ErrIndexOutOfRange, step, len(v.frames))
	}
	if want := v.Width * v.Height * v.Depth; len(data) != want {
		return fmt.Errorf("%w: frame has %d voxels, want %d", geometry.ErrInvalidArgument, len(data), want)
	}
	v.frames[step] = slices.Clone(data)
	v.MarkInitialized()
	v.Modified()
	return nil
}

// Frame returns the buffer of step, or nil if it is not loaded.
func (v *Volume) Frame(step int) []float64 {
	if step < 0 || step >= len(v.frames) {
		return nil
	}
	return v.frames[step]
}

// At returns the voxel value at (x, y, z) of step.
func (v *Volume) At(step, x, y, z int) (float64, bool) {
	frame := v.Frame(step)
	if frame == nil || x < 0 || y < 0 || z < 0 || x >= v.Width || y >= v.Height || z >= v.Depth {
		return 0, false
	}
	return frame[z*v.Width*v.Height+y*v.Width+x], true
}

// IsEmptyTimeStep reports whether step has no loaded buffer.
func (v *Volume) IsEmptyTimeStep(step int) bool {
	return v.Frame(step) == nil
}

// ClearData releases every frame buffer.
func (v *Volume) ClearData() {
	v.Width, v.Height, v.Depth = 0, 0, 0
	v.frames = make([][]float64, 1)
	v.requested = ImageRegion{}
}

// LargestPossibleRegion covers every voxel of every time step.
func (v *Volume) LargestPossibleRegion() ImageRegion {
	return ImageRegion{Size: [4]int{v.Width, v.Height, v.Depth, len(v.frames)}}
}

// RequestedRegion returns the region downstream consumers asked for.
func (v *Volume) RequestedRegion() ImageRegion {
	return v.requested
}

// SetRequestedRegionToLargestPossibleRegion requests the whole volume.
func (v *Volume) SetRequestedRegionToLargestPossibleRegion() {
	v.requested = v.LargestPossibleRegion()
}

// RequestedRegionIsOutsideOfTheBufferedRegion reports whether any requested
// time step lacks a buffer or the spatial request exceeds the grid.
func (v *Volume) RequestedRegionIsOutsideOfTheBufferedRegion() bool {
	if !v.requested.containedIn(v.LargestPossibleRegion()) {
		return true
	}
	for t := v.requested.Index[3]; t < v.requested.Index[3]+v.requested.Size[3]; t++ {
		if v.frames[t] == nil {
			return true
		}
	}
	return false
}

// VerifyRequestedRegion checks that the requested region is non-negative
// and lies inside the largest possible region.
func (v *Volume) VerifyRequestedRegion() bool {
	for i := 0; i < 4; i++ {
		if v.requested.Size[i] < 0 {
			return false
		}
	}
	return v.requested.containedIn(v.LargestPossibleRegion())
}

// SetRequestedRegion copies the requested region of another volume.
func (v *Volume) SetRequestedRegion(other Data) error {
	o, ok := other.(*Volume)
	if !ok {
		return fmt.Errorf("%w: requested region from %T", ErrTypeMismatch, other)
	}
	v.requested = o.requested
	return nil
}

// SetRequestedImageRegion requests an explicit region.
func (v *Volume) SetRequestedImageRegion(r ImageRegion) {
	v.requested = r
}

// Clone returns a deep copy, including frame buffers.
func (v *Volume) Clone() *Volume {
	frames := make([][]float64, len(v.frames))
	for i, f := range v.frames {
		if f != nil {
			frames[i] = slices.Clone(f)
		}
	}
	c := &Volume{
		Base:      v.cloneBase(),
		Width:     v.Width,
		Height:    v.Height,
		Depth:     v.Depth,
		VoxelSize: v.VoxelSize,
		frames:    frames,
		requested: v.requested,
	}
	return c
}
