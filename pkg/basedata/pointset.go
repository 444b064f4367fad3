package basedata

import (
	"fmt"
	"slices"

	"geomdata/pkg/geometry"
)

// PointSet is a time-resolved list of world-space points.
type PointSet struct {
	Base

	points [][]geometry.Point3D

	// requested time-step range [requestedStart, requestedEnd)
	requestedStart int
	requestedEnd   int
}

// NewPointSet returns an empty, uninitialised point set with one time step.
func NewPointSet() *PointSet {
	ps := &PointSet{}
	ps.InitBase()
	ps.points = make([][]geometry.Point3D, 1)
	ps.SetRequestedRegionToLargestPossibleRegion()
	return ps
}

// InsertPoint appends p at step, expanding the time geometry when step lies
// beyond the current step count.
func (ps *PointSet) InsertPoint(step int, p geometry.Point3D) error {
	if step < 0 {
		return fmt.Errorf("%w: step %d", geometry.ErrIndexOutOfRange, step)
	}
	tg := ps.TimeGeometry()
	if tg == nil {
		return fmt.Errorf("%w: point set has no time geometry", geometry.ErrInvalidArgument)
	}
	if step >= tg.CountTimeSteps() {
		tg.Expand(step + 1)
	}
	for len(ps.points) <= step {
		ps.points = append(ps.points, nil)
	}
	ps.points[step] = append(ps.points[step], p)
	ps.MarkInitialized()
	ps.Modified()
	return nil
}

// Points returns the points of step. The slice is a copy.
func (ps *PointSet) Points(step int) []geometry.Point3D {
	if step < 0 || step >= len(ps.points) {
		return nil
	}
	return slices.Clone(ps.points[step])
}

// Size returns the number of points at step.
func (ps *PointSet) Size(step int) int {
	if step < 0 || step >= len(ps.points) {
		return 0
	}
	return len(ps.points[step])
}

// IsEmptyTimeStep reports whether step holds no points.
func (ps *PointSet) IsEmptyTimeStep(step int) bool {
	return ps.Size(step) == 0
}

// ClearData drops every point.
func (ps *PointSet) ClearData() {
	ps.points = make([][]geometry.Point3D, 1)
	ps.requestedStart, ps.requestedEnd = 0, 1
}

func (ps *PointSet) stepCount() int {
	if tg := ps.TimeGeometry(); tg != nil {
		return tg.CountTimeSteps()
	}
	return 0
}

// SetRequestedRegionToLargestPossibleRegion requests every time step.
func (ps *PointSet) SetRequestedRegionToLargestPossibleRegion() {
	ps.requestedStart, ps.requestedEnd = 0, ps.stepCount()
}

// RequestedRegionIsOutsideOfTheBufferedRegion reports whether the requested
// steps extend past the stored point lists.
func (ps *PointSet) RequestedRegionIsOutsideOfTheBufferedRegion() bool {
	return ps.requestedStart < 0 || ps.requestedEnd > len(ps.points)
}

// VerifyRequestedRegion checks that the requested steps exist.
func (ps *PointSet) VerifyRequestedRegion() bool {
	return ps.requestedStart >= 0 && ps.requestedStart <= ps.requestedEnd && ps.requestedEnd <= ps.stepCount()
}

// SetRequestedRegion copies the requested step range of another point set.
func (ps *PointSet) SetRequestedRegion(other Data) error {
	o, ok := other.(*PointSet)
	if !ok {
		return fmt.Errorf("%w: requested region from %T", ErrTypeMismatch, other)
	}
	ps.requestedStart, ps.requestedEnd = o.requestedStart, o.requestedEnd
	return nil
}

// RequestedTimeSteps returns the requested step range [start, end).
func (ps *PointSet) RequestedTimeSteps() (int, int) {
	return ps.requestedStart, ps.requestedEnd
}

// Clone returns a deep copy.
func (ps *PointSet) Clone() *PointSet {
	points := make([][]geometry.Point3D, len(ps.points))
	for i, step := range ps.points {
		points[i] = slices.Clone(step)
	}
	return &PointSet{
		Base:           ps.cloneBase(),
		points:         points,
		requestedStart: ps.requestedStart,
		requestedEnd:   ps.requestedEnd,
	}
}
