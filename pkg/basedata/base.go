package basedata

import (
	"errors"
	"fmt"
	"reflect"

	"geomdata/pkg/geometry"
	"geomdata/pkg/timegeometry"
)

// ErrTypeMismatch is returned when an operation pairs data objects of
// different concrete types.
var ErrTypeMismatch = errors.New("data type mismatch")

// Process is the producing step of a data object in a pipeline.
type Process interface {
	UpdateOutputInformation() error
}

// ProcessFunc adapts a function to the Process interface.
type ProcessFunc func() error

// UpdateOutputInformation calls f.
func (f ProcessFunc) UpdateOutputInformation() error {
	return f()
}

// RegionRequester is the region-propagation protocol a pipeline scheduler
// uses to decide whether a data object can be produced without re-running
// upstream steps. It is independent of the geometry model.
type RegionRequester interface {
	SetRequestedRegionToLargestPossibleRegion()
	RequestedRegionIsOutsideOfTheBufferedRegion() bool
	VerifyRequestedRegion() bool
	SetRequestedRegion(other Data) error
}

// Data is implemented by every concrete data type. Concrete types embed
// Base, which supplies BaseData and a default IsEmptyTimeStep.
type Data interface {
	RegionRequester

	// BaseData exposes the shared state embedded in the concrete type.
	BaseData() *Base

	// IsEmptyTimeStep reports whether step carries no payload.
	IsEmptyTimeStep(step int) bool

	// ClearData releases the concrete payload.
	ClearData()
}

// Base is the state shared by all data objects: a time geometry, a property
// list, the initialisation flag and the producing process.
//
// Base must be initialised with InitBase before use. It is not safe for
// concurrent mutation.
type Base struct {
	timeGeometry *timegeometry.Proportional
	properties   *PropertyList
	initialized  bool
	source       Process
	mtime        geometry.TimeStamp
}

// InitBase installs a default single-step time geometry and an empty
// property list. Concrete constructors call it first.
func (b *Base) InitBase() {
	b.timeGeometry = timegeometry.New()
	b.properties = NewPropertyList()
	b.initialized = false
	b.Modified()
}

// BaseData returns b.
func (b *Base) BaseData() *Base {
	return b
}

// Modified bumps the object's own timestamp.
func (b *Base) Modified() {
	b.mtime = geometry.NextTimeStamp()
}

// MTime returns the later of the object's own timestamp and its time
// geometry's timestamp. It has no side effects.
func (b *Base) MTime() geometry.TimeStamp {
	if b.timeGeometry == nil {
		return b.mtime
	}
	return geometry.MaxTimeStamp(b.mtime, b.timeGeometry.MTime())
}

// reconcileMTime runs after the time geometry is replaced so the object's
// own timestamp is never older than the geometry it now owns.
func (b *Base) reconcileMTime() {
	b.Modified()
}

// IsInitialized reports whether the object carries a meaningful payload.
func (b *Base) IsInitialized() bool {
	return b.initialized
}

// MarkInitialized records that a concrete type has loaded its payload.
func (b *Base) MarkInitialized() {
	if b.initialized {
		return
	}
	b.initialized = true
	b.Modified()
}

// IsEmptyTimeStep is the default per-step emptiness check: a step is empty
// exactly when the object is uninitialised.
func (b *Base) IsEmptyTimeStep(int) bool {
	return !b.initialized
}

// Properties returns the property list.
func (b *Base) Properties() *PropertyList {
	return b.properties
}

// SetSource records the producing process. Nil detaches the object.
func (b *Base) SetSource(p Process) {
	b.source = p
}

// Source returns the producing process, if any.
func (b *Base) Source() Process {
	return b.source
}

// TimeGeometry returns the owned time geometry as a view. It is nil only
// after the geometry was explicitly cleared.
func (b *Base) TimeGeometry() *timegeometry.Proportional {
	return b.timeGeometry
}

// AdoptGeometry takes tg by reference; the caller must not keep mutating it
// independently. Nil leaves the object without a geometry.
func (b *Base) AdoptGeometry(tg *timegeometry.Proportional) {
	b.timeGeometry = tg
	b.reconcileMTime()
}

// AdoptGeometry3D wraps g, by reference, into a fresh evenly timed
// single-step time geometry. Nil leaves the object without a geometry.
func (b *Base) AdoptGeometry3D(g *geometry.Geometry3D) {
	if g == nil {
		b.AdoptGeometry(nil)
		return
	}
	b.AdoptGeometry(wrapSingleStep(g))
}

// AssignClonedGeometry stores a deep copy of tg. Nil clears the geometry.
func (b *Base) AssignClonedGeometry(tg *timegeometry.Proportional) {
	if tg == nil {
		b.AdoptGeometry(nil)
		return
	}
	b.AdoptGeometry(tg.Clone())
}

// AssignClonedGeometry3D wraps a deep copy of g into a fresh single-step
// time geometry. Nil clears the geometry.
func (b *Base) AssignClonedGeometry3D(g *geometry.Geometry3D) {
	if g == nil {
		b.AdoptGeometry(nil)
		return
	}
	b.AdoptGeometry(wrapSingleStep(g.Clone()))
}

// AssignClonedGeometryAt stores a deep copy of g at an existing time step.
func (b *Base) AssignClonedGeometryAt(g *geometry.Geometry3D, step int) error {
	if b.timeGeometry == nil {
		return fmt.Errorf("%w: object has no time geometry", geometry.ErrInvalidArgument)
	}
	if err := b.timeGeometry.SetTimeStepGeometry(g, step); err != nil {
		return err
	}
	b.reconcileMTime()
	return nil
}

// ClearGeometry removes the time geometry. Initialisation state is untouched.
func (b *Base) ClearGeometry() {
	b.AdoptGeometry(nil)
}

func wrapSingleStep(g *geometry.Geometry3D) *timegeometry.Proportional {
	// A single non-nil step with a finite duration cannot fail validation.
	tg, err := timegeometry.NewFromSteps([]*geometry.Geometry3D{g}, 0, 1)
	if err != nil {
		panic(fmt.Sprintf("basedata: wrapping single-step geometry: %v", err))
	}
	tg.UpdateBoundingBox()
	return tg
}

// cloneBase deep-copies the time geometry and the property list. The
// producing process is not copied.
func (b *Base) cloneBase() Base {
	c := Base{
		initialized: b.initialized,
		properties:  b.properties.Clone(),
		mtime:       geometry.NextTimeStamp(),
	}
	if b.timeGeometry != nil {
		c.timeGeometry = b.timeGeometry.Clone()
	}
	return c
}

// IsEmpty reports whether d is uninitialised, has no time geometry, or
// reports every time step as empty.
func IsEmpty(d Data) bool {
	b := d.BaseData()
	if !b.initialized || b.timeGeometry == nil {
		return true
	}
	for step := 0; step < b.timeGeometry.CountTimeSteps(); step++ {
		if !d.IsEmptyTimeStep(step) {
			return false
		}
	}
	return true
}

// UpdateOutputInformation asks the producing process to refresh, then
// refreshes the derived state of the time geometry.
func UpdateOutputInformation(d Data) error {
	b := d.BaseData()
	if b.source != nil {
		if err := b.source.UpdateOutputInformation(); err != nil {
			return fmt.Errorf("update source output information: %w", err)
		}
	}
	if b.timeGeometry != nil {
		b.timeGeometry.UpdateInformation()
	}
	return nil
}

// UpdatedTimeGeometry requests the largest possible region, propagates an
// output-information update and returns the refreshed time geometry.
func UpdatedTimeGeometry(d Data) (*timegeometry.Proportional, error) {
	d.SetRequestedRegionToLargestPossibleRegion()
	if err := UpdateOutputInformation(d); err != nil {
		return nil, err
	}
	return d.BaseData().timeGeometry, nil
}

// Clear returns d to the uninitialised state: the payload is released and
// a default empty time geometry is installed. Clearing an uninitialised
// object does nothing.
func Clear(d Data) {
	b := d.BaseData()
	if !b.initialized {
		return
	}
	d.ClearData()
	b.initialized = false
	b.timeGeometry = timegeometry.New()
	b.Modified()
}

// CopyInformation deep-copies the time geometry and property list of src
// into dst. Both must have the same concrete type.
func CopyInformation(dst, src Data) error {
	if reflect.TypeOf(dst) != reflect.TypeOf(src) {
		return fmt.Errorf("%w: cannot copy information from %T to %T", ErrTypeMismatch, src, dst)
	}
	from, to := src.BaseData(), dst.BaseData()
	to.AssignClonedGeometry(from.timeGeometry)
	to.properties = from.properties.Clone()
	return nil
}
