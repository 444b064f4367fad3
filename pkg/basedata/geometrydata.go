package basedata

import (
	"fmt"

	"geomdata/pkg/timegeometry"
)

// GeometryData is a data object whose only payload is its time geometry.
// Readers of geometry files produce it.
type GeometryData struct {
	Base
}

// NewGeometryData returns an uninitialised geometry-only object.
func NewGeometryData() *GeometryData {
	d := &GeometryData{}
	d.InitBase()
	return d
}

// NewGeometryDataFrom adopts tg by reference and marks the object initialised.
func NewGeometryDataFrom(tg *timegeometry.Proportional) *GeometryData {
	d := NewGeometryData()
	d.AdoptGeometry(tg)
	d.MarkInitialized()
	return d
}

// ClearData has nothing to release; the geometry is the payload.
func (d *GeometryData) ClearData() {}

// SetRequestedRegionToLargestPossibleRegion is a no-op: there is no buffer.
func (d *GeometryData) SetRequestedRegionToLargestPossibleRegion() {}

// RequestedRegionIsOutsideOfTheBufferedRegion is always false.
func (d *GeometryData) RequestedRegionIsOutsideOfTheBufferedRegion() bool {
	return false
}

// VerifyRequestedRegion is always true.
func (d *GeometryData) VerifyRequestedRegion() bool {
	return true
}

// SetRequestedRegion accepts only another GeometryData.
func (d *GeometryData) SetRequestedRegion(other Data) error {
	if _, ok := other.(*GeometryData); !ok {
		return fmt.Errorf("%w: requested region from %T", ErrTypeMismatch, other)
	}
	return nil
}

// Clone returns a deep copy.
func (d *GeometryData) Clone() *GeometryData {
	return &GeometryData{Base: d.cloneBase()}
}
