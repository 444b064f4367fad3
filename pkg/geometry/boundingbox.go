package geometry

import "math"

// BoundingBox is an axis-aligned world-space envelope. The zero value is
// empty and absorbs the first point or box it is extended with.
type BoundingBox struct {
	Min   Point3D
	Max   Point3D
	Valid bool
}

// Include grows the box so that it contains p.
func (b *BoundingBox) Include(p Point3D) {
	if !b.Valid {
		b.Min, b.Max, b.Valid = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Union grows the box so that it contains other. An invalid other is ignored.
func (b *BoundingBox) Union(other BoundingBox) {
	if !other.Valid {
		return
	}
	b.Include(other.Min)
	b.Include(other.Max)
}

// Bounds returns the box in the six-scalar bounds layout.
func (b BoundingBox) Bounds() Bounds {
	return BoundsFromMinMax(b.Min, b.Max)
}

// EqualWithin compares two boxes component-wise with tolerance eps.
func (b BoundingBox) EqualWithin(other BoundingBox, eps float64) bool {
	if b.Valid != other.Valid {
		return false
	}
	if !b.Valid {
		return true
	}
	for i := 0; i < 3; i++ {
		if math.Abs(b.Min[i]-other.Min[i]) > eps || math.Abs(b.Max[i]-other.Max[i]) > eps {
			return false
		}
	}
	return true
}
