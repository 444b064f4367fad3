package basedata

import (
	"maps"
	"slices"

	"geomdata/pkg/geometry"
)

// Property is a single annotation value with an enabled flag.
type Property struct {
	Value   any
	Enabled bool
}

// PropertyList is a key to property annotation store attached to data objects.
type PropertyList struct {
	props map[string]Property
	mtime geometry.TimeStamp
}

// NewPropertyList returns an empty list.
func NewPropertyList() *PropertyList {
	return &PropertyList{
		props: make(map[string]Property),
		mtime: geometry.NextTimeStamp(),
	}
}

// Set stores an enabled property under key.
func (l *PropertyList) Set(key string, value any) {
	l.props[key] = Property{Value: value, Enabled: true}
	l.mtime = geometry.NextTimeStamp()
}

// Get returns the property stored under key.
func (l *PropertyList) Get(key string) (Property, bool) {
	p, ok := l.props[key]
	return p, ok
}

// SetEnabled toggles the enabled flag of an existing property. It reports
// false if no property is stored under key.
func (l *PropertyList) SetEnabled(key string, enabled bool) bool {
	p, ok := l.props[key]
	if !ok {
		return false
	}
	p.Enabled = enabled
	l.props[key] = p
	l.mtime = geometry.NextTimeStamp()
	return true
}

// Delete removes key.
func (l *PropertyList) Delete(key string) {
	if _, ok := l.props[key]; !ok {
		return
	}
	delete(l.props, key)
	l.mtime = geometry.NextTimeStamp()
}

// Keys returns the stored keys in sorted order.
func (l *PropertyList) Keys() []string {
	return slices.Sorted(maps.Keys(l.props))
}

// Len returns the number of stored properties.
func (l *PropertyList) Len() int {
	return len(l.props)
}

// MTime returns the last modification timestamp.
func (l *PropertyList) MTime() geometry.TimeStamp {
	return l.mtime
}

// Clone copies the list. Values are copied by assignment, so reference
// types stored as values remain shared.
func (l *PropertyList) Clone() *PropertyList {
	return &PropertyList{
		props: maps.Clone(l.props),
		mtime: geometry.NextTimeStamp(),
	}
}
