// Package basedata defines the common ancestor of all spatial data objects.
//
// Every concrete type embeds Base, which owns a timegeometry.Proportional,
// a PropertyList, the initialisation flag and an optional producing Process.
// Polymorphic operations that need the concrete type (IsEmpty, Clear,
// UpdatedTimeGeometry, CopyInformation) are package functions taking a Data.
//
// # Ownership
//
// AdoptGeometry and AdoptGeometry3D keep the argument by reference.
// AssignClonedGeometry, AssignClonedGeometry3D and AssignClonedGeometryAt
// store deep copies, so the caller keeps no alias into the object.
//
// # Lifecycle
//
// Objects start uninitialised with one empty, evenly timed step. Loading a
// payload marks them initialised; Clear releases the payload and returns
// them to the uninitialised state.
package basedata
