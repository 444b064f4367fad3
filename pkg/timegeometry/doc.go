// Package timegeometry holds the evenly timed sequence of geometries that
// describes a data object over time.
//
// A Proportional time geometry owns one geometry.Geometry3D per discrete
// time step. Continuous time points map to steps through
//
//	step = floor((t - firstTimePoint) / stepDuration)
//
// with out-of-range results clamped or rejected according to the
// TimePointPolicy. An infinite step duration means every time point maps to
// step 0.
//
// Steps are exclusively owned: SetTimeStepGeometry and InitializeEvenlyTimed
// store clones, and Clone copies every step. Expand only ever appends.
package timegeometry
