package timegeometry

import (
	"errors"
	"fmt"
	"math"

	"geomdata/pkg/geometry"
)

// UnsetTimePoint marks a first time point that was never assigned.
const UnsetTimePoint = -math.MaxFloat64

// InfiniteStepDuration marks single-step mode: every time point maps to step 0.
var InfiniteStepDuration = math.Inf(1)

// ErrTimePointOutOfRange is returned under StrictTimePoints when a time
// point falls outside [MinimumTimePoint, MaximumTimePoint).
var ErrTimePointOutOfRange = errors.New("time point out of range")

// TimePointPolicy decides what happens to time points outside the covered range.
type TimePointPolicy int

const (
	// ClampTimePoints maps out-of-range time points to the nearest valid step.
	ClampTimePoints TimePointPolicy = iota
	// StrictTimePoints rejects out-of-range time points.
	StrictTimePoints
)

func (p TimePointPolicy) String() string {
	switch p {
	case ClampTimePoints:
		return "clamp"
	case StrictTimePoints:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseTimePointPolicy converts "clamp" or "strict" to a policy.
func ParseTimePointPolicy(s string) (TimePointPolicy, error) {
	switch s {
	case "clamp", "":
		return ClampTimePoints, nil
	case "strict":
		return StrictTimePoints, nil
	default:
		return ClampTimePoints, fmt.Errorf("%w: time point policy %q", geometry.ErrInvalidArgument, s)
	}
}

// Proportional is an evenly timed sequence of geometries, one per time step.
// Step i covers [first + i*duration, first + (i+1)*duration).
type Proportional struct {
	steps          []*geometry.Geometry3D
	firstTimePoint float64
	stepDuration   float64
	policy         TimePointPolicy
	mtime          geometry.TimeStamp

	boundingBox geometry.BoundingBox
	// boxTime is the latest step timestamp folded into boundingBox.
	boxTime  geometry.TimeStamp
	boxStale bool
}

// New returns a time geometry with one empty step, an unset first time point
// and an infinite step duration.
func New() *Proportional {
	tg := &Proportional{
		steps:          []*geometry.Geometry3D{geometry.NewGeometry3D()},
		firstTimePoint: UnsetTimePoint,
		stepDuration:   InfiniteStepDuration,
		mtime:          geometry.NextTimeStamp(),
	}
	tg.UpdateBoundingBox()
	return tg
}

// NewFromSteps adopts already decoded step geometries without cloning them.
// The bounding box is left stale; callers finish bulk loading with a single
// UpdateBoundingBox.
func NewFromSteps(steps []*geometry.Geometry3D, firstTimePoint, stepDuration float64) (*Proportional, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: time geometry needs at least one step", geometry.ErrInvalidArgument)
	}
	for i, g := range steps {
		if g == nil {
			return nil, fmt.Errorf("%w: step %d is nil", geometry.ErrInvalidArgument, i)
		}
	}
	if err := validateDuration(stepDuration); err != nil {
		return nil, err
	}
	return &Proportional{
		steps:          steps,
		firstTimePoint: firstTimePoint,
		stepDuration:   stepDuration,
		mtime:          geometry.NextTimeStamp(),
		boxStale:       true,
	}, nil
}

func validateDuration(d float64) error {
	if math.IsNaN(d) || d <= 0 {
		return fmt.Errorf("%w: step duration %g must be positive", geometry.ErrInvalidArgument, d)
	}
	return nil
}

// Modified bumps the modification timestamp.
func (tg *Proportional) Modified() {
	tg.mtime = geometry.NextTimeStamp()
}

// MTime returns the later of the container's own timestamp and every step's.
func (tg *Proportional) MTime() geometry.TimeStamp {
	latest := tg.mtime
	for _, g := range tg.steps {
		latest = geometry.MaxTimeStamp(latest, g.MTime())
	}
	return latest
}

// SetFirstTimePoint sets the time point at which step 0 begins.
func (tg *Proportional) SetFirstTimePoint(t float64) {
	tg.firstTimePoint = t
	tg.Modified()
}

// FirstTimePoint returns the first time point, or UnsetTimePoint.
func (tg *Proportional) FirstTimePoint() float64 {
	return tg.firstTimePoint
}

// SetStepDuration sets the uniform step length. Use InfiniteStepDuration for
// single-step mode.
func (tg *Proportional) SetStepDuration(d float64) error {
	if err := validateDuration(d); err != nil {
		return err
	}
	tg.stepDuration = d
	tg.Modified()
	return nil
}

// StepDuration returns the uniform step length.
func (tg *Proportional) StepDuration() float64 {
	return tg.stepDuration
}

// SetTimePointPolicy selects how out-of-range time points are treated.
func (tg *Proportional) SetTimePointPolicy(p TimePointPolicy) {
	tg.policy = p
}

// TimePointPolicy returns the active out-of-range policy.
func (tg *Proportional) TimePointPolicy() TimePointPolicy {
	return tg.policy
}

// CountTimeSteps returns the number of steps.
func (tg *Proportional) CountTimeSteps() int {
	return len(tg.steps)
}

// InitializeEvenlyTimed replaces every step with stepCount clones of template.
// The first time point and step duration default to 0 and 1 unless they were
// set beforehand.
func (tg *Proportional) InitializeEvenlyTimed(template *geometry.Geometry3D, stepCount int) error {
	if template == nil {
		return fmt.Errorf("%w: nil template geometry", geometry.ErrInvalidArgument)
	}
	if stepCount <= 0 {
		return fmt.Errorf("%w: step count %d", geometry.ErrInvalidArgument, stepCount)
	}

	steps := make([]*geometry.Geometry3D, stepCount)
	for i := range steps {
		steps[i] = template.Clone()
	}
	tg.steps = steps
	if tg.firstTimePoint == UnsetTimePoint {
		tg.firstTimePoint = 0
	}
	if math.IsInf(tg.stepDuration, 1) {
		tg.stepDuration = 1
	}
	tg.Modified()
	tg.UpdateBoundingBox()
	return nil
}

// Expand grows the sequence to newStepCount by appending empty geometries.
// Requests that do not grow the sequence are ignored; shrinking never happens.
func (tg *Proportional) Expand(newStepCount int) {
	if newStepCount <= len(tg.steps) {
		return
	}
	for len(tg.steps) < newStepCount {
		tg.steps = append(tg.steps, geometry.NewGeometry3D())
	}
	tg.Modified()
	tg.UpdateBoundingBox()
}

// SetTimeStepGeometry stores a clone of g at step and recomputes the
// bounding box. The caller keeps ownership of g.
func (tg *Proportional) SetTimeStepGeometry(g *geometry.Geometry3D, step int) error {
	if g == nil {
		return fmt.Errorf("%w: nil geometry", geometry.ErrInvalidArgument)
	}
	if !tg.IsValidTimeStep(step) {
		return fmt.Errorf("%w: step %d of %d", geometry.ErrIndexOutOfRange, step, len(tg.steps))
	}
	tg.steps[step] = g.Clone()
	tg.Modified()
	tg.UpdateBoundingBox()
	return nil
}

// IsValidTimeStep reports whether step addresses an existing slot.
func (tg *Proportional) IsValidTimeStep(step int) bool {
	return step >= 0 && step < len(tg.steps)
}

// GeometryForTimeStep returns the geometry owned by slot step, or nil if the
// index is invalid. The result is a view; mutating it mutates the slot.
func (tg *Proportional) GeometryForTimeStep(step int) *geometry.Geometry3D {
	if !tg.IsValidTimeStep(step) {
		return nil
	}
	return tg.steps[step]
}

// GeometryForTimePoint maps t to a step and returns that step's geometry.
// Under StrictTimePoints an out-of-range t yields nil.
func (tg *Proportional) GeometryForTimePoint(t float64) *geometry.Geometry3D {
	step, err := tg.TimePointToTimeStep(t)
	if err != nil {
		return nil
	}
	return tg.GeometryForTimeStep(step)
}

// effectiveFirst treats an unset first time point as 0.
func (tg *Proportional) effectiveFirst() float64 {
	if tg.firstTimePoint == UnsetTimePoint {
		return 0
	}
	return tg.firstTimePoint
}

// TimePointToTimeStep returns floor((t - first) / duration) clamped to the
// valid range, or ErrTimePointOutOfRange under StrictTimePoints.
func (tg *Proportional) TimePointToTimeStep(t float64) (int, error) {
	if math.IsInf(tg.stepDuration, 1) {
		return 0, nil
	}
	last := len(tg.steps) - 1
	if math.IsNaN(t) {
		if tg.policy == StrictTimePoints {
			return 0, fmt.Errorf("%w: NaN", ErrTimePointOutOfRange)
		}
		return 0, nil
	}

	raw := math.Floor((t - tg.effectiveFirst()) / tg.stepDuration)
	switch {
	case raw < 0:
		if tg.policy == StrictTimePoints {
			return 0, fmt.Errorf("%w: %g before %g", ErrTimePointOutOfRange, t, tg.MinimumTimePoint())
		}
		return 0, nil
	case raw > float64(last):
		if tg.policy == StrictTimePoints {
			return last, fmt.Errorf("%w: %g at or after %g", ErrTimePointOutOfRange, t, tg.MaximumTimePoint())
		}
		return last, nil
	}
	return int(raw), nil
}

// TimeStepToTimePoint returns the time point at which step begins.
func (tg *Proportional) TimeStepToTimePoint(step int) (float64, error) {
	if !tg.IsValidTimeStep(step) {
		return 0, fmt.Errorf("%w: step %d of %d", geometry.ErrIndexOutOfRange, step, len(tg.steps))
	}
	if math.IsInf(tg.stepDuration, 1) {
		return tg.MinimumTimePoint(), nil
	}
	return tg.effectiveFirst() + float64(step)*tg.stepDuration, nil
}

// MinimumTimePoint returns the start of step 0. An unbounded geometry
// (infinite duration) starts at -MaxFloat64.
func (tg *Proportional) MinimumTimePoint() float64 {
	if math.IsInf(tg.stepDuration, 1) {
		return -math.MaxFloat64
	}
	return tg.effectiveFirst()
}

// MaximumTimePoint returns the end of the last step.
func (tg *Proportional) MaximumTimePoint() float64 {
	if math.IsInf(tg.stepDuration, 1) {
		return math.MaxFloat64
	}
	return tg.effectiveFirst() + float64(len(tg.steps))*tg.stepDuration
}

// IsValidTimePoint reports whether t lies in [MinimumTimePoint, MaximumTimePoint).
func (tg *Proportional) IsValidTimePoint(t float64) bool {
	if math.IsInf(tg.stepDuration, 1) {
		return !math.IsNaN(t)
	}
	return t >= tg.MinimumTimePoint() && t < tg.MaximumTimePoint()
}

// UpdateBoundingBox recomputes the world envelope of every step.
func (tg *Proportional) UpdateBoundingBox() {
	var box geometry.BoundingBox
	var latest geometry.TimeStamp
	for _, g := range tg.steps {
		box.Union(g.WorldBoundingBox())
		latest = geometry.MaxTimeStamp(latest, g.MTime())
	}
	tg.boundingBox = box
	tg.boxTime = latest
	tg.boxStale = false
}

// UpdateInformation refreshes derived state. It is the hook a data object
// calls when asked to update its output information.
func (tg *Proportional) UpdateInformation() {
	if tg.boundingBoxStale() {
		tg.UpdateBoundingBox()
	}
}

func (tg *Proportional) boundingBoxStale() bool {
	if tg.boxStale {
		return true
	}
	for _, g := range tg.steps {
		if g.MTime() > tg.boxTime {
			return true
		}
	}
	return false
}

// BoundingBox returns the world envelope spanning all steps. A stale cache,
// including one invalidated by mutating a step view, is recomputed first.
func (tg *Proportional) BoundingBox() geometry.BoundingBox {
	if tg.boundingBoxStale() {
		tg.UpdateBoundingBox()
	}
	return tg.boundingBox
}

// Clone returns a deep copy of every step and of the timing parameters.
func (tg *Proportional) Clone() *Proportional {
	steps := make([]*geometry.Geometry3D, len(tg.steps))
	for i, g := range tg.steps {
		steps[i] = g.Clone()
	}
	c := &Proportional{
		steps:          steps,
		firstTimePoint: tg.firstTimePoint,
		stepDuration:   tg.stepDuration,
		policy:         tg.policy,
		mtime:          geometry.NextTimeStamp(),
	}
	c.UpdateBoundingBox()
	return c
}

// Equal reports whether two time geometries have the same timing and
// per-step geometries equal within eps.
func Equal(a, b *Proportional, eps float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.steps) != len(b.steps) {
		return false
	}
	if !sameTime(a.firstTimePoint, b.firstTimePoint, eps) || !sameTime(a.stepDuration, b.stepDuration, eps) {
		return false
	}
	for i := range a.steps {
		if !geometry.Equal(a.steps[i], b.steps[i], eps) {
			return false
		}
	}
	return true
}

func sameTime(x, y, eps float64) bool {
	if x == y {
		return true
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	return math.Abs(x-y) <= eps*math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
}
