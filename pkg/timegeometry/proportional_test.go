package timegeometry

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"geomdata/pkg/geometry"
)

func mustGeometry(t *testing.T, m geometry.Matrix3x3, o geometry.Vector3D, b geometry.Bounds) *geometry.Geometry3D {
	t.Helper()
	g, err := geometry.NewGeometry3DFrom(m, o, b)
	if err != nil {
		t.Fatalf("Failed to build geometry: %v", err)
	}
	return g
}

func randomGeometry(t *testing.T, rng *rand.Rand) *geometry.Geometry3D {
	t.Helper()
	s := 0.5 + rng.Float64()*2
	m := geometry.Matrix3x3{{s, 0.1, 0}, {0, s, 0.2}, {0.05, 0, s}}
	o := geometry.Vector3D{rng.Float64()*200 - 100, rng.Float64()*200 - 100, rng.Float64() * 50}
	b := geometry.Bounds{0, 1 + rng.Float64()*100, -rng.Float64() * 10, rng.Float64() * 10, 0, 1 + rng.Float64()*30}
	g := mustGeometry(t, m, o, b)
	g.SetImageGeometry(rng.IntN(2) == 1)
	return g
}

// oracleBox recomputes the union of every step's world box independently
func oracleBox(tg *Proportional) geometry.BoundingBox {
	var box geometry.BoundingBox
	for i := 0; i < tg.CountTimeSteps(); i++ {
		g := tg.GeometryForTimeStep(i)
		b := g.Bounds()
		for _, x := range []float64{b[0], b[1]} {
			for _, y := range []float64{b[2], b[3]} {
				for _, z := range []float64{b[4], b[5]} {
					p := geometry.Point3D{x, y, z}
					if g.ImageGeometry() {
						p = p.Add(geometry.Vector3D{-0.5, -0.5, -0.5})
					}
					box.Include(g.IndexToWorld(p))
				}
			}
		}
	}
	return box
}

// TestNewHasOneEmptyStep verifies the default construction contract
func TestNewHasOneEmptyStep(t *testing.T) {
	tg := New()

	if tg.CountTimeSteps() != 1 {
		t.Fatalf("Expected 1 step, got %d", tg.CountTimeSteps())
	}
	if tg.FirstTimePoint() != UnsetTimePoint || !math.IsInf(tg.StepDuration(), 1) {
		t.Errorf("Expected sentinel timing, got first=%g duration=%g", tg.FirstTimePoint(), tg.StepDuration())
	}
	for _, tp := range []float64{-1e9, 0, 5, 1e9} {
		if tg.GeometryForTimePoint(tp) != tg.GeometryForTimeStep(0) {
			t.Errorf("Time point %g should map to step 0 in single-step mode", tp)
		}
	}
}

// TestInitializeEvenlyTimed checks cloning, default timing and the zero-count guard
func TestInitializeEvenlyTimed(t *testing.T) {
	template := mustGeometry(t, geometry.Identity(), geometry.Vector3D{1, 2, 3}, geometry.Bounds{0, 10, 0, 10, 0, 10})
	tg := New()

	if err := tg.InitializeEvenlyTimed(template, 0); !errors.Is(err, geometry.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for zero steps, got %v", err)
	}
	if err := tg.InitializeEvenlyTimed(template, 4); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}
	if tg.CountTimeSteps() != 4 {
		t.Fatalf("Expected 4 steps, got %d", tg.CountTimeSteps())
	}
	if tg.FirstTimePoint() != 0 || tg.StepDuration() != 1 {
		t.Errorf("Expected default timing 0/1, got %g/%g", tg.FirstTimePoint(), tg.StepDuration())
	}
	for i := 0; i < 4; i++ {
		g := tg.GeometryForTimeStep(i)
		if g == template {
			t.Fatalf("Step %d aliases the template", i)
		}
		if !geometry.Equal(g, template, 0) {
			t.Errorf("Step %d differs from template", i)
		}
	}
	if tg.GeometryForTimeStep(0) == tg.GeometryForTimeStep(1) {
		t.Error("Steps share storage")
	}

	preset := New()
	preset.SetFirstTimePoint(100)
	if err := preset.SetStepDuration(20); err != nil {
		t.Fatalf("SetStepDuration failed: %v", err)
	}
	if err := preset.InitializeEvenlyTimed(template, 2); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}
	if preset.FirstTimePoint() != 100 || preset.StepDuration() != 20 {
		t.Errorf("Caller timing overwritten: %g/%g", preset.FirstTimePoint(), preset.StepDuration())
	}
}

// TestExpandIsAppendOnly verifies no-op shrink requests and fresh appended steps
func TestExpandIsAppendOnly(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tg := New()
	if err := tg.InitializeEvenlyTimed(randomGeometry(t, rng), 3); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}
	original := []*geometry.Geometry3D{tg.GeometryForTimeStep(0), tg.GeometryForTimeStep(1), tg.GeometryForTimeStep(2)}

	for k := -1; k <= 3; k++ {
		tg.Expand(k)
		if tg.CountTimeSteps() != 3 {
			t.Fatalf("Expand(%d) changed step count to %d", k, tg.CountTimeSteps())
		}
		for i, g := range original {
			if tg.GeometryForTimeStep(i) != g {
				t.Fatalf("Expand(%d) replaced step %d", k, i)
			}
		}
	}

	tg.Expand(7)
	if tg.CountTimeSteps() != 7 {
		t.Fatalf("Expected 7 steps, got %d", tg.CountTimeSteps())
	}
	for i, g := range original {
		if tg.GeometryForTimeStep(i) != g {
			t.Errorf("Step %d replaced by Expand", i)
		}
	}
	empty := geometry.NewGeometry3D()
	for i := 3; i < 7; i++ {
		if !geometry.Equal(tg.GeometryForTimeStep(i), empty, 0) {
			t.Errorf("Appended step %d is not empty", i)
		}
	}
}

// TestSetTimeStepGeometry checks range validation and clone-on-store
func TestSetTimeStepGeometry(t *testing.T) {
	tg := New()
	tg.Expand(2)
	g := mustGeometry(t, geometry.Identity(), geometry.Vector3D{5, 5, 5}, geometry.Bounds{0, 1, 0, 1, 0, 1})

	if err := tg.SetTimeStepGeometry(g, 2); !errors.Is(err, geometry.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if err := tg.SetTimeStepGeometry(g, -1); !errors.Is(err, geometry.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for negative step, got %v", err)
	}
	if err := tg.SetTimeStepGeometry(g, 1); err != nil {
		t.Fatalf("SetTimeStepGeometry failed: %v", err)
	}
	if tg.GeometryForTimeStep(1) == g {
		t.Error("Stored geometry aliases the caller's instance")
	}
	g.Translate(geometry.Vector3D{100, 0, 0})
	if tg.GeometryForTimeStep(1).Offset() != (geometry.Vector3D{5, 5, 5}) {
		t.Error("Caller mutation leaked into the stored step")
	}
	if tg.GeometryForTimeStep(5) != nil {
		t.Error("Expected nil for invalid step index")
	}
}

// TestTimePointMapping compares the mapping against the clamped floor formula
func TestTimePointMapping(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, n := range []int{1, 2, 10} {
		tg := New()
		f := rng.Float64()*20 - 10
		d := 0.25 + rng.Float64()*5
		tg.SetFirstTimePoint(f)
		if err := tg.SetStepDuration(d); err != nil {
			t.Fatalf("SetStepDuration failed: %v", err)
		}
		if err := tg.InitializeEvenlyTimed(randomGeometry(t, rng), n); err != nil {
			t.Fatalf("InitializeEvenlyTimed failed: %v", err)
		}

		for trial := 0; trial < 200; trial++ {
			tp := f + (rng.Float64()*1.6-0.3)*float64(n)*d
			want := int(math.Floor((tp - f) / d))
			want = max(0, min(want, n-1))
			if got := tg.GeometryForTimePoint(tp); got != tg.GeometryForTimeStep(want) {
				t.Fatalf("n=%d t=%g: got step other than %d", n, tp, want)
			}
		}
	}
}

// TestStrictTimePointPolicy checks that strict mode rejects out-of-range queries
func TestStrictTimePointPolicy(t *testing.T) {
	tg := New()
	if err := tg.InitializeEvenlyTimed(geometry.NewGeometry3D(), 3); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}
	tg.SetTimePointPolicy(StrictTimePoints)

	for _, tp := range []float64{-0.1, 3, 10, math.NaN()} {
		if _, err := tg.TimePointToTimeStep(tp); !errors.Is(err, ErrTimePointOutOfRange) {
			t.Errorf("t=%g: expected ErrTimePointOutOfRange, got %v", tp, err)
		}
		if tg.GeometryForTimePoint(tp) != nil {
			t.Errorf("t=%g: expected nil geometry", tp)
		}
	}
	if step, err := tg.TimePointToTimeStep(2.5); err != nil || step != 2 {
		t.Errorf("Expected step 2, got %d (%v)", step, err)
	}
	if tg.MinimumTimePoint() != 0 || tg.MaximumTimePoint() != 3 {
		t.Errorf("Unexpected time range [%g, %g)", tg.MinimumTimePoint(), tg.MaximumTimePoint())
	}
	if tp, _ := tg.TimeStepToTimePoint(2); tp != 2 {
		t.Errorf("Expected step 2 to start at 2, got %g", tp)
	}
}

// TestBoundingBoxConsistency checks the cached box against an oracle after mixed mutations
func TestBoundingBoxConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	tg := New()

	check := func(stage string) {
		t.Helper()
		if got, want := tg.BoundingBox(), oracleBox(tg); !got.EqualWithin(want, 1e-9) {
			t.Fatalf("%s: bounding box %+v, oracle %+v", stage, got, want)
		}
	}

	check("new")
	if err := tg.InitializeEvenlyTimed(randomGeometry(t, rng), 3); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}
	check("initialize")
	for i := 0; i < 10; i++ {
		switch rng.IntN(3) {
		case 0:
			tg.Expand(tg.CountTimeSteps() + 1 + rng.IntN(2))
		case 1:
			if err := tg.SetTimeStepGeometry(randomGeometry(t, rng), rng.IntN(tg.CountTimeSteps())); err != nil {
				t.Fatalf("SetTimeStepGeometry failed: %v", err)
			}
		case 2:
			tg.GeometryForTimeStep(rng.IntN(tg.CountTimeSteps())).Translate(geometry.Vector3D{50, -20, 5})
		}
		check("mutation")
	}
}

// TestCloneIsDeep verifies the clone owns new storage for every step
func TestCloneIsDeep(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 9))
	tg := New()
	if err := tg.InitializeEvenlyTimed(randomGeometry(t, rng), 3); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}
	c := tg.Clone()

	if !Equal(tg, c, 0) {
		t.Fatal("Clone differs from source")
	}
	for i := 0; i < 3; i++ {
		if c.GeometryForTimeStep(i) == tg.GeometryForTimeStep(i) {
			t.Errorf("Step %d shared between clone and source", i)
		}
	}
	c.Expand(5)
	if tg.CountTimeSteps() != 3 {
		t.Error("Expanding the clone changed the source")
	}
}

// TestMTimeFollowsSteps checks that step mutations surface in the container timestamp
func TestMTimeFollowsSteps(t *testing.T) {
	tg := New()
	before := tg.MTime()
	tg.GeometryForTimeStep(0).SetImageGeometry(true)
	if tg.MTime() <= before {
		t.Error("Step mutation not reflected in MTime")
	}
}

// TestNewFromStepsRequiresSteps guards the bulk constructor
func TestNewFromStepsRequiresSteps(t *testing.T) {
	if _, err := NewFromSteps(nil, UnsetTimePoint, InfiniteStepDuration); !errors.Is(err, geometry.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewFromSteps([]*geometry.Geometry3D{geometry.NewGeometry3D()}, 0, -1); !errors.Is(err, geometry.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for negative duration, got %v", err)
	}
	tg, err := NewFromSteps([]*geometry.Geometry3D{geometry.NewGeometry3D(), geometry.NewGeometry3D()}, 0, 2)
	if err != nil {
		t.Fatalf("NewFromSteps failed: %v", err)
	}
	if tg.CountTimeSteps() != 2 || tg.StepDuration() != 2 {
		t.Errorf("Unexpected result: %d steps, duration %g", tg.CountTimeSteps(), tg.StepDuration())
	}
}

// TestParseTimePointPolicy covers the config spellings
func TestParseTimePointPolicy(t *testing.T) {
	if p, err := ParseTimePointPolicy("strict"); err != nil || p != StrictTimePoints {
		t.Errorf("Expected strict, got %v (%v)", p, err)
	}
	if p, err := ParseTimePointPolicy(""); err != nil || p != ClampTimePoints {
		t.Errorf("Expected clamp default, got %v (%v)", p, err)
	}
	if _, err := ParseTimePointPolicy("wrap"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
