package geomxml

import (
	"cmp"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"geomdata/pkg/geometry"
	"geomdata/pkg/timegeometry"
)

// DefaultPrecision is the number of significant decimal digits written for
// every floating-point value. Decoding an encoded value reproduces it to
// within this precision.
const DefaultPrecision = 12

// EncodeGeometry3D converts g into a <Geometry3D> element without a
// TimeStep attribute. A precision of zero or less selects DefaultPrecision.
func EncodeGeometry3D(g *geometry.Geometry3D, precision int) Geometry3DElement {
	if precision <= 0 {
		precision = DefaultPrecision
	}

	m := g.Matrix()
	matrix := &AttrElement{Attrs: []xml.Attr{attr(attrType, typeMatrix3x3)}}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			matrix.Attrs = append(matrix.Attrs, attr(matrixKey(r, c), formatFloat(m[r][c], precision)))
		}
	}

	o := g.Offset()
	b := g.Bounds()
	return Geometry3DElement{
		Attrs: []xml.Attr{
			attr(attrImageGeometry, strconv.FormatBool(g.ImageGeometry())),
			attr(attrFrameOfReferenceID, strconv.FormatUint(uint64(g.FrameOfReferenceID()), 10)),
		},
		IndexToWorld: matrix,
		Offset:       encodeVector([3]float64(o), precision),
		Bounds: &BoundsElement{
			Min: encodeVector([3]float64(b.Min()), precision),
			Max: encodeVector([3]float64(b.Max()), precision),
		},
	}
}

func encodeVector(v [3]float64, precision int) *AttrElement {
	el := &AttrElement{Attrs: []xml.Attr{attr(attrType, typeVector3D)}}
	for i, key := range vectorKeys {
		el.Attrs = append(el.Attrs, attr(key, formatFloat(v[i], precision)))
	}
	return el
}

// EncodeTimeGeometry converts tg into a <ProportionalTimeGeometry> element
// with one TimeStep-tagged <Geometry3D> child per step. FirstTimePoint is
// omitted while unset and StepDuration while infinite. Both are written in
// shortest exact form; precision applies to the geometry values only.
func EncodeTimeGeometry(tg *timegeometry.Proportional, precision int) TimeGeometryElement {
	if precision <= 0 {
		precision = DefaultPrecision
	}

	n := tg.CountTimeSteps()
	el := TimeGeometryElement{
		Attrs: []xml.Attr{attr(attrNumberOfTimeSteps, strconv.Itoa(n))},
	}
	if first := tg.FirstTimePoint(); first != timegeometry.UnsetTimePoint && !math.IsInf(first, 0) && !math.IsNaN(first) {
		el.Attrs = append(el.Attrs, attr(attrFirstTimePoint, formatExact(first)))
	}
	if d := tg.StepDuration(); !math.IsInf(d, 0) {
		el.Attrs = append(el.Attrs, attr(attrStepDuration, formatExact(d)))
	}
	for step := 0; step < n; step++ {
		child := EncodeGeometry3D(tg.GeometryForTimeStep(step), precision)
		child.Attrs = append(child.Attrs, attr(attrTimeStep, strconv.Itoa(step)))
		el.Geometries = append(el.Geometries, child)
	}
	return el
}

// DecodeGeometry3D rebuilds a geometry from el. Missing or unparsable
// matrix, offset or bounds values fail the whole element with an error
// wrapping ErrXMLSchema; no partial geometry is returned. A missing
// FrameOfReferenceID or ImageGeometry falls back to 0 or false with a warning.
func DecodeGeometry3D(el Geometry3DElement, path string) (*geometry.Geometry3D, Diagnostics, error) {
	var diags Diagnostics
	if path == "" {
		path = tagGeometry3D
	}

	var errs []error
	readNumbers := func(block *AttrElement, name string, keys []string) []float64 {
		values := make([]float64, len(keys))
		if block == nil {
			errs = append(errs, &AttributeError{Element: path + "/" + name, Attribute: keys[0]})
			return values
		}
		for i, key := range keys {
			raw, ok := lookup(block.Attrs, key)
			if !ok {
				errs = append(errs, &AttributeError{Element: path + "/" + name, Attribute: key})
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs = append(errs, &AttributeError{Element: path + "/" + name, Attribute: key, Err: err})
				continue
			}
			values[i] = v
		}
		return values
	}

	matrixKeys := make([]string, 0, 9)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			matrixKeys = append(matrixKeys, matrixKey(r, c))
		}
	}
	mv := readNumbers(el.IndexToWorld, "IndexToWorld", matrixKeys)
	ov := readNumbers(el.Offset, "Offset", vectorKeys[:])
	var minBlock, maxBlock *AttrElement
	if el.Bounds != nil {
		minBlock, maxBlock = el.Bounds.Min, el.Bounds.Max
	}
	lo := readNumbers(minBlock, "Bounds/Min", vectorKeys[:])
	hi := readNumbers(maxBlock, "Bounds/Max", vectorKeys[:])
	if len(errs) > 0 {
		return nil, diags, errors.Join(errs...)
	}

	var m geometry.Matrix3x3
	for i, v := range mv {
		m[i/3][i%3] = v
	}
	g, err := geometry.NewGeometry3DFrom(
		m,
		geometry.Vector3D{ov[0], ov[1], ov[2]},
		geometry.BoundsFromMinMax(geometry.Point3D{lo[0], lo[1], lo[2]}, geometry.Point3D{hi[0], hi[1], hi[2]}),
	)
	if err != nil {
		return nil, diags, fmt.Errorf("%s: %w: %w", path, ErrXMLSchema, err)
	}

	if raw, ok := lookup(el.Attrs, attrFrameOfReferenceID); !ok {
		diags.warn(path, "missing %s, using 0", attrFrameOfReferenceID)
	} else if id, err := strconv.ParseUint(raw, 10, 0); err != nil {
		diags.warn(path, "unparsable %s %q, using 0", attrFrameOfReferenceID, raw)
	} else {
		g.SetFrameOfReferenceID(uint(id))
	}

	if raw, ok := lookup(el.Attrs, attrImageGeometry); !ok {
		diags.warn(path, "missing %s, using false", attrImageGeometry)
	} else if image, err := strconv.ParseBool(raw); err != nil {
		diags.warn(path, "unparsable %s %q, using false", attrImageGeometry, raw)
	} else {
		g.SetImageGeometry(image)
	}

	return g, diags, nil
}

// decodedStep is one successfully decoded child awaiting renumbering.
type decodedStep struct {
	key  int
	geom *geometry.Geometry3D
}

// DecodeTimeGeometry rebuilds a time geometry from el.
//
// Children are keyed by their TimeStep attribute. Children without a usable
// TimeStep get synthetic negative keys that keep document order and sort
// before every indexed child. Duplicate keys are all kept, in document
// order. Children that fail to decode are skipped with an error diagnostic.
// The surviving children are renumbered densely from 0 in key order, and the
// bounding box is computed once at the end.
func DecodeTimeGeometry(el TimeGeometryElement, path string) (*timegeometry.Proportional, Diagnostics, error) {
	var diags Diagnostics
	if path == "" {
		path = tagTimeGeometry
	}

	declared := -1
	if raw, ok := lookup(el.Attrs, attrNumberOfTimeSteps); !ok {
		diags.warn(path, "missing %s, inferring from %d children", attrNumberOfTimeSteps, len(el.Geometries))
	} else if n, err := strconv.Atoi(raw); err != nil || n < 0 {
		diags.warn(path, "unparsable %s %q, inferring from children", attrNumberOfTimeSteps, raw)
	} else {
		declared = n
	}

	first := timegeometry.UnsetTimePoint
	if raw, ok := lookup(el.Attrs, attrFirstTimePoint); ok {
		if v, err := strconv.ParseFloat(raw, 64); err != nil || math.IsNaN(v) {
			diags.warn(path, "unparsable %s %q, leaving it unset", attrFirstTimePoint, raw)
		} else {
			first = v
		}
	}

	duration := timegeometry.InfiniteStepDuration
	if raw, ok := lookup(el.Attrs, attrStepDuration); ok {
		if v, err := strconv.ParseFloat(raw, 64); err != nil || math.IsNaN(v) || v <= 0 {
			diags.warn(path, "invalid %s %q, using an infinite duration", attrStepDuration, raw)
		} else {
			duration = v
		}
	}

	keys := make([]int, len(el.Geometries))
	indexed := make([]bool, len(el.Geometries))
	unindexed := 0
	for i, child := range el.Geometries {
		childPath := fmt.Sprintf("%s/%s[%d]", path, tagGeometry3D, i)
		raw, ok := lookup(child.Attrs, attrTimeStep)
		if !ok {
			diags.warn(childPath, "missing %s, ordering by document position", attrTimeStep)
			unindexed++
			continue
		}
		step, err := strconv.Atoi(raw)
		if err != nil || step < 0 {
			diags.warn(childPath, "invalid %s %q, ordering by document position", attrTimeStep, raw)
			unindexed++
			continue
		}
		keys[i], indexed[i] = step, true
	}
	next := -unindexed
	for i := range keys {
		if !indexed[i] {
			keys[i] = next
			next++
		}
	}

	var steps []decodedStep
	seen := make(map[int]bool)
	for i, child := range el.Geometries {
		childPath := fmt.Sprintf("%s/%s[%d]", path, tagGeometry3D, i)
		g, childDiags, err := DecodeGeometry3D(child, childPath)
		diags = append(diags, childDiags...)
		if err != nil {
			diags.fail(childPath, err)
			continue
		}
		if seen[keys[i]] {
			diags.warn(childPath, "duplicate %s %d, keeping both in document order", attrTimeStep, keys[i])
		}
		seen[keys[i]] = true
		steps = append(steps, decodedStep{key: keys[i], geom: g})
	}

	if len(steps) == 0 {
		return nil, diags, fmt.Errorf("%s: %w: no decodable %s", path, ErrXMLSchema, tagGeometry3D)
	}
	slices.SortStableFunc(steps, func(a, b decodedStep) int { return cmp.Compare(a.key, b.key) })

	if declared >= 0 && declared != len(steps) {
		diags.warn(path, "%s is %d but %d steps were decoded", attrNumberOfTimeSteps, declared, len(steps))
	}

	geoms := make([]*geometry.Geometry3D, len(steps))
	for i, s := range steps {
		geoms[i] = s.geom
	}
	tg, err := timegeometry.NewFromSteps(geoms, first, duration)
	if err != nil {
		return nil, diags, fmt.Errorf("%s: %w: %w", path, ErrXMLSchema, err)
	}
	tg.UpdateBoundingBox()
	return tg, diags, nil
}
