package geomxml

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Tag and attribute names of the geometry file format.
const (
	tagDocument     = "GeometryData"
	tagTimeGeometry = "ProportionalTimeGeometry"
	tagGeometry3D   = "Geometry3D"

	attrNumberOfTimeSteps  = "NumberOfTimeSteps"
	attrFirstTimePoint     = "FirstTimePoint"
	attrStepDuration       = "StepDuration"
	attrImageGeometry      = "ImageGeometry"
	attrFrameOfReferenceID = "FrameOfReferenceID"
	attrTimeStep           = "TimeStep"
	attrType               = "type"

	typeMatrix3x3 = "Matrix3x3"
	typeVector3D  = "Vector3D"
)

// Document is the root <GeometryData> element.
type Document struct {
	XMLName        xml.Name              `xml:"GeometryData"`
	Version        *VersionElement       `xml:"Version"`
	TimeGeometries []TimeGeometryElement `xml:"ProportionalTimeGeometry"`
}

// VersionElement records the producing writer and the format version.
// FileVersion is kept as text so a missing attribute is detectable.
type VersionElement struct {
	Writer      string `xml:"Writer,attr,omitempty"`
	FileVersion string `xml:"FileVersion,attr,omitempty"`
}

// TimeGeometryElement is a <ProportionalTimeGeometry> element.
type TimeGeometryElement struct {
	XMLName    xml.Name            `xml:"ProportionalTimeGeometry"`
	Attrs      []xml.Attr          `xml:",any,attr"`
	Geometries []Geometry3DElement `xml:"Geometry3D"`
}

// Geometry3DElement is a <Geometry3D> element.
type Geometry3DElement struct {
	XMLName      xml.Name       `xml:"Geometry3D"`
	Attrs        []xml.Attr     `xml:",any,attr"`
	IndexToWorld *AttrElement   `xml:"IndexToWorld"`
	Offset       *AttrElement   `xml:"Offset"`
	Bounds       *BoundsElement `xml:"Bounds"`
}

// BoundsElement is the <Bounds> block with its Min and Max corners.
type BoundsElement struct {
	Min *AttrElement `xml:"Min"`
	Max *AttrElement `xml:"Max"`
}

// AttrElement is a leaf element that carries its values as attributes,
// such as <Offset type="Vector3D" x=".." y=".." z=".."/>.
type AttrElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// lookup returns the value of the attribute with local name key.
func lookup(attrs []xml.Attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == key {
			return strings.TrimSpace(a.Value), true
		}
	}
	return "", false
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// formatFloat writes v as locale-independent decimal text with the given
// number of significant digits.
func formatFloat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'g', precision, 64)
}

// formatExact writes the shortest text that parses back to exactly v.
func formatExact(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func matrixKey(r, c int) string {
	return "m_" + strconv.Itoa(r) + "_" + strconv.Itoa(c)
}

var vectorKeys = [3]string{"x", "y", "z"}
