// Package geomxml encodes and decodes geometries in the GeometryData XML
// format:
//
//	<GeometryData>
//	  <Version Writer="..." FileVersion="1"/>
//	  <ProportionalTimeGeometry NumberOfTimeSteps="N" FirstTimePoint=".." StepDuration="..">
//	    <Geometry3D ImageGeometry="true" FrameOfReferenceID="0" TimeStep="0">
//	      <IndexToWorld type="Matrix3x3" m_0_0=".." ... m_2_2=".."/>
//	      <Offset type="Vector3D" x=".." y=".." z=".."/>
//	      <Bounds>
//	        <Min type="Vector3D" x=".." y=".." z=".."/>
//	        <Max type="Vector3D" x=".." y=".." z=".."/>
//	      </Bounds>
//	    </Geometry3D>
//	  </ProportionalTimeGeometry>
//	</GeometryData>
//
// Numbers are written with strconv, which never uses locale-specific
// separators, at DefaultPrecision significant digits.
//
// # Error Handling
//
// Decoding is two-tier. Missing required values (matrix, offset, bounds)
// fail the element with an error wrapping ErrXMLSchema. Missing optional
// values fall back to documented defaults and are reported as Diagnostics,
// which callers may promote to errors with Diagnostics.Err. The package
// never logs.
package geomxml
