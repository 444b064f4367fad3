package geomxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"geomdata/pkg/timegeometry"
)

// FileVersion is the format version written to <Version FileVersion>.
const FileVersion = 1

// EncodeOptions controls document encoding.
type EncodeOptions struct {
	// Precision is the number of significant digits; zero selects DefaultPrecision.
	Precision int
	// Writer names the producing program in the <Version> element.
	Writer string
}

// EncodeDocument builds a <GeometryData> document holding every time geometry.
func EncodeDocument(tgs []*timegeometry.Proportional, opts EncodeOptions) *Document {
	doc := &Document{
		Version: &VersionElement{Writer: opts.Writer, FileVersion: strconv.Itoa(FileVersion)},
	}
	for _, tg := range tgs {
		doc.TimeGeometries = append(doc.TimeGeometries, EncodeTimeGeometry(tg, opts.Precision))
	}
	return doc
}

// WriteDocument writes the encoded document, with an XML declaration and
// two-space indentation, to w.
func WriteDocument(w io.Writer, tgs []*timegeometry.Proportional, opts EncodeOptions) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(EncodeDocument(tgs, opts)); err != nil {
		return fmt.Errorf("encode geometry document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush geometry document: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}

// ReadDocument parses a <GeometryData> document. Any XML syntax error, a
// different root element, or elements or text after the root fail the whole
// read with ErrXMLParse. Trailing comments and whitespace are allowed.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrXMLParse, err)
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrXMLParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, fmt.Errorf("%w: element <%s> after the %s root", ErrXMLParse, t.Name.Local, tagDocument)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, fmt.Errorf("%w: text after the %s root", ErrXMLParse, tagDocument)
			}
		}
	}
}

// DecodeDocument decodes every <ProportionalTimeGeometry> of doc. Time
// geometries that fail to decode are skipped with an error diagnostic;
// the result may therefore be empty.
func DecodeDocument(doc *Document) ([]*timegeometry.Proportional, Diagnostics) {
	var diags Diagnostics

	switch {
	case doc.Version == nil:
		diags.warn(tagDocument, "missing Version element")
	case doc.Version.FileVersion == "":
		diags.warn(tagDocument, "missing FileVersion")
	default:
		v, err := strconv.Atoi(doc.Version.FileVersion)
		if err != nil {
			diags.warn(tagDocument, "unparsable FileVersion %q", doc.Version.FileVersion)
		} else if v > FileVersion {
			diags.warn(tagDocument, "FileVersion %d is newer than supported version %d", v, FileVersion)
		}
	}

	var out []*timegeometry.Proportional
	for i, el := range doc.TimeGeometries {
		path := fmt.Sprintf("%s/%s[%d]", tagDocument, tagTimeGeometry, i)
		tg, tgDiags, err := DecodeTimeGeometry(el, path)
		diags = append(diags, tgDiags...)
		if err != nil {
			diags.fail(path, err)
			continue
		}
		out = append(out, tg)
	}
	return out, diags
}
