package geomxml

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrXMLParse is returned when a document is not well-formed XML or has
	// the wrong root element.
	ErrXMLParse = errors.New("malformed geometry document")

	// ErrXMLSchema is returned when a well-formed element lacks required
	// fields or carries values that do not form a valid geometry.
	ErrXMLSchema = errors.New("incomplete geometry element")

	// ErrStrictDiagnostics is returned in strict mode when decoding produced
	// any diagnostic.
	ErrStrictDiagnostics = errors.New("geometry document has diagnostics")
)

// AttributeError describes a missing or unparsable required attribute.
type AttributeError struct {
	Element   string
	Attribute string
	Err       error
}

func (e *AttributeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: missing attribute %q", e.Element, e.Attribute)
	}
	return fmt.Sprintf("%s: attribute %q: %v", e.Element, e.Attribute, e.Err)
}

// Unwrap exposes ErrXMLSchema and the underlying parse error, if any.
func (e *AttributeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrXMLSchema}
	}
	return []error{ErrXMLSchema, e.Err}
}

// Severity ranks a diagnostic.
type Severity int

const (
	// SeverityWarning marks a recovered problem: a documented default was used.
	SeverityWarning Severity = iota
	// SeverityError marks an element that could not be decoded and was skipped.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal finding recorded while decoding.
type Diagnostic struct {
	Severity Severity
	Element  string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Element, d.Message)
}

// Diagnostics is the ordered list of findings of one decode.
type Diagnostics []Diagnostic

func (ds *Diagnostics) warn(element, format string, args ...any) {
	*ds = append(*ds, Diagnostic{Severity: SeverityWarning, Element: element, Message: fmt.Sprintf(format, args...)})
}

func (ds *Diagnostics) fail(element string, err error) {
	*ds = append(*ds, Diagnostic{Severity: SeverityError, Element: element, Message: err.Error()})
}

// Count returns the number of diagnostics with the given severity.
func (ds Diagnostics) Count(s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Err returns nil for an empty list and an error wrapping
// ErrStrictDiagnostics otherwise. Strict callers use it to reject any
// recovered document.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	msgs := make([]string, len(ds))
	for i, d := range ds {
		msgs[i] = d.String()
	}
	return fmt.Errorf("%w: %s", ErrStrictDiagnostics, strings.Join(msgs, "; "))
}
