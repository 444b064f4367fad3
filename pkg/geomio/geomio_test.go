package geomio

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"geomdata/pkg/basedata"
	"geomdata/pkg/config"
	"geomdata/pkg/geometry"
	"geomdata/pkg/geomxml"
	"geomdata/pkg/timegeometry"
)

func sampleData(t *testing.T, steps int) *basedata.GeometryData {
	t.Helper()
	template, err := geometry.NewGeometry3DFrom(
		geometry.Matrix3x3{{0.5, 0, 0}, {0, 0.5, 0}, {0, 0, 2}},
		geometry.Vector3D{-10, 4.25, 100},
		geometry.Bounds{0, 256, 0, 256, 0, 40},
	)
	if err != nil {
		t.Fatalf("NewGeometry3DFrom failed: %v", err)
	}
	template.SetImageGeometry(true)
	template.SetFrameOfReferenceID(3)

	tg := timegeometry.New()
	tg.SetFirstTimePoint(0)
	if err := tg.SetStepDuration(250); err != nil {
		t.Fatal(err)
	}
	if err := tg.InitializeEvenlyTimed(template, steps); err != nil {
		t.Fatal(err)
	}
	return basedata.NewGeometryDataFrom(tg)
}

func TestWriteFileThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sample.geom.xml")
	in := sampleData(t, 4)

	w := &Writer{Name: "geomio-test"}
	if err := w.WriteFile(context.Background(), path, in); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	r := &Reader{Policy: timegeometry.StrictTimePoints}
	out, diags, err := r.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("Unexpected diagnostics %v", diags)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(out))
	}
	if !out[0].IsInitialized() || basedata.IsEmpty(out[0]) {
		t.Error("Read object should be initialised and non-empty")
	}
	got := out[0].TimeGeometry()
	if !timegeometry.Equal(in.TimeGeometry(), got, 1e-11) {
		t.Error("Time geometry changed across write and read")
	}
	if got.TimePointPolicy() != timegeometry.StrictTimePoints {
		t.Error("Reader policy was not installed")
	}
	if _, err := got.TimePointToTimeStep(5000); !errors.Is(err, timegeometry.ErrTimePointOutOfRange) {
		t.Errorf("Expected strict mapping error, got %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}
}

func TestWriteMultipleObjects(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{}
	if err := w.Encode(&buf, sampleData(t, 1), sampleData(t, 3)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out, _, err := (&Reader{}).Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(out) != 2 || out[0].TimeGeometry().CountTimeSteps() != 1 || out[1].TimeGeometry().CountTimeSteps() != 3 {
		t.Errorf("Unexpected objects read back")
	}
}

func TestWriterRejectsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := (&Writer{}).Encode(&buf); !errors.Is(err, geometry.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestReaderEmptyResult(t *testing.T) {
	_, _, err := (&Reader{}).Read(strings.NewReader(`<GeometryData><Version FileVersion="1"/></GeometryData>`))
	if !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Expected ErrEmptyResult, got %v", err)
	}
}

func TestReaderMalformed(t *testing.T) {
	_, _, err := (&Reader{}).Read(strings.NewReader(`<GeometryData>`))
	if !errors.Is(err, geomxml.ErrXMLParse) {
		t.Errorf("Expected ErrXMLParse, got %v", err)
	}
}

const recoveredDocument = `<GeometryData>
  <ProportionalTimeGeometry NumberOfTimeSteps="1">
    <Geometry3D TimeStep="0">
      <IndexToWorld type="Matrix3x3" m_0_0="1" m_0_1="0" m_0_2="0" m_1_0="0" m_1_1="1" m_1_2="0" m_2_0="0" m_2_1="0" m_2_2="1"/>
      <Offset type="Vector3D" x="0" y="0" z="0"/>
      <Bounds><Min type="Vector3D" x="0" y="0" z="0"/><Max type="Vector3D" x="1" y="1" z="1"/></Bounds>
    </Geometry3D>
  </ProportionalTimeGeometry>
</GeometryData>`

func TestReaderLogsDiagnostics(t *testing.T) {
	var logs bytes.Buffer
	r := &Reader{Logger: slog.New(slog.NewTextHandler(&logs, nil))}
	out, diags, err := r.Read(strings.NewReader(recoveredDocument))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(out))
	}
	// missing Version, FrameOfReferenceID and ImageGeometry
	if len(diags) != 3 {
		t.Errorf("Expected 3 diagnostics, got %v", diags)
	}
	if n := strings.Count(logs.String(), "level=WARN"); n != 3 {
		t.Errorf("Expected 3 warning records, got %d:\n%s", n, logs.String())
	}
}

func TestReaderStrict(t *testing.T) {
	r := &Reader{Strict: true}
	_, diags, err := r.Read(strings.NewReader(recoveredDocument))
	if !errors.Is(err, geomxml.ErrStrictDiagnostics) {
		t.Errorf("Expected ErrStrictDiagnostics, got %v", err)
	}
	if len(diags) == 0 {
		t.Error("Diagnostics should be returned alongside the strict error")
	}
}

func TestReadFileMissingCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	r := &Reader{}

	for _, path := range []string{
		filepath.Join(dir, "absent.xml"),
		filepath.Join(dir, "nodir", "absent.xml"),
	} {
		_, _, err := r.ReadFile(context.Background(), path)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: expected ErrNotExist, got %v", path, err)
		}
		if err != nil && !strings.Contains(err.Error(), "open geometry file") {
			t.Errorf("%s: expected an open error, got %v", path, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Reading missing files left %d entries behind, first %s", len(entries), entries[0].Name())
	}
}

func TestReadFileWithoutLockFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.xml")
	if err := os.WriteFile(path, []byte(recoveredDocument), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := (&Reader{}).ReadFile(context.Background(), path); err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Reader created a lock file: %v", err)
	}
}

func TestReadFileWaitsForWriterLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.xml")
	if err := (&Writer{}).WriteFile(context.Background(), path, sampleData(t, 1)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	held := flock.New(path + ".lock")
	if err := held.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, _, err := (&Reader{}).ReadFile(ctx, path); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected the read to time out behind the writer lock, got %v", err)
	}

	if err := held.Unlock(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := (&Reader{}).ReadFile(context.Background(), path); err != nil {
		t.Errorf("ReadFile after unlock failed: %v", err)
	}
}

func TestReaderWriterFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Codec.Strict = true
	cfg.Codec.WriterName = "configured"
	cfg.TimeGeometry.TimePointPolicy = "strict"

	r, err := NewReader(cfg, nil)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if !r.Strict || r.Policy != timegeometry.StrictTimePoints {
		t.Errorf("Reader ignored configuration: %+v", r)
	}

	w := NewWriter(cfg, nil)
	var buf bytes.Buffer
	if err := w.Encode(&buf, sampleData(t, 1)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(buf.String(), `Writer="configured"`) {
		t.Errorf("Writer name missing:\n%s", buf.String())
	}

	cfg.TimeGeometry.TimePointPolicy = "bogus"
	if _, err := NewReader(cfg, nil); err == nil {
		t.Error("Expected an error for an unknown policy")
	}
}
