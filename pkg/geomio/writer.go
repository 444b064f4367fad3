package geomio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"geomdata/internal/logging"
	"geomdata/pkg/basedata"
	"geomdata/pkg/config"
	"geomdata/pkg/geometry"
	"geomdata/pkg/geomxml"
	"geomdata/pkg/timegeometry"
)

// Writer encodes the time geometries of data objects into one document.
type Writer struct {
	// Logger receives progress records. Nil discards them.
	Logger *slog.Logger
	// Precision is the number of significant digits; zero selects
	// geomxml.DefaultPrecision.
	Precision int
	// Name is recorded in the <Version Writer> attribute.
	Name string
}

// NewWriter builds a writer from the codec section of cfg.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{Logger: logger, Precision: cfg.Codec.Precision, Name: cfg.Codec.WriterName}
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger == nil {
		return logging.Discard()
	}
	return w.Logger
}

// Encode writes one document holding the time geometry of every object.
// Each object is refreshed first so derived state is current.
func (w *Writer) Encode(dst io.Writer, data ...basedata.Data) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: nothing to write", geometry.ErrInvalidArgument)
	}
	tgs := make([]*timegeometry.Proportional, 0, len(data))
	for i, d := range data {
		tg, err := basedata.UpdatedTimeGeometry(d)
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		if tg == nil {
			return fmt.Errorf("%w: object %d has no time geometry", geometry.ErrInvalidArgument, i)
		}
		tgs = append(tgs, tg)
	}
	return geomxml.WriteDocument(dst, tgs, geomxml.EncodeOptions{Precision: w.Precision, Writer: w.Name})
}

// WriteFile replaces path with the encoded document. The write happens under
// an exclusive lock into a temporary file that is renamed over path, so
// readers never see a partial document.
func (w *Writer) WriteFile(ctx context.Context, path string, data ...basedata.Data) error {
	var buf bytes.Buffer
	if err := w.Encode(&buf, data...); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(lockPath(path))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire write lock for %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("acquire write lock for %s: not acquired", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	committed = true

	w.logger().Info("geometry file written", "path", path, "objects", len(data), "bytes", buf.Len())
	return nil
}
