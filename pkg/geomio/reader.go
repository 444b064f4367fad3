package geomio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"geomdata/internal/logging"
	"geomdata/pkg/basedata"
	"geomdata/pkg/config"
	"geomdata/pkg/geomxml"
	"geomdata/pkg/timegeometry"
)

// ErrEmptyResult is returned when a document decodes to no data objects.
var ErrEmptyResult = errors.New("geometry document contains no time geometry")

// lockRetryDelay is the polling interval while waiting for a file lock.
const lockRetryDelay = 50 * time.Millisecond

// Reader decodes geometry documents into data objects.
type Reader struct {
	// Logger receives decode diagnostics. Nil discards them.
	Logger *slog.Logger
	// Strict fails the read when decoding needed any recovery.
	Strict bool
	// Policy is installed on every decoded time geometry.
	Policy timegeometry.TimePointPolicy
}

// NewReader builds a reader from the codec and time geometry sections of cfg.
func NewReader(cfg *config.Config, logger *slog.Logger) (*Reader, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	return &Reader{Logger: logger, Strict: cfg.Codec.Strict, Policy: policy}, nil
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// Read decodes a document from src. Each decoded time geometry is adopted by
// a fresh, initialised GeometryData. Diagnostics are returned even when the
// read fails.
func (r *Reader) Read(src io.Reader) ([]*basedata.GeometryData, geomxml.Diagnostics, error) {
	doc, err := geomxml.ReadDocument(src)
	if err != nil {
		return nil, nil, err
	}

	tgs, diags := geomxml.DecodeDocument(doc)
	r.logDiagnostics(diags)
	if r.Strict {
		if err := diags.Err(); err != nil {
			return nil, diags, err
		}
	}
	if len(tgs) == 0 {
		return nil, diags, ErrEmptyResult
	}

	out := make([]*basedata.GeometryData, len(tgs))
	for i, tg := range tgs {
		tg.SetTimePointPolicy(r.Policy)
		out[i] = basedata.NewGeometryDataFrom(tg)
	}
	return out, diags, nil
}

// ReadFile opens path and reads it under a shared lock. The lock is taken
// only when a writer has already created "<path>.lock"; a reader never
// creates files. Waiting for the lock honours ctx.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]*basedata.GeometryData, geomxml.Diagnostics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open geometry file: %w", err)
	}
	defer f.Close()

	unlock, err := r.sharedLock(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	data, diags, err := r.Read(f)
	if err != nil {
		return nil, diags, fmt.Errorf("read %s: %w", path, err)
	}
	r.logger().Debug("geometry file read", "path", path, "objects", len(data), "diagnostics", len(diags))
	return data, diags, nil
}

// sharedLock waits for a shared lock on an existing lock file. A missing or
// unusable lock file is skipped: writers replace the data file by rename, so
// an open handle always sees a complete document.
func (r *Reader) sharedLock(ctx context.Context, path string) (func(), error) {
	noop := func() {}
	if _, err := os.Stat(lockPath(path)); err != nil {
		return noop, nil
	}

	lock := flock.New(lockPath(path))
	ok, err := lock.TryRLockContext(ctx, lockRetryDelay)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("acquire read lock for %s: %w", path, err)
	case err != nil:
		r.logger().Debug("reading without lock", "path", path, "error", err)
		return noop, nil
	case !ok:
		return nil, fmt.Errorf("acquire read lock for %s: not acquired", path)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (r *Reader) logDiagnostics(diags geomxml.Diagnostics) {
	logger := r.logger()
	for _, d := range diags {
		level := slog.LevelWarn
		if d.Severity == geomxml.SeverityError {
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, d.Message, "element", d.Element)
	}
}

func lockPath(path string) string {
	return path + ".lock"
}
