// Package geomio reads and writes geometry files.
//
// A Reader turns a GeometryData document into one basedata.GeometryData per
// <ProportionalTimeGeometry>. A Writer pulls the refreshed time geometry out
// of any basedata.Data and writes them all into one document.
//
// # Locking
//
// Writers hold an exclusive advisory lock on "<path>.lock" and replace the
// target atomically through a temporary file in the same directory. Readers
// open the target first and then wait for a shared lock, but only when the
// lock file already exists; reading never creates files.
//
// # Logging
//
// Decode diagnostics are logged on the configured *slog.Logger, warnings at
// slog.LevelWarn and skipped elements at slog.LevelError. A nil logger
// discards them. Diagnostics are also returned to the caller.
package geomio
